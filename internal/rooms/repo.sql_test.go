package rooms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/atrium-app/atrium/internal/shared"
)

// captureDB records the SQL handed to Query so the generated availability
// predicate can be inspected without a live database.
type captureDB struct {
	sql  string
	args []any
}

var errCaptured = errors.New("captured")

func (c *captureDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.sql, c.args = sql, args
	return pgconn.CommandTag{}, errCaptured
}

func (c *captureDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.sql, c.args = sql, args
	return nil, errCaptured
}

func (c *captureDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	c.sql, c.args = sql, args
	return nil
}

func TestSearchAvailableHalfOpenWindow(t *testing.T) {
	capture := &captureDB{}
	repo := &Repository{db: capture}

	start := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 14, 12, 0, 0, 0, time.UTC)
	_, err := repo.SearchAvailable(context.Background(), SearchFilter{Start: &start, End: &end})
	if !errors.Is(err, errCaptured) {
		t.Fatalf("expected captured query error, got %v", err)
	}
	if !strings.Contains(capture.sql, `b."startTime" < $1`) {
		t.Fatalf("real window must compare the booking start strictly, got:\n%s", capture.sql)
	}
	if !strings.Contains(capture.sql, `$2 < b."endTime"`) {
		t.Fatalf("window start must stay strictly before the booking end, got:\n%s", capture.sql)
	}
}

func TestSearchAvailableInstantWindowIncludesStartingBooking(t *testing.T) {
	capture := &captureDB{}
	repo := &Repository{db: capture}

	at := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	_, err := repo.SearchAvailable(context.Background(), SearchFilter{Start: &at, End: &at})
	if !errors.Is(err, errCaptured) {
		t.Fatalf("expected captured query error, got %v", err)
	}
	if !strings.Contains(capture.sql, `b."startTime" <= $1`) {
		t.Fatalf("instantaneous window must include a booking starting at that moment, got:\n%s", capture.sql)
	}
}

func TestClassifyConstraintViolations(t *testing.T) {
	cases := []struct {
		constraint string
		want       error
	}{
		{"rooms_building_name_key", ErrDuplicateName},
		{"rooms_buildingid_fkey", ErrUnknownBuilding},
		{"bookings_roomid_fkey", ErrRoomInUse},
	}
	for _, tc := range cases {
		err := classify(fmt.Errorf("insert: %w", &pgconn.PgError{ConstraintName: tc.constraint}))
		if !errors.Is(err, tc.want) {
			t.Errorf("constraint %s: got %v, want %v", tc.constraint, err, tc.want)
		}
	}

	err := classify(&pgconn.PgError{ConstraintName: "something_else"})
	if !shared.IsInfra(err) {
		t.Fatalf("unrecognized constraint must stay an infrastructure error, got %v", err)
	}
	if classify(nil) != nil {
		t.Fatal("nil must pass through classify unchanged")
	}
}
