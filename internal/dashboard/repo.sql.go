package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-app/atrium/internal/shared"
)

// Repository runs the aggregation queries against PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

// UserExists reports whether the user row is present.
func (r *Repository) UserExists(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM "Users" WHERE "userID" = $1)`, userID).Scan(&exists)
	return exists, shared.Infra(err)
}

// GetMetrics computes the summary counts in a single aggregation pass over
// the bookings the user attends in any role.
func (r *Repository) GetMetrics(ctx context.Context, userID uuid.UUID, now time.Time) (Metrics, error) {
	var m Metrics
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE NOT b."cancelled" AND b."startTime" >= $2),
			COUNT(*) FILTER (WHERE NOT b."cancelled" AND b."endTime" < $2),
			COUNT(*) FILTER (WHERE b."cancelled"),
			COALESCE(SUM(EXTRACT(EPOCH FROM (b."endTime" - b."startTime")) / 3600.0)
				FILTER (WHERE NOT b."cancelled"), 0)
		FROM "Bookings" b
		JOIN "BookingParticipants" p ON p."bookingID" = b."bookingID"
		WHERE p."userID" = $1`, userID, now).
		Scan(&m.TotalBookings, &m.ActiveBookings, &m.CompletedBookings, &m.CancelledBookings, &m.HoursBooked)
	return m, shared.Infra(err)
}

// GetBookingFrequency buckets bookings per day within the filter range,
// most recent day first. LIMIT NULLIF leaves the result uncapped when no
// limit was requested.
func (r *Repository) GetBookingFrequency(ctx context.Context, userID uuid.UUID, filter FrequencyFilter) ([]FrequencyBucket, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc('day', b."startTime") AS day, COUNT(*)
		FROM "Bookings" b
		JOIN "BookingParticipants" p ON p."bookingID" = b."bookingID"
		WHERE p."userID" = $1
		  AND ($2::timestamptz IS NULL OR b."startTime" >= $2)
		  AND ($3::timestamptz IS NULL OR b."startTime" <= $3)
		GROUP BY day
		ORDER BY day DESC
		LIMIT NULLIF($4::int, 0)`,
		userID, filter.Start, filter.End, filter.Limit)
	if err != nil {
		return nil, shared.Infra(err)
	}
	defer rows.Close()

	var buckets []FrequencyBucket
	for rows.Next() {
		var b FrequencyBucket
		if err := rows.Scan(&b.Day, &b.Count); err != nil {
			return nil, shared.Infra(err)
		}
		buckets = append(buckets, b)
	}
	return buckets, shared.Infra(rows.Err())
}
