package rooms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-app/atrium/internal/authz"
	"github.com/atrium-app/atrium/internal/platform/db"
	"github.com/atrium-app/atrium/internal/shared"
)

// Repository persists the room catalog in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	db   authz.DBTX
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

var _ RepositoryPort = (*Repository)(nil)

// WithTx runs fn inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &Repository{pool: r.pool, db: tx})
	})
	return classify(err)
}

// RequireAdmin delegates to the authz guard on this transaction.
func (r *Repository) RequireAdmin(ctx context.Context, userID uuid.UUID) error {
	return authz.RequireAdmin(ctx, r.db, userID)
}

// ListByBuilding returns the rooms of a building ordered by name.
func (r *Repository) ListByBuilding(ctx context.Context, buildingID uuid.UUID) ([]Room, error) {
	rows, err := r.db.Query(ctx, `
		SELECT "roomID", "roomName", "capacity", "buildingID"
		FROM "Rooms" WHERE "buildingID" = $1 ORDER BY "roomName"`, buildingID)
	if err != nil {
		return nil, shared.Infra(err)
	}
	defer rows.Close()
	return scanRooms(rows)
}

// SearchAvailable lists rooms matching the filter with no overlapping
// non-cancelled booking in the window. An instantaneous window (start equal
// to end) matches bookings in progress at that moment.
func (r *Repository) SearchAvailable(ctx context.Context, filter SearchFilter) ([]Room, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.BuildingID != nil {
		conds = append(conds, `r."buildingID" = `+arg(*filter.BuildingID))
	}
	if name := strings.TrimSpace(filter.Name); name != "" {
		conds = append(conds, `r."roomName" ILIKE `+arg("%"+name+"%"))
	}
	if filter.MinCapacity != nil {
		conds = append(conds, `r."capacity" >= `+arg(*filter.MinCapacity))
	}
	if filter.MaxCapacity != nil {
		conds = append(conds, `r."capacity" <= `+arg(*filter.MaxCapacity))
	}

	conds = append(conds, occupiedCond(arg, filter))

	query := `SELECT r."roomID", r."roomName", r."capacity", r."buildingID" FROM "Rooms" r`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY r."roomName"`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.Infra(err)
	}
	defer rows.Close()
	return scanRooms(rows)
}

// occupiedCond builds the NOT EXISTS clause excluding rooms with a
// non-cancelled booking overlapping the window. Intervals are half-open, so
// a booking starting exactly at the window end does not conflict. The
// instantaneous window (start equal to end) is the exception: it alone uses
// an inclusive start comparison so a booking beginning at that exact moment
// still counts as in progress.
func occupiedCond(arg func(any) string, filter SearchFilter) string {
	startOp := "<"
	if filter.Start != nil && filter.End != nil && filter.Start.Equal(*filter.End) {
		startOp = "<="
	}
	return fmt.Sprintf(`NOT EXISTS (
		SELECT 1 FROM "Bookings" b
		WHERE b."roomID" = r."roomID"
		  AND NOT b."cancelled"
		  AND b."startTime" %s %s
		  AND %s < b."endTime"
	)`, startOp, arg(filter.End), arg(filter.Start))
}

// GetRoom loads a room by id.
func (r *Repository) GetRoom(ctx context.Context, roomID uuid.UUID) (Room, error) {
	var room Room
	err := r.db.QueryRow(ctx, `
		SELECT "roomID", "roomName", "capacity", "buildingID"
		FROM "Rooms" WHERE "roomID" = $1`, roomID).
		Scan(&room.ID, &room.Name, &room.Capacity, &room.BuildingID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Room{}, ErrUnknownRoom
	}
	return room, shared.Infra(err)
}

// InsertRoom writes a new room and returns its generated id.
func (r *Repository) InsertRoom(ctx context.Context, room Room) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `
		INSERT INTO "Rooms" ("roomName", "capacity", "buildingID")
		VALUES ($1, $2, $3)
		RETURNING "roomID"`, room.Name, room.Capacity, room.BuildingID).Scan(&id)
	if err != nil {
		return uuid.Nil, classify(err)
	}
	return id, nil
}

// UpdateRoom renames or resizes a room.
func (r *Repository) UpdateRoom(ctx context.Context, room Room) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE "Rooms" SET "roomName" = $2, "capacity" = $3 WHERE "roomID" = $1`,
		room.ID, room.Name, room.Capacity)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUnknownRoom
	}
	return nil
}

// DeleteRoom removes a room.
func (r *Repository) DeleteRoom(ctx context.Context, roomID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM "Rooms" WHERE "roomID" = $1`, roomID)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUnknownRoom
	}
	return nil
}

// LogAdd appends the AdminAddLog row for this transaction.
func (r *Repository) LogAdd(ctx context.Context, actorID uuid.UUID, room Room) error {
	return authz.RecordAdd(ctx, r.db, actorID, snapshot(room))
}

// LogEdit appends the AdminEditLog row for this transaction.
func (r *Repository) LogEdit(ctx context.Context, actorID uuid.UUID, room Room) error {
	return authz.RecordEdit(ctx, r.db, actorID, snapshot(room))
}

// LogDelete appends the AdminDeleteLog row for this transaction.
func (r *Repository) LogDelete(ctx context.Context, actorID uuid.UUID, room Room) error {
	return authz.RecordDelete(ctx, r.db, actorID, snapshot(room))
}

func snapshot(room Room) authz.RoomSnapshot {
	return authz.RoomSnapshot{RoomID: room.ID, RoomName: room.Name, Capacity: room.Capacity}
}

func scanRooms(rows pgx.Rows) ([]Room, error) {
	var rooms []Room
	for rows.Next() {
		var room Room
		if err := rows.Scan(&room.ID, &room.Name, &room.Capacity, &room.BuildingID); err != nil {
			return nil, shared.Infra(err)
		}
		rooms = append(rooms, room)
	}
	return rooms, shared.Infra(rows.Err())
}

// classify maps constraint violations to stable rejections: the per-building
// room name uniqueness becomes duplicate_name, foreign keys become the
// matching validation rejection.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.ConstraintName {
		case "rooms_building_name_key":
			return ErrDuplicateName
		case "rooms_buildingid_fkey":
			return ErrUnknownBuilding
		case "bookings_roomid_fkey":
			return ErrRoomInUse
		}
	}
	return shared.Infra(err)
}
