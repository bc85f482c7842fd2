package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-app/atrium/internal/authz"
	"github.com/atrium-app/atrium/internal/platform/db"
	"github.com/atrium-app/atrium/internal/shared"
)

// Repository persists bookings in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
	db   authz.DBTX
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, db: pool}
}

var _ RepositoryPort = (*Repository)(nil)

// WithTx runs fn inside a repeatable-read transaction. Exclusion-constraint
// violations raised at commit are classified into the matching conflict
// rejection, never surfaced raw.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &Repository{pool: r.pool, db: tx})
	})
	return classify(err)
}

// LockRoom takes a row lock on the room so concurrent booking attempts for
// the same room serialise behind this transaction.
func (r *Repository) LockRoom(ctx context.Context, roomID uuid.UUID) error {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT "roomID" FROM "Rooms" WHERE "roomID" = $1 FOR UPDATE`, roomID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUnknownRoom
	}
	return shared.Infra(err)
}

// MissingUsers returns the subset of userIDs with no Users row.
func (r *Repository) MissingUsers(ctx context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT "userID" FROM "Users" WHERE "userID" = ANY($1)`, userIDs)
	if err != nil {
		return nil, shared.Infra(err)
	}
	defer rows.Close()

	found := make(map[uuid.UUID]struct{}, len(userIDs))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, shared.Infra(err)
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Infra(err)
	}

	var missing []uuid.UUID
	for _, id := range userIDs {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// RoomHasOverlap reports whether any non-cancelled booking on the room
// overlaps the half-open interval [start, end).
func (r *Repository) RoomHasOverlap(ctx context.Context, roomID uuid.UUID, start, end time.Time) (bool, error) {
	var conflict bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM "Bookings"
			WHERE "roomID" = $1
			  AND NOT "cancelled"
			  AND "startTime" < $3
			  AND $2 < "endTime"
		)`, roomID, start, end).Scan(&conflict)
	return conflict, shared.Infra(err)
}

// OverlappingUsers returns the users among userIDs that already attend a
// non-cancelled booking overlapping [start, end), in any role.
func (r *Repository) OverlappingUsers(ctx context.Context, userIDs []uuid.UUID, start, end time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT "userID" FROM "BookingParticipants"
		WHERE "userID" = ANY($1)
		  AND NOT "cancelled"
		  AND "startTime" < $3
		  AND $2 < "endTime"`, userIDs, start, end)
	if err != nil {
		return nil, shared.Infra(err)
	}
	defer rows.Close()

	var busy []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, shared.Infra(err)
		}
		busy = append(busy, id)
	}
	return busy, shared.Infra(rows.Err())
}

// InsertBooking writes the booking row and returns its generated id.
func (r *Repository) InsertBooking(ctx context.Context, input BookingInput) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `
		INSERT INTO "Bookings" ("roomID", "userID", "startTime", "endTime")
		VALUES ($1, $2, $3, $4)
		RETURNING "bookingID"`,
		input.RoomID, input.UserID, input.StartTime, input.EndTime).Scan(&id)
	if err != nil {
		return uuid.Nil, classify(err)
	}
	return id, nil
}

// InsertParticipants writes one attendee row per user, carrying the booking
// interval for the user-level exclusion constraint.
func (r *Repository) InsertParticipants(ctx context.Context, bookingID uuid.UUID, userIDs []uuid.UUID, start, end time.Time) error {
	for _, userID := range userIDs {
		_, err := r.db.Exec(ctx, `
			INSERT INTO "BookingParticipants" ("bookingID", "userID", "startTime", "endTime")
			VALUES ($1, $2, $3, $4)`, bookingID, userID, start, end)
		if err != nil {
			return classify(err)
		}
	}
	return nil
}

// GetBookingForUpdate loads a booking with its participant set, locking the
// booking row.
func (r *Repository) GetBookingForUpdate(ctx context.Context, bookingID uuid.UUID) (Booking, error) {
	var b Booking
	err := r.db.QueryRow(ctx, `
		SELECT "bookingID", "roomID", "userID", "startTime", "endTime", "cancelled", "createdAt"
		FROM "Bookings" WHERE "bookingID" = $1 FOR UPDATE`, bookingID).
		Scan(&b.ID, &b.RoomID, &b.UserID, &b.StartTime, &b.EndTime, &b.Cancelled, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Booking{}, ErrNotFound
	}
	if err != nil {
		return Booking{}, shared.Infra(err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT "userID" FROM "BookingParticipants" WHERE "bookingID" = $1`, bookingID)
	if err != nil {
		return Booking{}, shared.Infra(err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return Booking{}, shared.Infra(err)
		}
		b.Participants = append(b.Participants, id)
	}
	return b, shared.Infra(rows.Err())
}

// MarkCancelled flips the booking and its participant rows to cancelled.
func (r *Repository) MarkCancelled(ctx context.Context, bookingID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `UPDATE "Bookings" SET "cancelled" = true WHERE "bookingID" = $1`, bookingID); err != nil {
		return shared.Infra(err)
	}
	_, err := r.db.Exec(ctx, `UPDATE "BookingParticipants" SET "cancelled" = true WHERE "bookingID" = $1`, bookingID)
	return shared.Infra(err)
}

// InsertCancellation appends the cancellation record.
func (r *Repository) InsertCancellation(ctx context.Context, bookingID, userID uuid.UUID, at time.Time, reason string) (uuid.UUID, error) {
	var id uuid.UUID
	var reasonArg any
	if reason != "" {
		reasonArg = reason
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO "Cancellations" ("bookingID", "userID", "cancelledAt", "reason")
		VALUES ($1, $2, $3, $4)
		RETURNING "cancellationID"`, bookingID, userID, at, reasonArg).Scan(&id)
	if err != nil {
		return uuid.Nil, classify(err)
	}
	return id, nil
}

// IsAdmin reports whether the user carries the administrator flag.
func (r *Repository) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	err := authz.RequireAdmin(ctx, r.db, userID)
	if err == nil {
		return true, nil
	}
	if rej, ok := shared.AsRejection(err); ok && rej.Code == shared.ReasonNotAuthorized {
		return false, nil
	}
	return false, err
}

// ListFutureBookings returns the user's non-cancelled bookings starting at or
// after from, earliest first.
func (r *Repository) ListFutureBookings(ctx context.Context, userID uuid.UUID, from time.Time) ([]Booking, error) {
	rows, err := r.db.Query(ctx, `
		SELECT b."bookingID", b."roomID", b."userID", b."startTime", b."endTime", b."cancelled", b."createdAt"
		FROM "Bookings" b
		JOIN "BookingParticipants" p ON p."bookingID" = b."bookingID"
		WHERE p."userID" = $1
		  AND NOT b."cancelled"
		  AND b."startTime" >= $2
		ORDER BY b."startTime" ASC`, userID, from)
	if err != nil {
		return nil, shared.Infra(err)
	}
	defer rows.Close()
	return scanBookings(rows)
}

// ListHistory returns the user's bookings with any cancellation attached,
// most recent first.
func (r *Repository) ListHistory(ctx context.Context, userID uuid.UUID) ([]HistoryEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT b."bookingID", b."roomID", b."userID", b."startTime", b."endTime", b."cancelled", b."createdAt",
		       c."cancellationID", c."userID", c."cancelledAt", c."reason"
		FROM "Bookings" b
		JOIN "BookingParticipants" p ON p."bookingID" = b."bookingID"
		LEFT JOIN "Cancellations" c ON c."bookingID" = b."bookingID"
		WHERE p."userID" = $1
		ORDER BY b."startTime" DESC`, userID)
	if err != nil {
		return nil, shared.Infra(err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var cancelID, cancelUser *uuid.UUID
		var cancelledAt *time.Time
		var reason *string
		err := rows.Scan(
			&e.Booking.ID, &e.Booking.RoomID, &e.Booking.UserID,
			&e.Booking.StartTime, &e.Booking.EndTime, &e.Booking.Cancelled, &e.Booking.CreatedAt,
			&cancelID, &cancelUser, &cancelledAt, &reason)
		if err != nil {
			return nil, shared.Infra(err)
		}
		if cancelID != nil {
			c := Cancellation{ID: *cancelID, BookingID: e.Booking.ID, UserID: *cancelUser, CancelledAt: *cancelledAt}
			if reason != nil {
				c.Reason = *reason
			}
			e.Cancellation = &c
		}
		entries = append(entries, e)
	}
	return entries, shared.Infra(rows.Err())
}

func scanBookings(rows pgx.Rows) ([]Booking, error) {
	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.RoomID, &b.UserID, &b.StartTime, &b.EndTime, &b.Cancelled, &b.CreatedAt); err != nil {
			return nil, shared.Infra(err)
		}
		bookings = append(bookings, b)
	}
	return bookings, shared.Infra(rows.Err())
}

// classify maps constraint violations to business rejections. The exclusion
// constraints are the backstop when two transactions race past the
// application-level overlap check: the losing writer must see the same
// conflict rejection, not a raw storage error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.ConstraintName {
		case "bookings_room_no_overlap":
			return ErrRoomConflict
		case "participants_user_no_overlap":
			return ErrUserConflict
		}
	}
	return shared.Infra(err)
}
