// Package authz enforces administrator privilege on restricted mutations
// and records each privileged action in the append-only admin logs. Both the
// check and the log write run on the caller's transaction so a concurrent
// demotion cannot race a pending privileged write.
package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/atrium-app/atrium/internal/shared"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// RequireAdmin verifies the acting user holds the administrator flag.
// Returns an unknown-user rejection when the user does not exist and a
// not-authorized rejection when the flag is unset.
func RequireAdmin(ctx context.Context, db DBTX, userID uuid.UUID) error {
	var isAdmin bool
	err := db.QueryRow(ctx, `SELECT "isAdmin" FROM "Users" WHERE "userID" = $1`, userID).Scan(&isAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.Reject(shared.ReasonUnknownUser, "user does not exist")
	}
	if err != nil {
		return shared.Infra(err)
	}
	if !isAdmin {
		return shared.Reject(shared.ReasonNotAuthorized, "administrator privilege required")
	}
	return nil
}

// RoomSnapshot is the operation payload recorded alongside each privileged
// room mutation.
type RoomSnapshot struct {
	RoomID   uuid.UUID
	RoomName string
	Capacity int
}

// RecordAdd appends an AdminAddLog row for a successful room addition.
func RecordAdd(ctx context.Context, db DBTX, actorID uuid.UUID, snap RoomSnapshot) error {
	return record(ctx, db, `"AdminAddLog"`, actorID, snap)
}

// RecordEdit appends an AdminEditLog row for a successful room edit.
func RecordEdit(ctx context.Context, db DBTX, actorID uuid.UUID, snap RoomSnapshot) error {
	return record(ctx, db, `"AdminEditLog"`, actorID, snap)
}

// RecordDelete appends an AdminDeleteLog row for a successful room deletion.
func RecordDelete(ctx context.Context, db DBTX, actorID uuid.UUID, snap RoomSnapshot) error {
	return record(ctx, db, `"AdminDeleteLog"`, actorID, snap)
}

func record(ctx context.Context, db DBTX, table string, actorID uuid.UUID, snap RoomSnapshot) error {
	_, err := db.Exec(ctx,
		`INSERT INTO `+table+` ("userID", "roomID", "roomName", "capacity") VALUES ($1, $2, $3, $4)`,
		actorID, snap.RoomID, snap.RoomName, snap.Capacity)
	return shared.Infra(err)
}
