package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-app/atrium/internal/authz"
	"github.com/atrium-app/atrium/internal/shared"
)

// Repository persists accounts in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

// CreateUser inserts an account and returns the generated id.
func (r *Repository) CreateUser(ctx context.Context, username, email, passwordHash string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO "Users" ("username", "email", "password")
		VALUES ($1, $2, $3)
		RETURNING "userID"`, username, email, passwordHash).Scan(&id)
	if err != nil {
		return uuid.Nil, classify(err)
	}
	return id, nil
}

// FindByUsername fetches an account by username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `
		SELECT "userID", "username", "email", "password", "isAdmin", "createdAt"
		FROM "Users" WHERE "username" = $1`, username))
}

// GetByID fetches an account by id.
func (r *Repository) GetByID(ctx context.Context, userID uuid.UUID) (User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `
		SELECT "userID", "username", "email", "password", "isAdmin", "createdAt"
		FROM "Users" WHERE "userID" = $1`, userID))
}

func (r *Repository) scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUnknownUser
	}
	if err != nil {
		return User{}, shared.Infra(err)
	}
	return u, nil
}

// UpdateUsername renames an account.
func (r *Repository) UpdateUsername(ctx context.Context, userID uuid.UUID, username string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE "Users" SET "username" = $2 WHERE "userID" = $1`, userID, username)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUnknownUser
	}
	return nil
}

// UpdatePassword stores a new password hash.
func (r *Repository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE "Users" SET "password" = $2 WHERE "userID" = $1`, userID, passwordHash)
	if err != nil {
		return shared.Infra(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUnknownUser
	}
	return nil
}

// RequireAdmin delegates to the authz guard.
func (r *Repository) RequireAdmin(ctx context.Context, userID uuid.UUID) error {
	return authz.RequireAdmin(ctx, r.pool, userID)
}

// ListAdminLog merges the three room mutation logs, most recent first.
func (r *Repository) ListAdminLog(ctx context.Context) ([]AdminLogEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT "logID", 'add' AS "operation", "userID", "roomID", "roomName", "capacity", "loggedAt"
		FROM "AdminAddLog"
		UNION ALL
		SELECT "logID", 'edit', "userID", "roomID", "roomName", "capacity", "loggedAt"
		FROM "AdminEditLog"
		UNION ALL
		SELECT "logID", 'delete', "userID", "roomID", "roomName", "capacity", "loggedAt"
		FROM "AdminDeleteLog"
		ORDER BY "loggedAt" DESC`)
	if err != nil {
		return nil, shared.Infra(err)
	}
	defer rows.Close()

	var out []AdminLogEntry
	for rows.Next() {
		var e AdminLogEntry
		if err := rows.Scan(&e.LogID, &e.Operation, &e.UserID, &e.RoomID, &e.RoomName, &e.Capacity, &e.LoggedAt); err != nil {
			return nil, shared.Infra(err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Infra(err)
	}
	return out, nil
}

func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.ConstraintName {
		case "users_username_key":
			return ErrDuplicateUsername
		case "users_email_key":
			return ErrDuplicateEmail
		}
	}
	return shared.Infra(err)
}
