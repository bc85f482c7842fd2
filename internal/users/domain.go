// Package users handles accounts: signup, login, credential updates, and
// the admin activity log.
package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/atrium-app/atrium/internal/shared"
)

// User is an account row. PasswordHash never leaves this package.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// AdminLogEntry is one privileged room mutation, merged from the three
// operation-specific log tables.
type AdminLogEntry struct {
	LogID     uuid.UUID
	Operation string // "add", "edit" or "delete"
	UserID    uuid.UUID
	RoomID    uuid.UUID
	RoomName  string
	Capacity  int
	LoggedAt  time.Time
}

var (
	ErrMissingFields      = shared.Reject(shared.ReasonInvalidInput, "missing required fields")
	ErrUnknownUser        = shared.Reject(shared.ReasonUnknownUser, "user does not exist")
	ErrDuplicateUsername  = shared.Reject(shared.ReasonDuplicateUsername, "username is already taken")
	ErrDuplicateEmail     = shared.Reject(shared.ReasonInvalidInput, "email is already registered")
	ErrInvalidCredentials = shared.Reject(shared.ReasonNotAuthorized, "invalid credentials")
)
