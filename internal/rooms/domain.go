// Package rooms manages the room catalog: availability search, listing, and
// the admin-gated add/edit/delete mutations with their audit trail.
package rooms

import (
	"time"

	"github.com/google/uuid"

	"github.com/atrium-app/atrium/internal/shared"
)

// Room is a bookable room within a building.
type Room struct {
	ID         uuid.UUID
	Name       string
	Capacity   int
	BuildingID uuid.UUID
}

// SearchFilter narrows the available-room search. Nil fields are ignored.
// When the time window is absent the search means "available right now".
type SearchFilter struct {
	BuildingID  *uuid.UUID
	Name        string
	MinCapacity *int
	MaxCapacity *int
	Start       *time.Time
	End         *time.Time
}

// AdminLogEntry is one append-only record of a privileged room mutation.
type AdminLogEntry struct {
	LogID    uuid.UUID
	UserID   uuid.UUID
	RoomID   uuid.UUID
	RoomName string
	Capacity int
	LoggedAt time.Time
}

var (
	ErrMissingFields   = shared.Reject(shared.ReasonInvalidInput, "missing required fields")
	ErrUnknownRoom     = shared.Reject(shared.ReasonUnknownRoom, "room does not exist")
	ErrUnknownBuilding = shared.Reject(shared.ReasonInvalidInput, "building does not exist")
	ErrDuplicateName   = shared.Reject(shared.ReasonDuplicateRoomName, "a room with that name already exists in the building")
	ErrRoomInUse       = shared.Reject(shared.ReasonInvalidInput, "room has existing bookings")
)
