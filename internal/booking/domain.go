// Package booking implements the reservation engine: overlap and participant
// validation, the cancellation window rule, and the listing queries. All
// write paths run inside a single transaction with the store's exclusion
// constraints as the race-free backstop.
package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/atrium-app/atrium/internal/shared"
)

// Booking is a confirmed room reservation. Immutable after creation except
// through cancellation.
type Booking struct {
	ID           uuid.UUID
	RoomID       uuid.UUID
	UserID       uuid.UUID
	StartTime    time.Time
	EndTime      time.Time
	Cancelled    bool
	CreatedAt    time.Time
	Participants []uuid.UUID
}

// Cancellation records who cancelled a booking and when.
type Cancellation struct {
	ID          uuid.UUID
	BookingID   uuid.UUID
	UserID      uuid.UUID
	CancelledAt time.Time
	Reason      string
}

// HistoryEntry pairs a booking with its cancellation, when one exists.
type HistoryEntry struct {
	Booking      Booking
	Cancellation *Cancellation
}

// BookingInput carries a booking request into the engine.
type BookingInput struct {
	UserID       uuid.UUID
	RoomID       uuid.UUID
	StartTime    time.Time
	EndTime      time.Time
	Participants []uuid.UUID
}

// Engine rejections. Each carries a stable reason code; handlers render them
// verbatim.
var (
	ErrMissingFields        = shared.Reject(shared.ReasonInvalidInput, "missing required fields")
	ErrInvalidTimeRange     = shared.Reject(shared.ReasonInvalidTimeRange, "start time must be before end time")
	ErrUnknownRoom          = shared.Reject(shared.ReasonUnknownRoom, "room does not exist")
	ErrUnknownUser          = shared.Reject(shared.ReasonUnknownUser, "user does not exist")
	ErrUnknownParticipant   = shared.Reject(shared.ReasonUnknownParticipant, "one or more participants do not exist")
	ErrDuplicateParticipant = shared.Reject(shared.ReasonDuplicateParticipant, "duplicate participant in request")
	ErrRoomConflict         = shared.Reject(shared.ReasonRoomConflict, "room is already booked for the requested time")
	ErrUserConflict         = shared.Reject(shared.ReasonUserConflict, "a participant already has a booking for the requested time")
	ErrNotFound             = shared.Reject(shared.ReasonNotFound, "booking does not exist")
	ErrAlreadyCancelled     = shared.Reject(shared.ReasonAlreadyCancelled, "booking is already cancelled")
	ErrCancelWindowClosed   = shared.Reject(shared.ReasonCancelWindowClosed, "cancellation window has closed")
	ErrNotAuthorized        = shared.Reject(shared.ReasonNotAuthorized, "only the booking owner or an administrator may cancel")
)

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share at least one instant. Touching endpoints do not
// overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
