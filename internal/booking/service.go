package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListFutureBookings(ctx context.Context, userID uuid.UUID, from time.Time) ([]Booking, error)
	ListHistory(ctx context.Context, userID uuid.UUID) ([]HistoryEntry, error)
}

// TxRepository exposes the operations that must share one transaction: the
// validation reads and the subsequent write. Nothing is cached between them.
type TxRepository interface {
	LockRoom(ctx context.Context, roomID uuid.UUID) error
	MissingUsers(ctx context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error)
	RoomHasOverlap(ctx context.Context, roomID uuid.UUID, start, end time.Time) (bool, error)
	OverlappingUsers(ctx context.Context, userIDs []uuid.UUID, start, end time.Time) ([]uuid.UUID, error)
	InsertBooking(ctx context.Context, input BookingInput) (uuid.UUID, error)
	InsertParticipants(ctx context.Context, bookingID uuid.UUID, userIDs []uuid.UUID, start, end time.Time) error
	GetBookingForUpdate(ctx context.Context, bookingID uuid.UUID) (Booking, error)
	MarkCancelled(ctx context.Context, bookingID uuid.UUID) error
	InsertCancellation(ctx context.Context, bookingID, userID uuid.UUID, at time.Time, reason string) (uuid.UUID, error)
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Notifier receives post-commit booking events.
type Notifier interface {
	BookingCreated(ctx context.Context, b Booking)
}

// MetricsInvalidator drops cached dashboard metrics for the affected users
// after a committed write.
type MetricsInvalidator interface {
	Invalidate(ctx context.Context, userIDs []uuid.UUID)
}

// Service orchestrates booking creation, cancellation and listing.
type Service struct {
	repo       RepositoryPort
	notifier   Notifier
	metrics    MetricsInvalidator
	cancelLead time.Duration
	now        func() time.Time
}

// NewService builds a Service. cancelLead is the minimum lead time between
// "now" and a booking's start for cancellation to be permitted. notifier and
// metrics may be nil.
func NewService(repo RepositoryPort, notifier Notifier, metrics MetricsInvalidator, cancelLead time.Duration) *Service {
	return &Service{
		repo:       repo,
		notifier:   notifier,
		metrics:    metrics,
		cancelLead: cancelLead,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// BookRoom validates a booking request and commits it atomically. The room
// row is locked for the duration of the transaction so concurrent attempts
// for the same room serialise; the exclusion constraints arbitrate anything
// that still races past the checks.
func (s *Service) BookRoom(ctx context.Context, input BookingInput) (uuid.UUID, error) {
	if input.UserID == uuid.Nil || input.RoomID == uuid.Nil || input.StartTime.IsZero() || input.EndTime.IsZero() {
		return uuid.Nil, ErrMissingFields
	}
	if !input.StartTime.Before(input.EndTime) {
		return uuid.Nil, ErrInvalidTimeRange
	}

	attendees, err := attendeeSet(input.UserID, input.Participants)
	if err != nil {
		return uuid.Nil, err
	}

	var bookingID uuid.UUID
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockRoom(ctx, input.RoomID); err != nil {
			return err
		}
		missing, err := tx.MissingUsers(ctx, attendees)
		if err != nil {
			return err
		}
		for _, id := range missing {
			if id == input.UserID {
				return ErrUnknownUser
			}
		}
		if len(missing) > 0 {
			return ErrUnknownParticipant
		}
		conflict, err := tx.RoomHasOverlap(ctx, input.RoomID, input.StartTime, input.EndTime)
		if err != nil {
			return err
		}
		if conflict {
			return ErrRoomConflict
		}
		busy, err := tx.OverlappingUsers(ctx, attendees, input.StartTime, input.EndTime)
		if err != nil {
			return err
		}
		if len(busy) > 0 {
			return ErrUserConflict
		}
		bookingID, err = tx.InsertBooking(ctx, input)
		if err != nil {
			return err
		}
		return tx.InsertParticipants(ctx, bookingID, attendees, input.StartTime, input.EndTime)
	})
	if err != nil {
		return uuid.Nil, err
	}

	booked := Booking{
		ID:           bookingID,
		RoomID:       input.RoomID,
		UserID:       input.UserID,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		Participants: attendees,
	}
	if s.notifier != nil {
		s.notifier.BookingCreated(ctx, booked)
	}
	if s.metrics != nil {
		s.metrics.Invalidate(ctx, attendees)
	}
	return bookingID, nil
}

// CancelBooking cancels a booking when the caller is the owner or an
// administrator and the booking starts at least cancelLead from now. The
// booking and its participant rows flip to cancelled and the cancellation
// record lands in the same transaction.
func (s *Service) CancelBooking(ctx context.Context, bookingID, userID uuid.UUID, reason string) error {
	if bookingID == uuid.Nil || userID == uuid.Nil {
		return ErrMissingFields
	}

	var affected []uuid.UUID
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		b, err := tx.GetBookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Cancelled {
			return ErrAlreadyCancelled
		}
		if b.UserID != userID {
			admin, err := tx.IsAdmin(ctx, userID)
			if err != nil {
				return err
			}
			if !admin {
				return ErrNotAuthorized
			}
		}
		now := s.now()
		if now.Add(s.cancelLead).After(b.StartTime) {
			return ErrCancelWindowClosed
		}
		if err := tx.MarkCancelled(ctx, bookingID); err != nil {
			return err
		}
		if _, err := tx.InsertCancellation(ctx, bookingID, userID, now, reason); err != nil {
			return err
		}
		affected = append(b.Participants, b.UserID)
		return nil
	})
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.Invalidate(ctx, affected)
	}
	return nil
}

// GetFutureBookings lists the user's non-cancelled bookings starting at or
// after now, earliest first.
func (s *Service) GetFutureBookings(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingFields
	}
	return s.repo.ListFutureBookings(ctx, userID, s.now())
}

// GetBookingsAndCancellations returns the user's full booking history, most
// recent first, with cancellation details attached where present.
func (s *Service) GetBookingsAndCancellations(ctx context.Context, userID uuid.UUID) ([]HistoryEntry, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingFields
	}
	return s.repo.ListHistory(ctx, userID)
}

// attendeeSet merges the owner into the participant list, rejecting nil and
// duplicate ids. Any overlap touching a user in either role counts as a
// conflict, so downstream checks treat the set uniformly.
func attendeeSet(owner uuid.UUID, participants []uuid.UUID) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]struct{}{owner: {}}
	attendees := make([]uuid.UUID, 0, len(participants)+1)
	attendees = append(attendees, owner)
	for _, id := range participants {
		if id == uuid.Nil {
			return nil, ErrUnknownParticipant
		}
		if _, dup := seen[id]; dup {
			return nil, ErrDuplicateParticipant
		}
		seen[id] = struct{}{}
		attendees = append(attendees, id)
	}
	return attendees, nil
}
