package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type existingBooking struct {
	room      uuid.UUID
	start     time.Time
	end       time.Time
	attendees []uuid.UUID
	cancelled bool
}

type stubRepo struct {
	rooms    map[uuid.UUID]struct{}
	users    map[uuid.UUID]struct{}
	admins   map[uuid.UUID]struct{}
	existing []existingBooking
	bookings map[uuid.UUID]Booking

	insertedBooking      *BookingInput
	insertedParticipants []uuid.UUID
	markedCancelled      []uuid.UUID
	cancellations        int
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		rooms:    map[uuid.UUID]struct{}{},
		users:    map[uuid.UUID]struct{}{},
		admins:   map[uuid.UUID]struct{}{},
		bookings: map[uuid.UUID]Booking{},
	}
}

func (s *stubRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, s)
}

func (s *stubRepo) LockRoom(_ context.Context, roomID uuid.UUID) error {
	if _, ok := s.rooms[roomID]; !ok {
		return ErrUnknownRoom
	}
	return nil
}

func (s *stubRepo) MissingUsers(_ context.Context, userIDs []uuid.UUID) ([]uuid.UUID, error) {
	var missing []uuid.UUID
	for _, id := range userIDs {
		if _, ok := s.users[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (s *stubRepo) RoomHasOverlap(_ context.Context, roomID uuid.UUID, start, end time.Time) (bool, error) {
	for _, b := range s.existing {
		if b.room == roomID && !b.cancelled && Overlaps(b.start, b.end, start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) OverlappingUsers(_ context.Context, userIDs []uuid.UUID, start, end time.Time) ([]uuid.UUID, error) {
	var busy []uuid.UUID
	for _, b := range s.existing {
		if b.cancelled || !Overlaps(b.start, b.end, start, end) {
			continue
		}
		for _, attendee := range b.attendees {
			for _, id := range userIDs {
				if id == attendee {
					busy = append(busy, id)
				}
			}
		}
	}
	return busy, nil
}

func (s *stubRepo) InsertBooking(_ context.Context, input BookingInput) (uuid.UUID, error) {
	s.insertedBooking = &input
	return uuid.New(), nil
}

func (s *stubRepo) InsertParticipants(_ context.Context, _ uuid.UUID, userIDs []uuid.UUID, _, _ time.Time) error {
	s.insertedParticipants = userIDs
	return nil
}

func (s *stubRepo) GetBookingForUpdate(_ context.Context, bookingID uuid.UUID) (Booking, error) {
	b, ok := s.bookings[bookingID]
	if !ok {
		return Booking{}, ErrNotFound
	}
	return b, nil
}

func (s *stubRepo) MarkCancelled(_ context.Context, bookingID uuid.UUID) error {
	s.markedCancelled = append(s.markedCancelled, bookingID)
	b := s.bookings[bookingID]
	b.Cancelled = true
	s.bookings[bookingID] = b
	return nil
}

func (s *stubRepo) InsertCancellation(_ context.Context, _, _ uuid.UUID, _ time.Time, _ string) (uuid.UUID, error) {
	s.cancellations++
	return uuid.New(), nil
}

func (s *stubRepo) IsAdmin(_ context.Context, userID uuid.UUID) (bool, error) {
	_, ok := s.admins[userID]
	return ok, nil
}

func (s *stubRepo) ListFutureBookings(context.Context, uuid.UUID, time.Time) ([]Booking, error) {
	return nil, nil
}

func (s *stubRepo) ListHistory(context.Context, uuid.UUID) ([]HistoryEntry, error) {
	return nil, nil
}

type recordingInvalidator struct {
	userIDs []uuid.UUID
}

func (r *recordingInvalidator) Invalidate(_ context.Context, userIDs []uuid.UUID) {
	r.userIDs = append(r.userIDs, userIDs...)
}

func at(hour, min int) time.Time {
	return time.Date(2026, 9, 14, hour, min, 0, 0, time.UTC)
}

func newTestService(repo *stubRepo) *Service {
	svc := NewService(repo, nil, nil, 30*time.Minute)
	svc.now = func() time.Time { return at(9, 0) }
	return svc
}

func TestBookRoomSuccess(t *testing.T) {
	repo := newStubRepo()
	owner := uuid.New()
	guest := uuid.New()
	room := uuid.New()
	repo.rooms[room] = struct{}{}
	repo.users[owner] = struct{}{}
	repo.users[guest] = struct{}{}

	svc := newTestService(repo)
	id, err := svc.BookRoom(context.Background(), BookingInput{
		UserID:       owner,
		RoomID:       room,
		StartTime:    at(10, 0),
		EndTime:      at(11, 0),
		Participants: []uuid.UUID{guest},
	})
	if err != nil {
		t.Fatalf("book room: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("expected generated booking id")
	}
	if len(repo.insertedParticipants) != 2 {
		t.Fatalf("expected owner merged into attendees, got %v", repo.insertedParticipants)
	}
	if repo.insertedParticipants[0] != owner {
		t.Fatalf("expected owner first in attendee set")
	}
}

func TestBookRoomInvalidTimeRange(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)

	_, err := svc.BookRoom(context.Background(), BookingInput{
		UserID:    uuid.New(),
		RoomID:    uuid.New(),
		StartTime: at(11, 0),
		EndTime:   at(10, 0),
	})
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected invalid time range, got %v", err)
	}

	_, err = svc.BookRoom(context.Background(), BookingInput{
		UserID:    uuid.New(),
		RoomID:    uuid.New(),
		StartTime: at(10, 0),
		EndTime:   at(10, 0),
	})
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected zero-length interval rejected, got %v", err)
	}
}

func TestBookRoomMissingFields(t *testing.T) {
	svc := newTestService(newStubRepo())
	_, err := svc.BookRoom(context.Background(), BookingInput{})
	if !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected missing fields, got %v", err)
	}
}

func TestBookRoomDuplicateParticipant(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo)
	owner := uuid.New()
	guest := uuid.New()

	_, err := svc.BookRoom(context.Background(), BookingInput{
		UserID:       owner,
		RoomID:       uuid.New(),
		StartTime:    at(10, 0),
		EndTime:      at(11, 0),
		Participants: []uuid.UUID{guest, guest},
	})
	if !errors.Is(err, ErrDuplicateParticipant) {
		t.Fatalf("expected duplicate participant, got %v", err)
	}

	// The owner is implicitly an attendee; listing them again is a duplicate.
	_, err = svc.BookRoom(context.Background(), BookingInput{
		UserID:       owner,
		RoomID:       uuid.New(),
		StartTime:    at(10, 0),
		EndTime:      at(11, 0),
		Participants: []uuid.UUID{owner},
	})
	if !errors.Is(err, ErrDuplicateParticipant) {
		t.Fatalf("expected owner-as-participant rejected, got %v", err)
	}
}

func TestBookRoomUnknownRoom(t *testing.T) {
	repo := newStubRepo()
	owner := uuid.New()
	repo.users[owner] = struct{}{}
	svc := newTestService(repo)

	_, err := svc.BookRoom(context.Background(), BookingInput{
		UserID:    owner,
		RoomID:    uuid.New(),
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	})
	if !errors.Is(err, ErrUnknownRoom) {
		t.Fatalf("expected unknown room, got %v", err)
	}
}

func TestBookRoomUnknownParticipant(t *testing.T) {
	repo := newStubRepo()
	owner := uuid.New()
	room := uuid.New()
	repo.rooms[room] = struct{}{}
	repo.users[owner] = struct{}{}
	svc := newTestService(repo)

	_, err := svc.BookRoom(context.Background(), BookingInput{
		UserID:       owner,
		RoomID:       room,
		StartTime:    at(10, 0),
		EndTime:      at(11, 0),
		Participants: []uuid.UUID{uuid.New()},
	})
	if !errors.Is(err, ErrUnknownParticipant) {
		t.Fatalf("expected unknown participant, got %v", err)
	}
	if repo.insertedBooking != nil {
		t.Fatal("no insert expected on validation failure")
	}
}

func TestBookRoomUnknownOwner(t *testing.T) {
	repo := newStubRepo()
	room := uuid.New()
	repo.rooms[room] = struct{}{}
	svc := newTestService(repo)

	_, err := svc.BookRoom(context.Background(), BookingInput{
		UserID:    uuid.New(),
		RoomID:    room,
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	})
	if !errors.Is(err, ErrUnknownUser) {
		t.Fatalf("expected unknown user, got %v", err)
	}
}

func TestBookRoomOverlapRules(t *testing.T) {
	repo := newStubRepo()
	owner := uuid.New()
	room := uuid.New()
	repo.rooms[room] = struct{}{}
	repo.users[owner] = struct{}{}
	repo.existing = append(repo.existing, existingBooking{
		room:  room,
		start: at(10, 0),
		end:   at(11, 0),
	})
	svc := newTestService(repo)

	// [10:30, 11:30) collides with the existing [10:00, 11:00).
	_, err := svc.BookRoom(context.Background(), BookingInput{
		UserID:    owner,
		RoomID:    room,
		StartTime: at(10, 30),
		EndTime:   at(11, 30),
	})
	if !errors.Is(err, ErrRoomConflict) {
		t.Fatalf("expected room conflict, got %v", err)
	}
	if repo.insertedBooking != nil {
		t.Fatal("no insert expected on conflict")
	}

	// Touching endpoints do not conflict: [11:00, 12:00) is fine.
	_, err = svc.BookRoom(context.Background(), BookingInput{
		UserID:    owner,
		RoomID:    room,
		StartTime: at(11, 0),
		EndTime:   at(12, 0),
	})
	if err != nil {
		t.Fatalf("touching endpoints should not conflict: %v", err)
	}
}

func TestBookRoomUserConflictAcrossRooms(t *testing.T) {
	repo := newStubRepo()
	owner := uuid.New()
	guest := uuid.New()
	roomA := uuid.New()
	roomB := uuid.New()
	repo.rooms[roomA] = struct{}{}
	repo.rooms[roomB] = struct{}{}
	repo.users[owner] = struct{}{}
	repo.users[guest] = struct{}{}
	// The guest already attends a booking in another room.
	repo.existing = append(repo.existing, existingBooking{
		room:      roomA,
		start:     at(10, 0),
		end:       at(11, 0),
		attendees: []uuid.UUID{guest},
	})
	svc := newTestService(repo)

	_, err := svc.BookRoom(context.Background(), BookingInput{
		UserID:       owner,
		RoomID:       roomB,
		StartTime:    at(10, 30),
		EndTime:      at(11, 30),
		Participants: []uuid.UUID{guest},
	})
	if !errors.Is(err, ErrUserConflict) {
		t.Fatalf("expected user conflict, got %v", err)
	}
}

func TestBookRoomIgnoresCancelledBookings(t *testing.T) {
	repo := newStubRepo()
	owner := uuid.New()
	room := uuid.New()
	repo.rooms[room] = struct{}{}
	repo.users[owner] = struct{}{}
	repo.existing = append(repo.existing, existingBooking{
		room:      room,
		start:     at(10, 0),
		end:       at(11, 0),
		cancelled: true,
	})
	svc := newTestService(repo)

	_, err := svc.BookRoom(context.Background(), BookingInput{
		UserID:    owner,
		RoomID:    room,
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	})
	if err != nil {
		t.Fatalf("cancelled booking must not block the slot: %v", err)
	}
}

func TestBookRoomInvalidatesMetrics(t *testing.T) {
	repo := newStubRepo()
	owner := uuid.New()
	guest := uuid.New()
	room := uuid.New()
	repo.rooms[room] = struct{}{}
	repo.users[owner] = struct{}{}
	repo.users[guest] = struct{}{}

	inv := &recordingInvalidator{}
	svc := NewService(repo, nil, inv, 30*time.Minute)
	svc.now = func() time.Time { return at(9, 0) }

	_, err := svc.BookRoom(context.Background(), BookingInput{
		UserID:       owner,
		RoomID:       room,
		StartTime:    at(10, 0),
		EndTime:      at(11, 0),
		Participants: []uuid.UUID{guest},
	})
	if err != nil {
		t.Fatalf("book room: %v", err)
	}
	if len(inv.userIDs) != 2 {
		t.Fatalf("expected metrics invalidated for both attendees, got %v", inv.userIDs)
	}
}

func TestCancelBookingWithinWindow(t *testing.T) {
	repo := newStubRepo()
	owner := uuid.New()
	bookingID := uuid.New()
	repo.bookings[bookingID] = Booking{
		ID:        bookingID,
		UserID:    owner,
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	}
	svc := newTestService(repo) // now = 09:00, lead 30m, start 10:00

	if err := svc.CancelBooking(context.Background(), bookingID, owner, "meeting moved"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(repo.markedCancelled) != 1 || repo.cancellations != 1 {
		t.Fatal("expected booking marked cancelled and record inserted atomically")
	}
}

func TestCancelBookingWindowClosed(t *testing.T) {
	repo := newStubRepo()
	owner := uuid.New()
	bookingID := uuid.New()
	// Starts in 5 minutes with a 30 minute lead requirement.
	repo.bookings[bookingID] = Booking{
		ID:        bookingID,
		UserID:    owner,
		StartTime: at(9, 5),
		EndTime:   at(10, 5),
	}
	svc := newTestService(repo)

	err := svc.CancelBooking(context.Background(), bookingID, owner, "")
	if !errors.Is(err, ErrCancelWindowClosed) {
		t.Fatalf("expected window closed, got %v", err)
	}
	if len(repo.markedCancelled) != 0 {
		t.Fatal("booking must remain unchanged when the window has closed")
	}
}

func TestCancelBookingExactLeadBoundary(t *testing.T) {
	repo := newStubRepo()
	owner := uuid.New()
	bookingID := uuid.New()
	// now + lead == start is still allowed.
	repo.bookings[bookingID] = Booking{
		ID:        bookingID,
		UserID:    owner,
		StartTime: at(9, 30),
		EndTime:   at(10, 30),
	}
	svc := newTestService(repo)

	if err := svc.CancelBooking(context.Background(), bookingID, owner, ""); err != nil {
		t.Fatalf("boundary cancellation should succeed: %v", err)
	}
}

func TestCancelBookingAlreadyCancelled(t *testing.T) {
	repo := newStubRepo()
	owner := uuid.New()
	bookingID := uuid.New()
	repo.bookings[bookingID] = Booking{
		ID:        bookingID,
		UserID:    owner,
		StartTime: at(10, 0),
		Cancelled: true,
	}
	svc := newTestService(repo)

	err := svc.CancelBooking(context.Background(), bookingID, owner, "")
	if !errors.Is(err, ErrAlreadyCancelled) {
		t.Fatalf("expected already cancelled, got %v", err)
	}
}

func TestCancelBookingNotFound(t *testing.T) {
	svc := newTestService(newStubRepo())
	err := svc.CancelBooking(context.Background(), uuid.New(), uuid.New(), "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCancelBookingAuthorization(t *testing.T) {
	repo := newStubRepo()
	owner := uuid.New()
	stranger := uuid.New()
	admin := uuid.New()
	repo.admins[admin] = struct{}{}
	bookingID := uuid.New()
	repo.bookings[bookingID] = Booking{
		ID:        bookingID,
		UserID:    owner,
		StartTime: at(10, 0),
	}
	svc := newTestService(repo)

	err := svc.CancelBooking(context.Background(), bookingID, stranger, "")
	if !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected not authorized, got %v", err)
	}
	if len(repo.markedCancelled) != 0 {
		t.Fatal("unauthorized caller must not mutate the booking")
	}

	if err := svc.CancelBooking(context.Background(), bookingID, admin, ""); err != nil {
		t.Fatalf("admin cancellation should succeed: %v", err)
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"partial", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"contained", at(10, 0), at(12, 0), at(10, 30), at(11, 0), true},
		{"touching end", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"touching start", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
		{"disjoint", at(10, 0), at(11, 0), at(13, 0), at(14, 0), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Fatalf("Overlaps(%s) = %v, want %v", tc.name, got, tc.want)
			}
		})
	}
}
