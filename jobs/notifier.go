package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/atrium-app/atrium/internal/booking"
)

// ReminderNotifier enqueues a reminder task when a booking is created. The
// task is scheduled to fire a fixed lead before the booking starts, or
// immediately for bookings starting sooner than that.
type ReminderNotifier struct {
	client *Client
	logger *slog.Logger
	lead   time.Duration
	now    func() time.Time
}

// NewReminderNotifier builds a ReminderNotifier with the given lead.
func NewReminderNotifier(client *Client, logger *slog.Logger, lead time.Duration) *ReminderNotifier {
	return &ReminderNotifier{
		client: client,
		logger: logger,
		lead:   lead,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var _ booking.Notifier = (*ReminderNotifier)(nil)

// BookingCreated schedules the reminder. Enqueue failures are logged and
// swallowed; the booking itself is already committed.
func (n *ReminderNotifier) BookingCreated(ctx context.Context, b booking.Booking) {
	at := b.StartTime.Add(-n.lead)
	if now := n.now(); at.Before(now) {
		at = now
	}
	payload := BookingReminderPayload{
		BookingID: b.ID,
		RoomID:    b.RoomID,
		StartTime: b.StartTime,
		UserIDs:   b.Participants,
	}
	if _, err := n.client.EnqueueBookingReminder(ctx, payload, at); err != nil {
		n.logger.Warn("enqueue booking reminder",
			slog.String("booking_id", b.ID.String()), slog.Any("error", err))
	}
}
