package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeBookingReminder notifies attendees shortly before a booking starts.
	TaskTypeBookingReminder = "booking:reminder"
)

// BookingReminderPayload identifies the booking to remind about.
type BookingReminderPayload struct {
	BookingID uuid.UUID   `json:"booking_id"`
	RoomID    uuid.UUID   `json:"room_id"`
	StartTime time.Time   `json:"start_time"`
	UserIDs   []uuid.UUID `json:"user_ids"`
}

// NewBookingReminderTask constructs an Asynq task.
func NewBookingReminderTask(payload BookingReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeBookingReminder, data), nil
}

// BookingReminderHandler processes TaskTypeBookingReminder tasks.
type BookingReminderHandler struct {
	Logger *slog.Logger
}

// Handle delivers the reminder. Delivery is a log line until a notification
// channel is wired up.
func (h *BookingReminderHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload BookingReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	h.Logger.Info("booking reminder",
		slog.String("booking_id", payload.BookingID.String()),
		slog.Time("start_time", payload.StartTime),
		slog.Int("attendees", len(payload.UserIDs)))
	return nil
}
