package booking

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/atrium-app/atrium/internal/platform/httpx"
	"github.com/atrium-app/atrium/internal/shared"
)

// Handler exposes the booking endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers the booking routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/bookRoom", h.bookRoom)
	r.Post("/cancelBooking", h.cancelBooking)
	r.Get("/getFutureBookings", h.getFutureBookings)
	r.Get("/getBookingsAndCancellations", h.getHistory)
}

type bookRoomRequest struct {
	UserID       string   `json:"user_id" validate:"required,uuid"`
	RoomID       string   `json:"room_id" validate:"required,uuid"`
	StartTime    string   `json:"start_time" validate:"required"`
	EndTime      string   `json:"end_time" validate:"required"`
	Participants []string `json:"participants" validate:"dive,uuid"`
}

type cancelBookingRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
	UserID    string `json:"user_id" validate:"required,uuid"`
	Reason    string `json:"reason"`
}

type bookingResponse struct {
	BookingID    string   `json:"bookingID"`
	RoomID       string   `json:"roomID"`
	UserID       string   `json:"userID"`
	StartTime    string   `json:"startTime"`
	EndTime      string   `json:"endTime"`
	Cancelled    bool     `json:"cancelled"`
	CreatedAt    string   `json:"createdAt"`
	Participants []string `json:"participants,omitempty"`
}

type cancellationResponse struct {
	CancellationID string `json:"cancellationID"`
	UserID         string `json:"userID"`
	CancelledAt    string `json:"cancelledAt"`
	Reason         string `json:"reason,omitempty"`
}

type historyResponse struct {
	Booking      bookingResponse       `json:"booking"`
	Cancellation *cancellationResponse `json:"cancellation,omitempty"`
}

func (h *Handler) bookRoom(w http.ResponseWriter, r *http.Request) {
	var req bookRoomRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "malformed JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "missing required fields"))
		return
	}

	start, err := shared.ParseTimestamp(req.StartTime)
	if err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "unparseable start time"))
		return
	}
	end, err := shared.ParseTimestamp(req.EndTime)
	if err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "unparseable end time"))
		return
	}

	participants := make([]uuid.UUID, 0, len(req.Participants))
	for _, p := range req.Participants {
		id, err := uuid.Parse(p)
		if err != nil {
			httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "invalid participant id"))
			return
		}
		participants = append(participants, id)
	}

	input := BookingInput{
		UserID:       uuid.MustParse(req.UserID),
		RoomID:       uuid.MustParse(req.RoomID),
		StartTime:    start,
		EndTime:      end,
		Participants: participants,
	}

	bookingID, err := h.service.BookRoom(r.Context(), input)
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("book room", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{
		"message":    "booking created",
		"booking_id": bookingID.String(),
	})
}

func (h *Handler) cancelBooking(w http.ResponseWriter, r *http.Request) {
	var req cancelBookingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "malformed JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "missing required fields"))
		return
	}

	err := h.service.CancelBooking(r.Context(), uuid.MustParse(req.BookingID), uuid.MustParse(req.UserID), req.Reason)
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("cancel booking", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"message": "booking cancelled"})
}

func (h *Handler) getFutureBookings(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "invalid user id"))
		return
	}
	bookings, err := h.service.GetFutureBookings(r.Context(), userID)
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("future bookings", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	httpx.OK(w, map[string]any{"bookings": out})
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "invalid user id"))
		return
	}
	entries, err := h.service.GetBookingsAndCancellations(r.Context(), userID)
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("booking history", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	out := make([]historyResponse, 0, len(entries))
	for _, e := range entries {
		item := historyResponse{Booking: toBookingResponse(e.Booking)}
		if e.Cancellation != nil {
			item.Cancellation = &cancellationResponse{
				CancellationID: e.Cancellation.ID.String(),
				UserID:         e.Cancellation.UserID.String(),
				CancelledAt:    e.Cancellation.CancelledAt.Format(time.RFC3339),
				Reason:         e.Cancellation.Reason,
			}
		}
		out = append(out, item)
	}
	httpx.OK(w, map[string]any{"history": out})
}

func toBookingResponse(b Booking) bookingResponse {
	resp := bookingResponse{
		BookingID: b.ID.String(),
		RoomID:    b.RoomID.String(),
		UserID:    b.UserID.String(),
		StartTime: b.StartTime.Format(time.RFC3339),
		EndTime:   b.EndTime.Format(time.RFC3339),
		Cancelled: b.Cancelled,
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
	}
	for _, p := range b.Participants {
		resp.Participants = append(resp.Participants, p.String())
	}
	return resp
}
