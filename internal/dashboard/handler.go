package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atrium-app/atrium/internal/platform/httpx"
	"github.com/atrium-app/atrium/internal/shared"
)

// Handler exposes the dashboard endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/getDashboardMetrics", h.getMetrics)
	r.Post("/getBookingFrequency", h.getFrequency)
}

func (h *Handler) getMetrics(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("userId"))
	if err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "invalid user id"))
		return
	}
	m, err := h.service.GetDashboardMetrics(r.Context(), userID)
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("dashboard metrics", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"metrics": m})
}

type frequencyRequest struct {
	UserID        string `json:"userId"`
	StartDateTime string `json:"startDateTime"`
	EndDateTime   string `json:"endDateTime"`
	QueryLimit    int    `json:"queryLimit"`
}

func (h *Handler) getFrequency(w http.ResponseWriter, r *http.Request) {
	var req frequencyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "malformed JSON body"))
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "invalid UUID format for user ID"))
		return
	}

	filter := FrequencyFilter{Limit: req.QueryLimit}
	if req.StartDateTime != "" {
		t, err := shared.ParseTimestamp(req.StartDateTime)
		if err != nil {
			httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "unparseable start time"))
			return
		}
		filter.Start = &t
	}
	if req.EndDateTime != "" {
		t, err := shared.ParseTimestamp(req.EndDateTime)
		if err != nil {
			httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "unparseable end time"))
			return
		}
		filter.End = &t
	}

	buckets, err := h.service.GetBookingFrequency(r.Context(), userID, filter)
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("booking frequency", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	if buckets == nil {
		buckets = []FrequencyBucket{}
	}
	httpx.OK(w, map[string]any{"frequency": buckets})
}
