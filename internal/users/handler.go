package users

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/atrium-app/atrium/internal/platform/httpx"
	"github.com/atrium-app/atrium/internal/shared"
)

// Handler exposes the account endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers the account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/signup", h.signup)
	r.Post("/login", h.login)
	r.Post("/updateUsername", h.updateUsername)
	r.Post("/updatePassword", h.updatePassword)
	r.Post("/viewAdminLog", h.viewAdminLog)
	r.Get("/me", h.me)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer"))
	user, err := h.service.Authenticate(r.Context(), token)
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("authenticate", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"email":    user.Email,
		"is_admin": user.IsAdmin,
	})
}

type signupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "malformed JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "invalid signup fields"))
		return
	}
	userID, err := h.service.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("signup", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"message": "account created", "user_id": userID.String()})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "malformed JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "username and password are required"))
		return
	}
	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("login", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{
		"user_id":  result.UserID.String(),
		"is_admin": result.IsAdmin,
		"token":    result.Token,
	})
}

type updateUsernameRequest struct {
	UserID      string `json:"userId" validate:"required,uuid"`
	NewUsername string `json:"newUsername" validate:"required"`
}

func (h *Handler) updateUsername(w http.ResponseWriter, r *http.Request) {
	var req updateUsernameRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "malformed JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "missing user id or new username"))
		return
	}
	err := h.service.UpdateUsername(r.Context(), uuid.MustParse(req.UserID), req.NewUsername)
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("update username", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"message": "username updated"})
}

type updatePasswordRequest struct {
	UserID      string `json:"userId" validate:"required,uuid"`
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func (h *Handler) updatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "malformed JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "missing or invalid password fields"))
		return
	}
	err := h.service.UpdatePassword(r.Context(), uuid.MustParse(req.UserID), req.OldPassword, req.NewPassword)
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("update password", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"message": "password updated"})
}

type viewAdminLogRequest struct {
	UserID string `json:"userID" validate:"required,uuid"`
}

type adminLogResponse struct {
	LogID     string `json:"logID"`
	Operation string `json:"operation"`
	UserID    string `json:"userID"`
	RoomID    string `json:"roomID"`
	RoomName  string `json:"roomName"`
	Capacity  int    `json:"capacity"`
	LoggedAt  string `json:"loggedAt"`
}

func (h *Handler) viewAdminLog(w http.ResponseWriter, r *http.Request) {
	var req viewAdminLogRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "malformed JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "missing user id"))
		return
	}
	entries, err := h.service.ViewAdminLog(r.Context(), uuid.MustParse(req.UserID))
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("view admin log", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	out := make([]adminLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, adminLogResponse{
			LogID:     e.LogID.String(),
			Operation: e.Operation,
			UserID:    e.UserID.String(),
			RoomID:    e.RoomID.String(),
			RoomName:  e.RoomName,
			Capacity:  e.Capacity,
			LoggedAt:  e.LoggedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	httpx.OK(w, map[string]any{"log": out})
}
