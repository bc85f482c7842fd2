package rooms

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/atrium-app/atrium/internal/platform/httpx"
	"github.com/atrium-app/atrium/internal/shared"
)

// Handler exposes the room catalog endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers the room routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/viewAvailableRooms", h.searchAvailable)
	r.Get("/viewRoomsByBuildingID", h.listByBuilding)
	r.Post("/addRoom", h.addRoom)
	r.Post("/editRoom", h.editRoom)
	r.Post("/deleteRoom", h.deleteRoom)
}

type roomResponse struct {
	RoomID     string `json:"roomID"`
	RoomName   string `json:"roomName"`
	Capacity   int    `json:"capacity"`
	BuildingID string `json:"buildingID"`
}

func toRoomResponses(rooms []Room) []roomResponse {
	out := make([]roomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, roomResponse{
			RoomID:     room.ID.String(),
			RoomName:   room.Name,
			Capacity:   room.Capacity,
			BuildingID: room.BuildingID.String(),
		})
	}
	return out
}

// searchAvailable filters rooms by building, name, capacity range and time
// window. An unparseable or missing window falls back to "now", matching
// the behaviour the frontend has always relied on.
func (h *Handler) searchAvailable(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter SearchFilter

	if v := q.Get("building_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "invalid building id"))
			return
		}
		filter.BuildingID = &id
	}
	filter.Name = q.Get("room_name")
	if v := q.Get("min_capacity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "invalid minimum capacity"))
			return
		}
		filter.MinCapacity = &n
	}
	if v := q.Get("max_capacity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "invalid maximum capacity"))
			return
		}
		filter.MaxCapacity = &n
	}
	if startStr, endStr := q.Get("start_time"), q.Get("end_time"); startStr != "" && endStr != "" {
		start, errStart := shared.ParseTimestamp(startStr)
		end, errEnd := shared.ParseTimestamp(endStr)
		if errStart == nil && errEnd == nil {
			filter.Start = &start
			filter.End = &end
		}
	}

	found, err := h.service.SearchAvailable(r.Context(), filter)
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("available rooms", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"rooms": toRoomResponses(found)})
}

func (h *Handler) listByBuilding(w http.ResponseWriter, r *http.Request) {
	buildingID, err := uuid.Parse(r.URL.Query().Get("building_id"))
	if err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "invalid building id"))
		return
	}
	found, err := h.service.ListByBuilding(r.Context(), buildingID)
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("rooms by building", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"rooms": toRoomResponses(found)})
}

type addRoomRequest struct {
	RoomName   string `json:"roomName" validate:"required"`
	Capacity   int    `json:"capacity" validate:"required,gt=0"`
	BuildingID string `json:"buildingID" validate:"required,uuid"`
	UserID     string `json:"userID" validate:"required,uuid"`
}

func (h *Handler) addRoom(w http.ResponseWriter, r *http.Request) {
	var req addRoomRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "malformed JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "missing required fields"))
		return
	}
	roomID, err := h.service.AddRoom(r.Context(), uuid.MustParse(req.UserID), Room{
		Name:       req.RoomName,
		Capacity:   req.Capacity,
		BuildingID: uuid.MustParse(req.BuildingID),
	})
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("add room", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"message": "room added", "room_id": roomID.String()})
}

type editRoomRequest struct {
	RoomID   string `json:"roomID" validate:"required,uuid"`
	RoomName string `json:"roomName" validate:"required"`
	Capacity int    `json:"capacity" validate:"required,gt=0"`
	UserID   string `json:"userID" validate:"required,uuid"`
}

func (h *Handler) editRoom(w http.ResponseWriter, r *http.Request) {
	var req editRoomRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "malformed JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "missing required fields"))
		return
	}
	err := h.service.EditRoom(r.Context(), uuid.MustParse(req.UserID), Room{
		ID:       uuid.MustParse(req.RoomID),
		Name:     req.RoomName,
		Capacity: req.Capacity,
	})
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("edit room", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"message": "room updated"})
}

type deleteRoomRequest struct {
	RoomID string `json:"roomID" validate:"required,uuid"`
	UserID string `json:"userID" validate:"required,uuid"`
}

func (h *Handler) deleteRoom(w http.ResponseWriter, r *http.Request) {
	var req deleteRoomRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "malformed JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.Reject(shared.ReasonInvalidInput, "missing required fields"))
		return
	}
	err := h.service.DeleteRoom(r.Context(), uuid.MustParse(req.UserID), uuid.MustParse(req.RoomID))
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("delete room", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, map[string]any{"message": "room deleted"})
}
