package buildings

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-app/atrium/internal/platform/httpx"
	"github.com/atrium-app/atrium/internal/shared"
)

// Handler exposes the building catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the building routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/viewBuildings", h.list)
}

type buildingResponse struct {
	BuildingID   string  `json:"buildingID"`
	BuildingName string  `json:"buildingName"`
	AddressLine1 string  `json:"addressLine1"`
	AddressLine2 *string `json:"addressLine2"`
	City         string  `json:"city"`
	Province     string  `json:"province"`
	Country      string  `json:"country"`
	PostalCode   string  `json:"postalCode"`
}

// list answers /viewBuildings. With db_operation=filter the address query
// params become exact-match conditions; otherwise every building comes back.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter Filter
	if q.Get("db_operation") == "filter" {
		filter = Filter{
			Name:         optional(q, "buildingName"),
			AddressLine1: optional(q, "addressLine1"),
			AddressLine2: optional(q, "addressLine2"),
			City:         optional(q, "city"),
			Province:     optional(q, "province"),
			Country:      optional(q, "country"),
			PostalCode:   optional(q, "postalCode"),
		}
	}

	found, err := h.service.List(r.Context(), filter)
	if err != nil {
		if shared.IsInfra(err) {
			h.logger.Error("list buildings", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}

	out := make([]buildingResponse, 0, len(found))
	for _, b := range found {
		out = append(out, buildingResponse{
			BuildingID:   b.ID.String(),
			BuildingName: b.Name,
			AddressLine1: b.AddressLine1,
			AddressLine2: b.AddressLine2,
			City:         b.City,
			Province:     b.Province,
			Country:      b.Country,
			PostalCode:   b.PostalCode,
		})
	}
	httpx.OK(w, map[string]any{"buildings": out})
}

func optional(q url.Values, key string) *string {
	if !q.Has(key) {
		return nil
	}
	v := q.Get(key)
	return &v
}
