package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/atrium-app/atrium/internal/booking"
	"github.com/atrium-app/atrium/internal/buildings"
	"github.com/atrium-app/atrium/internal/dashboard"
	"github.com/atrium-app/atrium/internal/observability"
	"github.com/atrium-app/atrium/internal/rooms"
	"github.com/atrium-app/atrium/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	BookingHandler   *booking.Handler
	DashboardHandler *dashboard.Handler
	RoomsHandler     *rooms.Handler
	BuildingsHandler *buildings.Handler
	UsersHandler     *users.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with Atrium defaults. Routes live at
// the root so the paths match what the frontend already calls.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	if params.Metrics != nil {
		r.Use(params.Metrics.Middleware)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("This is the backend server for the room booking app."))
	})

	params.UsersHandler.MountRoutes(r)
	params.BuildingsHandler.MountRoutes(r)
	params.RoomsHandler.MountRoutes(r)
	params.BookingHandler.MountRoutes(r)
	params.DashboardHandler.MountRoutes(r)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
