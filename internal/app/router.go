package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tapcask-pos/tapcask/internal/availability"
	"github.com/tapcask-pos/tapcask/internal/forecast"
	"github.com/tapcask-pos/tapcask/internal/observability"
	"github.com/tapcask-pos/tapcask/internal/snapshot"
	"github.com/tapcask-pos/tapcask/internal/stock"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger              *slog.Logger
	Config              *Config
	AvailabilityHandler *availability.Handler
	ForecastHandler     *forecast.Handler
	StockHandler        *stock.Handler
	SnapshotHandler     *snapshot.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router with Tapcask defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if params.AvailabilityHandler != nil {
			params.AvailabilityHandler.MountRoutes(r)
		}
		if params.ForecastHandler != nil {
			params.ForecastHandler.MountRoutes(r)
		}
		if params.StockHandler != nil {
			params.StockHandler.MountRoutes(r)
		}
		if params.SnapshotHandler != nil {
			params.SnapshotHandler.MountRoutes(r)
		}
	})

	return r
}
