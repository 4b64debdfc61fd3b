package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/odyssey-erp/unitdesk/internal/observability"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger   *slog.Logger
	Config   *Config
	Handlers Handlers
	Metrics  *observability.Metrics
	// Ready reports store connectivity for /healthz; nil means always ready.
	Ready func(context.Context) error
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Ready != nil {
			if err := params.Ready(r.Context()); err != nil {
				params.Logger.Warn("health check failed", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	h := params.Handlers
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(PrincipalMiddleware)
		if h.Products != nil {
			h.Products.MountRoutes(r)
		}
		if h.Customers != nil {
			h.Customers.MountRoutes(r)
		}
		if h.Inventory != nil {
			h.Inventory.MountRoutes(r)
		}
		if h.Invoices != nil {
			h.Invoices.MountRoutes(r)
		}
		if h.Audit != nil {
			h.Audit.MountRoutes(r)
		}
	})
	return r
}
