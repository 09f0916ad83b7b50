// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// domain services and encode; business rules never live here.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"heirloom/internal/platform/middleware"
)

// RouterConfig collects the handlers and cross-cutting dependencies the
// router wires together.
type RouterConfig struct {
	Logger       *slog.Logger
	JWTValidator middleware.JWTValidator
	Deceased     *DeceasedHandler
	Unlock       *UnlockHandler
	Records      *RecordsHandler
	// Healthy reports readiness; nil means always ready.
	Healthy func() error
}

// NewRouter mounts every endpoint behind the shared middleware chain. The
// health and metrics endpoints stay outside the authenticated group.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", handleHealth(cfg.Healthy))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		api.Use(middleware.ClientMetadata)
		api.Use(middleware.RequireAuth(cfg.JWTValidator, cfg.Logger))
		cfg.Deceased.Register(api)
		cfg.Unlock.Register(api)
		cfg.Records.Register(api)
	})

	return r
}

func handleHealth(healthy func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if healthy != nil {
			if err := healthy(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
