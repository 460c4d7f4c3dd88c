package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/point-service/internal/api/handlers"
	"github.com/baharkarakas/point-service/internal/auth"
	"github.com/baharkarakas/point-service/internal/config"
	"github.com/baharkarakas/point-service/internal/metrics"
	"github.com/baharkarakas/point-service/internal/middleware"
)

// NewRouter builds the HTTP surface. tm may be nil, in which case the point
// routes are open and the auth routes are not mounted.
func NewRouter(cfg config.Config, ledger handlers.PointLedger, tm *auth.TokenManager) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.RateLimit(cfg.RateRPS))
	r.Use(middleware.HTTPMetrics, middleware.Log)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	ph := handlers.NewPointHandler(ledger)

	r.Route("/api/v1", func(r chi.Router) {
		if tm != nil {
			ah := handlers.NewAuthHandler(tm, cfg.Env)
			r.Post("/auth/token", ah.Token)
			r.Post("/auth/refresh", ah.Refresh)
		}

		r.Route("/point/{id}", func(r chi.Router) {
			r.Get("/", ph.Get)
			r.Get("/histories", ph.Histories)

			r.Group(func(r chi.Router) {
				if tm != nil {
					r.Use(middleware.NewAuthMiddleware(tm).Auth, middleware.RequireOwner("id"))
				}
				r.Patch("/charge", ph.Charge)
				r.Patch("/use", ph.Use)
			})
		})
	})

	return r
}
