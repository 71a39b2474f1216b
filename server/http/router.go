package serverhttp

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"gps-canon-service/internal/canon"
	"gps-canon-service/internal/config"
	"gps-canon-service/internal/middleware"
	"gps-canon-service/internal/store"
	"gps-canon-service/server/http/handlers"
)

func NewRouter(cfg config.Config, logger zerolog.Logger, reg *canon.Registry, st *store.Store) *chi.Mux {
	m := middleware.NewMetrics()
	h := handlers.New(cfg, logger, reg, st, m)

	r := chi.NewRouter()

	// порядок важен: recover -> requestID -> logging -> metrics -> cors -> limit
	r.Use(middleware.Recover(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(logger))
	r.Use(m.Handler())
	r.Use(middleware.CORS(cfg.AllowOrigins))
	r.Use(middleware.LimitBytes(int64(cfg.MaxUploadMB) * 1024 * 1024))

	r.Get("/health", h.Health)
	r.Method("GET", "/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/metrics", h.Metrics)
		r.Post("/suggest", h.Suggest)

		r.Post("/ingest", h.Ingest)

		r.Route("/profiles", func(r chi.Router) {
			r.Post("/", h.CreateProfile)
			r.Get("/", h.ListProfiles)
			r.Get("/{id}", h.Profile)
			r.Put("/{id}/columns", h.UpdateProfileColumns)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/{id}", h.Report)
			r.Post("/{id}/reprocess", h.Reprocess)
			r.Put("/{id}/rows/{rowIndex}/player", h.SetRowPlayer)
		})

		r.Route("/roster", func(r chi.Router) {
			r.Post("/", h.UpsertPlayer)
			r.Get("/", h.ListRoster)
		})
	})

	return r
}
