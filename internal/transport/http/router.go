package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"szews/internal/config"
	custommw "szews/internal/middleware"
	"szews/internal/services"
	"szews/internal/websocket"
)

// NewRouter assembles the full API surface: reporting endpoints, pipeline
// control, the run-progress websocket, health, and Prometheus metrics.
func NewRouter(
	cfg *config.Config,
	logger *slog.Logger,
	reports *services.ReportService,
	runner *services.RunnerService,
	hub *websocket.Hub,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.Logging(logger))
	r.Use(custommw.Recover(logger))
	r.Use(custommw.RateLimit(cfg.Server.RateLimit))

	r.Route("/api", func(r chi.Router) {
		r.Mount("/", NewReportHandler(reports, logger).Routes())
		r.Mount("/pipeline", NewRunnerHandler(runner, logger).Routes())
	})

	r.Get("/ws", websocket.ServeWS(hub, logger))
	r.Get("/healthz", HealthHandler())
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return r
}

// HealthHandler reports process liveness.
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
