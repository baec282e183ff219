package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "szews/internal/errors"
	"szews/internal/services"
)

// RunnerHandler exposes pipeline run control.
type RunnerHandler struct {
	runner *services.RunnerService
	logger *slog.Logger
}

// NewRunnerHandler creates a runner handler.
func NewRunnerHandler(runner *services.RunnerService, logger *slog.Logger) *RunnerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunnerHandler{
		runner: runner,
		logger: logger.With(slog.String("component", "runner_handler")),
	}
}

// Routes returns the pipeline control routes.
func (h *RunnerHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/run", h.TriggerRun)
	return r
}

// TriggerRun handles POST /api/pipeline/run: starts a full recomputation in
// the background and returns its run ID. Progress is broadcast on /ws.
func (h *RunnerHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	runID, err := h.runner.Trigger(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrRunInProgress) {
			_ = render.Render(w, r, apierrors.ErrRunInProgress)
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to trigger pipeline run",
			slog.String("error", err.Error()),
		)
		_ = render.Render(w, r, apierrors.InternalError(err))
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]string{"run_id": runID, "status": "started"})
}
