// Package http exposes the reporting API over the final region-month table.
// Every endpoint is read-only; the priority and trend computations run
// per-request against the currently filtered subset.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"szews/internal/analytics"
	apierrors "szews/internal/errors"
	"szews/internal/pipeline"
	"szews/internal/services"
)

// defaultListLimit bounds ranked lists when no n parameter is given.
const defaultListLimit = 20

// ReportHandler serves the read-only reporting endpoints.
type ReportHandler struct {
	service *services.ReportService
	logger  *slog.Logger
}

// NewReportHandler creates a report handler.
func NewReportHandler(service *services.ReportService, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{
		service: service,
		logger:  logger.With(slog.String("component", "report_handler")),
	}
}

// Routes returns the reporting routes.
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/summary", h.GetSummary)
	r.Get("/regions", h.GetRegions)
	r.Get("/regions/worst", h.GetWorstZones)
	r.Get("/priority", h.GetPriority)
	r.Get("/warnings", h.GetWarnings)
	r.Get("/actions", h.GetActions)
	r.Get("/region/{regionID}/trend", h.GetRegionTrend)

	return r
}

// parseFilter reads the common filter query parameters. All are optional;
// empty values match everything.
func parseFilter(r *http.Request) services.Filter {
	q := r.URL.Query()
	return services.Filter{
		State:    q.Get("state"),
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Month:    q.Get("month"),
	}
}

// parseLimit reads the n query parameter.
func parseLimit(r *http.Request) (int, *apierrors.APIError) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apierrors.ErrValidation("n", "must be a positive integer")
	}
	return n, nil
}

// filtered loads the table and applies the request's filter, mapping load
// failures to API errors.
func (h *ReportHandler) filtered(w http.ResponseWriter, r *http.Request) ([]pipeline.RegionMonth, bool) {
	records, err := h.service.FilteredRecords(r.Context(), parseFilter(r))
	if err != nil {
		h.renderError(w, r, err)
		return nil, false
	}
	return records, true
}

func (h *ReportHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "report request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	if errors.Is(err, services.ErrTableNotFound) {
		_ = render.Render(w, r, apierrors.ErrTableUnavailable)
		return
	}
	_ = render.Render(w, r, apierrors.InternalError(err))
}

// GetSummary handles GET /api/summary: KPIs for the filtered scope.
func (h *ReportHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	records, ok := h.filtered(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, services.Summarize(records))
}

// GetRegions handles GET /api/regions: the filtered record list.
func (h *ReportHandler) GetRegions(w http.ResponseWriter, r *http.Request) {
	records, ok := h.filtered(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"count":   len(records),
		"records": records,
	})
}

// GetWorstZones handles GET /api/regions/worst: worst-N by ascending SZI.
func (h *ReportHandler) GetWorstZones(w http.ResponseWriter, r *http.Request) {
	n, apiErr := parseLimit(r)
	if apiErr != nil {
		_ = render.Render(w, r, apiErr)
		return
	}
	records, ok := h.filtered(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, services.WorstZones(records, n))
}

// GetPriority handles GET /api/priority: the filtered subset ranked by the
// intervention priority score. Scores are relative to the filter scope.
func (h *ReportHandler) GetPriority(w http.ResponseWriter, r *http.Request) {
	n, apiErr := parseLimit(r)
	if apiErr != nil {
		_ = render.Render(w, r, apiErr)
		return
	}
	records, ok := h.filtered(w, r)
	if !ok {
		return
	}
	scored := analytics.RankByPriority(records)
	if n < len(scored) {
		scored = scored[:n]
	}
	render.JSON(w, r, scored)
}

// GetWarnings handles GET /api/warnings: pre-silence early warnings. The
// trend scan runs over the full table regardless of the filter, because the
// month-over-month delta needs each region's complete series; the filter is
// applied to the warning rows afterwards.
func (h *ReportHandler) GetWarnings(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Load(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	filter := parseFilter(r)
	var warnings []analytics.Warning
	for _, warning := range analytics.PreSilenceWarnings(records) {
		if len(services.ApplyFilter([]pipeline.RegionMonth{warning.RegionMonth}, filter)) == 1 {
			warnings = append(warnings, warning)
		}
	}

	render.JSON(w, r, map[string]interface{}{
		"count":    len(warnings),
		"warnings": warnings,
	})
}

// GetActions handles GET /api/actions: the priority-ranked subset with the
// per-row dynamic recommendation attached.
func (h *ReportHandler) GetActions(w http.ResponseWriter, r *http.Request) {
	n, apiErr := parseLimit(r)
	if apiErr != nil {
		_ = render.Render(w, r, apiErr)
		return
	}
	records, ok := h.filtered(w, r)
	if !ok {
		return
	}

	scored := analytics.RankByPriority(records)
	if n < len(scored) {
		scored = scored[:n]
	}

	type action struct {
		analytics.ScoredRecord
		RecommendedAction string `json:"recommended_action"`
	}
	actions := make([]action, 0, len(scored))
	for _, s := range scored {
		actions = append(actions, action{
			ScoredRecord:      s,
			RecommendedAction: analytics.DynamicRecommendation(s.RegionMonth),
		})
	}
	render.JSON(w, r, actions)
}

// GetRegionTrend handles GET /api/region/{regionID}/trend: one region's
// month-ordered activity-vs-baseline series. The region key contains spaces
// and pipes, so it arrives path-escaped.
func (h *ReportHandler) GetRegionTrend(w http.ResponseWriter, r *http.Request) {
	regionID, err := url.PathUnescape(chi.URLParam(r, "regionID"))
	if err != nil || regionID == "" {
		_ = render.Render(w, r, apierrors.ErrValidation("regionID", "invalid region key"))
		return
	}

	records, err := h.service.Load(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	trend := analytics.RegionTrend(records, regionID)
	if len(trend) == 0 {
		_ = render.Render(w, r, apierrors.NotFoundError("region"))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"region_id": regionID,
		"trend":     trend,
	})
}
