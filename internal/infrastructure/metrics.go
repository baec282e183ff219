package infrastructure

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics holds the Prometheus instruments for pipeline
// observability: the row-defect drops are silent per the error-handling
// policy, so the counters are the only place their volume is visible.
type PipelineMetrics struct {
	RunsTotal      *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	RowsDropped    *prometheus.CounterVec
	RecordsEmitted prometheus.Gauge
}

// NewPipelineMetrics creates and registers the pipeline metrics on the given
// registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "szews",
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by final status.",
		}, []string{"status"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "szews",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Wall-clock duration of each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"stage"}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "szews",
			Name:      "pipeline_rows_dropped_total",
			Help:      "Raw rows dropped during normalization, by feed and reason.",
		}, []string{"feed", "reason"}),
		RecordsEmitted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "szews",
			Name:      "pipeline_records_emitted",
			Help:      "Region-month records in the most recent final table.",
		}),
	}

	reg.MustRegister(m.RunsTotal, m.StageDuration, m.RowsDropped, m.RecordsEmitted)
	return m
}

// ObserveStage records one stage's duration. Nil-safe so the pipeline can run
// without metrics wired (CLI one-shots, tests).
func (m *PipelineMetrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// AddDroppedRows records rows dropped for a feed and reason.
func (m *PipelineMetrics) AddDroppedRows(feed, reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.RowsDropped.WithLabelValues(feed, reason).Add(float64(n))
}

// IncRuns counts a finished run by status ("ok" or "error").
func (m *PipelineMetrics) IncRuns(status string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
}

// SetRecordsEmitted records the final table size of the latest run.
func (m *PipelineMetrics) SetRecordsEmitted(n int) {
	if m == nil {
		return
	}
	m.RecordsEmitted.Set(float64(n))
}
