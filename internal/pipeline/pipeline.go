package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"szews/internal/infrastructure"
)

// Inputs names the three merged feed files a run consumes.
type Inputs struct {
	EnrolmentPath   string
	DemographicPath string
	BiometricPath   string
}

// Result is the outcome of a full recomputation.
type Result struct {
	Records []RegionMonth
	Regions int
	Stats   map[string]NormalizeStats
	Elapsed time.Duration
}

// ProgressFunc receives stage-completion notifications during a run.
type ProgressFunc func(stage, detail string)

// Pipeline orchestrates the derivation stages: normalize each feed, aggregate
// to monthly activity, outer-join the three series, compute rolling baselines
// and suppression ratios, then run the silence state machine. The whole table
// is rebuilt on every run; no prior output is read back or merged.
type Pipeline struct {
	logger   *slog.Logger
	metrics  *infrastructure.PipelineMetrics
	progress ProgressFunc
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics attaches Prometheus instruments to the run.
func WithMetrics(m *infrastructure.PipelineMetrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithProgress attaches a stage-progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// New creates a Pipeline.
func New(logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{logger: logger.With(slog.String("component", "pipeline"))}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the full pipeline over the three feed files. Schema violations
// abort the run with no output; row-level defects are dropped or zeroed and
// surface only as logged/metered counts.
func (p *Pipeline) Run(ctx context.Context, inputs Inputs) (*Result, error) {
	start := time.Now()
	result := &Result{Stats: make(map[string]NormalizeStats)}

	p.logger.InfoContext(ctx, "starting pipeline run",
		slog.String("enrolment", inputs.EnrolmentPath),
		slog.String("demographic", inputs.DemographicPath),
		slog.String("biometric", inputs.BiometricPath),
	)

	feeds := []struct {
		spec FeedSpec
		path string
	}{
		{EnrolmentFeed, inputs.EnrolmentPath},
		{DemographicFeed, inputs.DemographicPath},
		{BiometricFeed, inputs.BiometricPath},
	}

	aggregates := make(map[string][]MonthlyActivity, len(feeds))
	for _, f := range feeds {
		if err := ctx.Err(); err != nil {
			p.metrics.IncRuns("error")
			return nil, fmt.Errorf("run cancelled: %w", err)
		}

		monthly, stats, err := p.processFeed(ctx, f.spec, f.path)
		if err != nil {
			p.metrics.IncRuns("error")
			return nil, err
		}
		aggregates[f.spec.Name] = monthly
		result.Stats[f.spec.Name] = *stats
	}

	stageStart := time.Now()
	series := MergeSeries(
		aggregates[EnrolmentFeed.Name],
		aggregates[DemographicFeed.Name],
		aggregates[BiometricFeed.Name],
	)
	p.finishStage(ctx, "merge", stageStart, fmt.Sprintf("%d region-months", len(series)))

	stageStart = time.Now()
	if err := ComputeBaselines(ctx, series); err != nil {
		p.metrics.IncRuns("error")
		return nil, fmt.Errorf("compute baselines: %w", err)
	}
	p.finishStage(ctx, "baseline", stageStart, "")

	stageStart = time.Now()
	DetectSilence(series)
	p.finishStage(ctx, "detect", stageStart, "")

	result.Records = series
	result.Regions = len(regionPartitions(series))
	result.Elapsed = time.Since(start)

	p.metrics.IncRuns("ok")
	p.metrics.SetRecordsEmitted(len(series))

	p.logger.InfoContext(ctx, "pipeline run completed",
		slog.Int("records", len(series)),
		slog.Int("regions", result.Regions),
		slog.Duration("elapsed", result.Elapsed),
	)

	return result, nil
}

// processFeed runs the normalize and aggregate stages for one feed.
func (p *Pipeline) processFeed(ctx context.Context, spec FeedSpec, path string) ([]MonthlyActivity, *NormalizeStats, error) {
	stageStart := time.Now()

	records, err := LoadFeedCSV(path)
	if err != nil {
		return nil, nil, fmt.Errorf("load %s feed: %w", spec.Name, err)
	}

	feed, stats, err := Normalize(records, spec, p.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("normalize %s feed: %w", spec.Name, err)
	}
	p.metrics.AddDroppedRows(spec.Name, "unparseable_date", stats.DroppedDates)
	p.metrics.AddDroppedRows(spec.Name, "invalid_pin", stats.DroppedPINs)
	p.finishStage(ctx, "normalize:"+spec.Name, stageStart, fmt.Sprintf("%d rows", len(feed.Rows)))

	stageStart = time.Now()
	monthly, err := Aggregate(feed)
	if err != nil {
		return nil, nil, fmt.Errorf("aggregate %s feed: %w", spec.Name, err)
	}
	p.finishStage(ctx, "aggregate:"+spec.Name, stageStart, fmt.Sprintf("%d region-months", len(monthly)))

	return monthly, stats, nil
}

func (p *Pipeline) finishStage(ctx context.Context, stage string, start time.Time, detail string) {
	elapsed := time.Since(start)
	p.metrics.ObserveStage(stage, elapsed)
	p.logger.DebugContext(ctx, "stage completed",
		slog.String("stage", stage),
		slog.Duration("elapsed", elapsed),
		slog.String("detail", detail),
	)
	if p.progress != nil {
		p.progress(stage, detail)
	}
}
