package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"szews/internal/config"
	"szews/internal/exporter"
	"szews/internal/infrastructure"
	"szews/internal/pipeline"
)

// ErrRunInProgress indicates a pipeline run is already executing. Exactly one
// producer rebuilds the table at a time.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// RunEvent is broadcast to subscribers as a run progresses.
type RunEvent struct {
	RunID     string    `json:"run_id"`
	Stage     string    `json:"stage"`
	Detail    string    `json:"detail,omitempty"`
	Status    string    `json:"status"` // "running", "completed", "failed"
	Timestamp time.Time `json:"timestamp"`
}

// RunBroadcaster publishes run events to connected clients.
type RunBroadcaster interface {
	Broadcast(event interface{})
}

// RunnerService executes full pipeline recomputations: merged feeds in, final
// table (CSV + Excel) out, with progress events along the way.
type RunnerService struct {
	cfg         *config.Config
	logger      *slog.Logger
	metrics     *infrastructure.PipelineMetrics
	reports     *ReportService
	broadcaster RunBroadcaster

	mu      sync.Mutex
	running bool
}

// NewRunnerService creates a runner service. broadcaster may be nil when no
// progress surface is wired (CLI runs).
func NewRunnerService(
	cfg *config.Config,
	logger *slog.Logger,
	metrics *infrastructure.PipelineMetrics,
	reports *ReportService,
	broadcaster RunBroadcaster,
) *RunnerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunnerService{
		cfg:         cfg,
		logger:      logger.With(slog.String("component", "runner_service")),
		metrics:     metrics,
		reports:     reports,
		broadcaster: broadcaster,
	}
}

// Trigger starts a pipeline run in the background and returns its run ID.
// Returns ErrRunInProgress while a run is active.
func (s *RunnerService) Trigger(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return "", ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	runID := uuid.New().String()

	go func() {
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()

		runCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Pipeline.RunTimeout)
		defer cancel()

		if err := s.Execute(runCtx, runID); err != nil {
			s.logger.Error("pipeline run failed",
				slog.String("run_id", runID),
				slog.String("error", err.Error()),
			)
			s.emit(runID, "pipeline", err.Error(), "failed")
			return
		}
		s.emit(runID, "pipeline", "", "completed")
	}()

	return runID, nil
}

// Execute runs the pipeline synchronously and writes the CSV and Excel
// outputs. Used directly by the CLI runner and indirectly by Trigger.
func (s *RunnerService) Execute(ctx context.Context, runID string) error {
	paths := s.cfg.Paths

	progress := func(stage, detail string) {
		s.emit(runID, stage, detail, "running")
	}

	p := pipeline.New(s.logger, pipeline.WithMetrics(s.metrics), pipeline.WithProgress(progress))

	result, err := p.Run(ctx, pipeline.Inputs{
		EnrolmentPath:   paths.FeedPath(pipeline.EnrolmentFeed.Name),
		DemographicPath: paths.FeedPath(pipeline.DemographicFeed.Name),
		BiometricPath:   paths.FeedPath(pipeline.BiometricFeed.Name),
	})
	if err != nil {
		return err
	}

	if err := exporter.WriteFinalCSV(paths.FinalTablePath(), result.Records); err != nil {
		return err
	}
	s.emit(runID, "export:csv", paths.FinalTablePath(), "running")

	if err := exporter.WriteFinalExcel(paths.ExcelReportPath(), result.Records); err != nil {
		return err
	}
	s.emit(runID, "export:excel", paths.ExcelReportPath(), "running")

	if s.reports != nil {
		s.reports.Invalidate()
	}

	s.logger.InfoContext(ctx, "pipeline outputs written",
		slog.String("run_id", runID),
		slog.Int("records", len(result.Records)),
		slog.Int("regions", result.Regions),
		slog.Duration("elapsed", result.Elapsed),
	)
	return nil
}

func (s *RunnerService) emit(runID, stage, detail, status string) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Broadcast(RunEvent{
		RunID:     runID,
		Stage:     stage,
		Detail:    detail,
		Status:    status,
		Timestamp: time.Now().UTC(),
	})
}
