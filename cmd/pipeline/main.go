// Command pipeline runs one full recomputation: the three merged feeds in,
// the final region-month table (CSV and Excel) out.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"szews/internal/config"
	"szews/internal/infrastructure"
	"szews/internal/services"
)

func main() {
	dataDir := flag.String("data", "", "data directory override (defaults to configured paths)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}

	if err := cfg.Paths.EnsureDirs(); err != nil {
		logger.Error("failed to create data directories", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runCtx, cancel := context.WithTimeout(ctx, cfg.Pipeline.RunTimeout)
	defer cancel()

	runner := services.NewRunnerService(cfg, logger, nil, nil, nil)
	runID := uuid.New().String()

	if err := runner.Execute(runCtx, runID); err != nil {
		logger.Error("pipeline run failed",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	logger.Info("pipeline run succeeded",
		slog.String("run_id", runID),
		slog.String("final_table", cfg.Paths.FinalTablePath()),
		slog.String("excel_report", cfg.Paths.ExcelReportPath()),
	)
}
