// Command merger concatenates raw per-source CSV shards into the three feed
// files the pipeline consumes. Unreadable shards are skipped; a source with
// no shards at all is reported and skipped, not failed.
package main

import (
	"flag"
	"log/slog"
	"os"

	"szews/internal/config"
	apperrors "szews/internal/errors"
	"szews/internal/infrastructure"
	"szews/internal/pipeline"
	"szews/internal/shardmerge"
)

func main() {
	rawDir := flag.String("raw", "", "directory containing per-source shard folders (defaults to <data>/raw)")
	outDir := flag.String("out", "", "output directory for merged feeds (defaults to <data>/processed)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
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

	sources := []string{
		pipeline.EnrolmentFeed.Name,
		pipeline.DemographicFeed.Name,
		pipeline.BiometricFeed.Name,
	}

	merged := 0
	for _, source := range sources {
		shardDir := cfg.Paths.RawSourceDir(source)
		if *rawDir != "" {
			shardDir = *rawDir + "/" + source
		}
		outPath := cfg.Paths.FeedPath(source)
		if *outDir != "" {
			outPath = *outDir + "/" + source + "_all.csv"
		}

		result, err := shardmerge.MergeShards(shardDir, outPath, logger)
		if err != nil {
			if apperrors.IsType(err, apperrors.ErrTypeNotFound) {
				logger.Info("no shards for source, skipping",
					slog.String("source", source),
					slog.String("dir", shardDir),
				)
				continue
			}
			logger.Error("shard merge failed",
				slog.String("source", source),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}

		logger.Info("feed merged",
			slog.String("source", source),
			slog.String("output", outPath),
			slog.Int("shards", result.Shards),
			slog.Int("skipped", result.Skipped),
			slog.Int("rows", result.Rows),
		)
		merged++
	}

	if merged == 0 {
		logger.Warn("no feeds merged; nothing to do")
	}
}
