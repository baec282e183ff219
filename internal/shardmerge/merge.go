// Package shardmerge concatenates raw per-source CSV shards into the single
// feed files the pipeline's normalizer expects. This is the only stage with
// partial-failure tolerance: an unreadable shard is skipped and the remaining
// shards are still merged.
package shardmerge

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	apperrors "szews/internal/errors"
)

// Result summarizes one merge.
type Result struct {
	Shards  int
	Skipped int
	Rows    int
}

// MergeShards concatenates every *.csv shard under shardDir into outPath.
// The first readable shard's header is written once; subsequent shards have
// their header row dropped when it matches. Shards that cannot be opened or
// parsed are logged and skipped. Zero shards is an informational empty state,
// reported as a NOT_FOUND error the caller can treat as non-fatal.
func MergeShards(shardDir, outPath string, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	shards, err := filepath.Glob(filepath.Join(shardDir, "*.csv"))
	if err != nil {
		return nil, apperrors.NewStorageError("list shard files", err)
	}
	if len(shards) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no CSV shards found in %s", shardDir), nil)
	}
	sort.Strings(shards)

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, apperrors.NewStorageError("create output directory", err)
	}
	out, err := os.Create(outPath)
	if err != nil {
		return nil, apperrors.NewStorageError("create merged feed file", err)
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	defer writer.Flush()

	result := &Result{}
	var header []string

	for _, shard := range shards {
		rows, err := readShard(shard)
		if err != nil {
			result.Skipped++
			logger.Warn("skipping unreadable shard",
				slog.String("shard", filepath.Base(shard)),
				slog.String("error", err.Error()),
			)
			continue
		}
		if len(rows) == 0 {
			continue
		}

		start := 0
		if header == nil {
			header = rows[0]
			if err := writer.Write(header); err != nil {
				return nil, apperrors.NewStorageError("write merged header", err)
			}
			start = 1
		} else if equalRow(rows[0], header) {
			start = 1
		}

		for _, row := range rows[start:] {
			if err := writer.Write(row); err != nil {
				return nil, apperrors.NewStorageError("write merged row", err)
			}
			result.Rows++
		}
		result.Shards++

		logger.Info("merged shard",
			slog.String("shard", filepath.Base(shard)),
			slog.Int("rows", len(rows)-start),
		)
	}

	if err := writer.Error(); err != nil {
		return nil, apperrors.NewStorageError("flush merged feed", err)
	}
	return result, nil
}

func readShard(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

func equalRow(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
