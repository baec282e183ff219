// Package services holds the application services behind the reporting API:
// read-only access to the final table and orchestration of pipeline runs.
package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"szews/internal/analytics"
	"szews/internal/exporter"
	"szews/internal/pipeline"
)

// ErrTableNotFound indicates the final table has not been computed yet.
var ErrTableNotFound = errors.New("final table not found")

// ReportService provides read-only access to the final region-month table.
// The table is memoized per file version (size + modification time); a
// recomputed table is picked up automatically, and Invalidate forces a
// reload.
type ReportService struct {
	tablePath string
	logger    *slog.Logger

	mu    sync.Mutex
	cache *tableCache
}

type tableCache struct {
	records []pipeline.RegionMonth
	size    int64
	modTime time.Time
}

// NewReportService creates a report service over the final table at
// tablePath.
func NewReportService(tablePath string, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		tablePath: tablePath,
		logger:    logger.With(slog.String("component", "report_service")),
	}
}

// Load returns the final table, reading it from disk only when the file
// version changed since the last load. Rows missing their region key or SZI
// are dropped with a logged count (data-quality warning, not an error).
func (s *ReportService) Load(ctx context.Context) ([]pipeline.RegionMonth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.tablePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}

	if s.cache != nil && s.cache.size == info.Size() && s.cache.modTime.Equal(info.ModTime()) {
		return s.cache.records, nil
	}

	records, dropped, err := exporter.ReadFinalCSV(s.tablePath)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		s.logger.WarnContext(ctx, "dropped defective rows while loading final table",
			slog.Int("dropped", dropped),
			slog.String("table", s.tablePath),
		)
	}

	s.cache = &tableCache{records: records, size: info.Size(), modTime: info.ModTime()}
	s.logger.InfoContext(ctx, "final table loaded",
		slog.Int("records", len(records)),
		slog.String("table", s.tablePath),
	)
	return records, nil
}

// Invalidate discards the memoized table so the next Load re-reads the file.
func (s *ReportService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = nil
}

// Filter selects a subset of the final table. Empty fields match everything.
type Filter struct {
	State    string // exact match on geographic state
	Category string // SZI category label
	Search   string // case-insensitive substring over district and PIN
	Month    string // yyyymm ("2006-01")
}

// FilteredRecords loads the table and applies the filter.
func (s *ReportService) FilteredRecords(ctx context.Context, f Filter) ([]pipeline.RegionMonth, error) {
	records, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return ApplyFilter(records, f), nil
}

// ApplyFilter returns the records matching f. An empty result is a valid
// informational state, never an error.
func ApplyFilter(records []pipeline.RegionMonth, f Filter) []pipeline.RegionMonth {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	var out []pipeline.RegionMonth
	for _, rm := range records {
		if f.State != "" && rm.State != f.State {
			continue
		}
		if f.Category != "" && analytics.SZICategory(rm.SZI) != f.Category {
			continue
		}
		if f.Month != "" && rm.YYYYMM() != f.Month {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(rm.District), search) &&
			!strings.Contains(strings.ToLower(rm.PINCode), search) {
			continue
		}
		out = append(out, rm)
	}
	return out
}

// Summary holds the dashboard KPIs for a record set.
type Summary struct {
	Records      int            `json:"records"`
	Regions      int            `json:"regions"`
	AvgSZI       float64        `json:"avg_szi"`
	SevereZones  int            `json:"severe_zones"`
	ActiveAlerts int            `json:"active_alerts"`
	Categories   map[string]int `json:"categories"`
}

// Summarize computes the KPIs over a record set.
func Summarize(records []pipeline.RegionMonth) Summary {
	summary := Summary{
		Records:    len(records),
		Categories: make(map[string]int),
	}

	regions := make(map[string]struct{})
	var sziSum float64
	for _, rm := range records {
		regions[rm.RegionID] = struct{}{}
		sziSum += rm.SZI

		category := analytics.SZICategory(rm.SZI)
		summary.Categories[category]++
		if category == analytics.CategorySevere {
			summary.SevereZones++
		}
		if rm.AlertFlag == 1 {
			summary.ActiveAlerts++
		}
	}

	summary.Regions = len(regions)
	if len(records) > 0 {
		summary.AvgSZI = sziSum / float64(len(records))
	}
	return summary
}

// WorstZones returns the n records with the lowest SZI, ties broken by region
// key then month for reproducible ordering.
func WorstZones(records []pipeline.RegionMonth, n int) []pipeline.RegionMonth {
	sorted := make([]pipeline.RegionMonth, len(records))
	copy(sorted, records)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].SZI != sorted[j].SZI {
			return sorted[i].SZI < sorted[j].SZI
		}
		if sorted[i].RegionID != sorted[j].RegionID {
			return sorted[i].RegionID < sorted[j].RegionID
		}
		return sorted[i].Month.Before(sorted[j].Month)
	})

	if n > 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
