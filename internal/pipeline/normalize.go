package pipeline

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	apperrors "szews/internal/errors"
)

// Feed holds a normalized raw feed: canonical column indexes plus one row per
// surviving raw record. Rows keep the original record so the aggregator can
// read the source-specific sub-category columns.
type Feed struct {
	Spec    FeedSpec
	Columns map[string]int
	Rows    []FeedRow
}

// FeedRow is a single normalized raw record with its derived region key and
// month key.
type FeedRow struct {
	State    string
	District string
	PINCode  string
	RegionID string
	Month    time.Time
	Record   []string
}

// NormalizeStats counts rows dropped during normalization, per reason. The
// drops are silent by design (row-level defects never fail the run); the
// counts exist for observability.
type NormalizeStats struct {
	InputRows    int
	DroppedDates int
	DroppedPINs  int
}

// Normalize validates and standardizes one raw feed: canonical lowercase
// column names, parsed dates truncated to month, sanitized integer PIN codes,
// and the composite region key. The first record is the header row.
//
// A missing date, state, district, or PIN column is a schema violation and
// aborts the run; rows with unparseable dates or non-numeric PINs are dropped.
func Normalize(records [][]string, spec FeedSpec, logger *slog.Logger) (*Feed, *NormalizeStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(records) == 0 {
		return nil, nil, apperrors.NewSchemaError(fmt.Sprintf("%s feed has no header row", spec.Name), nil)
	}

	columns := canonicalColumns(records[0])

	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			return nil, nil, apperrors.NewSchemaError(
				fmt.Sprintf("%s feed missing required column %q", spec.Name, col), nil,
			).WithContext("columns", headerNames(columns))
		}
	}

	pinIdx, pinCol, ok := findPINColumn(columns)
	if !ok {
		return nil, nil, apperrors.NewSchemaError(
			fmt.Sprintf("%s feed missing PIN column (tried %s)", spec.Name, strings.Join(pinColumnCandidates, ", ")), nil,
		).WithContext("columns", headerNames(columns))
	}
	if pinCol != "pin_code" {
		delete(columns, pinCol)
		columns["pin_code"] = pinIdx
	}

	dateIdx := columns["date"]
	stateIdx := columns["state"]
	districtIdx := columns["district"]

	stats := &NormalizeStats{InputRows: len(records) - 1}
	feed := &Feed{Spec: spec, Columns: columns}

	for _, record := range records[1:] {
		date, err := parseFeedDate(cell(record, dateIdx))
		if err != nil {
			stats.DroppedDates++
			continue
		}

		pin, ok := sanitizePIN(cell(record, pinIdx))
		if !ok {
			stats.DroppedPINs++
			continue
		}

		state := strings.TrimSpace(cell(record, stateIdx))
		district := strings.TrimSpace(cell(record, districtIdx))

		feed.Rows = append(feed.Rows, FeedRow{
			State:    state,
			District: district,
			PINCode:  pin,
			RegionID: RegionID(state, district, pin),
			Month:    MonthOf(date),
			Record:   record,
		})
	}

	logger.Info("feed normalized",
		slog.String("feed", spec.Name),
		slog.Int("input_rows", stats.InputRows),
		slog.Int("kept_rows", len(feed.Rows)),
		slog.Int("dropped_dates", stats.DroppedDates),
		slog.Int("dropped_pins", stats.DroppedPINs),
	)

	return feed, stats, nil
}

// canonicalColumns maps trimmed lowercase header names to their indexes.
// When a header repeats, the first occurrence wins.
func canonicalColumns(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, exists := columns[key]; !exists {
			columns[key] = i
		}
	}
	return columns
}

// findPINColumn locates the first recognized PIN alias in the header.
func findPINColumn(columns map[string]int) (idx int, name string, ok bool) {
	for _, candidate := range pinColumnCandidates {
		if i, exists := columns[candidate]; exists {
			return i, candidate, true
		}
	}
	return 0, "", false
}

// sanitizePIN accepts integer-valued PINs, including float renderings such as
// "636010.0" that spreadsheet round-trips produce.
func sanitizePIN(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value != float64(int64(value)) || value < 0 {
		return "", false
	}
	return strconv.FormatInt(int64(value), 10), true
}

// feedDateFormats are tried in order when parsing raw transaction dates.
var feedDateFormats = []string{
	"2006-01-02",          // ISO format
	"02/01/2006",          // day-first
	"01/02/2006",          // month-first
	"2006/01/02",          // alternative ISO
	"2006-01-02 15:04:05", // with time
	"02-01-2006",          // day-first with dashes
	"2006-01",             // month-granular feeds
}

// parseFeedDate attempts each supported date format in turn.
func parseFeedDate(dateStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, format := range feedDateFormats {
		if date, err := time.Parse(format, dateStr); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}

// cell returns the value at idx, tolerating short rows.
func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// headerNames lists the canonical header names for error context.
func headerNames(columns map[string]int) []string {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	return names
}
