package pipeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "szews/internal/errors"
)

// MonthlyActivity is one source's activity total for a (region, month) key.
type MonthlyActivity struct {
	RegionID string
	State    string
	District string
	PINCode  string
	Month    time.Time
	Activity float64
}

// Aggregate sums a feed's sub-category columns into a single activity figure
// per raw row, then groups to one row per (region, month). Non-numeric or
// missing sub-category values coalesce to 0; a missing sub-category column is
// a schema violation and aborts the run.
func Aggregate(feed *Feed) ([]MonthlyActivity, error) {
	indexes := make([]int, 0, len(feed.Spec.ActivityColumns))
	for _, col := range feed.Spec.ActivityColumns {
		idx, ok := feed.Columns[col]
		if !ok {
			return nil, apperrors.NewSchemaError(
				fmt.Sprintf("%s feed missing activity column %q", feed.Spec.Name, col), nil,
			).WithContext("expected", feed.Spec.ActivityColumns)
		}
		indexes = append(indexes, idx)
	}

	grouped := make(map[string]*MonthlyActivity)
	for _, row := range feed.Rows {
		activity := 0.0
		for _, idx := range indexes {
			activity += parseCount(cell(row.Record, idx))
		}

		key := row.RegionID + "\x00" + row.Month.Format("2006-01")
		if agg, ok := grouped[key]; ok {
			agg.Activity += activity
			continue
		}
		grouped[key] = &MonthlyActivity{
			RegionID: row.RegionID,
			State:    row.State,
			District: row.District,
			PINCode:  row.PINCode,
			Month:    row.Month,
			Activity: activity,
		}
	}

	result := make([]MonthlyActivity, 0, len(grouped))
	for _, agg := range grouped {
		result = append(result, *agg)
	}
	sortByRegionMonth(result)
	return result, nil
}

// parseCount coalesces non-numeric activity counts to 0 rather than failing
// the run.
func parseCount(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return value
}

func sortByRegionMonth(rows []MonthlyActivity) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].RegionID != rows[j].RegionID {
			return rows[i].RegionID < rows[j].RegionID
		}
		return rows[i].Month.Before(rows[j].Month)
	})
}
