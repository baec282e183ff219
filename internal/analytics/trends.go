package analytics

import (
	"sort"

	"szews/internal/pipeline"
)

// Pre-silence warning thresholds: a sharp single-month SZI drop while the
// region is still nominally above the severe band. Catches regions about to
// cross into Severe before the run-length threshold confirms it.
const (
	PreSilenceDeltaThreshold = -0.08
	PreSilenceFloorSZI       = 0.30
)

// Warning is a pre-silence early-warning signal for one region-month.
type Warning struct {
	pipeline.RegionMonth

	SZIDelta float64 `json:"szi_delta"`
}

// PreSilenceWarnings computes month-over-month SZI deltas per region and
// returns the months where the delta breaches the warning threshold while SZI
// remains above the floor. Input order does not matter; each region is
// evaluated in month order. A region's first month has no delta and never
// warns.
func PreSilenceWarnings(records []pipeline.RegionMonth) []Warning {
	byRegion := make(map[string][]pipeline.RegionMonth)
	for _, rm := range records {
		byRegion[rm.RegionID] = append(byRegion[rm.RegionID], rm)
	}

	regionIDs := make([]string, 0, len(byRegion))
	for id := range byRegion {
		regionIDs = append(regionIDs, id)
	}
	sort.Strings(regionIDs)

	var warnings []Warning
	for _, id := range regionIDs {
		months := byRegion[id]
		sort.Slice(months, func(i, j int) bool {
			return months[i].Month.Before(months[j].Month)
		})

		for i := 1; i < len(months); i++ {
			delta := months[i].SZI - months[i-1].SZI
			if delta < PreSilenceDeltaThreshold && months[i].SZI > PreSilenceFloorSZI {
				warnings = append(warnings, Warning{RegionMonth: months[i], SZIDelta: delta})
			}
		}
	}

	return warnings
}

// TrendPoint is one month of a region's activity-vs-baseline trend line.
type TrendPoint struct {
	Month           string  `json:"month"`
	TotalActivity   float64 `json:"total_activity"`
	Baseline        float64 `json:"baseline_total_ma6"`
	BaselineDefined bool    `json:"baseline_defined"`
	SZI             float64 `json:"SZI"`
}

// RegionTrend extracts one region's month-ordered trend line from a record
// set.
func RegionTrend(records []pipeline.RegionMonth, regionID string) []TrendPoint {
	var months []pipeline.RegionMonth
	for _, rm := range records {
		if rm.RegionID == regionID {
			months = append(months, rm)
		}
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Month.Before(months[j].Month)
	})

	points := make([]TrendPoint, 0, len(months))
	for _, rm := range months {
		points = append(points, TrendPoint{
			Month:           rm.YYYYMM(),
			TotalActivity:   rm.TotalActivity,
			Baseline:        rm.Baseline,
			BaselineDefined: rm.BaselineDefined,
			SZI:             rm.SZI,
		})
	}
	return points
}
