package pipeline

import (
	"sort"
)

// MergeSeries outer-joins the three monthly aggregates on the region+month
// key. A region-month present in any one source appears in the merged series;
// activity for sources lacking that key is filled with 0, never dropped.
// TotalActivity is computed after the fill. The result is ordered by region,
// then month ascending, which every downstream stage relies on.
func MergeSeries(enrol, demo, bio []MonthlyActivity) []RegionMonth {
	merged := make(map[string]*RegionMonth)

	join := func(rows []MonthlyActivity, assign func(*RegionMonth, float64)) {
		for _, row := range rows {
			key := row.RegionID + "\x00" + row.Month.Format("2006-01")
			rm, ok := merged[key]
			if !ok {
				rm = &RegionMonth{
					RegionID: row.RegionID,
					State:    row.State,
					District: row.District,
					PINCode:  row.PINCode,
					Month:    row.Month,
				}
				merged[key] = rm
			}
			assign(rm, row.Activity)
		}
	}

	join(enrol, func(rm *RegionMonth, v float64) { rm.EnrolActivity = v })
	join(demo, func(rm *RegionMonth, v float64) { rm.DemoActivity = v })
	join(bio, func(rm *RegionMonth, v float64) { rm.BioActivity = v })

	series := make([]RegionMonth, 0, len(merged))
	for _, rm := range merged {
		rm.TotalActivity = rm.EnrolActivity + rm.DemoActivity + rm.BioActivity
		series = append(series, *rm)
	}

	sort.Slice(series, func(i, j int) bool {
		if series[i].RegionID != series[j].RegionID {
			return series[i].RegionID < series[j].RegionID
		}
		return series[i].Month.Before(series[j].Month)
	})

	return series
}

// regionPartitions returns the index ranges of each region's contiguous block
// in a region/month-sorted series. Per-region computations are independent
// and may run in parallel; months within a block are already ascending.
func regionPartitions(series []RegionMonth) [][2]int {
	var partitions [][2]int
	start := 0
	for i := 1; i <= len(series); i++ {
		if i == len(series) || series[i].RegionID != series[start].RegionID {
			partitions = append(partitions, [2]int{start, i})
			start = i
		}
	}
	return partitions
}
