package pipeline

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ComputeBaselines fills the baseline and suppression columns of a
// region/month-sorted series in place.
//
// Per region the baseline is a trailing rolling mean of TotalActivity over
// BaselineWindow months (current month inclusive) with at least BaselineMinObs
// observed months; earlier months have no baseline. The suppression ratio is
// TotalActivity / baseline, normalized to 0 whenever the baseline is
// undefined, zero, or the division is non-finite, so the column stays totally
// ordered.
//
// Regions are processed in parallel; each goroutine writes only its own
// region's contiguous index range.
func ComputeBaselines(ctx context.Context, series []RegionMonth) error {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for _, part := range regionPartitions(series) {
		region := series[part[0]:part[1]]
		g.Go(func() error {
			computeRegionBaseline(region)
			return nil
		})
	}

	return g.Wait()
}

// computeRegionBaseline evaluates one region's months in ascending order.
func computeRegionBaseline(region []RegionMonth) {
	var windowSum float64

	for i := range region {
		windowSum += region[i].TotalActivity
		if i >= BaselineWindow {
			windowSum -= region[i-BaselineWindow].TotalActivity
		}

		observed := i + 1
		if observed > BaselineWindow {
			observed = BaselineWindow
		}

		if i+1 < BaselineMinObs {
			// Warm-up: no baseline yet for this region.
			region[i].SuppressionRatio = 0
			region[i].SuppressionDepth = suppressionDepth(0)
			continue
		}

		baseline := windowSum / float64(observed)
		region[i].Baseline = baseline
		region[i].BaselineDefined = true
		region[i].SuppressionRatio = normalizeRatio(region[i].TotalActivity, baseline)
		region[i].SuppressionDepth = suppressionDepth(region[i].SuppressionRatio)
	}
}

// normalizeRatio guards the division: a zero baseline or a non-finite result
// collapses to 0 instead of propagating Inf/NaN downstream.
func normalizeRatio(activity, baseline float64) float64 {
	if baseline == 0 {
		return 0
	}
	ratio := activity / baseline
	if math.IsInf(ratio, 0) || math.IsNaN(ratio) {
		return 0
	}
	return ratio
}

// suppressionDepth is how far below baseline the month sits, floored at 0.
func suppressionDepth(ratio float64) float64 {
	depth := (1 - ratio) * 100
	if depth < 0 {
		return 0
	}
	return depth
}
