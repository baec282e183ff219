// Package analytics implements the consumer-side priority and trend engine.
// All functions here are evaluated per query over a selected record set; the
// pipeline's final table is never mutated.
package analytics

import (
	"sort"

	"szews/internal/pipeline"
)

// Priority score weights. Policy choice: current risk is favored over
// historical duration.
const (
	WeightRisk     = 0.35
	WeightDuration = 0.25
	WeightDepth    = 0.25
	WeightImpact   = 0.15
)

// ScoredRecord is a region-month with its normalized priority signals.
type ScoredRecord struct {
	pipeline.RegionMonth

	RiskNorm      float64 `json:"risk_norm"`
	DurationNorm  float64 `json:"dur_norm"`
	DepthNorm     float64 `json:"depth_norm"`
	ImpactNorm    float64 `json:"impact_norm"`
	PriorityScore float64 `json:"priority_score"`
}

// RankByPriority scores a selected record set and returns it ordered by
// descending intervention priority.
//
// Normalization denominators (max duration, max baseline) are computed over
// the given set, so scores are relative to the active filter scope — the same
// region can score differently under a different filter. This is intended
// behavior inherited from the scoring policy, not an implementation artifact.
// Ties break deterministically on region key, then month.
func RankByPriority(records []pipeline.RegionMonth) []ScoredRecord {
	if len(records) == 0 {
		return nil
	}

	var maxDuration, maxBaseline float64
	for _, rm := range records {
		if d := float64(rm.SilenceDuration); d > maxDuration {
			maxDuration = d
		}
		if rm.Baseline > maxBaseline {
			maxBaseline = rm.Baseline
		}
	}

	scored := make([]ScoredRecord, 0, len(records))
	for _, rm := range records {
		s := ScoredRecord{
			RegionMonth: rm,
			RiskNorm:    1 - rm.SZI,
			DepthNorm:   rm.SuppressionDepth / 100,
		}
		if maxDuration > 0 {
			s.DurationNorm = float64(rm.SilenceDuration) / maxDuration
		}
		if maxBaseline > 0 {
			s.ImpactNorm = rm.Baseline / maxBaseline
		}
		s.PriorityScore = WeightRisk*s.RiskNorm +
			WeightDuration*s.DurationNorm +
			WeightDepth*s.DepthNorm +
			WeightImpact*s.ImpactNorm
		scored = append(scored, s)
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].PriorityScore != scored[j].PriorityScore {
			return scored[i].PriorityScore > scored[j].PriorityScore
		}
		if scored[i].RegionID != scored[j].RegionID {
			return scored[i].RegionID < scored[j].RegionID
		}
		return scored[i].Month.Before(scored[j].Month)
	})

	return scored
}
