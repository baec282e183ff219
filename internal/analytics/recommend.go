package analytics

import (
	"szews/internal/pipeline"
)

// Dynamic recommendation labels for ranked action lists. These are the
// planner-facing heuristic, distinct from the per-record recommendation the
// detector persists in the final table.
const (
	ActionImmediate = "Immediate mobile enrollment + infra audit"
	ActionBiometric = "Biometric device refresh and operator training"
	ActionOutreach  = "Awareness drive and outreach camps"
	ActionMonitor   = "Monitor and reassess next cycle"
)

// Heuristic thresholds for the dynamic recommendation.
const (
	actionDurationMin   = 4
	actionDepthMin      = 50.0
	actionEnrolFraction = 0.4
)

// DynamicRecommendation evaluates the ranked-list heuristic for one record.
// Per-row only — no cross-row normalization, unlike the priority score.
func DynamicRecommendation(rm pipeline.RegionMonth) string {
	switch {
	case rm.SilenceDuration >= actionDurationMin && rm.SuppressionDepth >= actionDepthMin:
		return ActionImmediate
	case rm.BioActivity < rm.DemoActivity:
		return ActionBiometric
	case rm.EnrolActivity < rm.Baseline*actionEnrolFraction:
		return ActionOutreach
	default:
		return ActionMonitor
	}
}

// SZI category bands used by the reporting layer's filters and KPI
// distributions.
const (
	CategorySevere   = "Severe Silence"
	CategoryModerate = "Moderate Silence"
	CategoryNormal   = "Normal"
)

// SZICategory maps an SZI value to its reporting category.
func SZICategory(szi float64) string {
	switch {
	case szi <= 0.30:
		return CategorySevere
	case szi <= 0.60:
		return CategoryModerate
	default:
		return CategoryNormal
	}
}
