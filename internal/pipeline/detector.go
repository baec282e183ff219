package pipeline

// DetectSilence runs the per-region silence state machine over a
// region/month-sorted series, filling the run counters, state, duration, SZI,
// alert flag, and recommendation in place.
//
// Two independent binary conditions are evaluated each month — moderate
// (ratio < 0.60) and severe (ratio < 0.40) — each driving its own
// consecutive-run counter. The counters are independent because a region can
// breach the severe threshold while already inside a longer moderate streak;
// both streaks must keep counting in parallel. Warm-up months (no baseline
// yet) satisfy neither condition: a region cannot be silent relative to a
// baseline it does not have.
//
// Every record receives a state, duration, alert flag, and recommendation;
// upstream normalization guarantees the machine never observes undefined
// input.
func DetectSilence(series []RegionMonth) {
	for _, part := range regionPartitions(series) {
		detectRegion(series[part[0]:part[1]])
	}
}

// detectRegion folds over one region's months in ascending order, carrying
// the two run counters. The explicit fold keeps the reset semantics exact: a
// counter increments from the prior month while its condition holds and
// resets to exactly 0 the month it fails.
func detectRegion(region []RegionMonth) {
	moderateRun, severeRun := 0, 0

	for i := range region {
		rm := &region[i]

		flagModerate := rm.BaselineDefined && rm.SuppressionRatio < ModerateRatioThreshold
		flagSevere := rm.BaselineDefined && rm.SuppressionRatio < SevereRatioThreshold

		if flagModerate {
			moderateRun++
		} else {
			moderateRun = 0
		}
		if flagSevere {
			severeRun++
		} else {
			severeRun = 0
		}

		rm.ModerateRun = moderateRun
		rm.SevereRun = severeRun
		rm.SilenceState = Classify(moderateRun, severeRun)
		rm.SilenceDuration = silenceDuration(rm.SilenceState, moderateRun, severeRun)
		rm.SZI = clip01(rm.SuppressionRatio)
		rm.AlertFlag = alertFlag(rm.SilenceState, moderateRun, severeRun)
		rm.Recommendation = Recommend(rm.SilenceState, rm.SuppressionDepth)
	}
}

// Classify maps the two run counters to a silence state. Severe takes
// precedence over moderate.
func Classify(moderateRun, severeRun int) SilenceState {
	switch {
	case severeRun >= SevereRunMin:
		return StateSevere
	case moderateRun >= ModerateRunMin:
		return StateModerate
	default:
		return StateNormal
	}
}

// silenceDuration is the run counter matching the assigned state; 0 for
// Normal.
func silenceDuration(state SilenceState, moderateRun, severeRun int) int {
	switch state {
	case StateSevere:
		return severeRun
	case StateModerate:
		return moderateRun
	default:
		return 0
	}
}

// alertFlag raises the early warning on transition into a qualifying streak
// (the month a run first becomes classifiable) and while the severe state is
// sustained — never merely on a raw threshold breach, so an already-known
// moderate streak does not re-alert every month.
func alertFlag(state SilenceState, moderateRun, severeRun int) int {
	if state == StateSevere || moderateRun == ModerateRunMin || severeRun == SevereRunMin {
		return 1
	}
	return 0
}

// Recommend maps a classified record to its intervention label. Pure function
// of state and depth; no hidden shared state.
func Recommend(state SilenceState, depthPct float64) string {
	switch state {
	case StateSevere:
		if depthPct > 70 {
			return RecommendSevereDeep
		}
		return RecommendSevere
	case StateModerate:
		return RecommendModerate
	default:
		return RecommendNormal
	}
}

// clip01 clips the suppression ratio into [0, 1] for the SZI column.
func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
