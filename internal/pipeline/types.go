package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// SilenceState classifies a region-month by the severity of its activity
// suppression.
type SilenceState int

const (
	// StateNormal means no qualifying suppression streak is in progress.
	StateNormal SilenceState = iota
	// StateModerate means the moderate condition has held for at least 2 consecutive months.
	StateModerate
	// StateSevere means the severe condition has held for at least 3 consecutive months.
	StateSevere
)

// String returns the string representation of the silence state.
func (s SilenceState) String() string {
	switch s {
	case StateNormal:
		return "Normal"
	case StateModerate:
		return "Moderate"
	case StateSevere:
		return "Severe"
	default:
		return "unknown"
	}
}

// Detection thresholds and run lengths for the silence state machine.
const (
	// ModerateRatioThreshold marks a month as moderately suppressed when the
	// suppression ratio falls below it.
	ModerateRatioThreshold = 0.60
	// SevereRatioThreshold marks a month as severely suppressed.
	SevereRatioThreshold = 0.40

	// ModerateRunMin is the consecutive-month run required before a moderate
	// streak becomes classifiable.
	ModerateRunMin = 2
	// SevereRunMin is the consecutive-month run required before a severe
	// streak becomes classifiable.
	SevereRunMin = 3

	// BaselineWindow is the trailing window (in months, current inclusive)
	// for the rolling activity baseline.
	BaselineWindow = 6
	// BaselineMinObs is the minimum number of observed months before a
	// baseline value is produced for a region.
	BaselineMinObs = 3
)

// Recommendation labels attached to each classified region-month.
const (
	RecommendSevereDeep = "Deploy Mobile Van + Temporary Camp + Infra Audit"
	RecommendSevere     = "Deploy Mobile Van + Temporary Camp"
	RecommendModerate   = "Outreach + Temporary Camp + Monitoring"
	RecommendNormal     = "Normal Monitoring"
)

// MarshalJSON serializes the state as its label so API consumers see
// "Normal"/"Moderate"/"Severe" rather than the internal enum value.
func (s SilenceState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON parses a state label back into the enum.
func (s *SilenceState) UnmarshalJSON(data []byte) error {
	label := strings.Trim(string(data), `"`)
	parsed, err := ParseSilenceState(label)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSilenceState converts a state label into a SilenceState.
func ParseSilenceState(label string) (SilenceState, error) {
	switch label {
	case "Normal":
		return StateNormal, nil
	case "Moderate":
		return StateModerate, nil
	case "Severe":
		return StateSevere, nil
	default:
		return StateNormal, fmt.Errorf("unknown silence state: %q", label)
	}
}

// RegionMonth is the atomic unit of the derived time series: one region's
// activity and silence classification for one calendar month. Each pipeline
// stage fills in its own column set; earlier columns are never mutated by
// later stages.
type RegionMonth struct {
	RegionID string    `json:"region_id"`
	State    string    `json:"state"`
	District string    `json:"district"`
	PINCode  string    `json:"pin_code"`
	Month    time.Time `json:"month"` // first-of-month, UTC

	// Activity columns (Series Merger output).
	EnrolActivity float64 `json:"enrol_activity"`
	DemoActivity  float64 `json:"demo_activity"`
	BioActivity   float64 `json:"bio_activity"`
	TotalActivity float64 `json:"total_activity"`

	// Baseline & suppression columns (Baseline Engine output).
	// Baseline is only meaningful when BaselineDefined is true; the first
	// BaselineMinObs-1 months of every region have no baseline.
	Baseline         float64 `json:"baseline_total_ma6"`
	BaselineDefined  bool    `json:"baseline_defined"`
	SuppressionRatio float64 `json:"suppression_ratio"`
	SuppressionDepth float64 `json:"suppression_depth_pct"`

	// Silence Detector output.
	ModerateRun     int          `json:"moderate_run"`
	SevereRun       int          `json:"severe_run"`
	SilenceState    SilenceState `json:"silence_state"`
	SilenceDuration int          `json:"silence_duration_months"`
	SZI             float64      `json:"SZI"`
	AlertFlag       int          `json:"alert_flag"`
	Recommendation  string       `json:"recommendation"`
}

// YYYYMM returns the month key in "2006-01" form.
func (rm RegionMonth) YYYYMM() string {
	return rm.Month.Format("2006-01")
}

// RegionID builds the composite region key from its three components.
// Components are trimmed; the join format is load-bearing because the key is
// the partition identity for every downstream stage.
func RegionID(state, district, pinCode string) string {
	return fmt.Sprintf("%s | %s | %s",
		strings.TrimSpace(state), strings.TrimSpace(district), strings.TrimSpace(pinCode))
}

// MonthOf truncates a transaction date to its first-of-month key in UTC.
func MonthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
