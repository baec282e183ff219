package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
)

// FeedSpec describes one raw Aadhaar service-activity feed: its name and the
// numeric sub-category columns that sum into the per-row activity figure.
type FeedSpec struct {
	Name            string
	ActivityColumns []string
}

// The three feeds the pipeline understands. The sub-category columns are part
// of the upstream data contract; a feed missing any of them is a schema
// violation and aborts the run.
var (
	EnrolmentFeed = FeedSpec{
		Name:            "enrolment",
		ActivityColumns: []string{"age_0_5", "age_5_17", "age_18_greater"},
	}
	DemographicFeed = FeedSpec{
		Name:            "demographic",
		ActivityColumns: []string{"demo_age_5_17", "demo_age_17_"},
	}
	BiometricFeed = FeedSpec{
		Name:            "biometric",
		ActivityColumns: []string{"bio_age_5_17", "bio_age_17_"},
	}
)

// pinColumnCandidates are the recognized aliases for the PIN column, checked
// in order. The first match is renamed to the canonical "pin_code".
var pinColumnCandidates = []string{"pin_code", "pincode", "pin", "postal_code"}

// requiredColumns must be present in every feed before normalization; the
// region key cannot be formed without them.
var requiredColumns = []string{"date", "state", "district"}

// LoadFeedCSV reads a raw feed file into header + records. Ragged rows are
// tolerated (the csv reader's field count check is disabled) because shard
// merging can concatenate files with trailing-comma differences; short rows
// are handled during normalization.
func LoadFeedCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read feed records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty feed file: %s", path)
	}
	return records, nil
}
