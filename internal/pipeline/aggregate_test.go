package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "szews/internal/errors"
)

func normalizeForTest(t *testing.T, records [][]string, spec FeedSpec) *Feed {
	t.Helper()
	feed, _, err := Normalize(records, spec, nil)
	require.NoError(t, err)
	return feed
}

func TestAggregate_SumsSubCategories(t *testing.T) {
	records := [][]string{
		{"date", "state", "district", "pin_code", "age_0_5", "age_5_17", "age_18_greater"},
		{"2024-01-05", "Kerala", "Idukki", "685501", "10", "20", "30"},
	}
	feed := normalizeForTest(t, records, EnrolmentFeed)

	monthly, err := Aggregate(feed)
	require.NoError(t, err)
	require.Len(t, monthly, 1)
	assert.Equal(t, 60.0, monthly[0].Activity)
}

func TestAggregate_GroupsByRegionMonth(t *testing.T) {
	records := [][]string{
		{"date", "state", "district", "pin_code", "demo_age_5_17", "demo_age_17_"},
		{"2024-01-05", "Kerala", "Idukki", "685501", "1", "2"},
		{"2024-01-20", "Kerala", "Idukki", "685501", "3", "4"}, // same region, same month
		{"2024-02-05", "Kerala", "Idukki", "685501", "5", "6"}, // same region, next month
		{"2024-01-05", "Kerala", "Idukki", "685502", "7", "8"}, // different PIN => different region
	}
	feed := normalizeForTest(t, records, DemographicFeed)

	monthly, err := Aggregate(feed)
	require.NoError(t, err)
	require.Len(t, monthly, 3)

	byKey := make(map[string]float64)
	for _, m := range monthly {
		byKey[m.RegionID+" "+m.Month.Format("2006-01")] = m.Activity
	}
	assert.Equal(t, 10.0, byKey["Kerala | Idukki | 685501 2024-01"])
	assert.Equal(t, 11.0, byKey["Kerala | Idukki | 685501 2024-02"])
	assert.Equal(t, 15.0, byKey["Kerala | Idukki | 685502 2024-01"])
}

func TestAggregate_NonNumericCoalescesToZero(t *testing.T) {
	records := [][]string{
		{"date", "state", "district", "pin_code", "bio_age_5_17", "bio_age_17_"},
		{"2024-01-05", "Kerala", "Idukki", "685501", "n/a", "25"},
		{"2024-01-06", "Kerala", "Idukki", "685501", "", "5"},
	}
	feed := normalizeForTest(t, records, BiometricFeed)

	monthly, err := Aggregate(feed)
	require.NoError(t, err)
	require.Len(t, monthly, 1)
	assert.Equal(t, 30.0, monthly[0].Activity)
}

func TestAggregate_MissingActivityColumn(t *testing.T) {
	records := [][]string{
		{"date", "state", "district", "pin_code", "age_0_5", "age_5_17"}, // age_18_greater absent
		{"2024-01-05", "Kerala", "Idukki", "685501", "1", "2"},
	}
	feed := normalizeForTest(t, records, EnrolmentFeed)

	_, err := Aggregate(feed)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema))
}

func TestAggregate_OutputOrdered(t *testing.T) {
	records := [][]string{
		{"date", "state", "district", "pin_code", "age_0_5", "age_5_17", "age_18_greater"},
		{"2024-03-01", "B", "X", "200000", "1", "0", "0"},
		{"2024-01-01", "B", "X", "200000", "1", "0", "0"},
		{"2024-01-01", "A", "X", "100000", "1", "0", "0"},
	}
	feed := normalizeForTest(t, records, EnrolmentFeed)

	monthly, err := Aggregate(feed)
	require.NoError(t, err)
	require.Len(t, monthly, 3)

	assert.Equal(t, "A | X | 100000", monthly[0].RegionID)
	assert.Equal(t, "B | X | 200000", monthly[1].RegionID)
	assert.Equal(t, time.January, monthly[1].Month.Month())
	assert.Equal(t, time.March, monthly[2].Month.Month())
}
