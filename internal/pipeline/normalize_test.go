package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "szews/internal/errors"
)

func TestNormalize_CanonicalHeadersAndRegionKey(t *testing.T) {
	records := [][]string{
		{" Date ", "STATE", "District", "Pincode", "age_0_5"},
		{"2024-03-15", " Tamil Nadu ", " Salem ", "636010", "12"},
	}

	feed, stats, err := Normalize(records, EnrolmentFeed, nil)
	require.NoError(t, err)
	require.Len(t, feed.Rows, 1)

	row := feed.Rows[0]
	assert.Equal(t, "Tamil Nadu", row.State)
	assert.Equal(t, "Salem", row.District)
	assert.Equal(t, "636010", row.PINCode)
	assert.Equal(t, "Tamil Nadu | Salem | 636010", row.RegionID)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), row.Month, "date truncates to first-of-month")

	// The PIN alias is renamed to the canonical column.
	_, hasCanonical := feed.Columns["pin_code"]
	assert.True(t, hasCanonical)
	assert.Equal(t, 1, stats.InputRows)
}

func TestNormalize_MissingRequiredColumn(t *testing.T) {
	tests := []struct {
		name   string
		header []string
	}{
		{"missing date", []string{"state", "district", "pin_code"}},
		{"missing state", []string{"date", "district", "pin_code"}},
		{"missing district", []string{"date", "state", "pin_code"}},
		{"missing pin alias", []string{"date", "state", "district", "zipcode"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize([][]string{tt.header}, EnrolmentFeed, nil)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSchema), "expected schema violation, got %v", err)
		})
	}
}

func TestNormalize_PINAliases(t *testing.T) {
	for _, alias := range []string{"pin_code", "pincode", "pin", "postal_code"} {
		t.Run(alias, func(t *testing.T) {
			records := [][]string{
				{"date", "state", "district", alias},
				{"2024-01-01", "Kerala", "Idukki", "685501"},
			}
			feed, _, err := Normalize(records, EnrolmentFeed, nil)
			require.NoError(t, err)
			require.Len(t, feed.Rows, 1)
			assert.Equal(t, "685501", feed.Rows[0].PINCode)
		})
	}
}

func TestNormalize_RowLevelDrops(t *testing.T) {
	records := [][]string{
		{"date", "state", "district", "pin_code"},
		{"2024-01-10", "Kerala", "Idukki", "685501"},   // kept
		{"not-a-date", "Kerala", "Idukki", "685501"},   // dropped: date
		{"", "Kerala", "Idukki", "685501"},             // dropped: date
		{"2024-01-11", "Kerala", "Idukki", "ABC123"},   // dropped: pin
		{"2024-01-12", "Kerala", "Idukki", ""},         // dropped: pin
		{"2024-01-13", "Kerala", "Idukki", "685501.0"}, // kept: float-rendered pin
	}

	feed, stats, err := Normalize(records, EnrolmentFeed, nil)
	require.NoError(t, err)

	assert.Len(t, feed.Rows, 2)
	assert.Equal(t, 6, stats.InputRows)
	assert.Equal(t, 2, stats.DroppedDates)
	assert.Equal(t, 2, stats.DroppedPINs)
	assert.Equal(t, "685501", feed.Rows[1].PINCode, "float rendering sanitizes to the integer string")
}

func TestNormalize_DateFormats(t *testing.T) {
	tests := []struct {
		raw      string
		expected time.Time
	}{
		{"2024-07-09", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
		{"09/07/2024", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
		{"2024/07/09", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-07-09 13:45:00", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
		{"2024-07", time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			records := [][]string{
				{"date", "state", "district", "pin_code"},
				{tt.raw, "Goa", "North Goa", "403001"},
			}
			feed, _, err := Normalize(records, EnrolmentFeed, nil)
			require.NoError(t, err)
			require.Len(t, feed.Rows, 1)
			assert.Equal(t, tt.expected, feed.Rows[0].Month)
		})
	}
}

func TestSanitizePIN(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
		ok       bool
	}{
		{"636010", "636010", true},
		{" 636010 ", "636010", true},
		{"636010.0", "636010", true},
		{"636010.5", "", false},
		{"-1", "", false},
		{"abc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := sanitizePIN(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}
