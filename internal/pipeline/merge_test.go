package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthly(regionID, state, district, pin string, month time.Time, activity float64) MonthlyActivity {
	return MonthlyActivity{
		RegionID: regionID,
		State:    state,
		District: district,
		PINCode:  pin,
		Month:    month,
		Activity: activity,
	}
}

func TestMergeSeries_UnionCompleteness(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	enrol := []MonthlyActivity{
		monthly("Kerala | Idukki | 685501", "Kerala", "Idukki", "685501", jan, 10),
	}
	demo := []MonthlyActivity{
		monthly("Kerala | Idukki | 685501", "Kerala", "Idukki", "685501", feb, 20),
	}
	bio := []MonthlyActivity{
		monthly("Goa | North Goa | 403001", "Goa", "North Goa", "403001", jan, 5),
	}

	series := MergeSeries(enrol, demo, bio)
	require.Len(t, series, 3, "every (region, month) seen in any source survives")

	byKey := make(map[string]RegionMonth)
	for _, rm := range series {
		byKey[rm.RegionID+" "+rm.YYYYMM()] = rm
	}

	// Present only in enrolment: other activities fill with 0.
	rm := byKey["Kerala | Idukki | 685501 2024-01"]
	assert.Equal(t, 10.0, rm.EnrolActivity)
	assert.Zero(t, rm.DemoActivity)
	assert.Zero(t, rm.BioActivity)
	assert.Equal(t, 10.0, rm.TotalActivity, "total computed after the fill")

	rm = byKey["Kerala | Idukki | 685501 2024-02"]
	assert.Equal(t, 20.0, rm.DemoActivity)
	assert.Equal(t, 20.0, rm.TotalActivity)

	rm = byKey["Goa | North Goa | 403001 2024-01"]
	assert.Equal(t, 5.0, rm.BioActivity)
	assert.Equal(t, "Goa", rm.State)
	assert.Equal(t, "403001", rm.PINCode)
}

func TestMergeSeries_AllSourcesPresent(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	key := "Kerala | Idukki | 685501"

	series := MergeSeries(
		[]MonthlyActivity{monthly(key, "Kerala", "Idukki", "685501", jan, 1)},
		[]MonthlyActivity{monthly(key, "Kerala", "Idukki", "685501", jan, 2)},
		[]MonthlyActivity{monthly(key, "Kerala", "Idukki", "685501", jan, 4)},
	)

	require.Len(t, series, 1)
	assert.Equal(t, 7.0, series[0].TotalActivity)
}

func TestMergeSeries_Ordering(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	series := MergeSeries(
		[]MonthlyActivity{
			monthly("B | X | 2", "B", "X", "2", jan, 1),
			monthly("A | X | 1", "A", "X", "1", mar, 1),
			monthly("A | X | 1", "A", "X", "1", jan, 1),
		},
		nil, nil,
	)

	require.Len(t, series, 3)
	assert.Equal(t, "A | X | 1", series[0].RegionID)
	assert.Equal(t, "2024-01", series[0].YYYYMM())
	assert.Equal(t, "2024-03", series[1].YYYYMM())
	assert.Equal(t, "B | X | 2", series[2].RegionID)
}

func TestRegionPartitions(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	series := MergeSeries(
		[]MonthlyActivity{
			monthly("A | X | 1", "A", "X", "1", jan, 1),
			monthly("A | X | 1", "A", "X", "1", feb, 1),
			monthly("B | X | 2", "B", "X", "2", jan, 1),
		},
		nil, nil,
	)

	parts := regionPartitions(series)
	require.Len(t, parts, 2)
	assert.Equal(t, [2]int{0, 2}, parts[0])
	assert.Equal(t, [2]int{2, 3}, parts[1])

	assert.Empty(t, regionPartitions(nil))
}
