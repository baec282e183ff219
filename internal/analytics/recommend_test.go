package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"szews/internal/pipeline"
)

func TestDynamicRecommendation(t *testing.T) {
	tests := []struct {
		name     string
		rm       pipeline.RegionMonth
		expected string
	}{
		{
			name: "long deep silence wins immediately",
			rm: pipeline.RegionMonth{
				SilenceDuration:  4,
				SuppressionDepth: 50,
				BioActivity:      0, // would also match the biometric branch
				DemoActivity:     10,
			},
			expected: ActionImmediate,
		},
		{
			name: "biometric lag",
			rm: pipeline.RegionMonth{
				SilenceDuration:  2,
				SuppressionDepth: 80,
				BioActivity:      5,
				DemoActivity:     20,
			},
			expected: ActionBiometric,
		},
		{
			name: "enrolment collapse relative to baseline",
			rm: pipeline.RegionMonth{
				BioActivity:   20,
				DemoActivity:  10,
				EnrolActivity: 30,
				Baseline:      100, // 30 < 100*0.4
			},
			expected: ActionOutreach,
		},
		{
			name: "healthy region monitors",
			rm: pipeline.RegionMonth{
				BioActivity:   20,
				DemoActivity:  10,
				EnrolActivity: 50,
				Baseline:      100,
			},
			expected: ActionMonitor,
		},
		{
			name: "deep but short silence does not escalate",
			rm: pipeline.RegionMonth{
				SilenceDuration:  3,
				SuppressionDepth: 90,
				BioActivity:      10,
				DemoActivity:     10,
				EnrolActivity:    50,
				Baseline:         100,
			},
			expected: ActionMonitor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DynamicRecommendation(tt.rm))
		})
	}
}

func TestSZICategory(t *testing.T) {
	tests := []struct {
		szi      float64
		expected string
	}{
		{0.0, CategorySevere},
		{0.30, CategorySevere}, // boundary inclusive
		{0.31, CategoryModerate},
		{0.60, CategoryModerate}, // boundary inclusive
		{0.61, CategoryNormal},
		{1.0, CategoryNormal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SZICategory(tt.szi), "SZI %.2f", tt.szi)
	}
}
