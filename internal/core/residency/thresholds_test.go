package residency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdsForBuckets(t *testing.T) {
	base := ThresholdSet{HighDistance: 30, LowDistance: 80}
	buckets := DefaultConfig().Buckets

	tests := []struct {
		name     string
		visible  int
		wantHigh float64
		wantLow  float64
	}{
		{"empty scene widens", 0, 45, 120},
		{"light load widens", 49, 45, 120},
		{"moderate load baseline", 50, 30, 80},
		{"moderate load upper edge", 99, 30, 80},
		{"heavy load shrinks", 100, 22.5, 60},
		{"heavy load upper edge", 150, 22.5, 60},
		{"saturated halves", 151, 15, 40},
		{"saturated beyond boundary", 5000, 15, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := thresholdsFor(base, buckets, tt.visible)
			assert.InDelta(t, tt.wantHigh, got.HighDistance, 1e-9)
			assert.InDelta(t, tt.wantLow, got.LowDistance, 1e-9)
		})
	}
}

func TestThresholdsBoundaryExact(t *testing.T) {
	base := ThresholdSet{HighDistance: 30, LowDistance: 80}
	buckets := DefaultConfig().Buckets

	// The step lands exactly on the bucket boundary: 49 and 50 differ,
	// 50 and 51 do not.
	before := thresholdsFor(base, buckets, 49)
	at := thresholdsFor(base, buckets, 50)
	after := thresholdsFor(base, buckets, 51)

	assert.NotEqual(t, before, at)
	assert.Equal(t, at, after)
}

func TestThresholdsMonotonicInLoad(t *testing.T) {
	base := ThresholdSet{HighDistance: 30, LowDistance: 80}
	buckets := DefaultConfig().Buckets

	prev := thresholdsFor(base, buckets, 0)
	for count := 1; count <= 200; count++ {
		cur := thresholdsFor(base, buckets, count)
		assert.LessOrEqual(t, cur.HighDistance, prev.HighDistance, "count %d", count)
		assert.LessOrEqual(t, cur.LowDistance, prev.LowDistance, "count %d", count)
		prev = cur
	}
}
