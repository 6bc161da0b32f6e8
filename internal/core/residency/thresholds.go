package residency

// ThresholdSet holds the distance cutoffs resolved entities are judged
// against for one cycle: closer than HighDistance earns the high tier,
// closer than LowDistance the low tier, anything farther nothing.
type ThresholdSet struct {
	HighDistance float64 `json:"high_distance" yaml:"high_distance"`
	LowDistance  float64 `json:"low_distance" yaml:"low_distance"`
}

// Bucket maps a visible-entity count range to a threshold multiplier.
// A bucket applies to counts of FromVisible and above, up to the next
// larger bucket. Multipliers must shrink as FromVisible grows so that
// thresholds are monotonic in load: more visible entities never widen
// the quality radii.
type Bucket struct {
	FromVisible int     `json:"from_visible" yaml:"from_visible"`
	Multiplier  float64 `json:"multiplier" yaml:"multiplier"`
}

// thresholdsFor scales the base distances by the bucket the visible
// count falls into. buckets must be sorted by FromVisible descending;
// the first bucket whose FromVisible the count reaches wins. The step
// function is re-evaluated every cycle so base reconfiguration takes
// effect immediately.
func thresholdsFor(base ThresholdSet, buckets []Bucket, visibleCount int) ThresholdSet {
	multiplier := 1.0
	for _, b := range buckets {
		if visibleCount >= b.FromVisible {
			multiplier = b.Multiplier
			break
		}
	}
	return ThresholdSet{
		HighDistance: base.HighDistance * multiplier,
		LowDistance:  base.LowDistance * multiplier,
	}
}
