package residency

import "errors"

// Residency errors. Resolution itself never surfaces errors to callers;
// these cover configuration and lifecycle misuse.
var (
	ErrInvalidConfig      = errors.New("invalid residency configuration")
	ErrInvalidCapacity    = errors.New("capacity must be positive")
	ErrInvalidDistances   = errors.New("high distance must not exceed low distance")
	ErrInvalidBuckets     = errors.New("threshold buckets must be sorted and monotonic")
	ErrManagerClosed      = errors.New("residency manager is closed")
	ErrCapacityExhausted  = errors.New("cache capacity exhausted")
	ErrAwaitWithoutSource = errors.New("no texture source configured")
)
