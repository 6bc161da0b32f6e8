package source

import (
	"context"
	"errors"

	"github.com/exovista/exovista/internal/core/scene"
)

// Tier names the quality tier a texture is requested at.
type Tier uint8

const (
	TierLow Tier = iota + 1
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Source errors. Callers only branch on ErrNotFound (an explicit
// absence); everything else is an opaque fetch failure.
var (
	ErrNotFound      = errors.New("texture not found")
	ErrFetchFailed   = errors.New("texture fetch failed")
	ErrSourceClosed  = errors.New("texture source is closed")
	ErrInvalidTier   = errors.New("invalid texture tier")
	ErrEmptyResponse = errors.New("empty texture response")
)

// Source is an opaque, fallible lookup for precomputed texture bytes
// keyed by entity and tier. The residency core must keep functioning if
// a Source is entirely unavailable; the procedural synthesizer covers
// every miss.
type Source interface {
	Fetch(ctx context.Context, id scene.EntityID, tier Tier) ([]byte, error)
}
