package residency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exovista/exovista/internal/core/scene"
)

func TestStoreEnsureIsIdempotent(t *testing.T) {
	s := newStore()
	now := time.Now()

	a := s.ensure("kepler-22b", now)
	require.Equal(t, QualityNone, a.quality)
	require.Equal(t, 1, s.len())

	b := s.ensure("kepler-22b", now.Add(time.Hour))
	assert.Same(t, a, b)
	assert.Equal(t, 1, s.len())
	assert.Equal(t, now, b.lastUsed, "re-ensure must not touch recency")
}

func TestStoreCountersFollowQuality(t *testing.T) {
	s := newStore()
	now := time.Now()

	e := s.ensure("a", now)
	assert.Zero(t, s.highCount)
	assert.Zero(t, s.lowCount)

	s.setQuality(e, QualityLow)
	assert.Equal(t, 0, s.highCount)
	assert.Equal(t, 1, s.lowCount)

	s.setQuality(e, QualityHigh)
	assert.Equal(t, 1, s.highCount)
	assert.Equal(t, 0, s.lowCount)

	s.setQuality(e, QualityLow)
	assert.Equal(t, 0, s.highCount)
	assert.Equal(t, 1, s.lowCount)
}

func TestStoreRemoveAtSwapsTail(t *testing.T) {
	s := newStore()
	now := time.Now()
	for _, id := range []string{"a", "b", "c"} {
		e := s.ensure(scene.EntityID(id), now)
		s.setQuality(e, QualityLow)
	}

	s.removeAt(0)
	require.Equal(t, 2, s.len())
	assert.Equal(t, 2, s.lowCount)

	// The tail was swapped into slot 0 and the index follows it.
	got, ok := s.get("c")
	require.True(t, ok)
	assert.Equal(t, scene.EntityID("c"), got.id)

	_, ok = s.get("a")
	assert.False(t, ok)
}

func TestStoreLRUIndex(t *testing.T) {
	s := newStore()
	base := time.Now()

	s.ensure("old", base)
	s.ensure("new", base.Add(time.Minute))

	idx := s.lruIndex()
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, scene.EntityID("old"), s.entries[idx].id)
}

func TestStoreLRUTieBreaksByInsertionOrder(t *testing.T) {
	s := newStore()
	now := time.Now()

	s.ensure("first", now)
	s.ensure("second", now)

	idx := s.lruIndex()
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, scene.EntityID("first"), s.entries[idx].id)
}

func TestStoreLRUEmptyArena(t *testing.T) {
	assert.Equal(t, -1, newStore().lruIndex())
}
