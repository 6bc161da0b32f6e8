package residency

import (
	"time"

	"github.com/exovista/exovista/internal/core/scene"
)

// entry is one resident resource. Entries live in a dense arena with an
// id -> index lookup so eviction sweeps and capacity accounting walk a
// flat slice instead of chasing scattered per-object state.
type entry struct {
	id      scene.EntityID
	quality Quality
	payload *Payload

	lastUsed   time.Time
	lastChange time.Time // debounce anchor: zero means never transitioned
	insertSeq  uint64    // LRU tie-break, older inserts evict first

	// pendingTier is the quality an in-flight fetch targets, or
	// QualityNone when nothing is in flight.
	pendingTier Quality

	// retryAfterCycle blocks re-requesting a failed fetch until the
	// given cycle, preventing request storms against a sick source.
	retryAfterCycle uint64
}

// store owns the arena and the per-tier counters. Exactly one entry
// exists per entity; counters change only through setQuality and
// removeAt so they can never drift from the arena contents.
type store struct {
	entries []entry
	index   map[scene.EntityID]int
	nextSeq uint64

	highCount int
	lowCount  int
}

func newStore() *store {
	return &store{index: make(map[scene.EntityID]int)}
}

func (s *store) len() int { return len(s.entries) }

// get returns a pointer into the arena. The pointer is invalidated by
// the next ensure or removeAt call; callers use it transiently.
func (s *store) get(id scene.EntityID) (*entry, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return &s.entries[i], true
}

// ensure returns the entry for id, creating a QualityNone entry on
// first use.
func (s *store) ensure(id scene.EntityID, now time.Time) *entry {
	if i, ok := s.index[id]; ok {
		return &s.entries[i]
	}
	s.nextSeq++
	s.entries = append(s.entries, entry{
		id:        id,
		quality:   QualityNone,
		lastUsed:  now,
		insertSeq: s.nextSeq,
	})
	i := len(s.entries) - 1
	s.index[id] = i
	return &s.entries[i]
}

// setQuality transitions an entry's tier and keeps the counters exact.
func (s *store) setQuality(e *entry, q Quality) {
	s.adjustCount(e.quality, -1)
	e.quality = q
	s.adjustCount(q, +1)
}

func (s *store) adjustCount(q Quality, delta int) {
	switch q {
	case QualityHigh:
		s.highCount += delta
	case QualityLow:
		s.lowCount += delta
	}
}

// removeAt deletes the entry at arena index i by swapping the tail in.
func (s *store) removeAt(i int) {
	e := s.entries[i]
	s.adjustCount(e.quality, -1)
	delete(s.index, e.id)

	last := len(s.entries) - 1
	if i != last {
		s.entries[i] = s.entries[last]
		s.index[s.entries[i].id] = i
	}
	s.entries = s.entries[:last]
}

// lruIndex returns the arena index of the globally least-recently-used
// entry, ties broken by insertion order, or -1 on an empty arena.
func (s *store) lruIndex() int {
	best := -1
	for i := range s.entries {
		if best == -1 {
			best = i
			continue
		}
		e, b := &s.entries[i], &s.entries[best]
		if e.lastUsed.Before(b.lastUsed) ||
			(e.lastUsed.Equal(b.lastUsed) && e.insertSeq < b.insertSeq) {
			best = i
		}
	}
	return best
}
