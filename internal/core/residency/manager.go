package residency

import (
	"context"
	"sync"
	"time"

	"github.com/exovista/exovista/internal/core/observability/log"
	"github.com/exovista/exovista/internal/core/scene"
	"github.com/exovista/exovista/internal/core/source"
	"github.com/exovista/exovista/internal/core/synthesis"
	"github.com/exovista/exovista/internal/core/visibility"
)

// Manager owns the capacity-bounded resource cache and drives the
// per-cycle resolution policy. All cache state is instance-owned: two
// managers never share entries, counters, or synthesis memos.
//
// Mutations happen on the goroutine that calls RunCycle; fetches run on
// background workers and are marshaled back through the fetcher's
// result channel, drained at the start of each cycle. Render-loop reads
// go through Resident and tolerate entries that are one cycle stale.
type Manager struct {
	cfg       Config
	logger    log.Log
	engine    *visibility.Engine
	synth     *synthesis.Synthesizer
	fetcher   *source.Fetcher
	collector *Collector

	mu         sync.RWMutex
	store      *store
	thresholds ThresholdSet
	visible    map[scene.EntityID]bool
	cycle      uint64
	closed     bool

	// now is swappable for debounce and grace-period tests.
	now func() time.Time
}

// NewManager validates cfg and assembles a manager. fetcher and
// collector may be nil: without a fetcher every resolution synthesizes,
// without a collector events are simply not recorded.
func NewManager(cfg Config, engine *visibility.Engine, synth *synthesis.Synthesizer,
	fetcher *source.Fetcher, collector *Collector, logger log.Log) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Nop()
	}
	m := &Manager{
		cfg:       cfg,
		logger:    logger.With(log.String("component", "residency")),
		engine:    engine,
		synth:     synth,
		fetcher:   fetcher,
		collector: collector,
		store:     newStore(),
		visible:   make(map[scene.EntityID]bool),
		now:       time.Now,
	}
	m.thresholds = thresholdsFor(m.baseThresholds(), cfg.Buckets, 0)
	return m, nil
}

func (m *Manager) baseThresholds() ThresholdSet {
	return ThresholdSet{
		HighDistance: m.cfg.BaseHighDistance,
		LowDistance:  m.cfg.BaseLowDistance,
	}
}

// RunCycle executes one full policy pass: drain completed fetches,
// reclassify visibility, adapt thresholds, resolve every entity against
// the same threshold and partition snapshot, then sweep. It returns the
// cycle's stats snapshot.
func (m *Manager) RunCycle(cam scene.Camera, entities []scene.Entity) Snapshot {
	m.engine.UpdateFrustum(cam)
	partition := m.engine.Classify(entities, cam.Position)
	ordered := visibility.ClosestVisible(partition, len(partition.Visible))

	m.mu.Lock()
	m.cycle++

	m.visible = make(map[scene.EntityID]bool, len(partition.Visible))
	for _, c := range partition.Visible {
		m.visible[c.Entity.ID] = true
	}

	m.thresholds = thresholdsFor(m.baseThresholds(), m.cfg.Buckets, len(partition.Visible))
	m.drainInstallsLocked(entities)

	// Closest first: scarce upgrade bandwidth goes to what dominates
	// the view.
	for _, c := range ordered {
		m.resolveLocked(c.Entity, c.Distance, true)
	}
	for _, c := range partition.Invisible {
		m.resolveLocked(c.Entity, c.Distance, false)
	}

	m.sweepLocked()
	snap := m.snapshotLocked(len(partition.Visible))
	m.mu.Unlock()

	if m.collector != nil {
		m.collector.PublishSnapshot(snap)
	}
	return snap
}

// AdjustThresholds recomputes the cycle thresholds for a visible count.
// It is idempotent for a stable count and re-evaluated every cycle so
// base-distance reconfiguration takes effect without a restart.
func (m *Manager) AdjustThresholds(visibleCount int) ThresholdSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds = thresholdsFor(m.baseThresholds(), m.cfg.Buckets, visibleCount)
	return m.thresholds
}

// SetBaseDistances reconfigures the unscaled quality radii.
func (m *Manager) SetBaseDistances(high, low float64) error {
	if high <= 0 || low <= 0 || high > low {
		return ErrInvalidDistances
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.BaseHighDistance = high
	m.cfg.BaseLowDistance = low
	return nil
}

// Thresholds returns the threshold set entities are currently judged
// against.
func (m *Manager) Thresholds() ThresholdSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.thresholds
}

// Resident returns the currently resident resource for an entity. This
// is the render loop's read path: it never mutates the cache, not even
// the recency stamp.
func (m *Manager) Resident(id scene.EntityID) (ResourceView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.store.get(id)
	if !ok || e.quality == QualityNone {
		return ResourceView{EntityID: id, Quality: QualityNone}, false
	}
	return ResourceView{EntityID: id, Quality: e.quality, Payload: e.payload}, true
}

// Resolve is the best-effort single-entity resolution path: it applies
// the target-quality rule, mutates the cache within capacity, and
// always returns immediately with the best currently resident payload.
func (m *Manager) Resolve(e scene.Entity, distance float64, isVisible bool) ResourceView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveLocked(e, distance, isVisible)
}

// ResolveAwait is the variant for callers willing to wait out an
// upgrade: it fetches synchronously (falling back to synthesis on any
// failure) and installs the result before returning. The render cycle
// itself never uses this path.
func (m *Manager) ResolveAwait(ctx context.Context, e scene.Entity, distance float64, isVisible bool) (ResourceView, error) {
	m.mu.Lock()
	target := m.targetForLocked(distance, isVisible)
	// No background submit here: the synchronous fetch below would
	// otherwise race a duplicate of itself through the worker pool.
	view := m.resolvePolicyLocked(e, distance, isVisible, false)
	m.mu.Unlock()

	if view.Quality >= target || target == QualityNone {
		return view, nil
	}
	if m.fetcher == nil {
		return view, ErrAwaitWithoutSource
	}

	data, err := m.fetcher.FetchSync(ctx, e.ID, tierFor(target))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installLocked(source.Result{
		Request: source.Request{EntityID: e.ID, Tier: tierFor(target), Generation: m.cycle},
		Data:    data,
		Err:     err,
	}, []scene.Entity{e})

	ent, ok := m.store.get(e.ID)
	if !ok {
		return ResourceView{EntityID: e.ID, Quality: QualityNone}, ErrCapacityExhausted
	}
	view = m.viewOf(ent)
	if view.Quality < target {
		// The fetch landed but could not be installed; the only blocker
		// left on this path is a full tier that the sweep could not free.
		return view, ErrCapacityExhausted
	}
	return view, nil
}

// Snapshot returns current counters without running a cycle.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked(len(m.visible))
}

// Close stops the fetch pipeline. The manager must not be used after.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	m.closed = true
	m.mu.Unlock()

	if m.fetcher != nil {
		return m.fetcher.Close()
	}
	return nil
}

// targetForLocked applies the quality rule: nothing beyond the low
// radius, high only inside the high radius and only for entities the
// user can actually see.
func (m *Manager) targetForLocked(distance float64, isVisible bool) Quality {
	switch {
	case distance > m.thresholds.LowDistance:
		return QualityNone
	case distance > m.thresholds.HighDistance || !isVisible:
		return QualityLow
	default:
		return QualityHigh
	}
}

func (m *Manager) resolveLocked(e scene.Entity, distance float64, isVisible bool) ResourceView {
	return m.resolvePolicyLocked(e, distance, isVisible, true)
}

// resolvePolicyLocked applies the resolution state machine to one
// entity. submitAsync gates the background fetch: the await path
// fetches on its own goroutine and must not enqueue a duplicate.
//
// Entry pointers go stale whenever a sweep runs: removeAt compacts the
// arena by swapping the tail down. Every sweep below is therefore
// followed by a re-acquire through store.ensure.
func (m *Manager) resolvePolicyLocked(e scene.Entity, distance float64, isVisible, submitAsync bool) ResourceView {
	now := m.now()
	target := m.targetForLocked(distance, isVisible)

	ent, exists := m.store.get(e.ID)
	if target == QualityNone {
		// Not served at any tier this cycle: lastUsed stays untouched so
		// the idle clock keeps running toward the grace period.
		if !exists {
			return ResourceView{EntityID: e.ID, Quality: QualityNone}
		}
		return m.viewOf(ent)
	}
	if !exists {
		ent = m.store.ensure(e.ID, now)
	}
	ent.lastUsed = now

	// Already at or above target: serve unchanged, except that a high
	// entry whose target dropped to low is downgraded once the debounce
	// window allows, freeing high capacity for closer entities.
	if ent.quality >= target {
		if ent.quality == QualityHigh && target == QualityLow && m.debounceElapsed(ent, now) {
			ent = m.downgradeWithinCapacityLocked(ent, e, now)
		}
		return m.viewOf(ent)
	}

	// Upgrade wanted. Debounce first: a fresh transition pins the
	// current quality regardless of distance.
	if !m.debounceElapsed(ent, now) {
		return m.viewOf(ent)
	}

	if !m.capacityAvailableLocked(target) {
		m.sweepLocked()
		ent = m.store.ensure(e.ID, now)
		if !m.capacityAvailableLocked(target) {
			m.record(Event{Type: EventCapacityDenied, EntityID: e.ID, Quality: target, Timestamp: now})
			return m.viewOf(ent)
		}
	}

	if m.fetcher != nil {
		if submitAsync {
			m.requestFetchLocked(ent, target)
		}
		return m.viewOf(ent)
	}

	// No external source configured: synthesis is the primary path and
	// cannot fail.
	m.installSynthesizedLocked(ent, e, target, now)
	return m.viewOf(ent)
}

// downgradeWithinCapacityLocked moves a high entry to low only when the
// low tier has room, sweeping once to make some. It returns the entry's
// current pointer, re-acquired if a sweep compacted the arena.
func (m *Manager) downgradeWithinCapacityLocked(ent *entry, e scene.Entity, now time.Time) *entry {
	if !m.capacityAvailableLocked(QualityLow) {
		m.sweepLocked()
		ent = m.store.ensure(e.ID, now)
		if ent.quality != QualityHigh {
			return ent
		}
		if !m.capacityAvailableLocked(QualityLow) {
			m.record(Event{Type: EventCapacityDenied, EntityID: e.ID, Quality: QualityLow, Timestamp: now})
			return ent
		}
	}
	m.downgradeLocked(ent, e, now)
	return ent
}

func (m *Manager) viewOf(e *entry) ResourceView {
	return ResourceView{EntityID: e.id, Quality: e.quality, Payload: e.payload}
}

func (m *Manager) debounceElapsed(e *entry, now time.Time) bool {
	if e.lastChange.IsZero() {
		return true
	}
	return now.Sub(e.lastChange) >= m.cfg.MinUpdateInterval.Std()
}

// capacityAvailableLocked checks the destination tier. The slot an
// upgrading entry frees in its old tier is released by setQuality, so
// only the destination matters here.
func (m *Manager) capacityAvailableLocked(to Quality) bool {
	switch to {
	case QualityHigh:
		return m.store.highCount < m.cfg.CapacityHigh
	case QualityLow:
		return m.store.lowCount < m.cfg.CapacityLow
	default:
		return true
	}
}

func (m *Manager) requestFetchLocked(e *entry, target Quality) {
	if e.pendingTier != QualityNone || m.cycle < e.retryAfterCycle {
		return
	}
	req := source.Request{EntityID: e.id, Tier: tierFor(target), Generation: m.cycle}
	if m.fetcher.Submit(req) {
		e.pendingTier = target
	} else {
		// Queue pressure: back off one cycle instead of hammering.
		e.retryAfterCycle = m.cycle + 1
	}
}

func (m *Manager) installSynthesizedLocked(e *entry, ent scene.Entity, target Quality, now time.Time) {
	tex := m.synth.Synthesize(ent, m.resolutionFor(ent, target))
	e.payload = &Payload{Bytes: tex.Bytes(), Origin: OriginSynthesized, Resolution: tex.Size}
	from := e.quality
	m.store.setQuality(e, target)
	e.lastChange = now
	m.record(Event{Type: EventUpgrade, EntityID: e.id, Quality: target, Timestamp: now})
	m.logger.Debug("synthesized upgrade",
		log.String("entity", string(e.id)),
		log.String("from", from.String()),
		log.String("to", target.String()))
}

func (m *Manager) downgradeLocked(e *entry, ent scene.Entity, now time.Time) {
	tex := m.synth.Synthesize(ent, m.resolutionFor(ent, QualityLow))
	e.payload = &Payload{Bytes: tex.Bytes(), Origin: OriginSynthesized, Resolution: tex.Size}
	m.store.setQuality(e, QualityLow)
	e.lastChange = now
	m.record(Event{Type: EventDowngrade, EntityID: e.id, Quality: QualityLow, Timestamp: now})
}

func (m *Manager) resolutionFor(e scene.Entity, q Quality) int {
	if q == QualityHigh {
		return synthesis.ResolutionFor(e.Radius)
	}
	return synthesis.LowResolution
}

// drainInstallsLocked applies completed fetches. Installation happens
// here, at a cycle boundary, never mid-frame.
func (m *Manager) drainInstallsLocked(entities []scene.Entity) {
	if m.fetcher == nil {
		return
	}
	for {
		select {
		case res := <-m.fetcher.Results():
			m.installLocked(res, entities)
		default:
			return
		}
	}
}

func (m *Manager) installLocked(res source.Result, entities []scene.Entity) {
	now := m.now()
	target := qualityForTier(res.Tier)

	ent, ok := m.store.get(res.EntityID)
	if !ok {
		// Evicted while the fetch was in flight; install anyway, the
		// entry is immediately eviction-eligible if still invisible.
		ent = m.store.ensure(res.EntityID, now)
	}
	ent.pendingTier = QualityNone

	if res.Err != nil || len(res.Data) == 0 {
		m.record(Event{Type: EventFetchFailure, EntityID: res.EntityID, Quality: target, Timestamp: now})
		ent.retryAfterCycle = m.cycle + m.cfg.FetchRetryCycles
		m.logger.Debug("texture fetch failed",
			log.String("entity", string(res.EntityID)),
			log.Error(res.Err))

		// Fall back to synthesis so the entity still reaches its target
		// tier; the previous resident quality is never regressed.
		if ent.quality < target && m.debounceElapsed(ent, now) &&
			m.capacityAvailableLocked(target) {
			if e, found := lookupEntity(entities, res.EntityID); found {
				m.installSynthesizedLocked(ent, e, target, now)
				m.record(Event{Type: EventSynthesisFallback, EntityID: res.EntityID, Quality: target, Timestamp: now})
			}
		}
		return
	}

	if ent.quality >= target {
		// Duplicate or stale result. A fetched payload still replaces a
		// synthesized one at the same tier; that swap is not a quality
		// transition and skips the debounce.
		if ent.quality == target && ent.payload != nil && ent.payload.Origin == OriginSynthesized {
			ent.payload = &Payload{Bytes: res.Data, Origin: OriginFetched}
		}
		return
	}

	if !m.debounceElapsed(ent, now) {
		ent.retryAfterCycle = m.cycle + 1
		return
	}
	if !m.capacityAvailableLocked(target) {
		m.sweepLocked()
		// The sweep compacts the arena and may even have evicted this
		// entry; the old pointer is dead either way.
		ent = m.store.ensure(res.EntityID, now)
		if !m.capacityAvailableLocked(target) {
			m.record(Event{Type: EventCapacityDenied, EntityID: res.EntityID, Quality: target, Timestamp: now})
			return
		}
	}

	ent.payload = &Payload{Bytes: res.Data, Origin: OriginFetched}
	m.store.setQuality(ent, target)
	ent.lastChange = now
	if m.visible[ent.id] {
		ent.lastUsed = now
	}
	m.record(Event{Type: EventUpgrade, EntityID: ent.id, Quality: target, Timestamp: now})
}

// sweepLocked is the two-pass eviction: drop invisible entries idle
// past the grace period, then enforce capacity with a global LRU pass.
func (m *Manager) sweepLocked() int {
	now := m.now()
	removed := 0

	for i := 0; i < m.store.len(); {
		e := &m.store.entries[i]
		if !m.visible[e.id] && now.Sub(e.lastUsed) > m.cfg.IdleGracePeriod.Std() {
			m.record(Event{Type: EventEviction, EntityID: e.id, Quality: e.quality, Timestamp: now})
			m.store.removeAt(i)
			removed++
			continue
		}
		i++
	}

	for m.store.highCount > m.cfg.CapacityHigh || m.store.lowCount > m.cfg.CapacityLow {
		idx := m.store.lruIndex()
		if idx < 0 {
			break
		}
		e := &m.store.entries[idx]
		m.record(Event{Type: EventEviction, EntityID: e.id, Quality: e.quality, Timestamp: now})
		m.store.removeAt(idx)
		removed++
	}

	if removed > 0 {
		m.logger.Debug("eviction sweep", log.Int("removed", removed))
	}
	return removed
}

func (m *Manager) snapshotLocked(visibleCount int) Snapshot {
	return Snapshot{
		Cycle:        m.cycle,
		VisibleCount: visibleCount,
		HighCount:    m.store.highCount,
		LowCount:     m.store.lowCount,
		Residents:    m.store.len(),
		Thresholds:   m.thresholds,
		Timestamp:    m.now(),
	}
}

func (m *Manager) record(ev Event) {
	if m.collector != nil {
		m.collector.Record(ev)
	}
}

func tierFor(q Quality) source.Tier {
	if q == QualityHigh {
		return source.TierHigh
	}
	return source.TierLow
}

func qualityForTier(t source.Tier) Quality {
	if t == source.TierHigh {
		return QualityHigh
	}
	return QualityLow
}

func lookupEntity(entities []scene.Entity, id scene.EntityID) (scene.Entity, bool) {
	for _, e := range entities {
		if e.ID == id {
			return e, true
		}
	}
	return scene.Entity{}, false
}
