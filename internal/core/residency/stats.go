package residency

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/exovista/exovista/internal/core/scene"
)

// Snapshot is the per-cycle observability summary. It is read-only:
// publishing or reading a snapshot never affects cache behavior.
type Snapshot struct {
	Cycle        uint64       `json:"cycle"`
	VisibleCount int          `json:"visible_count"`
	HighCount    int          `json:"high_count"`
	LowCount     int          `json:"low_count"`
	Residents    int          `json:"residents"`
	Thresholds   ThresholdSet `json:"thresholds"`
	Timestamp    time.Time    `json:"timestamp"`
}

// EventType classifies a cache mutation for accounting.
type EventType uint8

const (
	EventUpgrade EventType = iota
	EventDowngrade
	EventEviction
	EventFetchFailure
	EventSynthesisFallback
	EventCapacityDenied
	eventTypeCount
)

// Event is a single cache mutation report.
type Event struct {
	Type      EventType
	EntityID  scene.EntityID
	Quality   Quality
	Timestamp time.Time
}

// Totals aggregates event counts since the collector started.
type Totals struct {
	Upgrades           uint64 `json:"upgrades"`
	Downgrades         uint64 `json:"downgrades"`
	Evictions          uint64 `json:"evictions"`
	FetchFailures      uint64 `json:"fetch_failures"`
	SynthesisFallbacks uint64 `json:"synthesis_fallbacks"`
	CapacityDenials    uint64 `json:"capacity_denials"`
}

// Collector accumulates residency events asynchronously so recording
// never blocks a resolution pass: a full buffer drops the event rather
// than stalling. Snapshots fan out to subscribers the same way.
type Collector struct {
	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	counts [eventTypeCount]atomic.Uint64
	latest atomic.Value // Snapshot

	mu   sync.Mutex
	subs map[chan Snapshot]struct{}
}

func NewCollector(bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 512
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Collector{
		events: make(chan Event, bufferSize),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		subs:   make(map[chan Snapshot]struct{}),
	}
	c.latest.Store(Snapshot{})
	go c.process()
	return c
}

// Record submits an event, dropping it when the buffer is full.
func (c *Collector) Record(ev Event) {
	select {
	case c.events <- ev:
	default:
	}
}

// PublishSnapshot stores the latest cycle summary and pushes it to
// subscribers without blocking the cycle.
func (c *Collector) PublishSnapshot(s Snapshot) {
	c.latest.Store(s)
	c.mu.Lock()
	for ch := range c.subs {
		select {
		case ch <- s:
		default:
		}
	}
	c.mu.Unlock()
}

// Latest returns the most recently published snapshot.
func (c *Collector) Latest() Snapshot {
	return c.latest.Load().(Snapshot)
}

// Totals returns aggregate event counts.
func (c *Collector) Totals() Totals {
	return Totals{
		Upgrades:           c.counts[EventUpgrade].Load(),
		Downgrades:         c.counts[EventDowngrade].Load(),
		Evictions:          c.counts[EventEviction].Load(),
		FetchFailures:      c.counts[EventFetchFailure].Load(),
		SynthesisFallbacks: c.counts[EventSynthesisFallback].Load(),
		CapacityDenials:    c.counts[EventCapacityDenied].Load(),
	}
}

// Subscribe registers a snapshot listener. The returned cancel func
// must be called to release the channel.
func (c *Collector) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)
	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()
	return ch, func() {
		c.mu.Lock()
		delete(c.subs, ch)
		c.mu.Unlock()
	}
}

func (c *Collector) Close() error {
	c.cancel()
	<-c.done
	return nil
}

func (c *Collector) process() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev := <-c.events:
			if ev.Type < eventTypeCount {
				c.counts[ev.Type].Add(1)
			}
		}
	}
}
