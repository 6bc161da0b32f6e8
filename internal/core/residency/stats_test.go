package residency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorTotals(t *testing.T) {
	c := NewCollector(64)
	defer c.Close()

	c.Record(Event{Type: EventUpgrade, EntityID: "a"})
	c.Record(Event{Type: EventUpgrade, EntityID: "b"})
	c.Record(Event{Type: EventEviction, EntityID: "a"})
	c.Record(Event{Type: EventFetchFailure, EntityID: "c"})

	require.Eventually(t, func() bool {
		tot := c.Totals()
		return tot.Upgrades == 2 && tot.Evictions == 1 && tot.FetchFailures == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCollectorLatestSnapshot(t *testing.T) {
	c := NewCollector(16)
	defer c.Close()

	assert.Zero(t, c.Latest().Cycle)

	c.PublishSnapshot(Snapshot{Cycle: 7, VisibleCount: 3})
	got := c.Latest()
	assert.Equal(t, uint64(7), got.Cycle)
	assert.Equal(t, 3, got.VisibleCount)
}

func TestCollectorSubscribeFanout(t *testing.T) {
	c := NewCollector(16)
	defer c.Close()

	ch, cancel := c.Subscribe()
	defer cancel()

	c.PublishSnapshot(Snapshot{Cycle: 1})
	select {
	case s := <-ch:
		assert.Equal(t, uint64(1), s.Cycle)
	case <-time.After(time.Second):
		t.Fatal("snapshot never delivered")
	}
}

func TestCollectorSlowSubscriberNeverBlocksPublisher(t *testing.T) {
	c := NewCollector(16)
	defer c.Close()

	_, cancel := c.Subscribe()
	defer cancel()

	// Nobody drains the subscription; publishing must still return.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			c.PublishSnapshot(Snapshot{Cycle: uint64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
}

func TestCollectorCancelledSubscriberStopsReceiving(t *testing.T) {
	c := NewCollector(16)
	defer c.Close()

	ch, cancel := c.Subscribe()
	cancel()

	c.PublishSnapshot(Snapshot{Cycle: 42})
	select {
	case s := <-ch:
		t.Fatalf("received snapshot %d after cancel", s.Cycle)
	case <-time.After(50 * time.Millisecond):
	}
}
