package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exovista/exovista/internal/core/residency"
	"github.com/exovista/exovista/internal/core/synthesis"
	"github.com/exovista/exovista/internal/core/visibility"
	"github.com/exovista/exovista/internal/server"
)

func startStatsServer(t *testing.T) (*httptest.Server, *residency.Collector) {
	t.Helper()
	cfg := residency.DefaultConfig()
	engine := visibility.NewEngine(cfg.MaxRenderDistance, nil)
	synth := synthesis.NewSynthesizer(nil)
	collector := residency.NewCollector(cfg.StatsBufferSize)
	t.Cleanup(func() { _ = collector.Close() })

	manager, err := residency.NewManager(cfg, engine, synth, nil, collector, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	srv := server.New("127.0.0.1:0", manager, collector, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, collector
}

func TestNewRejectsEmptyBaseURL(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestStreamedSnapshotsReachHandler(t *testing.T) {
	ts, collector := startStatsServer(t)

	c, err := New(DefaultConfig(ts.URL))
	require.NoError(t, err)

	received := make(chan residency.Snapshot, 8)
	c.OnSnapshot(func(s residency.Snapshot) { received <- s })

	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	// First message is the snapshot current at join time.
	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("initial snapshot never arrived")
	}

	collector.PublishSnapshot(residency.Snapshot{Cycle: 11, VisibleCount: 6})
	select {
	case s := <-received:
		assert.Equal(t, uint64(11), s.Cycle)
		assert.Equal(t, 6, s.VisibleCount)
	case <-time.After(2 * time.Second):
		t.Fatal("published snapshot never arrived")
	}
}

func TestConnectTwiceFails(t *testing.T) {
	ts, _ := startStatsServer(t)

	c, err := New(DefaultConfig(ts.URL))
	require.NoError(t, err)

	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()
	assert.ErrorIs(t, c.Connect(context.Background()), ErrAlreadyConnected)
}

func TestRESTSnapshotAndTotals(t *testing.T) {
	ts, collector := startStatsServer(t)
	collector.PublishSnapshot(residency.Snapshot{Cycle: 5, HighCount: 2})
	collector.Record(residency.Event{Type: residency.EventEviction, EntityID: "x"})

	c, err := New(DefaultConfig(ts.URL))
	require.NoError(t, err)

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(5), snap.Cycle)
	assert.Equal(t, 2, snap.HighCount)

	require.Eventually(t, func() bool {
		totals, err := c.Totals(context.Background())
		return err == nil && totals.Evictions == 1
	}, time.Second, 10*time.Millisecond)
}

func TestCloseAfterConnect(t *testing.T) {
	ts, _ := startStatsServer(t)

	c, err := New(DefaultConfig(ts.URL))
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Close())
	assert.ErrorIs(t, c.Close(), ErrClientClosed)
}
