// Package client provides a high-level SDK for consuming an ExoVista
// residency stats stream.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/exovista/exovista/internal/core/residency"
)

// SnapshotHandler receives every residency snapshot the server pushes.
type SnapshotHandler func(residency.Snapshot)

// Config controls connection behavior.
type Config struct {
	// BaseURL is the stats server root, e.g. "http://localhost:8790".
	BaseURL string

	// DialTimeout bounds the WebSocket handshake.
	DialTimeout time.Duration

	// ReconnectDelay is the pause between reconnection attempts; zero
	// disables reconnection.
	ReconnectDelay time.Duration
}

func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		DialTimeout:    5 * time.Second,
		ReconnectDelay: 2 * time.Second,
	}
}

// Client subscribes to the snapshot stream and exposes the REST
// endpoints. A Client serves one stream; handlers run on the stream
// goroutine and must not block.
type Client struct {
	config Config
	http   *http.Client

	handlerMu sync.RWMutex
	handlers  []SnapshotHandler

	connected atomic.Bool
	closed    atomic.Bool
	cancel    context.CancelFunc
	done      chan struct{}
}

func New(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, ErrInvalidConfig
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.DialTimeout},
		done:   make(chan struct{}),
	}, nil
}

// OnSnapshot registers a handler for streamed snapshots. Handlers must
// be registered before Connect.
func (c *Client) OnSnapshot(h SnapshotHandler) {
	c.handlerMu.Lock()
	c.handlers = append(c.handlers, h)
	c.handlerMu.Unlock()
}

// Connect starts the stream loop in the background. The loop reconnects
// after stream failures when ReconnectDelay is set.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClientClosed
	}
	if !c.connected.CompareAndSwap(false, true) {
		return ErrAlreadyConnected
	}

	ctx, c.cancel = context.WithCancel(ctx)
	conn, err := c.dial(ctx)
	if err != nil {
		c.connected.Store(false)
		c.cancel()
		return err
	}

	go c.streamLoop(ctx, conn)
	return nil
}

// Close stops the stream loop and waits for it to exit.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClientClosed
	}
	if !c.connected.Load() {
		return nil
	}
	c.cancel()
	<-c.done
	return nil
}

// Snapshot fetches the current residency snapshot over REST.
func (c *Client) Snapshot(ctx context.Context) (residency.Snapshot, error) {
	var snap residency.Snapshot
	err := c.getJSON(ctx, "/stats", &snap)
	return snap, err
}

// Totals fetches the aggregate event counters over REST.
func (c *Client) Totals(ctx context.Context) (residency.Totals, error) {
	var totals residency.Totals
	err := c.getJSON(ctx, "/stats/totals", &totals)
	return totals, err
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	wsURL, err := streamURL(c.config.BaseURL)
	if err != nil {
		return nil, err
	}
	dialer := websocket.Dialer{HandshakeTimeout: c.config.DialTimeout}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}

func (c *Client) streamLoop(ctx context.Context, conn *websocket.Conn) {
	defer close(c.done)
	for {
		c.consume(ctx, conn)
		if ctx.Err() != nil || c.config.ReconnectDelay <= 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.config.ReconnectDelay):
		}
		next, err := c.dial(ctx)
		if err != nil {
			continue
		}
		conn = next
	}
}

// consume reads snapshots until the connection drops or ctx ends.
func (c *Client) consume(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var snap residency.Snapshot
		if err := conn.ReadJSON(&snap); err != nil {
			return
		}
		c.handlerMu.RLock()
		handlers := c.handlers
		c.handlerMu.RUnlock()
		for _, h := range handlers {
			h(snap)
		}
	}
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stats request failed: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func streamURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws/stats"
	return u.String(), nil
}
