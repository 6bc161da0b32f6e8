package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/exovista/exovista/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
)

// handleStatsStream upgrades the connection and pushes every published
// residency snapshot to the client as a JSON message. Slow clients miss
// snapshots rather than applying backpressure to the cycle.
func (s *Server) handleStatsStream(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		http.Error(w, "stats collection disabled", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", log.Error(err))
		return
	}
	defer conn.Close()

	snapshots, cancel := s.collector.Subscribe()
	defer cancel()

	// Reader goroutine: we never expect client messages, but reading is
	// what surfaces the close frame.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Late joiners get the most recent snapshot immediately.
	if err := s.writeSnapshot(conn, s.collector.Latest()); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case snap := <-snapshots:
			if err := s.writeSnapshot(conn, snap); err != nil {
				s.logger.Debug("snapshot stream write failed", log.Error(err))
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeSnapshot(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
