package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/exovista/exovista/internal/core/observability/log"
	"github.com/exovista/exovista/internal/core/residency"
)

// Server exposes the residency subsystem's observability surface over
// HTTP: current snapshot and aggregate totals as JSON, plus a WebSocket
// stream of per-cycle snapshots. It never mutates residency state.
type Server struct {
	httpServer *http.Server
	manager    *residency.Manager
	collector  *residency.Collector
	logger     log.Log
}

func New(addr string, manager *residency.Manager, collector *residency.Collector, logger log.Log) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	s := &Server{
		manager:   manager,
		collector: collector,
		logger:    logger.With(log.String("component", "stats_server")),
	}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route table, exposed separately so tests can
// mount it on httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/stats", s.handleSnapshot)
	mux.HandleFunc("/stats/totals", s.handleTotals)
	mux.HandleFunc("/ws/stats", s.handleStatsStream)
	return mux
}

// Start begins serving in the background. Errors other than a clean
// shutdown are logged, not returned: the stats surface must never take
// the render process down with it.
func (s *Server) Start() {
	go func() {
		s.logger.Info("stats server listening", log.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("stats server failed", log.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.currentSnapshot())
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.collector == nil {
		http.Error(w, "stats collection disabled", http.StatusNotFound)
		return
	}
	s.writeJSON(w, s.collector.Totals())
}

// currentSnapshot prefers the collector's published snapshot, falling
// back to a direct manager read when collection is disabled.
func (s *Server) currentSnapshot() residency.Snapshot {
	if s.collector != nil {
		return s.collector.Latest()
	}
	return s.manager.Snapshot()
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("response encode failed", log.Error(err))
	}
}
