package source

import (
	"context"
	"sync"
	"time"

	"github.com/exovista/exovista/internal/core/scene"
)

type memoryKey struct {
	id   scene.EntityID
	tier Tier
}

// MemorySource is an in-memory Source used by the simulator and tests.
// It can inject a forced error or an artificial latency.
type MemorySource struct {
	mu       sync.RWMutex
	textures map[memoryKey][]byte
	forced   error
	delay    time.Duration
}

func NewMemorySource() *MemorySource {
	return &MemorySource{textures: make(map[memoryKey][]byte)}
}

func (s *MemorySource) Put(id scene.EntityID, tier Tier, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.textures[memoryKey{id, tier}] = data
}

// FailWith makes every subsequent Fetch return err. Pass nil to heal.
func (s *MemorySource) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced = err
}

// SetDelay adds artificial latency to every Fetch.
func (s *MemorySource) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

func (s *MemorySource) Fetch(ctx context.Context, id scene.EntityID, tier Tier) ([]byte, error) {
	s.mu.RLock()
	forced, delay := s.forced, s.delay
	data, ok := s.textures[memoryKey{id, tier}]
	s.mu.RUnlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if forced != nil {
		return nil, forced
	}
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

var _ Source = (*MemorySource)(nil)
