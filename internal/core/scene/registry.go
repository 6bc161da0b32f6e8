package scene

import (
	"sync"

	"github.com/google/uuid"
)

// MemoryRegistry is an in-memory Registry implementation used by the
// simulator and by tests. It is safe for concurrent use.
type MemoryRegistry struct {
	mu       sync.RWMutex
	entities map[EntityID]Entity
	order    []EntityID
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		entities: make(map[EntityID]Entity),
	}
}

// Add inserts or replaces an entity. An empty id is assigned a fresh
// UUID; the final id is returned.
func (r *MemoryRegistry) Add(e Entity) EntityID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == "" {
		e.ID = EntityID(uuid.NewString())
	}
	if _, exists := r.entities[e.ID]; !exists {
		r.order = append(r.order, e.ID)
	}
	r.entities[e.ID] = e
	return e.ID
}

// Remove deletes an entity. Removing an unknown id is a no-op.
func (r *MemoryRegistry) Remove(id EntityID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entities[id]; !exists {
		return
	}
	delete(r.entities, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *MemoryRegistry) Entities() []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entity, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entities[id])
	}
	return out
}

func (r *MemoryRegistry) Lookup(id EntityID) (Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[id]
	return e, ok
}

func (r *MemoryRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

var _ Registry = (*MemoryRegistry)(nil)
