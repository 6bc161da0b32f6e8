package generic

import "sync"

// Pool is a typed wrapper around sync.Pool.
type Pool[T any] struct {
	pool sync.Pool
}

// NewPool creates a pool whose empty slots are filled by generate.
func NewPool[T any](generate func() T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any { return generate() },
		},
	}
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	p.pool.Put(value)
}

// NewSlicePool creates a pool of scratch slices with the given capacity.
// Callers get slices of length n (n must not exceed the pool capacity)
// and return them when done; contents are not cleared between uses.
func NewSlicePool[T any](capacity int) *SlicePool[T] {
	return &SlicePool[T]{
		inner: NewPool(func() []T { return make([]T, capacity) }),
		cap:   capacity,
	}
}

// SlicePool hands out reusable scratch slices of a fixed capacity.
type SlicePool[T any] struct {
	inner *Pool[[]T]
	cap   int
}

func (p *SlicePool[T]) Get(n int) []T {
	if n > p.cap {
		return make([]T, n)
	}
	return p.inner.Get()[:n]
}

func (p *SlicePool[T]) Put(s []T) {
	if cap(s) < p.cap {
		return
	}
	p.inner.Put(s[:p.cap])
}
