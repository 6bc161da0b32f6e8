package source

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/exovista/exovista/internal/core/observability/log"
	"github.com/exovista/exovista/internal/core/scene"
)

// Request identifies one texture fetch. Generation is the resolution
// cycle that issued it; stale generations are still delivered (the
// manager installs them and lets eviction reclaim the space).
type Request struct {
	EntityID   scene.EntityID
	Tier       Tier
	Generation uint64
}

// Result carries the outcome of a Request back to the owning manager.
// Exactly one of Data and Err is meaningful.
type Result struct {
	Request
	Data []byte
	Err  error
}

// Fetcher runs a bounded worker pool over a Source. Submits never
// block: a full queue is reported to the caller, who simply retries on
// a later cycle. Results are drained by the single owning goroutine.
type Fetcher struct {
	src      Source
	requests chan Request
	results  chan Result
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
	logger log.Log
}

// NewFetcher starts workers goroutines fetching from src. Each fetch
// is bounded by timeout.
func NewFetcher(src Source, workers, queueSize int, timeout time.Duration, logger log.Log) *Fetcher {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = log.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)
	f := &Fetcher{
		src:      src,
		requests: make(chan Request, queueSize),
		results:  make(chan Result, queueSize),
		timeout:  timeout,
		ctx:      ctx,
		cancel:   cancel,
		group:    group,
		logger:   logger.With(log.String("component", "fetcher")),
	}
	for i := 0; i < workers; i++ {
		group.Go(f.work)
	}
	return f
}

// Submit enqueues a request without blocking. It returns false when the
// queue is full or the fetcher is closed.
func (f *Fetcher) Submit(req Request) bool {
	select {
	case <-f.ctx.Done():
		return false
	case f.requests <- req:
		return true
	default:
		f.logger.Debug("fetch queue full, dropping request",
			log.String("entity", string(req.EntityID)))
		return false
	}
}

// FetchSync bypasses the queue and fetches on the caller's goroutine,
// still bounded by the fetcher's timeout. Used by callers that must
// block on a specific resource rather than wait for a later cycle.
func (f *Fetcher) FetchSync(ctx context.Context, id scene.EntityID, tier Tier) ([]byte, error) {
	select {
	case <-f.ctx.Done():
		return nil, ErrSourceClosed
	default:
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	return f.src.Fetch(ctx, id, tier)
}

// Results returns the channel completed fetches are delivered on.
func (f *Fetcher) Results() <-chan Result {
	return f.results
}

// Close stops the workers and waits for them to drain.
func (f *Fetcher) Close() error {
	f.cancel()
	return f.group.Wait()
}

func (f *Fetcher) work() error {
	for {
		select {
		case <-f.ctx.Done():
			return nil
		case req := <-f.requests:
			ctx := f.ctx
			if f.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(f.ctx, f.timeout)
				data, err := f.src.Fetch(ctx, req.EntityID, req.Tier)
				cancel()
				f.deliver(Result{Request: req, Data: data, Err: err})
				continue
			}
			data, err := f.src.Fetch(ctx, req.EntityID, req.Tier)
			f.deliver(Result{Request: req, Data: data, Err: err})
		}
	}
}

func (f *Fetcher) deliver(res Result) {
	select {
	case f.results <- res:
	case <-f.ctx.Done():
	}
}
