// Package pool provides the permit pool that bounds concurrent network
// operations. Metadata fetches and file transfers draw from the same pool.
package pool

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultSize is the default number of concurrent network operations.
const DefaultSize = 20

// Pool is a bounded set of permits shared by every network operation of a run.
type Pool struct {
	sem  *semaphore.Weighted
	size int64

	// Stats
	inFlight  atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// New creates a Pool with size permits. A non-positive size uses DefaultSize.
func New(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: int64(size),
	}
}

// Size returns the number of permits.
func (p *Pool) Size() int {
	return int(p.size)
}

// Acquire blocks until a permit is available or ctx is done. The returned
// release func must be called exactly once.
func (p *Pool) Acquire(ctx context.Context) (release func(), err error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	p.inFlight.Add(1)

	var released atomic.Bool
	return func() {
		if released.Swap(true) {
			return
		}
		p.inFlight.Add(-1)
		p.sem.Release(1)
	}, nil
}

// Do runs fn while holding a permit. The permit is released on every exit
// path, including a panic in fn.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	release, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := fn(ctx); err != nil {
		p.failed.Add(1)
		return err
	}
	p.completed.Add(1)
	return nil
}

// InFlight returns the number of permits currently held.
func (p *Pool) InFlight() int {
	return int(p.inFlight.Load())
}

// Stats returns how many operations run through Do succeeded and failed.
func (p *Pool) Stats() (completed, failed int64) {
	return p.completed.Load(), p.failed.Load()
}
