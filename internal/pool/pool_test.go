package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDoBoundsConcurrency(t *testing.T) {
	p := New(3)

	var current, peak atomic.Int64
	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			_ = p.Do(context.Background(), func(context.Context) error {
				n := current.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				current.Add(-1)
				return nil
			})
		})
	}
	wg.Wait()

	if got := peak.Load(); got > 3 {
		t.Fatalf("peak concurrency %d exceeds pool size 3", got)
	}
	if completed, failed := p.Stats(); completed != 20 || failed != 0 {
		t.Fatalf("stats = (%d, %d), want (20, 0)", completed, failed)
	}
}

func TestDoReleasesOnError(t *testing.T) {
	p := New(1)
	boom := errors.New("boom")

	for range 3 {
		if err := p.Do(context.Background(), func(context.Context) error { return boom }); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}
	if p.InFlight() != 0 {
		t.Fatalf("expected no permits held, got %d", p.InFlight())
	}
	if _, failed := p.Stats(); failed != 3 {
		t.Fatalf("expected 3 failures, got %d", failed)
	}
}

func TestAcquireHonoursContext(t *testing.T) {
	p := New(1)
	release, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := p.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	p := New(2)
	release, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()
	release()
	if p.InFlight() != 0 {
		t.Fatalf("in-flight = %d after double release", p.InFlight())
	}
}

func TestNewDefaultsSize(t *testing.T) {
	if got := New(0).Size(); got != DefaultSize {
		t.Fatalf("Size() = %d, want %d", got, DefaultSize)
	}
}
