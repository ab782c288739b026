package analyzer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewWorkerPool_ZeroWorkers(t *testing.T) {
	pool := NewWorkerPool(0)
	if pool == nil {
		t.Fatal("Expected non-nil WorkerPool")
	}
	if pool.GetStats().Workers <= 0 {
		t.Errorf("Expected CPU count default, got %d workers", pool.GetStats().Workers)
	}
}

func TestWorkerPool_Do(t *testing.T) {
	pool := NewWorkerPool(2)

	var counter int
	var mu sync.Mutex
	for i := 0; i < 5; i++ {
		err := pool.Do(context.Background(), func() {
			mu.Lock()
			counter++
			mu.Unlock()
		})
		if err != nil {
			t.Fatalf("Do failed: %v", err)
		}
	}

	if counter != 5 {
		t.Errorf("Expected counter to be 5, got %d", counter)
	}
	stats := pool.GetStats()
	if stats.TotalJobs != 5 || stats.CompletedJobs != 5 {
		t.Errorf("Expected 5 total and completed jobs, got %+v", stats)
	}
	if stats.ActiveWorkers != 0 {
		t.Errorf("Expected 0 active workers, got %d", stats.ActiveWorkers)
	}
}

func TestWorkerPool_BoundsConcurrency(t *testing.T) {
	const limit = 3
	pool := NewWorkerPool(limit)

	var active, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pool.Do(context.Background(), func() {
				n := active.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				active.Add(-1)
			})
		}()
	}
	wg.Wait()
	pool.Wait()

	if peak.Load() > limit {
		t.Errorf("Expected at most %d concurrent jobs, saw %d", limit, peak.Load())
	}
	if got := pool.GetStats().CompletedJobs; got != 12 {
		t.Errorf("Expected 12 completed jobs, got %d", got)
	}
}

func TestWorkerPool_RejectsWhenContextEnds(t *testing.T) {
	pool := NewWorkerPool(1)

	release := make(chan struct{})
	if _, err := pool.Go(context.Background(), func() { <-release }); err != nil {
		t.Fatalf("Go failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ran := false
	err := pool.Do(ctx, func() { ran = true })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	close(release)
	pool.Wait()

	if ran {
		t.Error("Expected rejected job not to run")
	}
	if got := pool.GetStats().RejectedJobs; got != 1 {
		t.Errorf("Expected 1 rejected job, got %d", got)
	}
}

func TestWorkerPool_CallerStopsWaiting(t *testing.T) {
	pool := NewWorkerPool(1)

	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := pool.Do(ctx, func() { <-release })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context canceled, got %v", err)
	}
	if got := pool.GetStats().ActiveWorkers; got != 1 {
		t.Errorf("Expected abandoned job to keep its slot, got %d active", got)
	}

	close(release)
	pool.Wait()
	if got := pool.GetStats().ActiveWorkers; got != 0 {
		t.Errorf("Expected 0 active workers after completion, got %d", got)
	}
}
