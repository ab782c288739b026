package analyzer

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// WorkerPool bounds how many analyses run at once. Jobs run on their own
// goroutine once a slot is free; callers may stop waiting for a job without
// releasing its slot early.
type WorkerPool struct {
	workers int
	sem     *semaphore.Weighted
	wg      sync.WaitGroup

	totalJobs     atomic.Int64
	completedJobs atomic.Int64
	rejectedJobs  atomic.Int64
	activeWorkers atomic.Int64
}

// PoolStats is a snapshot of WorkerPool counters.
type PoolStats struct {
	Workers       int   `json:"workers"`
	TotalJobs     int64 `json:"total_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	RejectedJobs  int64 `json:"rejected_jobs"`
	ActiveWorkers int64 `json:"active_workers"`
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &WorkerPool{
		workers: workers,
		sem:     semaphore.NewWeighted(int64(workers)),
	}
}

// Go waits for a free slot, then starts job. The returned channel is closed
// when job returns. If ctx ends before a slot frees up, job never runs and
// ctx's error is returned.
func (wp *WorkerPool) Go(ctx context.Context, job func()) (<-chan struct{}, error) {
	if err := wp.sem.Acquire(ctx, 1); err != nil {
		wp.rejectedJobs.Add(1)
		return nil, err
	}

	wp.totalJobs.Add(1)
	wp.activeWorkers.Add(1)
	wp.wg.Add(1)

	done := make(chan struct{})
	go func() {
		defer func() {
			wp.activeWorkers.Add(-1)
			wp.completedJobs.Add(1)
			wp.sem.Release(1)
			close(done)
			wp.wg.Done()
		}()
		job()
	}()
	return done, nil
}

// Do runs job under the pool's bound and waits for it, or for ctx to end.
func (wp *WorkerPool) Do(ctx context.Context, job func()) error {
	done, err := wp.Go(ctx, job)
	if err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait waits for all started jobs to complete
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// GetStats returns a snapshot of the pool counters
func (wp *WorkerPool) GetStats() PoolStats {
	return PoolStats{
		Workers:       wp.workers,
		TotalJobs:     wp.totalJobs.Load(),
		CompletedJobs: wp.completedJobs.Load(),
		RejectedJobs:  wp.rejectedJobs.Load(),
		ActiveWorkers: wp.activeWorkers.Load(),
	}
}
