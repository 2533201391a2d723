package syncjobs

import (
	"context"
	"sync"
)

// Dispatcher is a bounded-queue worker pool executing Jobs
// fire-and-forget: a fixed pool of goroutines draining one shared
// channel.
type Dispatcher struct {
	deps    Deps
	queue   chan Job
	workers int
	wg      sync.WaitGroup
}

// NewDispatcher builds a Dispatcher with the given worker count and
// queue capacity. Call Start to begin processing.
func NewDispatcher(deps Deps, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Dispatcher{
		deps:    deps,
		queue:   make(chan Job, queueSize),
		workers: workers,
	}
}

// Start launches the worker pool. It returns immediately; workers run
// until ctx is cancelled or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-d.queue:
			if !ok {
				return
			}
			d.run(ctx, job)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, job Job) {
	logger := d.deps.logger()
	switch j := job.(type) {
	case PingJob:
		if err := doPing(ctx, d.deps, j); err != nil {
			logger.Warnw("syncjobs: ping failed", "bucket", j.BucketID, "peer", j.PeerID, "error", err)
		}
	case SyncBucketJob:
		if err := doSyncBucket(ctx, d, j); err != nil {
			logger.Warnw("syncjobs: bucket sync failed", "bucket", j.BucketID, "error", err)
		}
	case DownloadPinsJob:
		if err := doDownloadPins(ctx, d.deps, j); err != nil {
			logger.Warnw("syncjobs: pins download failed", "bucket", j.BucketID, "error", err)
		}
	default:
		logger.Warnw("syncjobs: unknown job type")
	}
}

// Dispatch enqueues job without blocking: a full queue drops the job
// and returns false. Failures are logged, not fatal to the caller.
func (d *Dispatcher) Dispatch(job Job) bool {
	select {
	case d.queue <- job:
		return true
	default:
		d.deps.logger().Warnw("syncjobs: queue full, dropping job", "bucket", job.bucket())
		return false
	}
}

// Stop closes the queue and waits for in-flight jobs to finish. No new
// jobs may be dispatched afterward.
func (d *Dispatcher) Stop() {
	close(d.queue)
	d.wg.Wait()
}
