package sinker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Queue manages a batch of concurrent transfers.
type Queue struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	sem      chan struct{}
	shutdown atomic.Bool
	errs     []error
}

// NewQueue creates a Queue with the given concurrency limit.
// If maxConcurrent <= 0, concurrency is unlimited.
func NewQueue(maxConcurrent int) *Queue {
	q := &Queue{}
	if maxConcurrent > 0 {
		q.sem = make(chan struct{}, maxConcurrent)
	}
	return q
}

// Wait blocks until all transfers in the queue complete.
// Returns all errors joined via errors.Join.
func (q *Queue) Wait() error {
	q.wg.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()

	return errors.Join(q.errs...)
}

// Shutdown prevents new transfers from executing in this queue.
func (q *Queue) Shutdown() {
	q.shutdown.Store(true)
}

// Start launches t.Run in a new goroutine managed by the queue and
// returns a Result for tracking the individual transfer. A transfer
// refused by the queue still has its resources released.
func (q *Queue) Start(ctx context.Context, t *Transfer) *Result {
	ctx, cancel := context.WithCancel(ctx)
	r := &Result{
		done:   make(chan struct{}),
		cancel: cancel,
		queue:  q,
	}

	q.wg.Add(1)
	go func() {
		defer func() {
			cancel()
			close(r.done)
			q.wg.Done()
		}()

		if q.sem != nil {
			select {
			case q.sem <- struct{}{}:
				defer func() {
					<-q.sem
				}()
			case <-ctx.Done():
				r.err = ctx.Err()
				q.refuse(t, r)
				return
			}
		}

		if q.shutdown.Load() {
			r.err = ErrQueueShutdown
			q.refuse(t, r)
			return
		}

		r.written, r.err = t.Run(ctx)
		if r.err != nil {
			q.recordErr(r.err)
		}
	}()

	return r
}

// refuse settles a transfer the queue never ran, closing out its
// resources so the sink handle does not leak.
func (q *Queue) refuse(t *Transfer, r *Result) {
	if cerr := t.release(); cerr != nil {
		t.logger.Error("closing sink", "transfer_id", t.id, "error", cerr)
	}
	q.recordErr(r.err)
}
