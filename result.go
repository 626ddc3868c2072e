package sinker

import (
	"context"
)

// Result represents an in-flight or completed async transfer.
type Result struct {
	done    chan struct{}
	written int64
	err     error
	cancel  context.CancelFunc
	queue   *Queue
}

// Done returns a channel that is closed when the transfer completes.
func (r *Result) Done() <-chan struct{} { return r.done }

// Err blocks until the transfer completes and returns its error.
func (r *Result) Err() error {
	<-r.done
	return r.err
}

// Written blocks until the transfer completes and returns the bytes
// committed to the sink.
func (r *Result) Written() int64 {
	<-r.done
	return r.written
}

// Wait blocks until all transfers in the queue complete.
// Returns all errors joined.
func (r *Result) Wait() error {
	return r.queue.Wait()
}

// Cancel cancels this transfer's context.
func (r *Result) Cancel() {
	r.cancel()
}

// recordErr appends err to the queue's error slice under the mutex.
func (q *Queue) recordErr(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.errs = append(q.errs, err)
}
