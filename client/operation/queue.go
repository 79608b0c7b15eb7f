package operation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrQueueShutdown indicates the queue refused work after [Queue.Shutdown].
var ErrQueueShutdown = errors.New("queue shut down")

// Runner is a handle the [Queue] can drive.
type Runner interface {
	Wait() error
	Cancel()
}

// Queue manages a batch of independent concurrent operations.
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

// Add runs r in a new goroutine once a concurrency slot is free.
// If ctx ends while waiting for a slot, r is cancelled and the
// context's error is recorded.
func (q *Queue) Add(ctx context.Context, r Runner) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()

		if q.sem != nil {
			select {
			case q.sem <- struct{}{}:
				defer func() {
					<-q.sem
				}()
			case <-ctx.Done():
				r.Cancel()
				q.recordErr(ctx.Err())
				return
			}
		}

		if q.shutdown.Load() {
			r.Cancel()
			q.recordErr(ErrQueueShutdown)
			return
		}

		if err := r.Wait(); err != nil {
			q.recordErr(err)
		}
	}()
}

// Wait blocks until every added operation completes.
// Returns all errors joined via errors.Join.
func (q *Queue) Wait() error {
	q.wg.Wait()

	q.mu.Lock()
	defer q.mu.Unlock()

	return errors.Join(q.errs...)
}

// Shutdown prevents operations that have not started from executing.
func (q *Queue) Shutdown() {
	q.shutdown.Store(true)
}

func (q *Queue) recordErr(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.errs = append(q.errs, err)
}
