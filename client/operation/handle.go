package operation

import (
	"context"
	"sync"
)

// ProgressFunc receives the cumulative number of bytes transferred and
// the expected total.
type ProgressFunc func(transferred, total int64)

// WorkFunc is the deferred unit of work wrapped by a [Handle]. report
// delivers progress to every current subscriber.
type WorkFunc[T any] func(ctx context.Context, report ProgressFunc) (T, error)

// Handle is a deferred operation with a progress event source.
type Handle[T any] struct {
	parent context.Context
	work   WorkFunc[T]

	once sync.Once
	done chan struct{}

	mu     sync.Mutex
	subs   []subscriber
	nextID int

	// cancel is set once the work starts; cancelled records a Cancel
	// call made before that.
	cancel    context.CancelFunc
	cancelled bool

	result T
	err    error
}

type subscriber struct {
	id int
	fn ProgressFunc
}

// New wraps work without starting it. Cancelling ctx, or calling
// [Handle.Cancel], aborts the work. A handle that is never run holds
// no resources derived from ctx.
func New[T any](ctx context.Context, work WorkFunc[T]) *Handle[T] {
	return &Handle[T]{
		parent: ctx,
		work:   work,
		done:   make(chan struct{}),
	}
}

// Subscribe registers fn for progress events and returns a func that
// removes it. Events are delivered synchronously, in emission order,
// on the goroutine running the work.
func (h *Handle[T]) Subscribe(fn ProgressFunc) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, subscriber{id: id, fn: fn})

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		for i, s := range h.subs {
			if s.id == id {
				h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
				return
			}
		}
	}
}

// Start launches the work in a new goroutine unless it already ran.
func (h *Handle[T]) Start() {
	go h.once.Do(h.exec)
}

// Run executes the work on the calling goroutine if it has not started
// yet, then blocks until it completes and returns its memoized result.
func (h *Handle[T]) Run() (T, error) {
	h.once.Do(h.exec)
	<-h.done

	return h.result, h.err
}

// Wait is [Handle.Run] without the result value.
func (h *Handle[T]) Wait() error {
	_, err := h.Run()
	return err
}

// Done returns a channel that is closed when the work completes.
func (h *Handle[T]) Done() <-chan struct{} { return h.done }

// Cancel cancels the work's context. Work that has not started yet
// fails immediately with the context's error once triggered.
func (h *Handle[T]) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.cancelled = true
	if h.cancel != nil {
		h.cancel()
	}
}

func (h *Handle[T]) exec() {
	defer close(h.done)

	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		h.err = context.Canceled
		return
	}
	ctx, cancel := context.WithCancel(h.parent)
	h.cancel = cancel
	h.mu.Unlock()

	defer cancel()

	if err := ctx.Err(); err != nil {
		h.err = err
		return
	}

	h.result, h.err = h.work(ctx, h.report)
}

func (h *Handle[T]) report(transferred, total int64) {
	h.mu.Lock()
	subs := make([]ProgressFunc, len(h.subs))
	for i, s := range h.subs {
		subs[i] = s.fn
	}
	h.mu.Unlock()

	for _, fn := range subs {
		fn(transferred, total)
	}
}
