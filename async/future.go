package async

import (
	"context"
	"sync"

	qerrors "github.com/quiverdb/quiver-go/errors"
)

// Future is a single-assignment container for a value of type T or an error.
// It is completed exactly once, by the goroutine that produced the result
// (for protocol futures, the connection loop). Listeners run on the context
// that completes the future; a listener attached after completion runs
// synchronously before AddListener returns.
type Future[T any] struct {
	loop *Loop

	mu        sync.Mutex
	completed bool
	value     T
	err       error
	listeners []func(T, error)
	done      chan struct{}
}

// NewFuture returns an incomplete future bound to the given loop. The loop is
// only used to guard Await against being called from the cooperative context;
// it may be nil for futures that are never awaited.
func NewFuture[T any](loop *Loop) *Future[T] {
	return &Future[T]{loop: loop, done: make(chan struct{})}
}

// Resolved returns an already-completed future holding v.
func Resolved[T any](loop *Loop, v T) *Future[T] {
	f := NewFuture[T](loop)
	f.Complete(v)
	return f
}

// Failed returns an already-failed future holding err.
func Failed[T any](loop *Loop, err error) *Future[T] {
	f := NewFuture[T](loop)
	f.Fail(err)
	return f
}

// Complete stores v and fires the registered listeners. Completing a future
// twice is a defect in the producer and panics with a logic error.
func (f *Future[T]) Complete(v T) {
	f.settle(v, nil)
}

// Fail stores err and fires the registered listeners. Failing an
// already-completed future panics with a logic error.
func (f *Future[T]) Fail(err error) {
	var zero T
	f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		panic(qerrors.Logicf("future completed more than once"))
	}
	f.completed = true
	f.value = v
	f.err = err
	ls := f.listeners
	f.listeners = nil
	f.mu.Unlock()

	close(f.done)

	for _, fn := range ls {
		fn(v, err)
	}
}

// AddListener registers fn to be invoked with the outcome. If the future is
// already completed, fn runs synchronously before AddListener returns;
// otherwise it runs on the context that completes the future, in registration
// order. Listeners are detached after firing.
func (f *Future[T]) AddListener(fn func(T, error)) {
	f.mu.Lock()
	if f.completed {
		v, err := f.value, f.err
		f.mu.Unlock()
		fn(v, err)
		return
	}
	f.listeners = append(f.listeners, fn)
	f.mu.Unlock()
}

// Completed reports whether the future has been completed or failed.
func (f *Future[T]) Completed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

// Await blocks the calling goroutine until the future completes, then returns
// its outcome. If ctx expires first, Await returns ctx.Err() and leaves the
// future untouched.
//
// Await must not be called from the loop goroutine: the loop is the only
// context able to complete protocol futures, so blocking it can never make
// progress. Doing so panics with a logic error.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	if f.loop != nil && f.loop.InLoop() {
		panic(qerrors.Logicf("Await called from the connection loop; use AddListener instead"))
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
