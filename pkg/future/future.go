// Package future provides a single-assignment result for non-blocking
// operations, with cancellation and transformation stages.
//
//	f := future.Go(ctx, func(ctx context.Context) (int, error) { return slow(ctx) })
//	g := future.Map(f, func(v int) (string, error) { return strconv.Itoa(v), nil })
//	s, err := g.Get(ctx)
//
// A transformation registered with Map or Then runs at most once, on its own
// goroutine, after the source completes. Cancelling a future is only possible
// before its value is produced; once a transformation has started, Cancel
// returns false and the transformation's result stands.
package future

import (
	"context"
	"sync"

	"github.com/ajitpratap0/widecol/pkg/errors"
)

type state int

const (
	pending state = iota
	running
	resolved
)

// Future is a value of type T that becomes available later.
type Future[T any] struct {
	mu        sync.Mutex
	state     state
	cancelled bool
	done      chan struct{}
	val       T
	err       error
	onCancel  func()
}

// New creates a pending future. onCancel, when non-nil, is invoked once if the
// future is cancelled while still pending, so the producer can stop its work.
func New[T any](onCancel func()) *Future[T] {
	return &Future[T]{
		done:     make(chan struct{}),
		onCancel: onCancel,
	}
}

// Completed returns a future already resolved with v and err.
func Completed[T any](v T, err error) *Future[T] {
	f := New[T](nil)
	f.Resolve(v, err)
	return f
}

// Failed returns a future already resolved with err.
func Failed[T any](err error) *Future[T] {
	var zero T
	return Completed(zero, err)
}

// Resolve sets the outcome. It returns false if the future was already
// resolved or cancelled, in which case v and err are discarded.
func (f *Future[T]) Resolve(v T, err error) bool {
	f.mu.Lock()
	if f.state == resolved {
		f.mu.Unlock()
		return false
	}
	f.val, f.err = v, err
	f.state = resolved
	f.mu.Unlock()

	close(f.done)
	return true
}

// Cancel resolves a pending future with a cancelled error and notifies the
// producer. It returns false if the value is already produced or being produced.
func (f *Future[T]) Cancel() bool {
	f.mu.Lock()
	if f.state != pending {
		f.mu.Unlock()
		return false
	}
	f.state = resolved
	f.cancelled = true
	f.err = errors.Wrap(context.Canceled, errors.ErrorTypeCancelled, "operation cancelled before completion")
	onCancel := f.onCancel
	f.mu.Unlock()

	close(f.done)
	if onCancel != nil {
		onCancel()
	}
	return true
}

// begin moves a pending future to running so that Cancel no longer applies.
func (f *Future[T]) begin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != pending {
		return false
	}
	f.state = running
	return true
}

// Done returns a channel closed when the future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether the future is resolved, without blocking.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Cancelled reports whether the future was resolved by Cancel.
func (f *Future[T]) Cancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

// Get blocks until the future is resolved or ctx is done. A done ctx does not
// cancel the future.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Wait blocks until the future is resolved.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.result()
}

func (f *Future[T]) result() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.val, f.err
}

// Go runs fn on a new goroutine and returns its future. Cancelling the future
// cancels the context passed to fn.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	ctx, cancel := context.WithCancel(ctx)
	f := New[T](cancel)
	go func() {
		defer cancel()
		v, err := fn(ctx)
		f.Resolve(v, err)
	}()
	return f
}

// Then registers fn as a stage receiving src's value and error once src is
// resolved. fn runs exactly once unless the returned future is cancelled
// before src resolves. Cancelling the returned future cancels src.
func Then[T, U any](src *Future[T], fn func(T, error) (U, error)) *Future[U] {
	dst := New[U](func() { src.Cancel() })
	go func() {
		<-src.Done()
		if !dst.begin() {
			return
		}
		v, err := src.result()
		u, err := fn(v, err)
		dst.Resolve(u, err)
	}()
	return dst
}

// Map registers fn as a stage applied to src's value on success. Failures of
// src propagate unchanged and fn is not called.
func Map[T, U any](src *Future[T], fn func(T) (U, error)) *Future[U] {
	return Then(src, func(v T, err error) (U, error) {
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v)
	})
}
