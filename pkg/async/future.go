// Package async turns primitives that complete through a callback, or that
// simply block, into single-resolution futures.
//
// A Future is resolved exactly once. The first resolution wins and every
// later resolution attempt is ignored, which makes it safe to hand the
// resolve function to code that might invoke its callback more than once.
package async

import (
	"context"
	"errors"
	"sync"
)

// ErrPending is returned by Result when the future has not resolved yet.
var ErrPending = errors.New("async: future not resolved")

// Future holds the eventual outcome of one primitive.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// New returns an unresolved future and the function that resolves it.
func New[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{done: make(chan struct{})}
	return f, f.resolve
}

// Resolved returns a future that already holds (val, err).
func Resolved[T any](val T, err error) *Future[T] {
	f, resolve := New[T]()
	resolve(val, err)
	return f
}

// FromCallback starts a callback-style primitive and returns the future its
// callback resolves.
func FromCallback[T any](start func(cb func(T, error))) *Future[T] {
	f, resolve := New[T]()
	start(resolve)
	return f
}

// Go runs fn on its own goroutine. fn receives ctx unchanged; the primitive
// decides how to react to cancellation.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	return FromCallback(func(cb func(T, error)) {
		go func() {
			cb(fn(ctx))
		}()
	})
}

func (f *Future[T]) resolve(val T, err error) {
	f.once.Do(func() {
		f.val = val
		f.err = err
		close(f.done)
	})
}

// Done is closed once the future resolves.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future resolves or ctx is done. Giving up on the
// wait does not cancel the primitive: it still resolves the future later.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the outcome without blocking, or ErrPending.
func (f *Future[T]) Result() (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	default:
		var zero T
		return zero, ErrPending
	}
}
