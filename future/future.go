package future

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Future is a value of type T that settles later.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Settlement: the first resolve or reject wins; later ones are ignored.
type Future[T any] struct {
	done chan struct{}

	mu    sync.Mutex
	value T
	err   error
	conts []func(T, error)
}

// New returns a pending future together with the functions that settle it.
func New[T any]() (f *Future[T], resolve func(T), reject func(error)) {
	f = &Future[T]{done: make(chan struct{})}
	resolve = func(v T) { f.settle(v, nil) }
	reject = func(err error) {
		if err == nil {
			err = ErrNilRejection
		}
		var zero T
		f.settle(zero, err)
	}
	return f, resolve, reject
}

// Go runs fn on a new goroutine and returns a future for its result. A panic
// in fn rejects the future with ErrPanicked.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f, resolve, reject := New[T]()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				reject(fmt.Errorf("%w: %v", ErrPanicked, r))
			}
		}()
		v, err := fn(ctx)
		if err != nil {
			reject(err)
			return
		}
		resolve(v)
	}()
	return f
}

// Resolved returns a future already fulfilled with v.
func Resolved[T any](v T) *Future[T] {
	f, resolve, _ := New[T]()
	resolve(v)
	return f
}

// Rejected returns a future already rejected with err.
func Rejected[T any](err error) *Future[T] {
	f, _, reject := New[T]()
	reject(err)
	return f
}

func (f *Future[T]) settle(v T, err error) {
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		return
	default:
	}
	f.value, f.err = v, err
	conts := f.conts
	f.conts = nil
	close(f.done)
	f.mu.Unlock()

	for _, fn := range conts {
		fn(v, err)
	}
}

// Done returns a channel closed when the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future settles or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then registers fn to run once after settlement.
func (f *Future[T]) Then(fn func(T, error)) {
	f.mu.Lock()
	select {
	case <-f.done:
		v, err := f.value, f.err
		f.mu.Unlock()
		fn(v, err)
		return
	default:
	}
	f.conts = append(f.conts, fn)
	f.mu.Unlock()
}

// Observe is Then with an untyped value.
func (f *Future[T]) Observe(fn func(value any, err error)) {
	f.Then(func(v T, err error) { fn(v, err) })
}

// All waits for every future and returns their values in order. The first
// rejection is returned and stops the wait.
func All[T any](ctx context.Context, fs ...*Future[T]) ([]T, error) {
	g, gctx := errgroup.WithContext(ctx)
	out := make([]T, len(fs))
	for i, f := range fs {
		g.Go(func() error {
			v, err := f.Await(gctx)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
