// Package future provides a single-assignment value that settles once with a
// result or an error and can be awaited from any number of goroutines.
package future

import (
	"context"
	"sync"
)

// Future is a value that becomes available later.
type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

// New returns an unsettled future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future already settled with v.
func Resolved[T any](v T) *Future[T] {
	f := New[T]()
	f.Resolve(v)
	return f
}

// Failed returns a future already settled with err.
func Failed[T any](err error) *Future[T] {
	f := New[T]()
	f.Reject(err)
	return f
}

// Go runs fn on a new goroutine and settles the returned future with its result.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := New[T]()
	go func() {
		v, err := fn()
		f.Settle(v, err)
	}()
	return f
}

// Settle completes the future. Only the first call has an effect; it reports
// whether this call settled the future.
func (f *Future[T]) Settle(v T, err error) bool {
	settled := false
	f.once.Do(func() {
		f.value, f.err = v, err
		close(f.done)
		settled = true
	})
	return settled
}

func (f *Future[T]) Resolve(v T) bool { return f.Settle(v, nil) }

func (f *Future[T]) Reject(err error) bool {
	var zero T
	return f.Settle(zero, err)
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the future settles or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then derives a future by applying fn to f's value. Errors pass through
// without calling fn.
func Then[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	out := New[U]()
	go func() {
		<-f.done
		if f.err != nil {
			out.Reject(f.err)
			return
		}
		out.Settle(fn(f.value))
	}()
	return out
}

// All settles with every value of fs in order, or with the first error
// encountered in that order.
func All[T any](fs []*Future[T]) *Future[[]T] {
	return Go(func() ([]T, error) {
		out := make([]T, len(fs))
		for i, f := range fs {
			<-f.done
			if f.err != nil {
				return nil, f.err
			}
			out[i] = f.value
		}
		return out, nil
	})
}
