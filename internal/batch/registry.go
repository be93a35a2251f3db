// Package batch coalesces keyed loads issued during one operation into a
// single call per loader window.
//
// A Registry is created per operation. Callers obtain a Loader by id, enqueue
// keys with Load and receive a future per key. Nothing is sent until the
// owner calls Dispatch; each loader then hands its pending keys, in
// submission order, to its batch function on a separate goroutine.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hanpama/graphstitch/internal/future"
)

// ErrLengthMismatch is returned for every key of a window whose batch
// function produced a different number of values than it received keys.
var ErrLengthMismatch = errors.New("batch function returned a different number of values than keys")

// Func resolves a window of keys. The returned values must align with keys by
// position. A value that is itself an error fails only its own key.
type Func func(ctx context.Context, keys []any) ([]any, error)

// Factory builds the batch function for a loader. It runs once, when the
// loader is first registered.
type Factory func() Func

// Registry holds the loaders of one operation.
type Registry struct {
	mu      sync.Mutex
	loaders map[string]*Loader
	order   []*Loader
}

func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]*Loader)}
}

// LoaderFor returns the loader registered under id, creating it with factory
// when absent. Concurrent callers with the same id receive the same loader.
func (r *Registry) LoaderFor(id string, factory Factory) *Loader {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.loaders[id]; ok {
		return l
	}
	l := &Loader{id: id, fn: factory()}
	r.loaders[id] = l
	r.order = append(r.order, l)
	return l
}

// Dispatch flushes the pending window of every loader. It does not wait for
// the batch functions; their futures settle as they complete.
func (r *Registry) Dispatch(ctx context.Context) int {
	r.mu.Lock()
	loaders := append([]*Loader(nil), r.order...)
	r.mu.Unlock()

	dispatched := 0
	for _, l := range loaders {
		if l.dispatch(ctx) {
			dispatched++
		}
	}
	return dispatched
}

// Pending reports the number of keys waiting across all loaders.
func (r *Registry) Pending() int {
	r.mu.Lock()
	loaders := append([]*Loader(nil), r.order...)
	r.mu.Unlock()

	n := 0
	for _, l := range loaders {
		l.mu.Lock()
		n += len(l.keys)
		l.mu.Unlock()
	}
	return n
}

// Loader collects keys for one batch function.
type Loader struct {
	id string
	fn Func

	mu      sync.Mutex
	keys    []any
	futures []*future.Future[any]
}

func (l *Loader) ID() string { return l.id }

// Load enqueues key in the current window.
func (l *Loader) Load(key any) *future.Future[any] {
	f := future.New[any]()
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.futures = append(l.futures, f)
	l.mu.Unlock()
	return f
}

func (l *Loader) dispatch(ctx context.Context) bool {
	l.mu.Lock()
	keys, futures := l.keys, l.futures
	l.keys, l.futures = nil, nil
	l.mu.Unlock()

	if len(keys) == 0 {
		return false
	}
	go func() {
		values, err := l.fn(ctx, keys)
		if err == nil && len(values) != len(keys) {
			err = fmt.Errorf("%w: %d keys, %d values", ErrLengthMismatch, len(keys), len(values))
		}
		if err != nil {
			for _, f := range futures {
				f.Reject(err)
			}
			return
		}
		for i, f := range futures {
			if verr, ok := values[i].(error); ok {
				f.Reject(verr)
				continue
			}
			f.Resolve(values[i])
		}
	}()
	return true
}
