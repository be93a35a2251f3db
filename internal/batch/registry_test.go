package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hanpama/graphstitch/internal/future"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu    sync.Mutex
	calls [][]any
}

func (r *recorder) fn(ctx context.Context, keys []any) ([]any, error) {
	r.mu.Lock()
	r.calls = append(r.calls, keys)
	r.mu.Unlock()
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprintf("value:%v", k)
	}
	return out, nil
}

func awaitAll(t *testing.T, fs []*future.Future[any]) []any {
	t.Helper()
	out, err := future.All(fs).Await(context.Background())
	require.NoError(t, err)
	return out
}

func TestRegistry_OneCallPerWindow(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry()

	var fs []*future.Future[any]
	for _, k := range []string{"a", "b", "c"} {
		l := reg.LoaderFor("breweries", func() Func { return rec.fn })
		fs = append(fs, l.Load(k))
	}
	require.Equal(t, 3, reg.Pending())
	require.Equal(t, 1, reg.Dispatch(context.Background()))

	got := awaitAll(t, fs)
	if diff := cmp.Diff([]any{"value:a", "value:b", "value:c"}, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]any{{"a", "b", "c"}}, rec.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 0, reg.Pending())
}

func TestRegistry_FactoryRunsOnce(t *testing.T) {
	var built atomic.Int32
	reg := NewRegistry()
	factory := func() Func {
		built.Add(1)
		return (&recorder{}).fn
	}

	var wg sync.WaitGroup
	loaders := make([]*Loader, 16)
	for i := range loaders {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			loaders[i] = reg.LoaderFor("x", factory)
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), built.Load())
	for _, l := range loaders {
		require.Same(t, loaders[0], l)
	}
}

func TestRegistry_SeparateWindows(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry()
	l := reg.LoaderFor("x", func() Func { return rec.fn })

	first := l.Load(1)
	reg.Dispatch(context.Background())
	awaitAll(t, []*future.Future[any]{first})

	second := l.Load(2)
	third := l.Load(3)
	reg.Dispatch(context.Background())
	awaitAll(t, []*future.Future[any]{second, third})

	if diff := cmp.Diff([][]any{{1}, {2, 3}}, rec.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_DispatchWithoutKeys(t *testing.T) {
	reg := NewRegistry()
	reg.LoaderFor("x", func() Func { return (&recorder{}).fn })
	require.Equal(t, 0, reg.Dispatch(context.Background()))
}

func TestLoader_ErrorFailsWholeWindow(t *testing.T) {
	boom := errors.New("boom")
	reg := NewRegistry()
	l := reg.LoaderFor("x", func() Func {
		return func(context.Context, []any) ([]any, error) { return nil, boom }
	})
	a, b := l.Load(1), l.Load(2)
	reg.Dispatch(context.Background())

	for _, f := range []*future.Future[any]{a, b} {
		_, err := f.Await(context.Background())
		require.ErrorIs(t, err, boom)
	}
}

func TestLoader_LengthMismatch(t *testing.T) {
	reg := NewRegistry()
	l := reg.LoaderFor("x", func() Func {
		return func(context.Context, []any) ([]any, error) { return []any{"only"}, nil }
	})
	a, b := l.Load(1), l.Load(2)
	reg.Dispatch(context.Background())

	for _, f := range []*future.Future[any]{a, b} {
		_, err := f.Await(context.Background())
		require.ErrorIs(t, err, ErrLengthMismatch)
		require.EqualError(t, err, ErrLengthMismatch.Error()+": 2 keys, 1 values")
	}
}

func TestLoader_PerKeyError(t *testing.T) {
	notFound := errors.New("not found")
	reg := NewRegistry()
	l := reg.LoaderFor("x", func() Func {
		return func(context.Context, []any) ([]any, error) { return []any{"ok", notFound}, nil }
	})
	a, b := l.Load(1), l.Load(2)
	reg.Dispatch(context.Background())

	v, err := a.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ok", v)
	_, err = b.Await(context.Background())
	require.ErrorIs(t, err, notFound)
}
