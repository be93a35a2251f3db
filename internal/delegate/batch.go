package delegate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	batch "github.com/hanpama/graphstitch/internal/batch"
	eventbus "github.com/hanpama/graphstitch/internal/eventbus"
	events "github.com/hanpama/graphstitch/internal/events"
	future "github.com/hanpama/graphstitch/internal/future"
	language "github.com/hanpama/graphstitch/internal/language"
	subschema "github.com/hanpama/graphstitch/internal/subschema"
)

// KeyFunc extracts the batch key of a field access.
type KeyFunc func(access FieldAccess) any

// KeysArgsFunc builds the arguments of the upstream root field for a window
// of keys.
type KeysArgsFunc func(keys []any) (language.ArgumentList, error)

// BatchDelegator resolves the accesses of one window with a single upstream
// root field. The field must return a list aligned with the keys it was
// given.
//
// Windows are kept apart per response path, so accesses with different
// selection sets are never merged into one query.
type BatchDelegator struct {
	Subschema     *subschema.Bound
	FieldName     string
	KeyFromAccess KeyFunc
	ArgsFromKeys  KeysArgsFunc
	Logger        *zap.Logger

	once sync.Once
	id   string
}

var _ Delegator = (*BatchDelegator)(nil)

// ID returns the identifier under which the delegator's loaders are
// registered.
func (d *BatchDelegator) ID() string {
	d.once.Do(func() { d.id = uuid.NewString() })
	return d.id
}

func (d *BatchDelegator) Delegate(ctx context.Context, access FieldAccess) *future.Future[any] {
	if access.Loaders == nil {
		return future.Failed[any](ErrNoLoaderRegistry)
	}
	loader := access.Loaders.LoaderFor(d.ID()+"@"+pathKey(access.Path), func() batch.Func {
		first := access
		return func(ctx context.Context, keys []any) ([]any, error) {
			return d.dispatch(ctx, first, keys)
		}
	})
	return loader.Load(d.KeyFromAccess(access))
}

func (d *BatchDelegator) dispatch(ctx context.Context, first FieldAccess, keys []any) ([]any, error) {
	start := time.Now()
	values, err := d.load(ctx, first, keys)
	eventbus.Publish(ctx, events.BatchDispatch{
		Subschema: d.Subschema.Name(),
		Field:     d.FieldName,
		Size:      len(keys),
		Err:       err,
		Duration:  time.Since(start),
	})
	return values, err
}

func (d *BatchDelegator) load(ctx context.Context, first FieldAccess, keys []any) ([]any, error) {
	args, err := d.ArgsFromKeys(keys)
	if err != nil {
		return nil, err
	}
	value, err := delegateField(ctx, d.Subschema, rootField(first, d.FieldName, args), first, loggerOrNop(d.Logger))
	if err != nil {
		return nil, err
	}
	items, ok := value.([]any)
	if !ok {
		return nil, ErrNoBatchResults
	}
	return items, nil
}

// KeysArgument passes the window's keys as the list argument name.
func KeysArgument(name string) KeysArgsFunc {
	return func(keys []any) (language.ArgumentList, error) {
		value, err := language.NewValue(keys)
		if err != nil {
			return nil, err
		}
		return language.ArgumentList{{Name: name, Value: value}}, nil
	}
}
