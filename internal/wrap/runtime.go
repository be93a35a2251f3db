package wrap

import (
	"context"
	"encoding/base64"
	"fmt"

	batch "github.com/hanpama/graphstitch/internal/batch"
	delegate "github.com/hanpama/graphstitch/internal/delegate"
	executor "github.com/hanpama/graphstitch/internal/executor"
	future "github.com/hanpama/graphstitch/internal/future"
)

// Runtime resolves gateway fields. Async fields are delegated; every other
// field reads the delegated data under its response key.
type Runtime struct {
	delegators map[string]delegate.Delegator // "Type.field"
}

var _ executor.Runtime = (*Runtime)(nil)

func (r *Runtime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	m, ok := source.(map[string]any)
	if !ok {
		if source == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("%s.%s: unexpected source value %T", objectType, field, source)
	}
	key := field
	if fc := executor.GetFieldContext(ctx); fc != nil {
		key = fc.ResponseKey()
	}
	return m[key], nil
}

// BatchResolveAsync groups the tasks of one depth by (objectType, field),
// issues every delegation, dispatches the operation's batch registry once
// and then waits for the results.
func (r *Runtime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}
	type groupKey struct {
		objectType string
		field      string
	}
	type group struct {
		key  groupKey
		idxs []int
	}
	var groups []group
	idxByKey := map[groupKey]int{}
	for i, t := range tasks {
		k := groupKey{objectType: t.ObjectType, field: t.Field}
		if gi, ok := idxByKey[k]; ok {
			groups[gi].idxs = append(groups[gi].idxs, i)
		} else {
			idxByKey[k] = len(groups)
			groups = append(groups, group{key: k, idxs: []int{i}})
		}
	}

	futures := make([]*future.Future[any], len(tasks))
	var loaders *batch.Registry
	for _, g := range groups {
		d, ok := r.delegators[g.key.objectType+"."+g.key.field]
		for _, i := range g.idxs {
			if !ok {
				results[i].Error = fmt.Errorf("no delegator registered for %s.%s", g.key.objectType, g.key.field)
				continue
			}
			access := delegate.AccessFromTask(tasks[i])
			if access.Loaders != nil {
				loaders = access.Loaders
			}
			futures[i] = d.Delegate(ctx, access)
		}
	}
	if loaders != nil {
		loaders.Dispatch(ctx)
	}
	for i, f := range futures {
		if f == nil {
			continue
		}
		results[i].Value, results[i].Error = f.Await(ctx)
	}
	return results
}

func (r *Runtime) ResolveType(_ context.Context, abstractType string, value any) (string, error) {
	if m, ok := value.(map[string]any); ok {
		if name, ok := m["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("cannot resolve concrete type of %s: value carries no __typename", abstractType)
}

func (r *Runtime) ResolveUnionConcreteValue(_ context.Context, _ string, value any) (any, error) {
	return value, nil
}

func (r *Runtime) ResolveInterfaceConcreteValue(_ context.Context, _ string, value any) (any, error) {
	return value, nil
}

// SerializeLeafValue passes decoded JSON values through.
func (r *Runtime) SerializeLeafValue(_ context.Context, _ string, value any) (any, error) {
	if b, ok := value.([]byte); ok {
		return base64.StdEncoding.EncodeToString(b), nil
	}
	return value, nil
}
