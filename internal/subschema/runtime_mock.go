package subschema

import (
	"context"
	"fmt"
	"sync"

	executor "github.com/hanpama/graphstitch/internal/executor"
)

// DataRuntime is an executor.Runtime over plain map data, used to stand up
// local subschemas in tests. Root fields are resolved by the registered
// resolvers; every other field reads source[field]. Abstract types resolve
// through the __typename entry of the value.
type DataRuntime struct {
	mu        sync.Mutex
	resolvers map[string]executor.MockResolver
	calls     []executor.Call
}

// NewDataRuntime creates a DataRuntime. Resolver keys have the form
// "ObjectType.Field".
func NewDataRuntime(resolvers map[string]executor.MockResolver) *DataRuntime {
	r := &DataRuntime{resolvers: make(map[string]executor.MockResolver, len(resolvers))}
	for k, v := range resolvers {
		r.resolvers[k] = v
	}
	return r
}

// Calls returns the resolver invocations in order.
func (r *DataRuntime) Calls() []executor.Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]executor.Call(nil), r.calls...)
}

func (r *DataRuntime) ResolveSync(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	r.mu.Lock()
	resolver := r.resolvers[objectType+"."+field]
	if resolver != nil {
		r.calls = append(r.calls, executor.Call{Kind: executor.CallKindSync, ObjectType: objectType, Field: field, Source: source, Args: args})
	}
	r.mu.Unlock()

	if resolver != nil {
		return resolver(ctx, source, args)
	}
	if m, ok := source.(map[string]any); ok {
		return m[field], nil
	}
	return nil, nil
}

func (r *DataRuntime) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	for i, task := range tasks {
		v, err := r.ResolveSync(executor.WithFieldContext(ctx, task.FieldContext), task.ObjectType, task.Field, task.Source, task.Args)
		results[i] = executor.AsyncResolveResult{Value: v, Error: err}
	}
	return results
}

func (r *DataRuntime) ResolveType(_ context.Context, abstractType string, value any) (string, error) {
	if m, ok := value.(map[string]any); ok {
		if name, ok := m["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("cannot resolve concrete type of %s", abstractType)
}

func (r *DataRuntime) ResolveUnionConcreteValue(_ context.Context, _ string, value any) (any, error) {
	return value, nil
}

func (r *DataRuntime) ResolveInterfaceConcreteValue(_ context.Context, _ string, value any) (any, error) {
	return value, nil
}

func (r *DataRuntime) SerializeLeafValue(_ context.Context, _ string, value any) (any, error) {
	return value, nil
}
