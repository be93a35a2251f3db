package executor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/graphstitch/internal/batch"
	language "github.com/hanpama/graphstitch/internal/language"
	schema "github.com/hanpama/graphstitch/internal/schema"
)

// Pattern: FieldContext inspection
func TestFieldContext_SyncAndAsync(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query",
			schema.NewField("brewery", "", schema.NamedType("Brewery")).SetAsync(true),
		),
		newObjectType("Brewery",
			schema.NewField("name", "", schema.NamedType("String")),
		),
		newScalarType("String"),
	)

	var mu sync.Mutex
	seen := map[string]*FieldContext{}
	record := func(key string) MockResolver {
		return func(ctx context.Context, source any, args map[string]any) (any, error) {
			mu.Lock()
			seen[key] = GetFieldContext(ctx)
			mu.Unlock()
			if key == "Query.brewery" {
				return map[string]any{"label": "Brouwerij"}, nil
			}
			return source.(map[string]any)[GetFieldContext(ctx).ResponseKey()], nil
		}
	}
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.brewery": record("Query.brewery"),
		"Brewery.name":  record("Brewery.name"),
	})
	doc := mustParseQuery(t, `query Q($v: String) { b: brewery { label: name } }`)

	got := NewExecutor(rt, sch).ExecuteRequest(context.Background(), doc, "", map[string]any{"v": "x"}, nil)
	want := &ExecutionResult{Data: map[string]any{"b": map[string]any{"label": "Brouwerij"}}, Errors: []GraphQLError{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}

	root := seen["Query.brewery"]
	require.NotNil(t, root)
	require.Equal(t, Path{"b"}, root.Path)
	require.Equal(t, "b", root.ResponseKey())
	require.Equal(t, "brewery", root.Field().Name)
	require.Equal(t, "Q", root.Operation.Name)
	require.Equal(t, map[string]any{"v": "x"}, root.Variables)
	require.NotNil(t, root.Loaders)

	child := seen["Brewery.name"]
	require.NotNil(t, child)
	require.Equal(t, Path{"b", "label"}, child.Path)
	require.Same(t, root.Loaders, child.Loaders)
}

func TestFieldContext_LoadersArePerOperation(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query", schema.NewField("a", "", schema.NamedType("String"))),
		newScalarType("String"),
	)
	var registries []*batch.Registry
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": func(ctx context.Context, source any, args map[string]any) (any, error) {
			registries = append(registries, GetFieldContext(ctx).Loaders)
			return "A", nil
		},
	})
	exec := NewExecutor(rt, sch)
	exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ a }"), "", nil, nil)
	exec.ExecuteRequest(context.Background(), mustParseQuery(t, "{ a }"), "", nil, nil)

	require.Len(t, registries, 2)
	require.NotSame(t, registries[0], registries[1])
}

func TestFieldContext_MergedField(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query", schema.NewField("obj", "", schema.NamedType("Obj")).SetAsync(true)),
		newObjectType("Obj",
			schema.NewField("a", "", schema.NamedType("String")),
			schema.NewField("b", "", schema.NamedType("String")),
		),
		newScalarType("String"),
	)
	var merged []string
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.obj": func(ctx context.Context, source any, args map[string]any) (any, error) {
			fc := GetFieldContext(ctx)
			require.Len(t, fc.Fields, 2)
			for _, sel := range fc.MergedField().SelectionSet {
				merged = append(merged, sel.(*language.Field).Name)
			}
			return map[string]any{}, nil
		},
	})
	NewExecutor(rt, sch).ExecuteRequest(context.Background(), mustParseQuery(t, "{ obj { a } obj { b } }"), "", nil, nil)

	require.Equal(t, []string{"a", "b"}, merged)
}

// Pattern: Result comparison
func TestCollectFields_AbstractTypeConditions(t *testing.T) {
	node := schema.NewType("Node", schema.TypeKindInterface, "").
		AddField(schema.NewField("id", "", schema.NamedType("String"))).
		AddPossibleType("Brewery")
	result := schema.NewType("SearchResult", schema.TypeKindUnion, "").AddPossibleType("Brewery")
	brewery := newObjectType("Brewery",
		schema.NewField("id", "", schema.NamedType("String")),
		schema.NewField("name", "", schema.NamedType("String")),
	).AddInterface("Node")

	sch := newSchemaWithQueryType(
		newObjectType("Query", schema.NewField("brewery", "", schema.NamedType("Brewery"))),
		brewery, node, result, newScalarType("String"),
	)
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.brewery": NewMockValueResolver(map[string]any{"id": "1", "name": "Westmalle"}),
		"Brewery.id":    func(_ context.Context, s any, _ map[string]any) (any, error) { return s.(map[string]any)["id"], nil },
		"Brewery.name":  func(_ context.Context, s any, _ map[string]any) (any, error) { return s.(map[string]any)["name"], nil },
	})
	doc := mustParseQuery(t, `
		{ brewery { ... on Node { id } ... on SearchResult { name } ...F } }
		fragment F on Node { nodeId: id }
	`)

	got := NewExecutor(rt, sch).ExecuteRequest(context.Background(), doc, "", nil, nil)
	want := &ExecutionResult{
		Data:   map[string]any{"brewery": map[string]any{"id": "1", "name": "Westmalle", "nodeId": "1"}},
		Errors: []GraphQLError{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

type upstreamErrors []GraphQLError

func (e upstreamErrors) Error() string                 { return "upstream failed" }
func (e upstreamErrors) GraphQLErrors() []GraphQLError { return e }

func TestFieldErrors_ExpandGraphQLErrors(t *testing.T) {
	sch := newSchemaWithQueryType(
		newObjectType("Query", schema.NewField("a", "", schema.NamedType("String")).SetAsync(true)),
		newScalarType("String"),
	)
	cause := upstreamErrors{
		{Message: "not found", Extensions: map[string]any{"code": "NOT_FOUND"}},
		{Message: "denied"},
	}
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockErrorResolver(errors.Join(errors.New("wrapped"), cause)),
	})

	got := NewExecutor(rt, sch).ExecuteRequest(context.Background(), mustParseQuery(t, "{ a }"), "", nil, nil)
	want := &ExecutionResult{
		Data: map[string]any{"a": nil},
		Errors: []GraphQLError{
			{Message: "not found", Path: Path{"a"}, Extensions: map[string]any{"code": "NOT_FOUND"}},
			{Message: "denied", Path: Path{"a"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}
