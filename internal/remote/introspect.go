package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	executor "github.com/hanpama/graphstitch/internal/executor"
	introspection "github.com/hanpama/graphstitch/internal/introspection"
	schema "github.com/hanpama/graphstitch/internal/schema"
	subschema "github.com/hanpama/graphstitch/internal/subschema"
)

// Introspect loads the schema served by exec.
func Introspect(ctx context.Context, exec subschema.Executor) (*schema.Schema, error) {
	res, err := exec.Execute(ctx, subschema.ExecutionInput{
		Query:         introspection.Query,
		OperationName: "IntrospectionQuery",
	})
	if err != nil {
		return nil, fmt.Errorf("introspect: %w", err)
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("introspect: %w", joinGraphQLErrors(res.Errors))
	}
	data, ok := res.Data.(map[string]any)
	if !ok {
		return nil, errors.New("introspect: response carries no data")
	}
	return introspection.BuildClientSchema(data)
}

// IntrospectAll loads the schemas of several executors concurrently, keyed
// like execs. The first failure cancels the remaining calls.
func IntrospectAll(ctx context.Context, execs map[string]subschema.Executor) (map[string]*schema.Schema, error) {
	var (
		mu  sync.Mutex
		out = make(map[string]*schema.Schema, len(execs))
	)
	g, ctx := errgroup.WithContext(ctx)
	for name, exec := range execs {
		g.Go(func() error {
			s, err := Introspect(ctx, exec)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			mu.Lock()
			out[name] = s
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func joinGraphQLErrors(errs []executor.GraphQLError) error {
	joined := make([]error, len(errs))
	for i, e := range errs {
		joined[i] = e
	}
	return errors.Join(joined...)
}
