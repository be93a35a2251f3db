package transform

import (
	"context"

	language "github.com/hanpama/graphstitch/internal/language"
	schema "github.com/hanpama/graphstitch/internal/schema"
)

const typenameField = "__typename"

type addTypename struct{}

// AddTypename selects __typename in every selection set on an interface or
// union type, so the concrete type of delegated values can be resolved.
func AddTypename() Transform { return addTypename{} }

func (addTypename) TransformSchema(s *schema.Schema) (Compiled, error) {
	return &compiledAddTypename{schema: s}, nil
}

type compiledAddTypename struct {
	schema *schema.Schema
}

func (c *compiledAddTypename) Schema() *schema.Schema { return c.schema }

func (c *compiledAddTypename) TransformRequest(ctx context.Context, req Request, next Next) (Result, error) {
	mapped, err := MapRequest(req, c.schema, RequestMapping{
		SelectionSet: func(ss language.SelectionSet, env RequestEnv) (language.SelectionSet, error) {
			if !env.ParentType.IsAbstract() || hasResponseKey(ss, typenameField) {
				return ss, nil
			}
			return append(ss, &language.Field{Alias: typenameField, Name: typenameField}), nil
		},
	})
	if err != nil {
		return Result{}, err
	}
	return next(ctx, mapped)
}
