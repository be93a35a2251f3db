package transform

import (
	"context"

	language "github.com/hanpama/graphstitch/internal/language"
	schema "github.com/hanpama/graphstitch/internal/schema"
)

// TypeRenamer returns the caller-facing name of an object or interface type.
type TypeRenamer func(name string, t *schema.Type) string

type renameTypes struct {
	renamer TypeRenamer
}

// RenameTypes renames object and interface types. Inline fragment type
// conditions are translated back to the upstream names, and __typename values
// in results to the caller-facing ones.
func RenameTypes(renamer TypeRenamer) Transform {
	return &renameTypes{renamer: renamer}
}

// RenameTypesMap renames the types listed in names.
func RenameTypesMap(names map[string]string) Transform {
	return RenameTypes(func(name string, _ *schema.Type) string {
		if renamed, ok := names[name]; ok {
			return renamed
		}
		return name
	})
}

func (r *renameTypes) TransformSchema(s *schema.Schema) (Compiled, error) {
	c := &compiledRenameTypes{
		originals: make(map[string]string),
		renamed:   make(map[string]string),
	}
	rename := func(t *schema.Type) (*schema.Type, error) {
		newName := r.renamer(t.Name, t)
		if newName == "" || newName == t.Name {
			return t, nil
		}
		c.originals[newName] = t.Name
		c.renamed[t.Name] = newName
		t.Name = newName
		return t, nil
	}
	out, err := MapSchema(s, SchemaMapping{ObjectType: rename, InterfaceType: rename})
	if err != nil {
		return nil, err
	}
	c.schema = out
	return c, nil
}

type compiledRenameTypes struct {
	schema    *schema.Schema
	originals map[string]string // caller-facing name -> upstream name
	renamed   map[string]string // upstream name -> caller-facing name
}

func (c *compiledRenameTypes) Schema() *schema.Schema { return c.schema }

func (c *compiledRenameTypes) TransformRequest(ctx context.Context, req Request, next Next) (Result, error) {
	if len(c.originals) == 0 {
		return next(ctx, req)
	}
	mapped, err := MapRequest(req, c.schema, RequestMapping{
		InlineFragment: func(f *language.InlineFragment, _ RequestEnv) (*language.InlineFragment, error) {
			if original, ok := c.originals[f.TypeCondition]; ok {
				f.TypeCondition = original
			}
			return f, nil
		},
	})
	if err != nil {
		return Result{}, err
	}
	res, err := next(ctx, mapped)
	if err != nil {
		return res, err
	}
	if data, ok := c.renameTypenames(res.Data).(map[string]any); ok {
		res = res.WithData(data)
	}
	return res, nil
}

// renameTypenames returns a copy of data in which __typename values naming a
// renamed upstream type carry the caller-facing name.
func (c *compiledRenameTypes) renameTypenames(data any) any {
	switch d := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(d))
		for k, v := range d {
			if name, ok := v.(string); ok && k == "__typename" {
				if renamed, ok := c.renamed[name]; ok {
					out[k] = renamed
					continue
				}
			}
			out[k] = c.renameTypenames(v)
		}
		return out
	case []any:
		out := make([]any, len(d))
		for i, v := range d {
			out[i] = c.renameTypenames(v)
		}
		return out
	}
	return data
}
