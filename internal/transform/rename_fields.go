package transform

import (
	"context"

	language "github.com/hanpama/graphstitch/internal/language"
	schema "github.com/hanpama/graphstitch/internal/schema"
)

// FieldRenamer returns the caller-facing name of an object field.
type FieldRenamer func(typeName, fieldName string, f *schema.Field) string

type renameObjectFields struct {
	renamer FieldRenamer
}

// RenameObjectFields renames fields of object types. Selections of a renamed
// field are sent upstream under the original name, aliased to the name the
// caller used.
func RenameObjectFields(renamer FieldRenamer) Transform {
	return &renameObjectFields{renamer: renamer}
}

// RenameObjectFieldsMap renames the fields listed per type in names.
func RenameObjectFieldsMap(names map[string]map[string]string) Transform {
	return RenameObjectFields(func(typeName, fieldName string, _ *schema.Field) string {
		if renamed, ok := names[typeName][fieldName]; ok {
			return renamed
		}
		return fieldName
	})
}

func (r *renameObjectFields) TransformSchema(s *schema.Schema) (Compiled, error) {
	c := &compiledRenameObjectFields{originals: make(map[string]map[string]string)}
	out, err := MapSchema(s, SchemaMapping{
		ObjectType: func(t *schema.Type) (*schema.Type, error) {
			var renamed map[string]string
			fields := make([]*schema.Field, 0, len(t.Fields))
			for _, f := range t.Fields {
				newName := r.renamer(t.Name, f.Name, f)
				if newName != "" && newName != f.Name {
					if t.GetField(newName) != nil {
						return nil, transformErrorf(t.Name, f.Name, "cannot rename to %q: field already exists", newName)
					}
					if renamed == nil {
						renamed = make(map[string]string)
					}
					renamed[newName] = f.Name
					f.Name = newName
				}
				fields = append(fields, f)
			}
			t.Fields = fields
			if renamed != nil {
				c.originals[t.Name] = renamed
			}
			return t, nil
		},
	})
	if err != nil {
		return nil, err
	}
	c.schema = out
	return c, nil
}

type compiledRenameObjectFields struct {
	schema *schema.Schema
	// originals maps a type name to its caller-facing field names and their
	// upstream counterparts.
	originals map[string]map[string]string
}

func (c *compiledRenameObjectFields) Schema() *schema.Schema { return c.schema }

func (c *compiledRenameObjectFields) TransformRequest(ctx context.Context, req Request, next Next) (Result, error) {
	if len(c.originals) == 0 {
		return next(ctx, req)
	}
	mapped, err := MapRequest(req, c.schema, RequestMapping{
		Field: func(f *language.Field, env RequestEnv) (*language.Field, error) {
			if env.ParentType == nil {
				return f, nil
			}
			original, ok := c.originals[env.ParentType.Name][f.Name]
			if !ok {
				return f, nil
			}
			cp := *f
			cp.Alias = language.ResponseKey(f)
			cp.Name = original
			return &cp, nil
		},
	})
	if err != nil {
		return Result{}, err
	}
	return next(ctx, mapped)
}
