package transform

import (
	schema "github.com/hanpama/graphstitch/internal/schema"
)

// FieldFilter reports whether an object field stays in the schema.
type FieldFilter func(typeName, fieldName string, f *schema.Field) bool

type filterObjectFields struct {
	filter FieldFilter
}

// FilterObjectFields removes the object fields rejected by filter. Requests
// and results pass through unchanged.
func FilterObjectFields(filter FieldFilter) Transform {
	return &filterObjectFields{filter: filter}
}

// RemoveObjectFields removes the fields listed per type in names.
func RemoveObjectFields(names map[string][]string) Transform {
	return FilterObjectFields(func(typeName, fieldName string, _ *schema.Field) bool {
		for _, removed := range names[typeName] {
			if removed == fieldName {
				return false
			}
		}
		return true
	})
}

func (r *filterObjectFields) TransformSchema(s *schema.Schema) (Compiled, error) {
	out, err := MapSchema(s, SchemaMapping{
		ObjectType: func(t *schema.Type) (*schema.Type, error) {
			kept := make([]*schema.Field, 0, len(t.Fields))
			for _, f := range t.Fields {
				if r.filter(t.Name, f.Name, f) {
					kept = append(kept, f)
				}
			}
			if len(kept) == 0 {
				return nil, transformErrorf(t.Name, "", "object type %q must contain at least 1 field", t.Name)
			}
			t.Fields = kept
			return t, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &passthrough{schema: out}, nil
}
