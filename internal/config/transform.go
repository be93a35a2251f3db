package config

import (
	"errors"

	transform "github.com/hanpama/graphstitch/internal/transform"
)

func (t Transform) set() int {
	n := 0
	if t.RenameTypes != nil {
		n++
	}
	if t.RenameFields != nil {
		n++
	}
	if t.FilterFields != nil {
		n++
	}
	if t.HoistField != nil {
		n++
	}
	if t.HoistFields != nil {
		n++
	}
	return n
}

func (t Transform) validate() error {
	switch t.set() {
	case 0:
		return errors.New("empty transform")
	case 1:
	default:
		return errors.New("a transform entry takes exactly one kind")
	}
	for _, h := range []*Hoist{t.HoistField, t.HoistFields} {
		if h == nil {
			continue
		}
		if h.Type == "" || h.Target == "" {
			return errors.New("hoist: type and target are required")
		}
		if len(h.Path) == 0 {
			return transform.ErrEmptyPath
		}
	}
	return nil
}

func (t Transform) build() (transform.Transform, error) {
	switch {
	case t.RenameTypes != nil:
		return transform.RenameTypesMap(t.RenameTypes), nil
	case t.RenameFields != nil:
		return transform.RenameObjectFieldsMap(t.RenameFields), nil
	case t.FilterFields != nil:
		return transform.RemoveObjectFields(t.FilterFields), nil
	case t.HoistField != nil:
		return transform.HoistField(t.HoistField.Type, t.HoistField.Target, t.HoistField.Path)
	case t.HoistFields != nil:
		return transform.HoistFields(t.HoistFields.Type, t.HoistFields.Target, t.HoistFields.Path)
	}
	return nil, errors.New("empty transform")
}

// Transform builds the transform chain of the i-th subschema. Entries apply
// in order: the first sees the upstream schema, the last faces callers.
func (c *Config) Transform(i int) (transform.Transform, error) {
	s := c.Subschemas[i]
	if len(s.Transforms) == 0 {
		return transform.Identity(), nil
	}
	steps := make([]transform.Transform, 0, len(s.Transforms))
	for _, t := range s.Transforms {
		step, err := t.build()
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return transform.Chain(steps...), nil
}
