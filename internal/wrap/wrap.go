// Package wrap combines subschemas into one executable gateway schema.
//
// Every query root field of a subschema becomes a gateway root field
// delegated to that subschema. Links join types across subschemas: a link
// field is resolved in batches through a root field of the target
// subschema, keyed by a field of the object it is selected on.
package wrap

import (
	"errors"
	"fmt"

	delegate "github.com/hanpama/graphstitch/internal/delegate"
	executor "github.com/hanpama/graphstitch/internal/executor"
	introspection "github.com/hanpama/graphstitch/internal/introspection"
	schema "github.com/hanpama/graphstitch/internal/schema"
	subschema "github.com/hanpama/graphstitch/internal/subschema"
	transform "github.com/hanpama/graphstitch/internal/transform"
)

// ErrNoSubschemas is returned by Wrap without subschemas.
var ErrNoSubschemas = errors.New("at least one subschema is required")

// Gateway is the executable schema of the combined subschemas.
type Gateway struct {
	Schema     *schema.Schema
	Runtime    *Runtime
	Subschemas []*subschema.Bound
}

// Subschema returns the bound subschema called name, or nil.
func (g *Gateway) Subschema(name string) *subschema.Bound {
	for _, b := range g.Subschemas {
		if b.Name() == name {
			return b
		}
	}
	return nil
}

// Executable returns the gateway runtime and schema with introspection
// support, ready for the executor.
func (g *Gateway) Executable() (executor.Runtime, *schema.Schema) {
	w := introspection.Wrap(g.Runtime, g.Schema)
	return w.Runtime, w.Schema
}

func Wrap(subs []subschema.Subschema, links []Link, opts ...Option) (*Gateway, error) {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	if len(subs) == 0 {
		return nil, ErrNoSubschemas
	}

	bound, err := bindAll(subs, links)
	if err != nil {
		return nil, err
	}

	m := newMerged(o.QueryType)
	for _, b := range bound {
		if err := m.add(b); err != nil {
			return nil, err
		}
	}

	rt := &Runtime{delegators: map[string]delegate.Delegator{}}
	for name, root := range m.roots {
		rt.delegators[o.QueryType+"."+name] = &delegate.SimpleDelegator{
			Subschema: root.sub,
			FieldName: root.field.Name,
			Logger:    o.Logger,
		}
	}

	byName := make(map[string]*subschema.Bound, len(bound))
	for _, b := range bound {
		byName[b.Name()] = b
	}
	for _, l := range links {
		d, err := applyLink(m.schema, byName, l, o)
		if err != nil {
			return nil, err
		}
		rt.delegators[l.Type+"."+l.Field] = d
	}

	return &Gateway{Schema: m.schema, Runtime: rt, Subschemas: bound}, nil
}

// bindAll binds every subschema. Subschemas defining the object type of a
// link are bound with the link transform innermost.
func bindAll(subs []subschema.Subschema, links []Link) ([]*subschema.Bound, error) {
	names := map[string]bool{}
	bound := make([]*subschema.Bound, len(subs))
	for i := range subs {
		s := &subs[i]
		if names[s.Name] {
			return nil, fmt.Errorf("duplicate subschema name %q", s.Name)
		}
		names[s.Name] = true

		b, err := s.Bind()
		if err != nil {
			return nil, err
		}
		var owned []Link
		for _, l := range links {
			if t := b.Schema().Types[l.Type]; t != nil && t.Kind == schema.TypeKindObject {
				owned = append(owned, l)
			}
		}
		if len(owned) > 0 {
			if b, err = s.Bind(&linkFields{links: owned}); err != nil {
				return nil, err
			}
		}
		bound[i] = b
	}
	return bound, nil
}

// applyLink adds the link field to the gateway schema and returns its
// delegator.
func applyLink(gw *schema.Schema, subs map[string]*subschema.Bound, l Link, o *Options) (delegate.Delegator, error) {
	t := gw.Types[l.Type]
	if t == nil || t.Kind != schema.TypeKindObject {
		return nil, fmt.Errorf("link %s: object type %q not found", l, l.Type)
	}
	if t.GetField(l.Field) != nil {
		return nil, fmt.Errorf("link %s: field %q already exists", l, l.Field)
	}
	if t.GetField(l.KeyField) == nil {
		return nil, fmt.Errorf("link %s: key field %q not found", l, l.KeyField)
	}
	target := subs[l.Subschema]
	if target == nil {
		return nil, fmt.Errorf("link %s: unknown subschema %q", l, l.Subschema)
	}
	root := target.Schema().GetQueryType().GetField(l.RootField)
	if root == nil {
		return nil, fmt.Errorf("link %s: root field %q not found in %s", l, l.RootField, l.Subschema)
	}
	if root.GetArgument(l.Argument) == nil {
		return nil, fmt.Errorf("link %s: root field %q has no argument %q", l, l.RootField, l.Argument)
	}
	typ, err := linkFieldType(l, root)
	if err != nil {
		return nil, err
	}
	t.AddField(schema.NewField(l.Field, "", typ).SetAsync(true))

	keyField := l.KeyField
	return &linkDelegator{
		keyField: keyField,
		batch: &delegate.BatchDelegator{
			Subschema: target,
			FieldName: l.RootField,
			KeyFromAccess: func(access delegate.FieldAccess) any {
				return keyOf(access, keyField)
			},
			ArgsFromKeys: delegate.KeysArgument(l.Argument),
			Logger:       o.Logger,
		},
	}, nil
}

var _ transform.Transform = (*linkFields)(nil)
