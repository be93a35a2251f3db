package transform

import (
	language "github.com/hanpama/graphstitch/internal/language"
	schema "github.com/hanpama/graphstitch/internal/schema"
)

// SchemaMapping holds the callbacks of MapSchema. A callback returns the
// type it was given to leave it in place, or a replacement. A replacement
// carrying a different name renames the type and every reference to it.
type SchemaMapping struct {
	ObjectType    func(t *schema.Type) (*schema.Type, error)
	InterfaceType func(t *schema.Type) (*schema.Type, error)
}

// MapSchema applies m to a deep copy of s. Types are visited in name order.
func MapSchema(s *schema.Schema, m SchemaMapping) (*schema.Schema, error) {
	out := s.Clone()
	for _, name := range s.SortedTypeNames() {
		t := out.Types[name]
		if t == nil || schema.IsBuiltinType(name) {
			continue
		}
		var fn func(*schema.Type) (*schema.Type, error)
		switch t.Kind {
		case schema.TypeKindObject:
			fn = m.ObjectType
		case schema.TypeKindInterface:
			fn = m.InterfaceType
		}
		if fn == nil {
			continue
		}
		replacement, err := fn(t)
		if err != nil {
			return nil, err
		}
		if replacement == nil {
			replacement = t
		}
		newName := replacement.Name
		replacement.Name = name
		out.Types[name] = replacement
		if newName == name {
			continue
		}
		if _, exists := out.Types[newName]; exists {
			return nil, transformErrorf(name, "", "cannot rename to %q: type already exists", newName)
		}
		out.RenameType(name, newName)
	}
	return out, nil
}

// RequestEnv locates a node visited by MapRequest.
type RequestEnv struct {
	// ParentType is the type the enclosing selection set selects from. For
	// selections inside an inline fragment it is the fragment's type.
	ParentType *schema.Type
	// FieldDef is the definition of the visited field, nil for meta fields
	// and fields unknown to the schema.
	FieldDef *schema.Field
	// Path holds the response keys from the root down to the enclosing
	// selection set.
	Path []string
	// Order is the pre-order position of the enclosing selection set within
	// the request.
	Order int
}

// RequestMapping holds the callbacks of MapRequest. Each returns the node it
// was given to keep it, a replacement, or nil to drop it.
type RequestMapping struct {
	Field          func(f *language.Field, env RequestEnv) (*language.Field, error)
	InlineFragment func(f *language.InlineFragment, env RequestEnv) (*language.InlineFragment, error)
	// SelectionSet replaces a whole selection set after its children were
	// mapped.
	SelectionSet func(ss language.SelectionSet, env RequestEnv) (language.SelectionSet, error)
}

// MapRequest rewrites the selection tree of req depth first. Types are
// resolved in s starting at its query type; children are mapped before the
// callbacks of their parent run.
func MapRequest(req Request, s *schema.Schema, m RequestMapping) (Request, error) {
	w := &requestWalker{schema: s, mapping: m}
	ss, err := w.selectionSet(req.SelectionSet, s.GetQueryType(), nil)
	if err != nil {
		return Request{}, err
	}
	return req.WithSelectionSet(ss), nil
}

type requestWalker struct {
	schema  *schema.Schema
	mapping RequestMapping
	order   int
}

func (w *requestWalker) selectionSet(ss language.SelectionSet, parent *schema.Type, path []string) (language.SelectionSet, error) {
	order := w.order
	w.order++

	out := make(language.SelectionSet, 0, len(ss))
	for _, sel := range ss {
		switch s := sel.(type) {
		case *language.Field:
			f, err := w.field(s, parent, path, order)
			if err != nil {
				return nil, err
			}
			if f != nil {
				out = append(out, f)
			}
		case *language.InlineFragment:
			f, err := w.inlineFragment(s, parent, path, order)
			if err != nil {
				return nil, err
			}
			if f != nil {
				out = append(out, f)
			}
		default:
			out = append(out, sel)
		}
	}

	if w.mapping.SelectionSet != nil && parent != nil {
		return w.mapping.SelectionSet(out, RequestEnv{ParentType: parent, Path: path, Order: order})
	}
	return out, nil
}

func (w *requestWalker) field(f *language.Field, parent *schema.Type, path []string, order int) (*language.Field, error) {
	var def *schema.Field
	if parent != nil {
		def = parent.GetField(f.Name)
	}
	mapped := f
	if len(f.SelectionSet) > 0 && def != nil {
		childType := w.schema.Types[def.Type.GetNamedType()]
		childPath := append(append([]string(nil), path...), language.ResponseKey(f))
		ss, err := w.selectionSet(f.SelectionSet, childType, childPath)
		if err != nil {
			return nil, err
		}
		cp := *f
		cp.SelectionSet = ss
		mapped = &cp
	}
	if w.mapping.Field == nil {
		return mapped, nil
	}
	return w.mapping.Field(mapped, RequestEnv{ParentType: parent, FieldDef: def, Path: path, Order: order})
}

func (w *requestWalker) inlineFragment(f *language.InlineFragment, parent *schema.Type, path []string, order int) (*language.InlineFragment, error) {
	fragmentType := parent
	if f.TypeCondition != "" {
		fragmentType = w.schema.Types[f.TypeCondition]
	}
	ss, err := w.selectionSet(f.SelectionSet, fragmentType, path)
	if err != nil {
		return nil, err
	}
	cp := *f
	cp.SelectionSet = ss
	if w.mapping.InlineFragment == nil {
		return &cp, nil
	}
	return w.mapping.InlineFragment(&cp, RequestEnv{ParentType: parent, Path: path, Order: order})
}
