package schema

import "sort"

// Clone returns a deep copy of s. Default values are shared.
func (s *Schema) Clone() *Schema {
	out := &Schema{
		QueryType:        s.QueryType,
		MutationType:     s.MutationType,
		SubscriptionType: s.SubscriptionType,
		Types:            make(map[string]*Type, len(s.Types)),
		Directives:       make(map[string]*Directive, len(s.Directives)),
		Description:      s.Description,
	}
	for name, t := range s.Types {
		out.Types[name] = t.Clone()
	}
	for name, d := range s.Directives {
		out.Directives[name] = d.Clone()
	}
	return out
}

func (t *Type) Clone() *Type {
	out := *t
	out.Fields = nil
	for _, f := range t.Fields {
		out.Fields = append(out.Fields, f.Clone())
	}
	out.Interfaces = append([]string(nil), t.Interfaces...)
	out.PossibleTypes = append([]string(nil), t.PossibleTypes...)
	out.EnumValues = nil
	for _, v := range t.EnumValues {
		cp := *v
		out.EnumValues = append(out.EnumValues, &cp)
	}
	out.InputFields = nil
	for _, v := range t.InputFields {
		out.InputFields = append(out.InputFields, v.Clone())
	}
	if t.SpecifiedByURL != nil {
		url := *t.SpecifiedByURL
		out.SpecifiedByURL = &url
	}
	return &out
}

func (f *Field) Clone() *Field {
	out := *f
	out.Type = f.Type.Clone()
	out.Arguments = nil
	for _, a := range f.Arguments {
		out.Arguments = append(out.Arguments, a.Clone())
	}
	return &out
}

func (v *InputValue) Clone() *InputValue {
	out := *v
	out.Type = v.Type.Clone()
	return &out
}

func (d *Directive) Clone() *Directive {
	out := *d
	out.Locations = append([]string(nil), d.Locations...)
	out.Arguments = nil
	for _, a := range d.Arguments {
		out.Arguments = append(out.Arguments, a.Clone())
	}
	return &out
}

func (t *TypeRef) Clone() *TypeRef {
	if t == nil {
		return nil
	}
	out := *t
	out.OfType = t.OfType.Clone()
	return &out
}

// RenameType renames the type old to new and rewrites every reference to it:
// root operation names, field and argument types, input fields, interfaces
// and possible types.
func (s *Schema) RenameType(old, new string) {
	t := s.Types[old]
	if t == nil || old == new {
		return
	}
	delete(s.Types, old)
	t.Name = new
	s.Types[new] = t

	switch old {
	case s.QueryType:
		s.QueryType = new
	case s.MutationType:
		s.MutationType = new
	case s.SubscriptionType:
		s.SubscriptionType = new
	}
	for _, other := range s.Types {
		for _, f := range other.Fields {
			renameRef(f.Type, old, new)
			for _, a := range f.Arguments {
				renameRef(a.Type, old, new)
			}
		}
		for _, in := range other.InputFields {
			renameRef(in.Type, old, new)
		}
		renameName(other.Interfaces, old, new)
		renameName(other.PossibleTypes, old, new)
	}
	for _, d := range s.Directives {
		for _, a := range d.Arguments {
			renameRef(a.Type, old, new)
		}
	}
}

func renameRef(t *TypeRef, old, new string) {
	for ; t != nil; t = t.OfType {
		if t.Kind == TypeRefKindNamed && t.Named == old {
			t.Named = new
		}
	}
}

func renameName(names []string, old, new string) {
	for i, n := range names {
		if n == old {
			names[i] = new
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedTypeNames(s *Schema) []string { return sortedKeys(s.Types) }

// SortedTypeNames returns the names of all types in lexical order.
func (s *Schema) SortedTypeNames() []string { return sortedKeys(s.Types) }
