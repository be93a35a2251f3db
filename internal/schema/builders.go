package schema

// NewSchema creates an empty schema with the given description.
func NewSchema(description string) *Schema {
	return &Schema{
		Types:       make(map[string]*Type),
		Directives:  make(map[string]*Directive),
		Description: description,
	}
}

func (s *Schema) SetQueryType(name string) *Schema {
	s.QueryType = name
	return s
}

func (s *Schema) SetMutationType(name string) *Schema {
	s.MutationType = name
	return s
}

func (s *Schema) SetSubscriptionType(name string) *Schema {
	s.SubscriptionType = name
	return s
}

// AddType registers t under its name, replacing any type of the same name.
func (s *Schema) AddType(t *Type) *Schema {
	if s.Types == nil {
		s.Types = make(map[string]*Type)
	}
	s.Types[t.Name] = t
	return s
}

func (s *Schema) AddDirective(d *Directive) *Schema {
	if s.Directives == nil {
		s.Directives = make(map[string]*Directive)
	}
	s.Directives[d.Name] = d
	return s
}

// AddBuiltins registers the specified scalars and the skip/include directives.
func (s *Schema) AddBuiltins() *Schema {
	s.AddType(stringType).
		AddType(intType).
		AddType(floatType).
		AddType(booleanType).
		AddType(idType)
	s.AddDirective(includeDirective).
		AddDirective(skipDirective).
		AddDirective(deprecatedDirective)
	return s
}

// RootTypeNames returns the names of the configured root operation types.
func (s *Schema) RootTypeNames() []string {
	var names []string
	for _, n := range []string{s.QueryType, s.MutationType, s.SubscriptionType} {
		if n != "" {
			names = append(names, n)
		}
	}
	return names
}

// PossibleTypes returns the object types a value of t may resolve to.
// Object types return themselves.
func (s *Schema) PossibleTypes(t *Type) []*Type {
	switch t.Kind {
	case TypeKindObject:
		return []*Type{t}
	case TypeKindUnion:
		out := make([]*Type, 0, len(t.PossibleTypes))
		for _, name := range t.PossibleTypes {
			if pt := s.Types[name]; pt != nil {
				out = append(out, pt)
			}
		}
		return out
	case TypeKindInterface:
		if len(t.PossibleTypes) > 0 {
			out := make([]*Type, 0, len(t.PossibleTypes))
			for _, name := range t.PossibleTypes {
				if pt := s.Types[name]; pt != nil {
					out = append(out, pt)
				}
			}
			return out
		}
		var out []*Type
		for _, name := range sortedTypeNames(s) {
			pt := s.Types[name]
			if pt.Kind == TypeKindObject && pt.Implements(t.Name) {
				out = append(out, pt)
			}
		}
		return out
	}
	return nil
}

// NewType creates a named type of the given kind.
func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

// AddField appends f, replacing an existing field of the same name in place.
func (t *Type) AddField(f *Field) *Type {
	for i, existing := range t.Fields {
		if existing.Name == f.Name {
			t.Fields[i] = f
			return t
		}
	}
	t.Fields = append(t.Fields, f)
	return t
}

// GetField returns the field named name, or nil.
func (t *Type) GetField(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// RemoveField drops the field named name and reports whether it existed.
func (t *Type) RemoveField(name string) bool {
	for i, f := range t.Fields {
		if f.Name == name {
			t.Fields = append(t.Fields[:i:i], t.Fields[i+1:]...)
			return true
		}
	}
	return false
}

func (t *Type) AddInterface(name string) *Type {
	t.Interfaces = append(t.Interfaces, name)
	return t
}

// Implements reports whether t declares the interface named iface.
func (t *Type) Implements(iface string) bool {
	for _, name := range t.Interfaces {
		if name == iface {
			return true
		}
	}
	return false
}

func (t *Type) AddPossibleType(name string) *Type {
	t.PossibleTypes = append(t.PossibleTypes, name)
	return t
}

func (t *Type) AddEnumValue(v *EnumValue) *Type {
	t.EnumValues = append(t.EnumValues, v)
	return t
}

func (t *Type) AddInputField(v *InputValue) *Type {
	t.InputFields = append(t.InputFields, v)
	return t
}

func (t *Type) SetOneOf(oneOf bool) *Type {
	t.OneOf = oneOf
	return t
}

func (t *Type) SetSpecifiedByURL(url string) *Type {
	t.SpecifiedByURL = &url
	return t
}

// IsAbstract reports whether t is an interface or a union.
func (t *Type) IsAbstract() bool {
	return t.Kind == TypeKindInterface || t.Kind == TypeKindUnion
}

// IsLeaf reports whether t is a scalar or an enum.
func (t *Type) IsLeaf() bool {
	return t.Kind == TypeKindScalar || t.Kind == TypeKindEnum
}

// NewFieldMap collects fields into the slice form used by Type.Fields.
func NewFieldMap(fields ...*Field) []*Field {
	return append([]*Field(nil), fields...)
}

func NewField(name, description string, typ *TypeRef) *Field {
	return &Field{Name: name, Description: description, Type: typ}
}

// SetAsync marks whether the executor batches this field instead of
// resolving it inline.
func (f *Field) SetAsync(async bool) *Field {
	f.Async = async
	return f
}

func (f *Field) Deprecate(reason string) *Field {
	f.IsDeprecated = true
	f.DeprecationReason = reason
	return f
}

func (f *Field) AddArgument(arg *InputValue) *Field {
	f.Arguments = append(f.Arguments, arg)
	return f
}

// GetArgument returns the argument named name, or nil.
func (f *Field) GetArgument(name string) *InputValue {
	for _, a := range f.Arguments {
		if a.Name == name {
			return a
		}
	}
	return nil
}

func NewInputValue(name, description string, typ *TypeRef) *InputValue {
	return &InputValue{Name: name, Description: description, Type: typ}
}

func (v *InputValue) SetDefault(value any) *InputValue {
	v.DefaultValue = value
	return v
}

func (v *InputValue) Deprecate(reason string) *InputValue {
	v.IsDeprecated = true
	v.DeprecationReason = reason
	return v
}

func NewEnumValue(name, description string) *EnumValue {
	return &EnumValue{Name: name, Description: description}
}

func (v *EnumValue) Deprecate(reason string) *EnumValue {
	v.IsDeprecated = true
	v.DeprecationReason = reason
	return v
}

func NewDirective(name, description string) *Directive {
	return &Directive{Name: name, Description: description}
}

func (d *Directive) SetRepeatable(repeatable bool) *Directive {
	d.IsRepeatable = repeatable
	return d
}

func (d *Directive) AddArgument(arg *InputValue) *Directive {
	d.Arguments = append(d.Arguments, arg)
	return d
}

func (d *Directive) AddLocation(loc string) *Directive {
	d.Locations = append(d.Locations, loc)
	return d
}
