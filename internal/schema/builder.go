package schema

import (
	"fmt"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	language "github.com/hanpama/graphstitch/internal/language"
)

// BuildFromSDL parses and validates an SDL string and returns the
// corresponding Schema. Every field is synchronous.
func BuildFromSDL(sdl string) (*Schema, error) {
	return BuildFromSources(&language.Source{Name: "schema.graphql", Input: sdl})
}

// BuildFromSources loads one or more SDL sources. Type extensions are merged
// into their base definitions.
func BuildFromSources(sources ...*language.Source) (*Schema, error) {
	doc, err := gqlparser.LoadSchema(sources...)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	return BuildFromAST(doc)
}

// BuildFromAST converts a validated gqlparser schema into a Schema.
func BuildFromAST(doc *ast.Schema) (*Schema, error) {
	s := NewSchema(doc.Description)
	if doc.Query != nil {
		s.SetQueryType(doc.Query.Name)
	}
	if doc.Mutation != nil {
		s.SetMutationType(doc.Mutation.Name)
	}
	if doc.Subscription != nil {
		s.SetSubscriptionType(doc.Subscription.Name)
	}
	s.AddBuiltins()

	for _, name := range sortedKeys(doc.Types) {
		def := doc.Types[name]
		if def.BuiltIn {
			continue
		}
		t, err := buildDefinition(doc, def)
		if err != nil {
			return nil, err
		}
		s.AddType(t)
	}
	for _, name := range sortedKeys(doc.Directives) {
		dir := doc.Directives[name]
		if dir.Position != nil && dir.Position.Src != nil && dir.Position.Src.BuiltIn {
			continue
		}
		d, err := buildDirective(dir)
		if err != nil {
			return nil, err
		}
		s.AddDirective(d)
	}
	return s, nil
}

func buildDefinition(doc *ast.Schema, def *ast.Definition) (*Type, error) {
	switch def.Kind {
	case ast.Object, ast.Interface:
		kind := TypeKindObject
		if def.Kind == ast.Interface {
			kind = TypeKindInterface
		}
		t := NewType(def.Name, kind, def.Description)
		for _, iface := range def.Interfaces {
			t.AddInterface(iface)
		}
		for _, fd := range def.Fields {
			if len(fd.Name) > 1 && fd.Name[:2] == "__" {
				continue
			}
			f, err := buildField(fd)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", def.Name, fd.Name, err)
			}
			t.AddField(f)
		}
		if kind == TypeKindInterface {
			for _, pt := range doc.GetPossibleTypes(def) {
				t.AddPossibleType(pt.Name)
			}
		}
		return t, nil
	case ast.Union:
		t := NewType(def.Name, TypeKindUnion, def.Description)
		for _, name := range def.Types {
			t.AddPossibleType(name)
		}
		return t, nil
	case ast.Enum:
		t := NewType(def.Name, TypeKindEnum, def.Description)
		for _, ev := range def.EnumValues {
			v := NewEnumValue(ev.Name, ev.Description)
			if reason, ok := deprecation(ev.Directives); ok {
				v.Deprecate(reason)
			}
			t.AddEnumValue(v)
		}
		return t, nil
	case ast.InputObject:
		t := NewType(def.Name, TypeKindInputObject, def.Description).
			SetOneOf(def.Directives.ForName("oneOf") != nil)
		for _, fd := range def.Fields {
			in, err := buildInputValue(fd.Name, fd.Description, fd.Type, fd.DefaultValue, fd.Directives)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", def.Name, fd.Name, err)
			}
			t.AddInputField(in)
		}
		return t, nil
	case ast.Scalar:
		t := NewType(def.Name, TypeKindScalar, def.Description)
		if d := def.Directives.ForName("specifiedBy"); d != nil {
			if arg := d.Arguments.ForName("url"); arg != nil && arg.Value != nil {
				t.SetSpecifiedByURL(arg.Value.Raw)
			}
		}
		return t, nil
	}
	return nil, fmt.Errorf("unsupported definition kind %q for %s", def.Kind, def.Name)
}

func buildField(fd *ast.FieldDefinition) (*Field, error) {
	f := NewField(fd.Name, fd.Description, buildTypeRef(fd.Type))
	if reason, ok := deprecation(fd.Directives); ok {
		f.Deprecate(reason)
	}
	for _, arg := range fd.Arguments {
		in, err := buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives)
		if err != nil {
			return nil, err
		}
		f.AddArgument(in)
	}
	return f, nil
}

func buildInputValue(name, description string, typ *ast.Type, defaultValue *ast.Value, directives ast.DirectiveList) (*InputValue, error) {
	in := NewInputValue(name, description, buildTypeRef(typ))
	if defaultValue != nil {
		v, err := defaultValue.Value(nil)
		if err != nil {
			return nil, fmt.Errorf("default value of %s: %w", name, err)
		}
		in.SetDefault(v)
	}
	if reason, ok := deprecation(directives); ok {
		in.Deprecate(reason)
	}
	return in, nil
}

func buildDirective(dir *ast.DirectiveDefinition) (*Directive, error) {
	d := NewDirective(dir.Name, dir.Description).SetRepeatable(dir.IsRepeatable)
	for _, loc := range dir.Locations {
		d.AddLocation(string(loc))
	}
	for _, arg := range dir.Arguments {
		in, err := buildInputValue(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives)
		if err != nil {
			return nil, fmt.Errorf("@%s: %w", dir.Name, err)
		}
		d.AddArgument(in)
	}
	return d, nil
}

func buildTypeRef(t *ast.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(buildTypeRef(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		return NonNullType(ref)
	}
	return ref
}

func deprecation(directives ast.DirectiveList) (string, bool) {
	d := directives.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw, true
	}
	return "", true
}
