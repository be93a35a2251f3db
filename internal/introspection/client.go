package introspection

import (
	"errors"
	"fmt"

	language "github.com/hanpama/graphstitch/internal/language"
	schema "github.com/hanpama/graphstitch/internal/schema"
)

// Query is the introspection document sent to upstream services.
const Query = `query IntrospectionQuery {
  __schema {
    description
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types { ...FullType }
    directives {
      name
      description
      isRepeatable
      locations
      args(includeDeprecated: true) { ...InputValue }
    }
  }
}

fragment FullType on __Type {
  kind
  name
  description
  specifiedByURL
  isOneOf
  fields(includeDeprecated: true) {
    name
    description
    args(includeDeprecated: true) { ...InputValue }
    type { ...TypeRef }
    isDeprecated
    deprecationReason
  }
  inputFields(includeDeprecated: true) { ...InputValue }
  interfaces { ...TypeRef }
  enumValues(includeDeprecated: true) {
    name
    description
    isDeprecated
    deprecationReason
  }
  possibleTypes { ...TypeRef }
}

fragment InputValue on __InputValue {
  name
  description
  type { ...TypeRef }
  defaultValue
  isDeprecated
  deprecationReason
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
              ofType { kind name }
            }
          }
        }
      }
    }
  }
}
`

// ErrMissingSchema is returned when an introspection result has no __schema.
var ErrMissingSchema = errors.New("introspection result does not contain __schema")

// BuildClientSchema decodes the data of an introspection result into a
// Schema. Built-in scalars and directives come from the local definitions.
// Every field is synchronous.
func BuildClientSchema(data map[string]any) (*schema.Schema, error) {
	raw, ok := data["__schema"].(map[string]any)
	if !ok {
		return nil, ErrMissingSchema
	}

	s := schema.NewSchema(stringValue(raw["description"]))
	s.SetQueryType(typeName(raw["queryType"]))
	s.SetMutationType(typeName(raw["mutationType"]))
	s.SetSubscriptionType(typeName(raw["subscriptionType"]))
	s.AddBuiltins()
	if s.QueryType == "" {
		return nil, errors.New("introspection result does not name a query type")
	}

	for _, item := range listValue(raw["types"]) {
		t, err := decodeType(item)
		if err != nil {
			return nil, err
		}
		if t == nil || schema.IsBuiltinType(t.Name) {
			continue
		}
		s.AddType(t)
	}
	for _, item := range listValue(raw["directives"]) {
		d, err := decodeDirective(item)
		if err != nil {
			return nil, err
		}
		if schema.IsBuiltinDirective(d.Name) {
			continue
		}
		s.AddDirective(d)
	}

	if s.GetQueryType() == nil {
		return nil, fmt.Errorf("query type %q is not defined", s.QueryType)
	}
	return s, nil
}

func decodeType(v any) (*schema.Type, error) {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, nil
	}
	name := stringValue(raw["name"])
	if name == "" {
		return nil, errors.New("introspected type without a name")
	}
	t := schema.NewType(name, schema.TypeKind(stringValue(raw["kind"])), stringValue(raw["description"]))

	switch t.Kind {
	case schema.TypeKindObject, schema.TypeKindInterface:
		for _, item := range listValue(raw["fields"]) {
			f, err := decodeField(item)
			if err != nil {
				return nil, fmt.Errorf("type %s: %w", name, err)
			}
			t.AddField(f)
		}
		for _, item := range listValue(raw["interfaces"]) {
			t.AddInterface(typeName(item))
		}
		if t.Kind == schema.TypeKindInterface {
			for _, item := range listValue(raw["possibleTypes"]) {
				t.AddPossibleType(typeName(item))
			}
		}
	case schema.TypeKindUnion:
		for _, item := range listValue(raw["possibleTypes"]) {
			t.AddPossibleType(typeName(item))
		}
	case schema.TypeKindEnum:
		for _, item := range listValue(raw["enumValues"]) {
			ev, _ := item.(map[string]any)
			value := schema.NewEnumValue(stringValue(ev["name"]), stringValue(ev["description"]))
			if boolValue(ev["isDeprecated"]) {
				value.Deprecate(stringValue(ev["deprecationReason"]))
			}
			t.AddEnumValue(value)
		}
	case schema.TypeKindInputObject:
		for _, item := range listValue(raw["inputFields"]) {
			iv, err := decodeInputValue(item)
			if err != nil {
				return nil, fmt.Errorf("type %s: %w", name, err)
			}
			t.AddInputField(iv)
		}
		t.SetOneOf(boolValue(raw["isOneOf"]))
	case schema.TypeKindScalar:
		if url := stringValue(raw["specifiedByURL"]); url != "" {
			t.SetSpecifiedByURL(url)
		}
	default:
		return nil, fmt.Errorf("type %s: unknown kind %q", name, t.Kind)
	}
	return t, nil
}

func decodeField(v any) (*schema.Field, error) {
	raw, _ := v.(map[string]any)
	typ, err := decodeTypeRef(raw["type"])
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", stringValue(raw["name"]), err)
	}
	f := schema.NewField(stringValue(raw["name"]), stringValue(raw["description"]), typ)
	for _, item := range listValue(raw["args"]) {
		arg, err := decodeInputValue(item)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		f.AddArgument(arg)
	}
	if boolValue(raw["isDeprecated"]) {
		f.Deprecate(stringValue(raw["deprecationReason"]))
	}
	return f, nil
}

func decodeInputValue(v any) (*schema.InputValue, error) {
	raw, _ := v.(map[string]any)
	name := stringValue(raw["name"])
	typ, err := decodeTypeRef(raw["type"])
	if err != nil {
		return nil, fmt.Errorf("input value %s: %w", name, err)
	}
	iv := schema.NewInputValue(name, stringValue(raw["description"]), typ)
	if literal, ok := raw["defaultValue"].(string); ok {
		value, err := parseValueLiteral(literal)
		if err != nil {
			return nil, fmt.Errorf("input value %s: default value: %w", name, err)
		}
		iv.SetDefault(value)
	}
	if boolValue(raw["isDeprecated"]) {
		iv.Deprecate(stringValue(raw["deprecationReason"]))
	}
	return iv, nil
}

func decodeDirective(v any) (*schema.Directive, error) {
	raw, _ := v.(map[string]any)
	d := schema.NewDirective(stringValue(raw["name"]), stringValue(raw["description"]))
	d.SetRepeatable(boolValue(raw["isRepeatable"]))
	for _, loc := range listValue(raw["locations"]) {
		d.AddLocation(stringValue(loc))
	}
	for _, item := range listValue(raw["args"]) {
		arg, err := decodeInputValue(item)
		if err != nil {
			return nil, fmt.Errorf("directive %s: %w", d.Name, err)
		}
		d.AddArgument(arg)
	}
	return d, nil
}

func decodeTypeRef(v any) (*schema.TypeRef, error) {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("missing type reference")
	}
	switch stringValue(raw["kind"]) {
	case "NON_NULL":
		inner, err := decodeTypeRef(raw["ofType"])
		if err != nil {
			return nil, err
		}
		return schema.NonNullType(inner), nil
	case "LIST":
		inner, err := decodeTypeRef(raw["ofType"])
		if err != nil {
			return nil, err
		}
		return schema.ListType(inner), nil
	}
	name := stringValue(raw["name"])
	if name == "" {
		return nil, errors.New("named type reference without a name")
	}
	return schema.NamedType(name), nil
}

// parseValueLiteral decodes a GraphQL input literal such as a default value.
// Enum values decode to their names.
func parseValueLiteral(literal string) (any, error) {
	doc, err := language.ParseQuery("{f(v: " + literal + ")}")
	if err != nil {
		return nil, err
	}
	f, ok := doc.Operations[0].SelectionSet[0].(*language.Field)
	if !ok || len(f.Arguments) != 1 {
		return nil, fmt.Errorf("invalid literal %q", literal)
	}
	return f.Arguments[0].Value.Value(nil)
}

func typeName(v any) string {
	raw, _ := v.(map[string]any)
	return stringValue(raw["name"])
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func boolValue(v any) bool {
	b, _ := v.(bool)
	return b
}

func listValue(v any) []any {
	l, _ := v.([]any)
	return l
}
