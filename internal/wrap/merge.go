package wrap

import (
	"fmt"
	"reflect"
	"sort"

	schema "github.com/hanpama/graphstitch/internal/schema"
	subschema "github.com/hanpama/graphstitch/internal/subschema"
)

// rootField records which subschema serves a gateway root field.
type rootField struct {
	sub   *subschema.Bound
	field *schema.Field
}

// merged is the gateway schema under construction.
type merged struct {
	schema *schema.Schema
	owners map[string]string // type name -> first subschema defining it
	roots  map[string]rootField
}

func newMerged(queryType string) *merged {
	s := schema.NewSchema("").SetQueryType(queryType)
	s.AddBuiltins()
	s.AddType(schema.NewType(queryType, schema.TypeKindObject, ""))
	return &merged{schema: s, owners: map[string]string{}, roots: map[string]rootField{}}
}

// add copies the caller-facing schema of sub into the gateway. Only query
// root fields are exposed; mutation and subscription roots are not
// delegated.
func (m *merged) add(sub *subschema.Bound) error {
	in := sub.Schema()
	skip := map[string]bool{in.QueryType: true}
	if in.MutationType != "" {
		skip[in.MutationType] = true
	}
	if in.SubscriptionType != "" {
		skip[in.SubscriptionType] = true
	}

	for _, name := range in.SortedTypeNames() {
		t := in.Types[name]
		if skip[name] || schema.IsBuiltinType(name) {
			continue
		}
		if existing, ok := m.schema.Types[name]; ok {
			if !reflect.DeepEqual(existing, t.Clone()) {
				return fmt.Errorf("type %q of %s conflicts with the definition of %s", name, sub.Name(), m.owners[name])
			}
			continue
		}
		m.schema.AddType(t.Clone())
		m.owners[name] = sub.Name()
	}

	for _, name := range sortedDirectiveNames(in) {
		d := in.Directives[name]
		if schema.IsBuiltinDirective(name) {
			continue
		}
		if existing, ok := m.schema.Directives[name]; ok {
			if !reflect.DeepEqual(existing, d.Clone()) {
				return fmt.Errorf("directive @%s of %s conflicts with another subschema", name, sub.Name())
			}
			continue
		}
		m.schema.AddDirective(d.Clone())
	}

	query := m.schema.GetQueryType()
	for _, f := range in.GetQueryType().Fields {
		if prev, ok := m.roots[f.Name]; ok {
			return fmt.Errorf("root field %q is defined by both %s and %s", f.Name, prev.sub.Name(), sub.Name())
		}
		root := f.Clone()
		root.SetAsync(true)
		query.AddField(root)
		m.roots[f.Name] = rootField{sub: sub, field: f}
	}
	return nil
}

func sortedDirectiveNames(s *schema.Schema) []string {
	names := make([]string, 0, len(s.Directives))
	for name := range s.Directives {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
