package transform

import (
	"context"
	"sort"

	language "github.com/hanpama/graphstitch/internal/language"
	schema "github.com/hanpama/graphstitch/internal/schema"
)

type hoistField struct {
	typeName   string
	target     string
	sourcePath []string
	// dehoist copies source values to the target response key after the
	// upstream call. HoistFields leaves it off.
	dehoist bool
}

// HoistField exposes the field at sourcePath, relative to typeName, as
// typeName.target. Requests for the target select the source path instead,
// and results are rewritten so the value appears under the target key.
func HoistField(typeName, target string, sourcePath []string) (Transform, error) {
	return newHoist(typeName, target, sourcePath, true)
}

// HoistFields installs the same field as HoistField, but only rewrites
// requests. Results keep the source path and no value is copied to the target.
func HoistFields(typeName, target string, sourcePath []string) (Transform, error) {
	return newHoist(typeName, target, sourcePath, false)
}

func newHoist(typeName, target string, sourcePath []string, dehoist bool) (Transform, error) {
	if len(sourcePath) == 0 {
		return nil, ErrEmptyPath
	}
	return &hoistField{
		typeName:   typeName,
		target:     target,
		sourcePath: append([]string(nil), sourcePath...),
		dehoist:    dehoist,
	}, nil
}

func (h *hoistField) TransformSchema(s *schema.Schema) (Compiled, error) {
	root := s.Types[h.typeName]
	if root == nil || root.Kind != schema.TypeKindObject {
		return nil, transformErrorf(h.typeName, "", "object type %q not found", h.typeName)
	}

	var (
		current = root
		leaf    *schema.Field
		lists   int
		wrap    bool
	)
	// A null ancestor before the list, or anywhere when there is no list,
	// nulls the whole target. One after the list nulls an element.
	var nullOuter, nullInner bool
	for i, segment := range h.sourcePath {
		f := current.GetField(segment)
		if f == nil {
			return nil, transformErrorf(current.Name, segment, "object field %q not found", segment)
		}
		if f.Type.IsList() {
			lists++
		}
		if i == len(h.sourcePath)-1 {
			leaf = f
			break
		}
		if wrap {
			nullInner = nullInner || !f.Type.IsNonNull()
		} else {
			nullOuter = nullOuter || !f.Type.IsNonNull()
		}
		if f.Type.IsList() {
			wrap = true
			nullInner = !listElem(f.Type).IsNonNull()
		}
		next := s.Types[f.Type.GetNamedType()]
		if next == nil || next.Kind != schema.TypeKindObject {
			return nil, transformErrorf(current.Name, segment, "non-leaf path segments must represent object types")
		}
		current = next
	}
	if lists > 1 {
		return nil, transformErrorf(h.typeName, h.target, "source field path contains more than one list field")
	}

	hoisted := leaf.Clone()
	hoisted.Name = h.target
	hoisted.Arguments = nil
	hoisted.Async = false
	if wrap {
		elem := hoisted.Type
		if nullInner {
			elem = nullable(elem)
		}
		hoisted.Type = schema.ListType(elem)
		if !nullOuter {
			hoisted.Type = schema.NonNullType(hoisted.Type)
		}
	} else if nullOuter {
		hoisted.Type = nullable(hoisted.Type)
	}

	out, err := MapSchema(s, SchemaMapping{
		ObjectType: func(t *schema.Type) (*schema.Type, error) {
			if t.Name == h.typeName {
				t.AddField(hoisted)
			}
			return t, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &compiledHoist{hoistField: h, schema: out}, nil
}

func listElem(t *schema.TypeRef) *schema.TypeRef {
	if t.IsNonNull() {
		t = t.OfType
	}
	return t.OfType
}

func nullable(t *schema.TypeRef) *schema.TypeRef {
	if t.IsNonNull() {
		return t.OfType
	}
	return t
}

type compiledHoist struct {
	*hoistField
	schema *schema.Schema
}

// hoistSite is one selection of the target field. Its value is read from
// basePath+sourcePath and written to basePath+targetKey.
type hoistSite struct {
	basePath  []string
	ordinal   int
	targetKey string
}

func (c *compiledHoist) Schema() *schema.Schema { return c.schema }

func (c *compiledHoist) TransformRequest(ctx context.Context, req Request, next Next) (Result, error) {
	var sites []hoistSite
	mapped, err := MapRequest(req, c.schema, RequestMapping{
		SelectionSet: func(ss language.SelectionSet, env RequestEnv) (language.SelectionSet, error) {
			if env.ParentType.Name != c.typeName {
				return ss, nil
			}
			var targets []*language.Field
			for _, sel := range ss {
				if f, ok := sel.(*language.Field); ok && f.Name == c.target {
					targets = append(targets, f)
				}
			}
			if len(targets) == 0 {
				return ss, nil
			}
			out := ExcludeField(ss, c.target)
			for _, f := range targets {
				if c.dehoist {
					sites = append(sites, hoistSite{
						basePath:  env.Path,
						ordinal:   env.Order,
						targetKey: language.ResponseKey(f),
					})
				}
				out = IncludeFieldPath(out, c.sourcePath, f.SelectionSet)
			}
			return out, nil
		},
	})
	if err != nil {
		return Result{}, err
	}

	res, err := next(ctx, mapped)
	if err != nil || len(sites) == 0 || res.Data == nil {
		return res, err
	}

	sort.SliceStable(sites, func(i, j int) bool { return sites[i].ordinal < sites[j].ordinal })
	var data any = res.Data
	for _, site := range sites {
		source := append(append([]string(nil), site.basePath...), c.sourcePath...)
		target := append(append([]string(nil), site.basePath...), site.targetKey)
		data = PutFieldValue(data, target, GetFieldValue(data, source))
	}
	if m, ok := data.(map[string]any); ok {
		res = res.WithData(m)
	}
	return res, nil
}
