package wrap

import (
	"context"
	"fmt"

	delegate "github.com/hanpama/graphstitch/internal/delegate"
	future "github.com/hanpama/graphstitch/internal/future"
	language "github.com/hanpama/graphstitch/internal/language"
	schema "github.com/hanpama/graphstitch/internal/schema"
	transform "github.com/hanpama/graphstitch/internal/transform"
)

// Link adds Type.Field to the gateway schema, resolved through RootField of
// another subschema. The values of KeyField of every Type object reaching
// the same field in one execution depth are passed together as the list
// argument Argument; RootField must return one value per key, in order.
type Link struct {
	Type      string
	Field     string
	Subschema string
	RootField string
	KeyField  string
	Argument  string
	// List declares that each key maps to a list of values.
	List bool
}

func (l Link) String() string { return l.Type + "." + l.Field }

// linkFieldType derives the type of the link field from the root field's
// type: the element of its list, made nullable so a missing key resolves
// to null.
func linkFieldType(l Link, root *schema.Field) (*schema.TypeRef, error) {
	ref := root.Type
	if ref.IsNonNull() {
		ref = ref.OfType
	}
	if ref.Kind != schema.TypeRefKindList {
		return nil, fmt.Errorf("link %s: root field %q must return a list", l, l.RootField)
	}
	elem := ref.OfType
	if elem.IsNonNull() {
		elem = elem.OfType
	}
	if l.List != elem.IsList() {
		if l.List {
			return nil, fmt.Errorf("link %s: root field %q must return a list of lists", l, l.RootField)
		}
		return nil, fmt.Errorf("link %s: root field %q returns a list of lists; set list", l, l.RootField)
	}
	return elem.Clone(), nil
}

// linkFields strips link fields from the selections of their type and
// selects the key fields they need instead. It is the innermost transform
// of the subschema owning the type, so the upstream never sees link fields.
type linkFields struct {
	links []Link
}

func (t *linkFields) TransformSchema(s *schema.Schema) (transform.Compiled, error) {
	byType := map[string][]Link{}
	for _, l := range t.links {
		byType[l.Type] = append(byType[l.Type], l)
	}
	return &compiledLinkFields{schema: s, byType: byType}, nil
}

type compiledLinkFields struct {
	schema *schema.Schema
	byType map[string][]Link
}

func (c *compiledLinkFields) Schema() *schema.Schema { return c.schema }

func (c *compiledLinkFields) TransformRequest(ctx context.Context, req transform.Request, next transform.Next) (transform.Result, error) {
	mapped, err := transform.MapRequest(req, c.schema, transform.RequestMapping{
		SelectionSet: func(ss language.SelectionSet, env transform.RequestEnv) (language.SelectionSet, error) {
			links := c.byType[env.ParentType.Name]
			for _, l := range links {
				if !selectsField(ss, l.Field) {
					continue
				}
				ss = transform.ExcludeField(ss, l.Field)
				ss = transform.IncludeFieldPath(ss, []string{l.KeyField}, nil)
			}
			return ss, nil
		},
	})
	if err != nil {
		return transform.Result{}, err
	}
	return next(ctx, mapped)
}

func selectsField(ss language.SelectionSet, name string) bool {
	for _, sel := range ss {
		if f, ok := sel.(*language.Field); ok && f.Name == name {
			return true
		}
	}
	return false
}

// linkDelegator resolves a link field. Objects without a key resolve to null
// without joining the batch window.
type linkDelegator struct {
	keyField string
	batch    *delegate.BatchDelegator
}

func (d *linkDelegator) Delegate(ctx context.Context, access delegate.FieldAccess) *future.Future[any] {
	if keyOf(access, d.keyField) == nil {
		return future.Resolved[any](nil)
	}
	return d.batch.Delegate(ctx, access)
}

func keyOf(access delegate.FieldAccess, keyField string) any {
	if m, ok := access.Source.(map[string]any); ok {
		return m[keyField]
	}
	return nil
}
