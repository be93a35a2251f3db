package executor

import (
	"context"

	"github.com/hanpama/graphstitch/internal/batch"
	language "github.com/hanpama/graphstitch/internal/language"
)

// FieldContext describes the field instance being resolved. It is attached to
// the context passed to ResolveSync and carried on every AsyncResolveTask.
type FieldContext struct {
	// Path is the response path of the field.
	Path Path
	// Fields are the AST nodes merged under the field's response key.
	Fields []*language.Field
	// Operation is the operation being executed.
	Operation *language.OperationDefinition
	// Fragments are the fragment definitions of the executed document.
	Fragments language.FragmentList
	// Variables are the coerced variable values of the operation.
	Variables map[string]any
	// Loaders is the batch registry shared by every field of the operation.
	Loaders *batch.Registry
}

// Field returns the first AST node of the field.
func (fc *FieldContext) Field() *language.Field {
	if fc == nil || len(fc.Fields) == 0 {
		return nil
	}
	return fc.Fields[0]
}

// ResponseKey returns the alias of the field, or its name when unaliased.
func (fc *FieldContext) ResponseKey() string {
	f := fc.Field()
	if f == nil {
		return ""
	}
	return language.ResponseKey(f)
}

// MergedField returns a copy of the first AST node whose selection set holds
// the selections of every merged node.
func (fc *FieldContext) MergedField() *language.Field {
	f := fc.Field()
	if f == nil || len(fc.Fields) == 1 {
		return f
	}
	cp := *f
	cp.SelectionSet = mergeSelectionSets(fc.Fields)
	return &cp
}

type fieldContextKey struct{}

// WithFieldContext returns a copy of ctx carrying fc.
func WithFieldContext(ctx context.Context, fc *FieldContext) context.Context {
	return context.WithValue(ctx, fieldContextKey{}, fc)
}

// GetFieldContext returns the FieldContext stored in ctx, or nil.
func GetFieldContext(ctx context.Context) *FieldContext {
	fc, _ := ctx.Value(fieldContextKey{}).(*FieldContext)
	return fc
}
