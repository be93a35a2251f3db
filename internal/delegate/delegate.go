// Package delegate resolves gateway fields by sending them to a subschema.
//
// A Delegator turns one field access of the caller's operation into a root
// field of an upstream query. SimpleDelegator sends one query per access;
// BatchDelegator gathers the accesses of one execution depth into a single
// query through the operation's batch registry.
package delegate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	batch "github.com/hanpama/graphstitch/internal/batch"
	eventbus "github.com/hanpama/graphstitch/internal/eventbus"
	events "github.com/hanpama/graphstitch/internal/events"
	executor "github.com/hanpama/graphstitch/internal/executor"
	future "github.com/hanpama/graphstitch/internal/future"
	language "github.com/hanpama/graphstitch/internal/language"
	subschema "github.com/hanpama/graphstitch/internal/subschema"
	transform "github.com/hanpama/graphstitch/internal/transform"
)

// FieldAccess is one resolution of a gateway field.
type FieldAccess struct {
	// Field is the caller's field with the selections of every merged node.
	Field     *language.Field
	Path      executor.Path
	Source    any
	Args      map[string]any
	Operation *language.OperationDefinition
	Fragments language.FragmentList
	Variables map[string]any
	// Loaders is the batch registry of the caller's operation. It may be nil.
	Loaders *batch.Registry
}

// AccessFromTask builds the access of an async executor task.
func AccessFromTask(task executor.AsyncResolveTask) FieldAccess {
	access := FieldAccess{Source: task.Source, Args: task.Args}
	if fc := task.FieldContext; fc != nil {
		access.Field = fc.MergedField()
		access.Path = fc.Path
		access.Operation = fc.Operation
		access.Fragments = fc.Fragments
		access.Variables = fc.Variables
		access.Loaders = fc.Loaders
	}
	return access
}

type Delegator interface {
	Delegate(ctx context.Context, access FieldAccess) *future.Future[any]
}

// ArgsFunc builds the arguments of the upstream root field.
type ArgsFunc func(access FieldAccess) (language.ArgumentList, error)

// CallerArgs keeps the caller's AST arguments.
func CallerArgs(access FieldAccess) (language.ArgumentList, error) {
	return access.Field.Arguments, nil
}

// SimpleDelegator sends one upstream query per field access.
type SimpleDelegator struct {
	Subschema *subschema.Bound
	// FieldName is the upstream root field.
	FieldName string
	// ArgsFromAccess defaults to CallerArgs.
	ArgsFromAccess ArgsFunc
	Logger         *zap.Logger
}

var _ Delegator = (*SimpleDelegator)(nil)

func (d *SimpleDelegator) Delegate(ctx context.Context, access FieldAccess) *future.Future[any] {
	return future.Go(func() (any, error) {
		start := time.Now()
		eventbus.Publish(ctx, events.DelegateStart{Subschema: d.Subschema.Name(), Field: d.FieldName})
		v, err := d.delegate(ctx, access)
		eventbus.Publish(ctx, events.DelegateFinish{
			Subschema: d.Subschema.Name(),
			Field:     d.FieldName,
			Err:       err,
			Duration:  time.Since(start),
		})
		return v, err
	})
}

func (d *SimpleDelegator) delegate(ctx context.Context, access FieldAccess) (any, error) {
	if access.Field == nil {
		return nil, fmt.Errorf("delegate %s: field access has no field", d.FieldName)
	}
	argsFn := d.ArgsFromAccess
	if argsFn == nil {
		argsFn = CallerArgs
	}
	args, err := argsFn(access)
	if err != nil {
		return nil, err
	}
	return delegateField(ctx, d.Subschema, rootField(access, d.FieldName, args), access, loggerOrNop(d.Logger))
}

// rootField builds the upstream root field from the caller's field. The
// caller's response key is kept as the alias so the value can be read back
// under it.
func rootField(access FieldAccess, name string, args language.ArgumentList) *language.Field {
	cp := *access.Field
	cp.Alias = language.ResponseKey(access.Field)
	cp.Name = name
	cp.Arguments = args
	cp.Directives = nil
	cp.Definition = nil
	cp.ObjectDefinition = nil
	cp.SelectionSet = language.InlineFragmentSpreads(access.Field.SelectionSet, access.Fragments)
	return &cp
}

// delegateField runs root through the subschema's transforms, executes it and
// returns the value at the root's response key.
func delegateField(ctx context.Context, sub *subschema.Bound, root *language.Field, access FieldAccess, logger *zap.Logger) (any, error) {
	req := transform.NewRequest(sub.Name(), language.SelectionSet{root})
	if access.Operation != nil {
		req = req.WithVariables(access.Operation.VariableDefinitions, access.Variables)
	}

	res, err := sub.Transform(ctx, req, func(ctx context.Context, req transform.Request) (transform.Result, error) {
		defs, vars := usedVariables(req)
		op := req.WithVariables(defs, vars).Operation("")
		out, err := sub.Execute(ctx, subschema.ExecutionInput{
			Query:     language.PrintCompact(op),
			Variables: vars,
		})
		if err != nil {
			return transform.Result{}, fmt.Errorf("%s: %w", sub.Name(), err)
		}
		if len(out.Errors) > 0 {
			logger.Error("delegated request returned errors",
				zap.String("subschema", sub.Name()),
				zap.String("field", root.Name),
				zap.Any("errors", out.Errors),
			)
			return transform.Result{}, &DelegateError{Subschema: sub.Name(), Errors: out.Errors}
		}
		data, _ := out.Data.(map[string]any)
		return transform.Result{Data: data, Context: req.Context}, nil
	})
	if err != nil {
		return nil, err
	}
	return res.Data[language.ResponseKey(root)], nil
}

// usedVariables drops the variable definitions that the rewritten selection
// set no longer references.
func usedVariables(req transform.Request) (language.VariableList, map[string]any) {
	if len(req.VariableDefinitions) == 0 {
		return nil, nil
	}
	used := language.UsedVariables(req.SelectionSet)
	var (
		defs language.VariableList
		vars map[string]any
	)
	for _, def := range req.VariableDefinitions {
		if !used[def.Variable] {
			continue
		}
		defs = append(defs, def)
		if v, ok := req.Variables[def.Variable]; ok {
			if vars == nil {
				vars = make(map[string]any)
			}
			vars[def.Variable] = v
		}
	}
	return defs, vars
}

// pathKey renders path without list indices.
func pathKey(path executor.Path) string {
	var b strings.Builder
	for _, elem := range path {
		if key, ok := elem.(string); ok {
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(key)
		}
	}
	return b.String()
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
