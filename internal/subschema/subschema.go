// Package subschema describes the upstream services a gateway delegates to.
//
// A Subschema pairs an upstream schema with the means to execute operations
// against it: either an Executor (usually a remote HTTP endpoint) or a local
// Runtime driven by the breadth-first executor. Bind compiles the subschema's
// transform and yields the Bound form used for delegation.
package subschema

import (
	"context"
	"errors"
	"fmt"

	executor "github.com/hanpama/graphstitch/internal/executor"
	introspection "github.com/hanpama/graphstitch/internal/introspection"
	language "github.com/hanpama/graphstitch/internal/language"
	schema "github.com/hanpama/graphstitch/internal/schema"
	transform "github.com/hanpama/graphstitch/internal/transform"
)

var (
	// ErrNoSchema is returned by Bind for a subschema without a schema.
	ErrNoSchema = errors.New("subschema has no schema")
	// ErrNoExecutor is returned by Bind when neither an Executor nor a
	// Runtime is configured.
	ErrNoExecutor = errors.New("subschema has neither an executor nor a runtime")
)

// ExecutionInput is one GraphQL operation sent to a subschema.
type ExecutionInput struct {
	Query         string
	OperationName string
	Variables     map[string]any
}

type Executor interface {
	Execute(ctx context.Context, in ExecutionInput) (*executor.ExecutionResult, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, in ExecutionInput) (*executor.ExecutionResult, error)

func (f ExecutorFunc) Execute(ctx context.Context, in ExecutionInput) (*executor.ExecutionResult, error) {
	return f(ctx, in)
}

// Subschema is an upstream schema together with its execution strategy.
type Subschema struct {
	Name   string
	Schema *schema.Schema
	// Executor runs operations upstream. When nil, operations run locally
	// against Runtime.
	Executor Executor
	Runtime  executor.Runtime
	// Transform rewrites the schema, requests and results. Nil means Identity.
	Transform transform.Transform
}

// Bound is a subschema whose transforms are compiled.
type Bound struct {
	name     string
	compiled transform.Compiled
	exec     Executor
}

// Bind compiles Chain(AddTypename, Transform, inner...) against the schema.
// The inner transforms face the caller and see requests first.
func (s *Subschema) Bind(inner ...transform.Transform) (*Bound, error) {
	if s.Schema == nil {
		return nil, fmt.Errorf("%s: %w", s.Name, ErrNoSchema)
	}
	exec := s.Executor
	if exec == nil {
		if s.Runtime == nil {
			return nil, fmt.Errorf("%s: %w", s.Name, ErrNoExecutor)
		}
		exec = NewLocalExecutor(s.Schema, s.Runtime)
	}

	steps := append([]transform.Transform{transform.AddTypename(), s.Transform}, inner...)
	compiled, err := transform.Chain(steps...).TransformSchema(s.Schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	return &Bound{name: s.Name, compiled: compiled, exec: exec}, nil
}

func (b *Bound) Name() string { return b.name }

// Schema returns the caller-facing schema.
func (b *Bound) Schema() *schema.Schema { return b.compiled.Schema() }

// Transform runs req through the compiled transforms. next receives the
// upstream-shaped request.
func (b *Bound) Transform(ctx context.Context, req transform.Request, next transform.Next) (transform.Result, error) {
	return b.compiled.TransformRequest(ctx, req, next)
}

func (b *Bound) Execute(ctx context.Context, in ExecutionInput) (*executor.ExecutionResult, error) {
	return b.exec.Execute(ctx, in)
}

// LocalExecutor runs operations in process with the breadth-first executor.
// Introspection is served on top of the runtime.
type LocalExecutor struct {
	exec *executor.Executor
}

func NewLocalExecutor(s *schema.Schema, runtime executor.Runtime) *LocalExecutor {
	wrapped := introspection.Wrap(runtime, s)
	return &LocalExecutor{exec: executor.NewExecutor(wrapped.Runtime, wrapped.Schema)}
}

func (l *LocalExecutor) Execute(ctx context.Context, in ExecutionInput) (*executor.ExecutionResult, error) {
	doc, err := language.ParseQuery(in.Query)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	return l.exec.ExecuteRequest(ctx, doc, in.OperationName, in.Variables, nil), nil
}
