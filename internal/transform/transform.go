// Package transform rewrites a subschema's schema and the requests and
// results exchanged with it.
//
// A Transform is an uncompiled description. TransformSchema compiles it
// against a schema and yields a Compiled value holding the rewritten schema
// and whatever tables the request phase needs; requests can only be
// rewritten through a Compiled value.
//
// Transforms compose with Chain. Schemas are compiled in declared order, so
// the last transform faces the caller. Requests travel the opposite way: the
// last transform rewrites the caller's request first and the first transform
// is closest to the wire. Results unwind in declared order.
package transform

import (
	"context"

	schema "github.com/hanpama/graphstitch/internal/schema"
)

// Next runs the remainder of a transform chain followed by the upstream call.
type Next func(ctx context.Context, req Request) (Result, error)

type Transform interface {
	TransformSchema(s *schema.Schema) (Compiled, error)
}

type Compiled interface {
	// Schema returns the caller-facing schema.
	Schema() *schema.Schema
	// TransformRequest rewrites req, calls next and rewrites its result.
	TransformRequest(ctx context.Context, req Request, next Next) (Result, error)
}

// passthrough is a Compiled value with no request or result rewriting.
type passthrough struct {
	schema *schema.Schema
}

func (p *passthrough) Schema() *schema.Schema { return p.schema }

func (p *passthrough) TransformRequest(ctx context.Context, req Request, next Next) (Result, error) {
	return next(ctx, req)
}

type identity struct{}

// Identity leaves both the schema and the requests untouched.
func Identity() Transform { return identity{} }

func (identity) TransformSchema(s *schema.Schema) (Compiled, error) {
	return &passthrough{schema: s}, nil
}

type chain struct {
	transforms []Transform
}

// Chain composes transforms. See the package documentation for ordering.
func Chain(transforms ...Transform) Transform {
	var flat []Transform
	for _, t := range transforms {
		switch c := t.(type) {
		case nil:
		case *chain:
			flat = append(flat, c.transforms...)
		default:
			flat = append(flat, t)
		}
	}
	return &chain{transforms: flat}
}

// Pipe composes outer and inner; it is Chain(outer, inner).
func Pipe(outer, inner Transform) Transform {
	return Chain(outer, inner)
}

func (c *chain) TransformSchema(s *schema.Schema) (Compiled, error) {
	compiled := &compiledChain{steps: make([]Compiled, 0, len(c.transforms)), schema: s}
	for _, t := range c.transforms {
		step, err := t.TransformSchema(compiled.schema)
		if err != nil {
			return nil, err
		}
		compiled.steps = append(compiled.steps, step)
		compiled.schema = step.Schema()
	}
	return compiled, nil
}

type compiledChain struct {
	steps  []Compiled
	schema *schema.Schema
}

func (c *compiledChain) Schema() *schema.Schema { return c.schema }

func (c *compiledChain) TransformRequest(ctx context.Context, req Request, next Next) (Result, error) {
	return c.dispatch(ctx, req, len(c.steps)-1, next)
}

// dispatch runs step i, handing it a continuation to step i-1. Step 0 calls
// next.
func (c *compiledChain) dispatch(ctx context.Context, req Request, i int, next Next) (Result, error) {
	if i < 0 {
		return next(ctx, req)
	}
	return c.steps[i].TransformRequest(ctx, req, func(ctx context.Context, req Request) (Result, error) {
		return c.dispatch(ctx, req, i-1, next)
	})
}
