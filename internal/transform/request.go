package transform

import (
	"sync"

	executor "github.com/hanpama/graphstitch/internal/executor"
	language "github.com/hanpama/graphstitch/internal/language"
)

// Request is one outbound operation rooted at the query type of a
// subschema. Values are treated as immutable; the With methods return
// modified copies.
type Request struct {
	SelectionSet        language.SelectionSet
	VariableDefinitions language.VariableList
	Variables           map[string]any
	Context             *Context
}

// NewRequest creates a request with a fresh Context.
func NewRequest(subschema string, ss language.SelectionSet) Request {
	return Request{SelectionSet: ss, Context: NewContext(subschema)}
}

func (r Request) WithSelectionSet(ss language.SelectionSet) Request {
	r.SelectionSet = ss
	return r
}

func (r Request) WithVariables(defs language.VariableList, values map[string]any) Request {
	r.VariableDefinitions = defs
	r.Variables = values
	return r
}

// Operation builds the query operation sent upstream.
func (r Request) Operation(name string) *language.OperationDefinition {
	return &language.OperationDefinition{
		Operation:           language.Query,
		Name:                name,
		VariableDefinitions: r.VariableDefinitions,
		SelectionSet:        r.SelectionSet,
	}
}

// Result is the upstream response of a Request.
type Result struct {
	Data    map[string]any
	Errors  []executor.GraphQLError
	Context *Context
}

func (r Result) WithData(data map[string]any) Result {
	r.Data = data
	return r
}

// Context is shared by every transform that handles one delegation.
type Context struct {
	// Subschema names the subschema the request is delegated to.
	Subschema string

	values sync.Map
}

func NewContext(subschema string) *Context {
	return &Context{Subschema: subschema}
}

func (c *Context) Load(key string) (any, bool) { return c.values.Load(key) }

func (c *Context) Store(key string, value any) { c.values.Store(key, value) }

func (c *Context) LoadOrStore(key string, value any) (any, bool) {
	return c.values.LoadOrStore(key, value)
}
