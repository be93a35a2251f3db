package delegate

import (
	"errors"
	"maps"

	executor "github.com/hanpama/graphstitch/internal/executor"
)

var (
	// ErrNoLoaderRegistry is returned by BatchDelegator when the field access
	// carries no batch registry.
	ErrNoLoaderRegistry = errors.New("field access has no loader registry")
	// ErrNoBatchResults fails a batch window whose root field resolved to
	// null or to a non-list value.
	ErrNoBatchResults = errors.New("batch query did not yield any results")
)

// DelegateError carries the GraphQL errors returned by a subschema.
type DelegateError struct {
	Subschema string
	Errors    []executor.GraphQLError
}

func (e *DelegateError) Error() string {
	return "an error occurred while delegating request"
}

// GraphQLErrors returns one error per upstream error. The upstream path is
// moved to the "upstreamPath" extension; the executor relocates the errors to
// the delegating field.
func (e *DelegateError) GraphQLErrors() []executor.GraphQLError {
	out := make([]executor.GraphQLError, len(e.Errors))
	for i, ge := range e.Errors {
		ext := make(map[string]any, len(ge.Extensions)+2)
		maps.Copy(ext, ge.Extensions)
		ext["subschema"] = e.Subschema
		if len(ge.Path) > 0 {
			ext["upstreamPath"] = ge.Path
		}
		out[i] = executor.GraphQLError{Message: ge.Message, Extensions: ext}
	}
	return out
}

func (e *DelegateError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, ge := range e.Errors {
		errs[i] = ge
	}
	return errs
}
