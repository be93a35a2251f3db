package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrNoEndpoints indicates the provider returned no endpoints for a subschema.
	ErrNoEndpoints = errors.New("remote: no endpoints available")
	// ErrCircuitOpen is returned while the circuit breaker rejects calls.
	ErrCircuitOpen = errors.New("remote: circuit breaker is open")
)

// genericDetail is reported when an upstream answers with a body that is
// neither a GraphQL response nor an error document.
const genericDetail = "something went wrong while orchestrating the request"

// UpstreamError is a non-GraphQL failure reported by an upstream service.
type UpstreamError struct {
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded with status %d: %s", e.Status, e.Detail)
}
