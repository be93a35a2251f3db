package events

import "time"

// UpstreamStart is emitted before an operation is sent to a subschema
// endpoint.
type UpstreamStart struct {
	Subschema     string
	Endpoint      string
	OperationName string
}

// UpstreamFinish is emitted after an upstream call completes. Status is the
// HTTP status code, zero when no response was received.
type UpstreamFinish struct {
	Subschema     string
	Endpoint      string
	OperationName string
	Status        int
	Err           error
	Duration      time.Duration
}

// BreakerStateChange is emitted when the circuit breaker of a subschema
// changes state.
type BreakerStateChange struct {
	Subschema string
	From      string
	To        string
}
