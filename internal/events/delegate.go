package events

import "time"

// DelegateStart is emitted before a field access is delegated to a
// subschema.
type DelegateStart struct {
	Subschema string
	Field     string
}

// DelegateFinish is emitted after a delegated request completes.
type DelegateFinish struct {
	Subschema string
	Field     string
	Err       error
	Duration  time.Duration
}

// BatchDispatch is emitted when a batch window is sent upstream as one
// request.
type BatchDispatch struct {
	Subschema string
	Field     string
	Size      int
	Err       error
	Duration  time.Duration
}
