package transform

import (
	"errors"
	"fmt"
)

// ErrEmptyPath is returned when a hoist is declared without a source path.
var ErrEmptyPath = errors.New("source field path must contain at least 1 segment")

// TransformError reports a schema that cannot be transformed as requested.
type TransformError struct {
	Type   string
	Field  string
	Reason string
}

func (e *TransformError) Error() string {
	switch {
	case e.Type != "" && e.Field != "":
		return fmt.Sprintf("transform %s.%s: %s", e.Type, e.Field, e.Reason)
	case e.Type != "":
		return fmt.Sprintf("transform %s: %s", e.Type, e.Reason)
	}
	return "transform: " + e.Reason
}

func transformErrorf(typeName, fieldName, format string, args ...any) error {
	return &TransformError{Type: typeName, Field: fieldName, Reason: fmt.Sprintf(format, args...)}
}
