// Package reqid carries the id of the request being served in a context.
package reqid

import (
	"context"

	"github.com/google/uuid"
)

// Header is the HTTP header that carries request ids between services.
const Header = "X-Request-Id"

type key struct{}

// NewContext returns a copy of parent carrying a freshly generated request
// ID, together with that ID.
func NewContext(parent context.Context) (context.Context, string) {
	id := uuid.NewString()
	return WithID(parent, id), id
}

// WithID returns a copy of parent carrying id. It is used to adopt an id
// received from a caller.
func WithID(parent context.Context, id string) context.Context {
	return context.WithValue(parent, key{}, id)
}

// FromContext extracts the request ID from ctx.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(key{}).(string)
	return id, ok && id != ""
}
