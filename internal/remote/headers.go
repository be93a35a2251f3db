package remote

import (
	"context"
	"net/http"
)

type outgoingHeadersKey struct{}

// WithOutgoingHeaders returns a copy of ctx whose upstream calls carry h in
// addition to the configured headers.
func WithOutgoingHeaders(ctx context.Context, h http.Header) context.Context {
	if len(h) == 0 {
		return ctx
	}
	merged := OutgoingHeaders(ctx).Clone()
	if merged == nil {
		merged = http.Header{}
	}
	for k, vs := range h {
		for _, v := range vs {
			merged.Add(k, v)
		}
	}
	return context.WithValue(ctx, outgoingHeadersKey{}, merged)
}

// OutgoingHeaders returns the headers attached by WithOutgoingHeaders.
func OutgoingHeaders(ctx context.Context) http.Header {
	h, _ := ctx.Value(outgoingHeadersKey{}).(http.Header)
	return h
}
