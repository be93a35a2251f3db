package otel

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	eventbus "github.com/hanpama/graphstitch/internal/eventbus"
	events "github.com/hanpama/graphstitch/internal/events"
	reqid "github.com/hanpama/graphstitch/internal/reqid"
)

func TestSubscribe_SpanTree(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	unsubscribe := Subscribe(tp.Tracer("test"))
	defer unsubscribe()

	ctx := reqid.WithID(context.Background(), "r1")
	req := httptest.NewRequest("POST", "/graphql", nil)
	eventbus.Publish(ctx, events.HTTPStart{Request: req})
	eventbus.Publish(ctx, events.GraphQLStart{OperationName: "Q", OperationType: "query"})
	eventbus.Publish(ctx, events.DelegateFinish{Subschema: "beers", Field: "beer", Duration: time.Millisecond})
	eventbus.Publish(ctx, events.UpstreamFinish{
		Subschema: "beers", Endpoint: "http://beers", Status: 502,
		Err: errors.New("bad gateway"), Duration: time.Millisecond,
	})
	eventbus.Publish(ctx, events.GraphQLFinish{OperationName: "Q"})
	eventbus.Publish(ctx, events.HTTPFinish{Request: req, Status: 200})

	spans := rec.Ended()
	require.Len(t, spans, 4)
	byName := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range spans {
		byName[s.Name()] = s
	}
	httpSpan := byName["http.request"]
	gqlSpan := byName["graphql.operation"]
	require.NotNil(t, httpSpan)
	require.NotNil(t, gqlSpan)

	assert.Equal(t, httpSpan.SpanContext().SpanID(), gqlSpan.Parent().SpanID())
	assert.Equal(t, gqlSpan.SpanContext().SpanID(), byName["graphql.delegate"].Parent().SpanID())
	upstream := byName["graphql.upstream"]
	assert.Equal(t, gqlSpan.SpanContext().SpanID(), upstream.Parent().SpanID())
	assert.Len(t, upstream.Events(), 1)
	assert.Equal(t, time.Millisecond, upstream.EndTime().Sub(upstream.StartTime()))
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	Subscribe(tp.Tracer("test"))()

	eventbus.Publish(context.Background(), events.BreakerStateChange{Subschema: "a", From: "closed", To: "open"})
	assert.Empty(t, rec.Ended())
}

func TestSetup_NoEndpoint(t *testing.T) {
	shutdown, err := Setup("", "graphstitch")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
