// Package remote executes subschema operations against GraphQL services over
// HTTP.
package remote

import (
	"bytes"
	"encoding/json"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"

	eventbus "github.com/hanpama/graphstitch/internal/eventbus"
	events "github.com/hanpama/graphstitch/internal/events"
	executor "github.com/hanpama/graphstitch/internal/executor"
	reqid "github.com/hanpama/graphstitch/internal/reqid"
	subschema "github.com/hanpama/graphstitch/internal/subschema"
)

// maxResponseBytes bounds the upstream response body read into memory.
const maxResponseBytes = 64 << 20

// Executor posts GraphQL operations to an upstream endpoint.
type Executor struct {
	opts    *Options
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

var _ subschema.Executor = (*Executor)(nil)

func New(opts ...Option) *Executor {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	e := &Executor{opts: o, client: o.Client}
	if e.client == nil {
		e.client = &http.Client{}
	}
	if o.BreakerThreshold > 0 {
		e.breaker = newBreaker(o)
	}
	return e
}

func newBreaker(o *Options) *gobreaker.CircuitBreaker {
	threshold := uint32(o.BreakerThreshold)
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        o.Name,
		MaxRequests: threshold,
		Interval:    o.BreakerTimeout,
		Timeout:     o.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= threshold && failureRatio >= 0.5
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			o.Logger.Warn("circuit breaker state change",
				zap.String("subschema", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			eventbus.Publish(context.Background(), events.BreakerStateChange{
				Subschema: name,
				From:      from.String(),
				To:        to.String(),
			})
		},
	})
}

// isSuccessful keeps caller mistakes from tripping the breaker: only
// transport failures and 5xx upstream errors count.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Status < http.StatusInternalServerError
	}
	return false
}

// Execute sends in upstream. GraphQL errors are part of the result; a
// non-nil error means no GraphQL response was obtained.
func (e *Executor) Execute(ctx context.Context, in subschema.ExecutionInput) (*executor.ExecutionResult, error) {
	if e.breaker == nil {
		return e.execute(ctx, in)
	}
	v, err := e.breaker.Execute(func() (any, error) {
		return e.execute(ctx, in)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, e.opts.Name)
	}
	if err != nil {
		return nil, err
	}
	return v.(*executor.ExecutionResult), nil
}

func (e *Executor) execute(ctx context.Context, in subschema.ExecutionInput) (res *executor.ExecutionResult, err error) {
	if e.opts.Provider == nil {
		return nil, ErrNoEndpoints
	}
	if _, ok := ctx.Deadline(); !ok && e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	endpoints, err := e.opts.Provider.Endpoints(ctx, e.opts.Name)
	if err != nil {
		return nil, err
	}
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	endpoint := endpoints[rand.Intn(len(endpoints))]

	body, err := requestBody(in)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	status := 0
	eventbus.Publish(ctx, events.UpstreamStart{Subschema: e.opts.Name, Endpoint: endpoint, OperationName: in.OperationName})
	defer func() {
		eventbus.Publish(ctx, events.UpstreamFinish{
			Subschema:     e.opts.Name,
			Endpoint:      endpoint,
			OperationName: in.OperationName,
			Status:        status,
			Err:           err,
			Duration:      time.Since(start),
		})
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, vs := range e.opts.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, vs := range OutgoingHeaders(ctx) {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if id, ok := reqid.FromContext(ctx); ok {
		req.Header.Set(reqid.Header, id)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream %s: %w", e.opts.Name, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}
	return decodeResponse(raw)
}

func requestBody(in subschema.ExecutionInput) ([]byte, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "query", in.Query)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	if in.OperationName != "" {
		if body, err = sjson.SetBytes(body, "operationName", in.OperationName); err != nil {
			return nil, fmt.Errorf("encode operation name: %w", err)
		}
	}
	if len(in.Variables) > 0 {
		if body, err = sjson.SetBytes(body, "variables", in.Variables); err != nil {
			return nil, fmt.Errorf("encode variables: %w", err)
		}
	}
	return body, nil
}

// decodeResponse classifies an upstream body. A GraphQL response carries data
// or errors; an error document carries status and detail.
func decodeResponse(raw []byte) (*executor.ExecutionResult, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &UpstreamError{Status: http.StatusInternalServerError, Detail: genericDetail}
	}
	doc := gjson.ParseBytes(raw)
	data, errs := doc.Get("data"), doc.Get("errors")
	if data.Exists() || errs.Exists() {
		res := &executor.ExecutionResult{}
		if data.IsObject() {
			res.Data = decodeValue(data)
		}
		for _, item := range errs.Array() {
			res.Errors = append(res.Errors, decodeError(item))
		}
		return res, nil
	}
	if s, d := doc.Get("status"), doc.Get("detail"); s.Exists() && d.Exists() {
		return nil, &UpstreamError{Status: int(s.Int()), Detail: d.String()}
	}
	return nil, &UpstreamError{Status: http.StatusInternalServerError, Detail: genericDetail}
}

// decodeValue is gjson's Value with numbers kept as json.Number, so ids
// beyond 2^53 survive the trip back upstream as keys.
func decodeValue(r gjson.Result) any {
	switch {
	case r.IsObject():
		out := map[string]any{}
		r.ForEach(func(key, value gjson.Result) bool {
			out[key.String()] = decodeValue(value)
			return true
		})
		return out
	case r.IsArray():
		elems := r.Array()
		out := make([]any, len(elems))
		for i, elem := range elems {
			out[i] = decodeValue(elem)
		}
		return out
	case r.Type == gjson.Number:
		return json.Number(r.Raw)
	}
	return r.Value()
}

func decodeError(item gjson.Result) executor.GraphQLError {
	ge := executor.GraphQLError{Message: item.Get("message").String()}
	for _, elem := range item.Get("path").Array() {
		if elem.Type == gjson.Number {
			ge.Path = append(ge.Path, int(elem.Int()))
		} else {
			ge.Path = append(ge.Path, elem.String())
		}
	}
	if ext, ok := item.Get("extensions").Value().(map[string]any); ok {
		ge.Extensions = ext
	}
	return ge
}
