package remote

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Options configures the remote executor.
//
// Defaults:
// - Name:    "default"
// - Timeout: 10s (used only if the incoming context has no deadline)
// - Client:  a dedicated http.Client
// - Logger:  zap.NewNop()
//
// A Provider must be configured with WithEndpoint or WithProvider; calls
// fail with ErrNoEndpoints otherwise. The circuit breaker is disabled unless
// WithBreaker is given.
type Options struct {
	Name     string
	Provider EndpointProvider
	Client   *http.Client
	Timeout  time.Duration
	Headers  http.Header
	Logger   *zap.Logger

	BreakerThreshold int
	BreakerTimeout   time.Duration
}

type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Name:    "default",
		Timeout: 10 * time.Second,
		Logger:  zap.NewNop(),
	}
}

// WithName sets the subschema name used for endpoint lookup, events and the
// circuit breaker.
func WithName(name string) Option { return func(o *Options) { o.Name = name } }

// WithEndpoint serves every call from a single URL.
func WithEndpoint(url string) Option {
	return func(o *Options) { o.Provider = fixedEndpoint(url) }
}

func WithProvider(p EndpointProvider) Option { return func(o *Options) { o.Provider = p } }
func WithHTTPClient(c *http.Client) Option   { return func(o *Options) { o.Client = c } }
func WithTimeout(d time.Duration) Option     { return func(o *Options) { o.Timeout = d } }
func WithLogger(l *zap.Logger) Option        { return func(o *Options) { o.Logger = l } }

// WithHeaders adds static headers to every upstream request.
func WithHeaders(h http.Header) Option {
	return func(o *Options) { o.Headers = h.Clone() }
}

// WithBreaker trips the circuit once at least threshold requests were seen
// and half of them failed. It stays open for timeout.
func WithBreaker(threshold int, timeout time.Duration) Option {
	return func(o *Options) {
		o.BreakerThreshold = threshold
		o.BreakerTimeout = timeout
	}
}

type fixedEndpoint string

func (f fixedEndpoint) Endpoints(context.Context, string) ([]string, error) {
	if f == "" {
		return nil, ErrNoEndpoints
	}
	return []string{string(f)}, nil
}
