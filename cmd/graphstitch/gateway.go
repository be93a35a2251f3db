package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hanpama/graphstitch/internal/config"
	"github.com/hanpama/graphstitch/internal/metrics"
	"github.com/hanpama/graphstitch/internal/remote"
	"github.com/hanpama/graphstitch/internal/schema"
	"github.com/hanpama/graphstitch/internal/server"
	"github.com/hanpama/graphstitch/internal/subschema"
	"github.com/hanpama/graphstitch/internal/wrap"
)

// buildGateway wires the configured subschemas into a gateway. Subschemas
// without SDL are introspected concurrently.
func buildGateway(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*wrap.Gateway, error) {
	subs := make([]subschema.Subschema, len(cfg.Subschemas))
	pending := map[string]subschema.Executor{}
	for i, sc := range cfg.Subschemas {
		opts := []remote.Option{
			remote.WithName(sc.Name),
			remote.WithEndpoint(sc.Endpoint),
			remote.WithTimeout(sc.Timeout.Duration()),
			remote.WithLogger(logger.With(zap.String("subschema", sc.Name))),
		}
		if len(sc.Headers) > 0 {
			h := http.Header{}
			for k, v := range sc.Headers {
				h.Set(k, v)
			}
			opts = append(opts, remote.WithHeaders(h))
		}
		if sc.Breaker != nil {
			opts = append(opts, remote.WithBreaker(sc.Breaker.Threshold, sc.Breaker.Timeout.Duration()))
		}
		exec := remote.New(opts...)

		tr, err := cfg.Transform(i)
		if err != nil {
			return nil, fmt.Errorf("subschema %s: %w", sc.Name, err)
		}
		subs[i] = subschema.Subschema{Name: sc.Name, Executor: exec, Transform: tr}

		sdl, err := cfg.ReadSDL(i)
		if err != nil {
			return nil, err
		}
		if sdl == "" {
			pending[sc.Name] = exec
			continue
		}
		if subs[i].Schema, err = schema.BuildFromSDL(sdl); err != nil {
			return nil, fmt.Errorf("subschema %s: %w", sc.Name, err)
		}
	}

	if len(pending) > 0 {
		logger.Info("introspecting subschemas", zap.Int("count", len(pending)))
		schemas, err := remote.IntrospectAll(ctx, pending)
		if err != nil {
			return nil, err
		}
		for i := range subs {
			if s, ok := schemas[subs[i].Name]; ok {
				subs[i].Schema = s
			}
		}
	}

	links := make([]wrap.Link, len(cfg.Links))
	for i, l := range cfg.Links {
		links[i] = wrap.Link{
			Type:      l.Type,
			Field:     l.Field,
			Subschema: l.Subschema,
			RootField: l.RootField,
			KeyField:  l.KeyField,
			Argument:  l.Argument,
			List:      l.List,
		}
	}
	return wrap.Wrap(subs, links, wrap.WithLogger(logger))
}

// newHandler builds the gateway and serves it on /graphql next to /metrics
// and /healthz.
func newHandler(ctx context.Context, cfg *config.Config, logger *zap.Logger, reg prometheus.Registerer, gatherer prometheus.Gatherer) (http.Handler, error) {
	gw, err := buildGateway(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	runtime, sch := gw.Executable()

	sopts := []server.Option{
		server.WithTimeout(cfg.Server.Timeout.Duration()),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		server.WithGraphiQL(cfg.Server.GraphiQL),
		server.WithDocumentCache(cfg.Server.DocumentCache),
		server.WithLogger(logger),
	}
	if cfg.Server.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if len(cfg.Server.CORS) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.Server.CORS...))
	}
	if len(cfg.Server.ForwardHeaders) > 0 {
		sopts = append(sopts, server.WithForwardHeaders(cfg.Server.ForwardHeaders...))
	}
	h, err := server.New(runtime, sch, sopts...)
	if err != nil {
		return nil, fmt.Errorf("server init: %w", err)
	}

	m := metrics.New(reg)
	// The subscription lives as long as the process.
	m.Subscribe()

	mux := http.NewServeMux()
	mux.Handle("/graphql", h)
	mux.Handle("/metrics", metrics.Handler(gatherer))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return mux, nil
}

// parseHeaders parses "Name: value" flags.
func parseHeaders(values []string) (http.Header, error) {
	h := http.Header{}
	for _, v := range values {
		name, value, ok := strings.Cut(v, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q", v)
		}
		h.Add(name, strings.TrimSpace(value))
	}
	return h, nil
}
