package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/hanpama/graphstitch/internal/config"
	"github.com/hanpama/graphstitch/internal/eventbus"
	"github.com/hanpama/graphstitch/internal/logging"
	"github.com/hanpama/graphstitch/internal/otel"
	"github.com/hanpama/graphstitch/internal/remote"
	"github.com/hanpama/graphstitch/internal/schema"
)

const rootUsage = `graphstitch — GraphQL schema stitching gateway

USAGE:
  graphstitch <command> [flags]

COMMANDS:
  serve            Run the HTTP GraphQL gateway over the configured subschemas
  print-sdl        Print the SDL of the stitched gateway schema
  introspect       Print the SDL served by a GraphQL endpoint
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -config <file>               Gateway configuration file (required)
  -server.addr <addr>          HTTP listen address (overrides server.addr)
  -log.level <level>           Log level: debug, info, warn, error (overrides log.level)
  -otel.endpoint <addr>        OTLP collector endpoint (overrides otel.endpoint)
`

const printSDLUsage = `print-sdl FLAGS:
  -config <file>   Gateway configuration file (required)
  -out <file>      Write SDL to file (default: stdout)
`

const introspectUsage = `introspect FLAGS:
  -endpoint <url>          GraphQL endpoint to introspect (required)
  -header <Name: value>    Send header with the request. Repeatable
  -timeout <duration>      Request timeout (default: 10s)
  -out <file>              Write SDL to file (default: stdout)
`

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("graphstitch", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs)
	case "print-sdl":
		return cmdPrintSDL(cmdArgs)
	case "introspect":
		return cmdIntrospect(cmdArgs)
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Print(serveUsage)
	case "print-sdl":
		fmt.Print(printSDLUsage)
	case "introspect":
		fmt.Print(introspectUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return "" }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdServe(args []string) error {
	configPath := ""
	addr := ""
	logLevel := ""
	otelEndpoint := ""

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configPath, "config", configPath, "Gateway configuration file")
	fs.StringVar(&addr, "server.addr", addr, "HTTP listen address")
	fs.StringVar(&logLevel, "log.level", logLevel, "Log level")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, serveUsage)
		return err
	}
	if configPath == "" {
		fmt.Fprint(os.Stderr, serveUsage)
		return fmt.Errorf("-config is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if otelEndpoint != "" {
		cfg.Otel.Endpoint = otelEndpoint
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventbus.Use(eventbus.New())
	defer logging.Subscribe(logger)()
	shutdownOtel, err := otel.Setup(cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdownOtel(context.Background()) }()

	handler, err := newHandler(ctx, cfg, logger, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("GraphQL gateway listening",
		zap.String("addr", cfg.Server.Addr),
		zap.Int("subschemas", len(cfg.Subschemas)),
		zap.Int("links", len(cfg.Links)),
	)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func cmdPrintSDL(args []string) error {
	configPath := ""
	outFile := ""
	fs := flag.NewFlagSet("print-sdl", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configPath, "config", configPath, "Gateway configuration file")
	fs.StringVar(&outFile, "out", outFile, "Write SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, printSDLUsage)
		return err
	}
	if configPath == "" {
		fmt.Fprint(os.Stderr, printSDLUsage)
		return fmt.Errorf("-config is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	gw, err := buildGateway(context.Background(), cfg, zap.NewNop())
	if err != nil {
		return err
	}
	return writeOutput(outFile, schema.Render(gw.Schema))
}

func cmdIntrospect(args []string) error {
	endpoint := ""
	outFile := ""
	timeout := 10 * time.Second
	var headers stringListFlag
	fs := flag.NewFlagSet("introspect", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&endpoint, "endpoint", endpoint, "GraphQL endpoint to introspect")
	fs.Var(&headers, "header", "Send header with the request")
	fs.DurationVar(&timeout, "timeout", timeout, "Request timeout")
	fs.StringVar(&outFile, "out", outFile, "Write SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, introspectUsage)
		return err
	}
	if endpoint == "" {
		fmt.Fprint(os.Stderr, introspectUsage)
		return fmt.Errorf("-endpoint is required")
	}
	h, err := parseHeaders(headers)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	exec := remote.New(remote.WithName("introspect"), remote.WithEndpoint(endpoint), remote.WithHeaders(h))
	sch, err := remote.Introspect(ctx, exec)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	return writeOutput(outFile, schema.Render(sch))
}

func writeOutput(outFile, s string) error {
	if outFile == "" {
		fmt.Print(s)
		return nil
	}
	return os.WriteFile(outFile, []byte(s), 0644)
}
