// Package logging builds the gateway's zap logger and logs gateway events.
package logging

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	eventbus "github.com/hanpama/graphstitch/internal/eventbus"
	events "github.com/hanpama/graphstitch/internal/events"
	reqid "github.com/hanpama/graphstitch/internal/reqid"
)

// Config selects the level, format ("json" or "console") and output
// ("stdout" or "stderr") of the logger.
type Config struct {
	Level  string
	Format string
	Output string
}

// New builds a logger from cfg.
func New(cfg Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	switch cfg.Format {
	case "console":
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	case "json", "":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("log format: unknown format %q", cfg.Format)
	}

	var out zapcore.WriteSyncer
	switch cfg.Output {
	case "stdout":
		out = zapcore.Lock(os.Stdout)
	case "stderr", "":
		out = zapcore.Lock(os.Stderr)
	default:
		return nil, fmt.Errorf("log output: unknown output %q", cfg.Output)
	}

	return zap.New(zapcore.NewCore(encoder, out, level), zap.AddCaller()), nil
}

// WithRequest returns logger annotated with the request id of ctx.
func WithRequest(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if id, ok := reqid.FromContext(ctx); ok {
		return logger.With(zap.String("request_id", id))
	}
	return logger
}

// Subscribe logs gateway events published on the global bus until the
// returned function is called.
func Subscribe(logger *zap.Logger) (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
			WithRequest(ctx, logger).Info("http request",
				zap.String("method", e.Request.Method),
				zap.String("path", e.Request.URL.Path),
				zap.Int("status", e.Status),
				zap.Duration("duration", e.Duration),
			)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.DelegateFinish) {
			WithRequest(ctx, logger).Debug("delegated field",
				zap.String("subschema", e.Subschema),
				zap.String("field", e.Field),
				zap.Duration("duration", e.Duration),
				zap.Error(e.Err),
			)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.BatchDispatch) {
			WithRequest(ctx, logger).Debug("dispatched batch",
				zap.String("subschema", e.Subschema),
				zap.String("field", e.Field),
				zap.Int("size", e.Size),
				zap.Duration("duration", e.Duration),
				zap.Error(e.Err),
			)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.UpstreamFinish) {
			l := WithRequest(ctx, logger)
			fields := []zap.Field{
				zap.String("subschema", e.Subschema),
				zap.String("endpoint", e.Endpoint),
				zap.String("operation", e.OperationName),
				zap.Int("status", e.Status),
				zap.Duration("duration", e.Duration),
			}
			if e.Err != nil {
				l.Warn("upstream request failed", append(fields, zap.Error(e.Err))...)
				return
			}
			l.Debug("upstream request", fields...)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
