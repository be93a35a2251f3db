package wrap

import "go.uber.org/zap"

type Options struct {
	// QueryType names the gateway's root query type.
	QueryType string
	Logger    *zap.Logger
}

type Option func(*Options)

func WithQueryType(name string) Option { return func(o *Options) { o.QueryType = name } }
func WithLogger(l *zap.Logger) Option  { return func(o *Options) { o.Logger = l } }

func defaultOptions() *Options {
	return &Options{QueryType: "Query", Logger: zap.NewNop()}
}
