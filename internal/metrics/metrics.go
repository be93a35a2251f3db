// Package metrics exposes Prometheus metrics of the gateway, fed by eventbus
// events.
package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	eventbus "github.com/hanpama/graphstitch/internal/eventbus"
	events "github.com/hanpama/graphstitch/internal/events"
)

const namespace = "graphstitch"

var durationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds the gateway's collectors.
type Metrics struct {
	httpRequests       *prometheus.CounterVec
	operations         *prometheus.CounterVec
	operationDuration  *prometheus.HistogramVec
	delegations        *prometheus.CounterVec
	delegationDuration *prometheus.HistogramVec
	batchSize          *prometheus.HistogramVec
	upstreamRequests   *prometheus.CounterVec
	breakerState       *prometheus.GaugeVec
}

// New registers the gateway metrics with registerer, or with the default
// registerer when it is nil.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)
	return &Metrics{
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "status"},
		),
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "graphql",
				Name:      "operations_total",
				Help:      "Total number of executed GraphQL operations",
			},
			[]string{"operation_type", "status"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "graphql",
				Name:      "operation_duration_seconds",
				Help:      "GraphQL operation duration in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"operation_type"},
		),
		delegations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "delegations_total",
				Help:      "Total number of fields delegated to subschemas",
			},
			[]string{"subschema", "field", "status"},
		),
		delegationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "delegation_duration_seconds",
				Help:      "Delegated request duration in seconds",
				Buckets:   durationBuckets,
			},
			[]string{"subschema", "field"},
		),
		batchSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_size",
				Help:      "Number of keys sent upstream per batch window",
				Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
			},
			[]string{"subschema", "field"},
		),
		upstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of requests sent to subschema endpoints",
			},
			[]string{"endpoint", "status"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_open",
				Help:      "Whether the circuit breaker of a subschema is open (1) or not (0)",
			},
			[]string{"subschema"},
		),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Subscribe records events published on the global bus until the returned
// function is called.
func (m *Metrics) Subscribe() (unsubscribe func()) {
	unsubs := []func(){
		eventbus.Subscribe(func(_ context.Context, e events.HTTPFinish) {
			m.httpRequests.WithLabelValues(e.Request.Method, strconv.Itoa(e.Status)).Inc()
		}),
		eventbus.Subscribe(func(_ context.Context, e events.GraphQLFinish) {
			s := "ok"
			if len(e.Errors) > 0 {
				s = "error"
			}
			m.operations.WithLabelValues(e.OperationType, s).Inc()
			m.operationDuration.WithLabelValues(e.OperationType).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(_ context.Context, e events.DelegateFinish) {
			m.delegations.WithLabelValues(e.Subschema, e.Field, status(e.Err)).Inc()
			m.delegationDuration.WithLabelValues(e.Subschema, e.Field).Observe(e.Duration.Seconds())
		}),
		eventbus.Subscribe(func(_ context.Context, e events.BatchDispatch) {
			m.delegations.WithLabelValues(e.Subschema, e.Field, status(e.Err)).Inc()
			m.delegationDuration.WithLabelValues(e.Subschema, e.Field).Observe(e.Duration.Seconds())
			m.batchSize.WithLabelValues(e.Subschema, e.Field).Observe(float64(e.Size))
		}),
		eventbus.Subscribe(func(_ context.Context, e events.UpstreamFinish) {
			s := strconv.Itoa(e.Status)
			if e.Status == 0 {
				s = "error"
			}
			m.upstreamRequests.WithLabelValues(e.Endpoint, s).Inc()
		}),
		eventbus.Subscribe(func(_ context.Context, e events.BreakerStateChange) {
			open := 0.0
			if e.To == "open" {
				open = 1
			}
			m.breakerState.WithLabelValues(e.Subschema).Set(open)
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Handler serves the metrics gathered by gatherer, or by the default
// gatherer when it is nil.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
