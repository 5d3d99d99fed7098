package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the service. Each collector
// owns its registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Query bus metrics
	QueryDuration *prometheus.HistogramVec
	QueryEvents   *prometheus.CounterVec

	// Store and compute operations
	Operations        *prometheus.HistogramVec
	OperationFailures *prometheus.CounterVec
}

// NewCollector creates a metrics collector under the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Query bus handler duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"query"},
		),
		QueryEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "query_events_total",
				Help:      "Query bus counters by event (count, errors, success)",
			},
			[]string{"event", "query"},
		),
		Operations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Store and compute operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),
		OperationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operation_failures_total",
				Help:      "Total number of failed operations",
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.QueryDuration,
		c.QueryEvents,
		c.Operations,
		c.OperationFailures,
		prometheus.NewGoCollector(),
	)
	return c
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartTimer starts a timer for a query bus metric
func (c *Collector) StartTimer(metric, label string) Timer {
	return &histogramTimer{
		observer: c.QueryDuration.WithLabelValues(label),
		start:    time.Now(),
	}
}

// Increment bumps a query bus counter
func (c *Collector) Increment(metric, label string) {
	c.QueryEvents.WithLabelValues(metric, label).Inc()
}

// ObserveOperation records the latency and outcome of an operation
func (c *Collector) ObserveOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
		c.OperationFailures.WithLabelValues(operation).Inc()
	}
	c.Operations.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// Middleware records request counts and latency per chi route pattern
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Timer measures one timed section
type Timer interface {
	Stop()
}

type histogramTimer struct {
	observer prometheus.Observer
	start    time.Time
}

func (t *histogramTimer) Stop() {
	t.observer.Observe(time.Since(t.start).Seconds())
}

// OperationObserver receives operation measurements
type OperationObserver interface {
	ObserveOperation(operation string, duration time.Duration, err error)
}

// Observers fans one measurement out to several sinks
type Observers []OperationObserver

// ObserveOperation implements OperationObserver
func (o Observers) ObserveOperation(operation string, duration time.Duration, err error) {
	for _, observer := range o {
		if observer != nil {
			observer.ObserveOperation(operation, duration, err)
		}
	}
}

// NopObserver discards measurements
type NopObserver struct{}

// ObserveOperation implements OperationObserver
func (NopObserver) ObserveOperation(string, time.Duration, error) {}
