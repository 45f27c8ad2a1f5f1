// Package metrics provides Prometheus instrumentation for the server and
// its worker pool.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fluxorio/poolserve/pkg/pool"
)

// Metrics holds all Prometheus metrics for one server instance. Each instance
// carries its own registry so tests can run side by side without collisions.
type Metrics struct {
	registry   *prometheus.Registry
	registerer prometheus.Registerer

	// HTTP request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Connection metrics
	ConnectionsAccepted prometheus.Counter
	ConnectionsRejected prometheus.Counter
	ConnectionsHandled  prometheus.Counter
	HandlerErrors       prometheus.Counter
}

// New creates a metrics collection backed by a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registerer := prometheus.WrapRegistererWith(prometheus.Labels{"service": "poolserve"}, registry)

	return &Metrics{
		registry:   registry,
		registerer: registerer,

		RequestsTotal: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "poolserve_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "status"},
		),
		RequestDuration: promauto.With(registerer).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "poolserve_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		ConnectionsAccepted: promauto.With(registerer).NewCounter(
			prometheus.CounterOpts{
				Name: "poolserve_connections_accepted_total",
				Help: "Total number of accepted TCP connections",
			},
		),
		ConnectionsRejected: promauto.With(registerer).NewCounter(
			prometheus.CounterOpts{
				Name: "poolserve_connections_rejected_total",
				Help: "Total number of connections rejected by backpressure or shutdown",
			},
		),
		ConnectionsHandled: promauto.With(registerer).NewCounter(
			prometheus.CounterOpts{
				Name: "poolserve_connections_handled_total",
				Help: "Total number of connections handled to completion",
			},
		),
		HandlerErrors: promauto.With(registerer).NewCounter(
			prometheus.CounterOpts{
				Name: "poolserve_handler_errors_total",
				Help: "Total number of connection handler errors",
			},
		),
	}
}

// Registry returns the underlying registry for exposition.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePool registers gauges that read the pool's statistics on scrape.
func (m *Metrics) ObservePool(p pool.Pool) {
	m.registerer.MustRegister(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "poolserve_pool_queue_depth",
				Help: "Current number of queued tasks",
			},
			func() float64 { return float64(p.Stats().QueuedTasks) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "poolserve_pool_queue_capacity",
				Help: "Maximum task queue capacity",
			},
			func() float64 { return float64(p.Stats().QueueCapacity) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "poolserve_pool_workers",
				Help: "Number of worker goroutines",
			},
			func() float64 { return float64(p.Workers()) },
		),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name: "poolserve_pool_tasks_completed_total",
				Help: "Total tasks executed without error",
			},
			func() float64 { return float64(p.Stats().CompletedTasks) },
		),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name: "poolserve_pool_tasks_failed_total",
				Help: "Total tasks that returned an error or panicked",
			},
			func() float64 { return float64(p.Stats().FailedTasks) },
		),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name: "poolserve_pool_tasks_rejected_total",
				Help: "Total tasks rejected by backpressure or stop",
			},
			func() float64 { return float64(p.Stats().RejectedTasks) },
		),
	)
}
