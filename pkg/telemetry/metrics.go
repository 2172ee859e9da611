package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "tau").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for handler and validation durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry receives the collectors. When nil a private registry is
	// created and served by Handler.
	Registry prometheus.Registerer

	// Gatherer is served by Handler. Defaults to Registry when it is a
	// *prometheus.Registry.
	Gatherer prometheus.Gatherer
}

// MetricsOption configures the collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry registers the collectors on registry and serves gatherer.
func WithRegistry(registry prometheus.Registerer, gatherer prometheus.Gatherer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
		c.Gatherer = gatherer
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "tau",
		Buckets:   prometheus.DefBuckets,
	}
}

// Metrics holds the collectors for one App.
type Metrics struct {
	gatherer prometheus.Gatherer

	eventsTotal        *prometheus.CounterVec
	handlerDuration    *prometheus.HistogramVec
	handlerErrors      *prometheus.CounterVec
	inboundDropped     *prometheus.CounterVec
	broadcastsTotal    *prometheus.CounterVec
	deliveryFailures   prometheus.Counter
	activeConns        prometheus.Gauge
	navigationsTotal   *prometheus.CounterVec
	reloadCycles       *prometheus.CounterVec
	validationDuration prometheus.Histogram
}

// NewMetrics creates and registers the collectors.
//
// Metrics collected:
//   - tau_events_total: dispatched events by kind and status
//   - tau_handler_duration_seconds: handler execution time by kind
//   - tau_handler_errors_total: handler failures by kind and error type
//   - tau_inbound_dropped_total: inbound frames ignored by reason
//   - tau_broadcasts_total: broadcast messages by type
//   - tau_delivery_failures_total: failed sends to a single connection
//   - tau_active_connections: open client connections
//   - tau_navigations_total: navigations by status
//   - tau_reload_cycles_total: reload cycles by outcome
//   - tau_validation_duration_seconds: time spent validating changed sources
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	if config.Registry == nil {
		reg := prometheus.NewRegistry()
		config.Registry = reg
		config.Gatherer = reg
	}
	if config.Gatherer == nil {
		if g, ok := config.Registry.(prometheus.Gatherer); ok {
			config.Gatherer = g
		}
	}

	factory := promauto.With(config.Registry)

	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}

	return &Metrics{
		gatherer: config.Gatherer,

		eventsTotal: counterVec("events_total",
			"Total number of UI events dispatched", "kind", "status"),

		handlerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "handler_duration_seconds",
			Help:        "Event handler execution time in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),

		handlerErrors: counterVec("handler_errors_total",
			"Total number of event handler failures", "kind", "error_type"),

		inboundDropped: counterVec("inbound_dropped_total",
			"Inbound client frames that were ignored", "reason"),

		broadcastsTotal: counterVec("broadcasts_total",
			"Total number of messages broadcast to clients", "type"),

		deliveryFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "delivery_failures_total",
			Help:        "Sends that failed and dropped the connection",
			ConstLabels: config.ConstLabels,
		}),

		activeConns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_connections",
			Help:        "Number of open client connections",
			ConstLabels: config.ConstLabels,
		}),

		navigationsTotal: counterVec("navigations_total",
			"Total number of navigations", "status"),

		reloadCycles: counterVec("reload_cycles_total",
			"Reload cycles by outcome", "outcome"),

		validationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "validation_duration_seconds",
			Help:        "Time spent validating changed sources",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Gatherer returns the gatherer backing Handler.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return nil
	}
	return m.gatherer
}

// RecordEvent records one dispatched event.
func (m *Metrics) RecordEvent(kind, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(kind, status).Inc()
	if d > 0 {
		m.handlerDuration.WithLabelValues(kind).Observe(d.Seconds())
	}
}

// RecordHandlerError records a handler that returned an error or panicked.
func (m *Metrics) RecordHandlerError(kind, errorType string) {
	if m == nil {
		return
	}
	m.handlerErrors.WithLabelValues(kind, errorType).Inc()
}

// RecordInboundDropped records an inbound frame that was ignored.
func (m *Metrics) RecordInboundDropped(reason string) {
	if m == nil {
		return
	}
	m.inboundDropped.WithLabelValues(reason).Inc()
}

// RecordBroadcast records one broadcast of msgType.
func (m *Metrics) RecordBroadcast(msgType string) {
	if m == nil {
		return
	}
	m.broadcastsTotal.WithLabelValues(msgType).Inc()
}

// RecordDeliveryFailure records a failed send.
func (m *Metrics) RecordDeliveryFailure() {
	if m == nil {
		return
	}
	m.deliveryFailures.Inc()
}

// ConnOpened increments the active connection gauge.
func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.activeConns.Inc()
}

// ConnClosed decrements the active connection gauge.
func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.activeConns.Dec()
}

// RecordNavigation records a navigation outcome.
func (m *Metrics) RecordNavigation(status string) {
	if m == nil {
		return
	}
	m.navigationsTotal.WithLabelValues(status).Inc()
}

// RecordReloadCycle records the outcome of one reload cycle.
func (m *Metrics) RecordReloadCycle(outcome string) {
	if m == nil {
		return
	}
	m.reloadCycles.WithLabelValues(outcome).Inc()
}

// ObserveValidation records how long a validation took.
func (m *Metrics) ObserveValidation(d time.Duration) {
	if m == nil {
		return
	}
	m.validationDuration.Observe(d.Seconds())
}
