// Package observability exposes Prometheus metrics and OpenTelemetry
// tracing for the questionnaire builder.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics of the service. Each collector
// owns its registry so tests can create as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Application metrics
	Operations         *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	Imports            *prometheus.CounterVec
	ImportDiagnostics  *prometheus.CounterVec
	ExportedRecords    prometheus.Histogram
	ConnectionRejected *prometheus.CounterVec
	Sessions           prometheus.Gauge
	EventsPublished    *prometheus.CounterVec
	ConfigReloads      *prometheus.CounterVec
}

// NewCollector creates a collector with its metrics registered under
// namespace.
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
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Questionnaire operations by outcome",
			},
			[]string{"operation", "status"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Questionnaire operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		Imports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imports_total",
				Help:      "Record list imports by outcome",
			},
			[]string{"outcome"},
		),
		ImportDiagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "import_diagnostics_total",
				Help:      "Import diagnostics by code",
			},
			[]string{"code"},
		),
		ExportedRecords: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "export_records",
				Help:      "Number of records per export",
				Buckets:   prometheus.ExponentialBuckets(8, 2, 10),
			},
		),
		ConnectionRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connection_rejections_total",
				Help:      "Rejected connection proposals by rule",
			},
			[]string{"code"},
		),
		Sessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Questionnaire sessions held in memory",
			},
		),
		EventsPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Domain events published by type",
			},
			[]string{"type"},
		),
		ConfigReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Domain configuration reloads by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.Operations,
		c.OperationDuration,
		c.Imports,
		c.ImportDiagnostics,
		c.ExportedRecords,
		c.ConnectionRejected,
		c.Sessions,
		c.EventsPublished,
		c.ConfigReloads,
	)
	return c
}

// ObserveOperation records an application operation
func (c *Collector) ObserveOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.Operations.WithLabelValues(operation, status).Inc()
	c.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveImport records an import outcome and its diagnostics
func (c *Collector) ObserveImport(outcome string, diagnostics map[string]int) {
	c.Imports.WithLabelValues(outcome).Inc()
	for code, n := range diagnostics {
		c.ImportDiagnostics.WithLabelValues(code).Add(float64(n))
	}
}

// ObserveExport records the size of an export
func (c *Collector) ObserveExport(records int) {
	c.ExportedRecords.Observe(float64(records))
}

// ObserveConnectionRejected counts a rejected connection
func (c *Collector) ObserveConnectionRejected(code string) {
	c.ConnectionRejected.WithLabelValues(code).Inc()
}

// SetSessions sets the live session gauge
func (c *Collector) SetSessions(n int) {
	c.Sessions.Set(float64(n))
}

// ObserveEvent counts a published domain event
func (c *Collector) ObserveEvent(eventType string) {
	c.EventsPublished.WithLabelValues(eventType).Inc()
}

// ObserveConfigReload counts a configuration reload attempt
func (c *Collector) ObserveConfigReload(err error) {
	result := "applied"
	if err != nil {
		result = "rejected"
	}
	c.ConfigReloads.WithLabelValues(result).Inc()
}

// ObserveHTTP records a served request
func (c *Collector) ObserveHTTP(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
