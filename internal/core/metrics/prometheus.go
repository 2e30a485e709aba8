// Package metrics provides Prometheus metrics for the admin reporting service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every reporting metric. A nil *Manager is valid and records
// nothing, so services can run without metrics wired.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Report pipeline
	sectionDuration *prometheus.HistogramVec
	sectionDegraded *prometheus.CounterVec
	reportsBuilt    *prometheus.CounterVec
	widgetRequests  *prometheus.CounterVec
	exports         *prometheus.CounterVec

	// Operational health
	healthScore    prometheus.Gauge
	storeConnected prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry registers metrics on reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(m *Manager) {
		if reg != nil {
			m.registry = reg
		}
	}
}

// WithHistogramBuckets sets custom histogram buckets for latency metrics.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithRuntimeCollectors adds the Go runtime and process collectors.
func WithRuntimeCollectors() Option {
	return func(m *Manager) {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// NewManager creates a new metrics manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "resume_admin",
		subsystem:        "reports",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.sectionDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "section_duration_seconds",
		Help:      "Time spent computing one report section",
		Buckets:   m.histogramBuckets,
	}, []string{"section"})

	m.sectionDegraded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "section_degraded_total",
		Help:      "Sections returned with one or more failed metrics",
	}, []string{"section"})

	m.reportsBuilt = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "built_total",
		Help:      "Reports built, by final state",
	}, []string{"state"})

	m.widgetRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "widget_requests_total",
		Help:      "Widget evaluations, by widget id and outcome",
	}, []string{"widget", "outcome"})

	m.exports = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "exports_total",
		Help:      "Export requests, by entity, format and outcome",
	}, []string{"entity", "format", "outcome"})

	m.healthScore = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "health_score",
		Help:      "Last computed 0-100 health score",
	})

	m.storeConnected = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "store_connected",
		Help:      "1 when the last store ping succeeded",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests, by method, route and status",
	}, []string{"method", "route", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   m.histogramBuckets,
	}, []string{"method", "route"})
}

// Registry exposes the underlying registry
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Manager) ObserveSection(section string, d time.Duration, degraded bool) {
	if m == nil {
		return
	}
	m.sectionDuration.WithLabelValues(section).Observe(d.Seconds())
	if degraded {
		m.sectionDegraded.WithLabelValues(section).Inc()
	}
}

func (m *Manager) RecordReport(state string) {
	if m == nil {
		return
	}
	m.reportsBuilt.WithLabelValues(state).Inc()
}

func (m *Manager) RecordWidget(widget, outcome string) {
	if m == nil {
		return
	}
	m.widgetRequests.WithLabelValues(widget, outcome).Inc()
}

func (m *Manager) RecordExport(entity, format, outcome string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(entity, format, outcome).Inc()
}

func (m *Manager) SetHealth(score int, connected bool) {
	if m == nil {
		return
	}
	m.healthScore.Set(float64(score))
	if connected {
		m.storeConnected.Set(1)
	} else {
		m.storeConnected.Set(0)
	}
}

func (m *Manager) RecordHTTPRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
