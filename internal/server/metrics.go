package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "gradientgen"

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry       *prometheus.Registry
	rendersTotal   *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	failuresTotal  *prometheus.CounterVec
	jobsInFlight   prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		rendersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "renders_total",
			Help:      "Total number of completed gradient renders",
		}, []string{"algorithm"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent painting a gradient",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"algorithm"}),
		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "render_failures_total",
			Help:      "Total number of render jobs that failed or were cancelled",
		}, []string{"state"}),
		jobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_in_flight",
			Help:      "Number of render jobs currently running",
		}),
	}
	registry.MustRegister(
		m.rendersTotal,
		m.renderDuration,
		m.failuresTotal,
		m.jobsInFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRender(algorithm string, elapsed time.Duration) {
	m.rendersTotal.WithLabelValues(algorithm).Inc()
	m.renderDuration.WithLabelValues(algorithm).Observe(elapsed.Seconds())
}

func (m *Metrics) observeFailure(state JobState) {
	m.failuresTotal.WithLabelValues(string(state)).Inc()
}
