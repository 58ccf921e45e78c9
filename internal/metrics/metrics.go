// Package metrics exposes Prometheus instrumentation for panels and the
// outbound search client.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "molpanel"

// outcomeNoop marks retrievals that never started; they get no duration sample.
const outcomeNoop = "noop"

// Metrics owns a private registry so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	retrievals        *prometheus.CounterVec
	retrievalDuration *prometheus.HistogramVec
	upstreamDuration  *prometheus.HistogramVec
	upstreamErrors    *prometheus.CounterVec
	activePanels      prometheus.Gauge
}

// New registers every collector on a fresh registry. With runtime set, Go
// and process collectors are added too.
func New(runtime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if runtime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
		)
	}

	m := &Metrics{
		registry: reg,
		retrievals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrievals_total",
			Help:      "Panel retrievals by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		retrievalDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Time from trigger to resolution of a panel retrieval.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"strategy"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Outbound search request latency by category.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"category"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Failed outbound search requests by category.",
		}, []string{"category"}),
		activePanels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_panels",
			Help:      "Panels currently held in memory.",
		}),
	}

	reg.MustRegister(m.retrievals, m.retrievalDuration, m.upstreamDuration, m.upstreamErrors, m.activePanels)
	return m
}

// ObserveRetrieval records one finished retrieval.
func (m *Metrics) ObserveRetrieval(strategy, outcome string, d time.Duration) {
	m.retrievals.WithLabelValues(strategy, outcome).Inc()
	if outcome != outcomeNoop {
		m.retrievalDuration.WithLabelValues(strategy).Observe(d.Seconds())
	}
}

// ObserveUpstream records one outbound request.
func (m *Metrics) ObserveUpstream(category string, d time.Duration, err error) {
	m.upstreamDuration.WithLabelValues(category).Observe(d.Seconds())
	if err != nil {
		m.upstreamErrors.WithLabelValues(category).Inc()
	}
}

// SetActivePanels sets the live panel count.
func (m *Metrics) SetActivePanels(n int) {
	m.activePanels.Set(float64(n))
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
