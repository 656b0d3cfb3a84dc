package server

import (
	"net/http"
	"time"

	"github.com/iwvelando/renovation-forecast/internal/simulation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "renovation_"

	resultSuccess  = "success"
	resultError    = "error"
	resultRejected = "rejected"
)

// metrics holds the collectors exposed on /metrics. Each handler owns its
// registry so several handlers can coexist in one process.
type metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	projects *prometheus.CounterVec
	alerts   *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "api_requests_total",
				Help: "Total API requests by endpoint and result",
			},
			[]string{"endpoint", "result"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "api_latency_seconds",
				Help:    "API latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		projects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "projects_simulated_total",
				Help: "Total projects simulated by result",
			},
			[]string{"result"},
		),
		alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "alerts_total",
				Help: "Total advisory alerts raised by code",
			},
			[]string{"code"},
		),
	}
	m.registry.MustRegister(m.requests, m.latency, m.projects, m.alerts)
	return m
}

// observeRequest records one API call.
func (m *metrics) observeRequest(endpoint, result string, duration time.Duration) {
	m.requests.WithLabelValues(endpoint, result).Inc()
	m.latency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// observeOutcomes counts simulated and rejected projects and their alerts.
func (m *metrics) observeOutcomes(outcomes ...simulation.Outcome) {
	for _, o := range outcomes {
		if o.Err != nil || o.Result == nil {
			m.projects.WithLabelValues(resultRejected).Inc()
			continue
		}
		m.projects.WithLabelValues(resultSuccess).Inc()
		for _, a := range o.Result.Alerts {
			m.alerts.WithLabelValues(string(a.Code)).Inc()
		}
	}
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
