// Package metrics holds the service's Prometheus collectors on a private
// registry. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry           *prometheus.Registry
	requests           *prometheus.CounterVec
	latency            *prometheus.HistogramVec
	formsCreated       prometheus.Counter
	responsesSubmitted prometheus.Counter
	submitRejected     prometheus.Counter
	exports            *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oxiforms",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "oxiforms",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		formsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oxiforms",
			Name:      "forms_created_total",
			Help:      "Forms created.",
		}),
		responsesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oxiforms",
			Name:      "responses_submitted_total",
			Help:      "Responses accepted.",
		}),
		submitRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "oxiforms",
			Name:      "responses_rejected_total",
			Help:      "Submissions rejected by validation.",
		}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "oxiforms",
			Name:      "exports_total",
			Help:      "Response exports by format.",
		}, []string{"format"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.formsCreated, m.responsesSubmitted, m.submitRejected, m.exports,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) FormCreated() {
	if m != nil {
		m.formsCreated.Inc()
	}
}

func (m *Metrics) ResponseSubmitted() {
	if m != nil {
		m.responsesSubmitted.Inc()
	}
}

func (m *Metrics) ResponseRejected() {
	if m != nil {
		m.submitRejected.Inc()
	}
}

func (m *Metrics) Exported(format string) {
	if m != nil {
		m.exports.WithLabelValues(format).Inc()
	}
}
