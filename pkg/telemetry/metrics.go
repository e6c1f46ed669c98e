// Package telemetry exposes the gateway's Prometheus metrics.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	requestsTotal     *prometheus.CounterVec
	rejectionsTotal   *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	complexityScore   prometheus.Histogram
	downstreamRetries prometheus.Counter
	rateIdentities    prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a metrics instance backed by a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_requests_total",
				Help: "Requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		rejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_rejections_total",
				Help: "Pre-execution rejections by reason",
			},
			[]string{"reason"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_request_duration_seconds",
				Help:    "End-to-end request handling latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		complexityScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gateway_query_complexity",
				Help:    "Computed cost of admitted queries",
				Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200, 500},
			},
		),
		downstreamRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_downstream_retries_total",
				Help: "Retry attempts against downstream services",
			},
		),
		rateIdentities: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "gateway_rate_identities",
				Help: "Identities currently tracked by the rate limiter",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.requestsTotal,
		m.rejectionsTotal,
		m.requestDuration,
		m.complexityScore,
		m.downstreamRetries,
		m.rateIdentities,
		collectors.NewGoCollector(),
	)

	return m
}

// RecordRequest counts one handled request and its latency.
func (m *Metrics) RecordRequest(operation, outcome string, seconds float64) {
	m.requestsTotal.WithLabelValues(operation, outcome).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordRejection counts a pre-execution rejection.
func (m *Metrics) RecordRejection(reason string) {
	m.rejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordComplexity observes the computed cost of an admitted query.
func (m *Metrics) RecordComplexity(score int) {
	m.complexityScore.Observe(float64(score))
}

// RecordRetry counts one downstream retry attempt.
func (m *Metrics) RecordRetry() {
	m.downstreamRetries.Inc()
}

// SetRateIdentities reports the tracked identity count.
func (m *Metrics) SetRateIdentities(n int) {
	m.rateIdentities.Set(float64(n))
}

// Handler returns the scrape endpoint for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
