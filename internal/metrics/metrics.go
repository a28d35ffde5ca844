// Package metrics holds the prometheus collectors for HTTP traffic and
// backing-table calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	tableOps     *prometheus.CounterVec
	tableLatency *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "backoffice",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		tableOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "backoffice",
			Name:      "table_operations_total",
			Help:      "Backing table calls by backend, operation and outcome.",
		}, []string{"backend", "op", "outcome"}),
		tableLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "backoffice",
			Name:      "table_operation_duration_seconds",
			Help:      "Backing table call latency.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"backend", "op"}),
	}
	reg.MustRegister(m.httpRequests, m.httpDuration, m.tableOps, m.tableLatency)
	return m
}

func (m *Metrics) RecordHTTPRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveTable returns a function to call with the operation's error when it
// finishes. Safe on a nil *Metrics.
func (m *Metrics) ObserveTable(backend, op string) func(error) {
	start := time.Now()
	return func(err error) {
		if m == nil {
			return
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		m.tableOps.WithLabelValues(backend, op, outcome).Inc()
		m.tableLatency.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
	}
}
