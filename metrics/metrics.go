// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Vote outcomes
const (
	OutcomeRecorded = "recorded"
	OutcomeUpdated  = "updated"
	OutcomeRejected = "rejected"
)

// Metrics holds all Prometheus metrics for the application.
// Each instance owns its registry so tests can build as many as they like.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	VotesSubmitted  *prometheus.CounterVec
	RolesCreated    prometheus.Counter
	ResultsViews    *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all metrics, plus Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		VotesSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hirevote_votes_submitted_total",
			Help: "Total number of vote submissions by outcome (recorded, updated, rejected)",
		}, []string{"outcome"}),
		RolesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "hirevote_roles_created_total",
			Help: "Total number of roles created",
		}),
		ResultsViews: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hirevote_results_views_total",
			Help: "Total number of results requests, split by whether votes were disclosed",
		}, []string{"disclosed"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hirevote_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "code"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// IncrementVotes records a vote submission outcome.
func (m *Metrics) IncrementVotes(outcome string) {
	if m == nil {
		return
	}
	m.VotesSubmitted.WithLabelValues(outcome).Inc()
}

// IncrementRolesCreated records a successful role creation.
func (m *Metrics) IncrementRolesCreated() {
	if m == nil {
		return
	}
	m.RolesCreated.Inc()
}

// IncrementResultsViews records a results request.
func (m *Metrics) IncrementResultsViews(disclosed bool) {
	if m == nil {
		return
	}
	m.ResultsViews.WithLabelValues(strconv.FormatBool(disclosed)).Inc()
}

// ObserveRequest records the duration of an HTTP request.
// Call with time.Now() taken at the start of the request.
func (m *Metrics) ObserveRequest(method string, code int, start time.Time) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, strconv.Itoa(code)).Observe(time.Since(start).Seconds())
}
