// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus instrumentation for generation calls,
// write-through persistence and strategy gates. A nil *Metrics is valid and
// records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "content_engine"

// Generation call outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeMalformed = "malformed"
)

// Metrics holds the content-engine collectors.
type Metrics struct {
	GenerationCalls    *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	PersistFailures    prometheus.Counter
	GateBlocks         prometheus.Counter
	StaleResults       prometheus.Counter
	StageTransitions   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. Passing a fresh
// prometheus.NewRegistry() keeps tests independent of the global registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GenerationCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_calls_total",
			Help:      "Generation service calls by action and outcome.",
		}, []string{"action", "outcome"}),
		GenerationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Latency of generation service calls, retries included.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"action"}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Write-through updates that failed and were kept in memory only.",
		}),
		GateBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strategy_gate_blocks_total",
			Help:      "Outline to draft transitions blocked by the strategy gate.",
		}),
		StaleResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_results_total",
			Help:      "Generation results discarded because the session closed or the point changed.",
		}),
		StageTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_transitions_total",
			Help:      "Board actions applied, by action.",
		}, []string{"action"}),
	}
	reg.MustRegister(
		m.GenerationCalls,
		m.GenerationDuration,
		m.PersistFailures,
		m.GateBlocks,
		m.StaleResults,
		m.StageTransitions,
	)
	return m
}

// ObserveGeneration records one generation call.
func (m *Metrics) ObserveGeneration(action, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.GenerationCalls.WithLabelValues(action, outcome).Inc()
	m.GenerationDuration.WithLabelValues(action).Observe(d.Seconds())
}

// PersistFailed records a failed write-through.
func (m *Metrics) PersistFailed() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

// GateBlocked records a blocked outline to draft transition.
func (m *Metrics) GateBlocked() {
	if m == nil {
		return
	}
	m.GateBlocks.Inc()
}

// StaleDiscarded records a discarded generation result.
func (m *Metrics) StaleDiscarded() {
	if m == nil {
		return
	}
	m.StaleResults.Inc()
}

// Transition records a board action.
func (m *Metrics) Transition(action string) {
	if m == nil {
		return
	}
	m.StageTransitions.WithLabelValues(action).Inc()
}

// Handler returns the /metrics handler for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
