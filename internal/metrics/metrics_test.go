// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveGeneration(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveGeneration("deep_dive", OutcomeSuccess, 2*time.Second)
	m.ObserveGeneration("deep_dive", OutcomeSuccess, time.Second)
	m.ObserveGeneration("outline", OutcomeFailure, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GenerationCalls.WithLabelValues("deep_dive", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationCalls.WithLabelValues("outline", OutcomeFailure)))
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.PersistFailed()
	m.GateBlocked()
	m.GateBlocked()
	m.StaleDiscarded()
	m.Transition("archive")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GateBlocks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleResults))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageTransitions.WithLabelValues("archive")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveGeneration("draft", OutcomeSuccess, time.Second)
	m.PersistFailed()
	m.GateBlocked()
	m.StaleDiscarded()
	m.Transition("publish")
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.GateBlocked()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "content_engine_strategy_gate_blocks_total 1"))
}
