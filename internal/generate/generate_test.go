// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/content-engine/internal/metrics"
	"github.com/pdiddy/content-engine/pkg/types"
)

// --- mock backends ---

type mockBackend struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	prompts  []Prompt
}

func (m *mockBackend) Complete(_ context.Context, p Prompt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompts = append(m.prompts, p)
	return m.response, m.err
}

// failNTimesBackend fails the first N calls, then succeeds.
type failNTimesBackend struct {
	failures  int
	callCount int
	response  string
}

func (f *failNTimesBackend) Complete(_ context.Context, _ Prompt) (string, error) {
	f.callCount++
	if f.callCount <= f.failures {
		return "", errors.New("transient error")
	}
	return f.response, nil
}

func TestMain(m *testing.M) {
	// Override backoff to avoid real sleeps in retry tests.
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

func testRequest() Request {
	return Request{
		Hook: "Remote work is quietly killing mentorship",
		Strategy: types.StrategyProfile{
			Outcome:  "authority",
			Audience: types.Audience{Role: "engineering managers", Pain: "juniors stall"},
		},
	}
}

func TestNewClientRequiresBackend(t *testing.T) {
	_, err := NewClient(nil)
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestDeepDive(t *testing.T) {
	m := &mockBackend{response: "```json\n{\"research\": [\"a\", \"b\"], \"insights\": [\"c\"]}\n```"}
	c, err := NewClient(m)
	require.NoError(t, err)

	res, err := c.DeepDive(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Research)
	assert.Equal(t, []string{"c"}, res.Insights)
	require.Len(t, m.prompts, 1)
	assert.Equal(t, ActionDeepDive, m.prompts[0].Action)
	assert.Equal(t, systemPrompt, m.prompts[0].System)
	assert.Contains(t, m.prompts[0].User, "engineering managers")
}

func TestDeepDiveMalformedIsEmpty(t *testing.T) {
	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	c, err := NewClient(&mockBackend{response: "I could not find anything."}, WithMetrics(met))
	require.NoError(t, err)

	res, err := c.DeepDive(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Empty(t, res.Research)
	assert.Empty(t, res.Insights)
	assert.Equal(t, 1.0, testutil.ToFloat64(met.GenerationCalls.WithLabelValues(string(ActionDeepDive), metrics.OutcomeMalformed)))
}

func TestRefinePoint(t *testing.T) {
	m := &mockBackend{response: `{"text": "Sharper point"}`}
	c, err := NewClient(m)
	require.NoError(t, err)

	req := testRequest()
	req.PointText = "Old point"
	req.PointList = "research"
	req.Context = "Author notes:\n- make it punchier"

	text, err := c.RefinePoint(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Sharper point", text)
	assert.Equal(t, "Old point", m.prompts[0].Subject)
	assert.Contains(t, m.prompts[0].User, "make it punchier")
}

func TestOutlineAndDraft(t *testing.T) {
	m := &mockBackend{response: `{"sections": ["Intro", "Body"]}`}
	c, err := NewClient(m)
	require.NoError(t, err)

	sections, err := c.Outline(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, []string{"Intro", "Body"}, sections)

	m.response = "# Title\n\nBody text."
	draft, err := c.Draft(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nBody text.", draft)
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	b := &failNTimesBackend{failures: 2, response: `{"text": "ok"}`}
	c, err := NewClient(b, WithMaxRetries(3))
	require.NoError(t, err)

	text, err := c.RefinePoint(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 3, b.callCount)
}

func TestRetryExhausted(t *testing.T) {
	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	m := &mockBackend{err: errors.New("boom")}
	c, err := NewClient(m, WithMaxRetries(2), WithMetrics(met))
	require.NoError(t, err)

	_, err = c.Outline(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, 3, m.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(met.GenerationCalls.WithLabelValues(string(ActionOutline), metrics.OutcomeFailure)))
}

func TestCanceledContextStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &mockBackend{err: context.Canceled}
	c, err := NewClient(m, WithMaxRetries(5))
	require.NoError(t, err)

	_, err = c.Draft(ctx, testRequest())
	require.Error(t, err)
	assert.Equal(t, 1, m.calls)
}

func TestRenderPromptUnknownAction(t *testing.T) {
	_, err := RenderPrompt(Action("nope"), Request{})
	assert.Error(t, err)
}

func TestRenderPromptMarksUnsetStrategy(t *testing.T) {
	p, err := RenderPrompt(ActionDeepDive, Request{Hook: "h"})
	require.NoError(t, err)
	assert.Contains(t, p.User, "Stance: (not set)")
	assert.Equal(t, "h", p.Subject)
}

func TestRenderPromptIncludesNotes(t *testing.T) {
	req := Request{
		Hook: "h",
		Outline: []types.ResearchPoint{
			{Text: "Section one", Notes: []string{"use the survey"}},
		},
	}
	p, err := RenderPrompt(ActionDraft, req)
	require.NoError(t, err)
	assert.True(t, strings.Contains(p.User, "- Section one\n  - author note: use the survey"))
}

func TestEchoBackendRoundTrip(t *testing.T) {
	c, err := NewClient(EchoBackend{})
	require.NoError(t, err)
	ctx := context.Background()

	res, err := c.DeepDive(ctx, testRequest())
	require.NoError(t, err)
	assert.Len(t, res.Research, 3)
	assert.Len(t, res.Insights, 2)

	sections, err := c.Outline(ctx, testRequest())
	require.NoError(t, err)
	assert.Len(t, sections, 4)

	req := testRequest()
	req.PointText = "A point"
	text, err := c.RefinePoint(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "A point (sharpened)", text)

	draft, err := c.Draft(ctx, testRequest())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(draft, "# Remote work"))
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.GenerationConfig
		secrets map[string]string
		want    any
		wantErr bool
	}{
		{name: "echo", cfg: types.GenerationConfig{AIConfig: types.AIConfig{Provider: "echo"}}, want: EchoBackend{}},
		{name: "claude from secret", cfg: types.GenerationConfig{AIConfig: types.AIConfig{Provider: "claude", Model: "m"}}, secrets: map[string]string{"anthropic-api-key": "k"}, want: &ClaudeBackend{}},
		{name: "claude missing key", cfg: types.GenerationConfig{AIConfig: types.AIConfig{Provider: "claude"}}, wantErr: true},
		{name: "openai", cfg: types.GenerationConfig{AIConfig: types.AIConfig{Provider: "openai", Model: "gpt-4o-mini", APIKey: "k"}}, want: &OpenAIBackend{}},
		{name: "openai missing model", cfg: types.GenerationConfig{AIConfig: types.AIConfig{Provider: "openai", APIKey: "k"}}, wantErr: true},
		{name: "unknown", cfg: types.GenerationConfig{AIConfig: types.AIConfig{Provider: "llama"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBackend(tt.cfg, tt.secrets)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, b)
		})
	}
}
