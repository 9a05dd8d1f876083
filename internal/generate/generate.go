// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate is the boundary to the generation service. It renders
// prompts for the four pipeline actions, calls a pluggable AI backend with
// retries, and normalizes whatever comes back into a usable shape: malformed
// payloads become empty results rather than errors.
package generate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/content-engine/internal/logger"
	"github.com/pdiddy/content-engine/internal/metrics"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Action tags a generation call.
type Action string

const (
	ActionDeepDive    Action = "deep_dive"
	ActionRefinePoint Action = "refine_point"
	ActionOutline     Action = "outline"
	ActionDraft       Action = "draft"
)

// Prompt is what a backend sends to the model.
type Prompt struct {
	Action Action
	System string
	User   string

	// Subject is the hook, or the point text for refine_point. Offline
	// backends use it to fabricate plausible output.
	Subject string
}

// Backend abstracts the Generative AI API so tests and offline runs can
// supply their own implementation.
type Backend interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Request carries the topic, strategy and prior artifacts for one call.
type Request struct {
	Hook     string
	Strategy types.StrategyProfile

	// Context is the global session context, or for refine_point the
	// combined refine instruction.
	Context string

	Research []types.ResearchPoint
	Insights []types.ResearchPoint
	Outline  []types.ResearchPoint

	// PointText and PointList identify the point being refined.
	PointText string
	PointList string
}

// DeepDiveResult is the normalized deep_dive payload.
type DeepDiveResult struct {
	Research []string `json:"research"`
	Insights []string `json:"insights"`
}

// ErrNoBackend is returned by NewClient callers that forgot a backend.
var ErrNoBackend = errors.New("generation backend is required")

// backoffBase controls the base duration for exponential backoff between
// failed attempts. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// Client wraps a Backend with retries, timeouts, logging and metrics.
type Client struct {
	backend    Backend
	maxRetries int
	timeout    time.Duration
	log        logger.Logger
	metrics    *metrics.Metrics
}

// Option customizes a Client.
type Option func(*Client)

// WithMaxRetries sets the number of retries after a failed attempt.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger attaches a logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient wires a backend into a Client.
func NewClient(backend Backend, opts ...Option) (*Client, error) {
	if backend == nil {
		return nil, ErrNoBackend
	}
	c := &Client{
		backend:    backend,
		maxRetries: 3,
		log:        logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DeepDive researches the hook and returns research findings and insights.
func (c *Client) DeepDive(ctx context.Context, req Request) (DeepDiveResult, error) {
	raw, elapsed, err := c.call(ctx, ActionDeepDive, req)
	if err != nil {
		return DeepDiveResult{}, err
	}
	res, ok := ParseDeepDive(raw)
	c.record(ActionDeepDive, ok, elapsed)
	return res, nil
}

// RefinePoint regenerates the text of a single point.
func (c *Client) RefinePoint(ctx context.Context, req Request) (string, error) {
	raw, elapsed, err := c.call(ctx, ActionRefinePoint, req)
	if err != nil {
		return "", err
	}
	text, ok := ParseRefine(raw)
	c.record(ActionRefinePoint, ok, elapsed)
	return text, nil
}

// Outline proposes section instructions from the research.
func (c *Client) Outline(ctx context.Context, req Request) ([]string, error) {
	raw, elapsed, err := c.call(ctx, ActionOutline, req)
	if err != nil {
		return nil, err
	}
	sections, ok := ParseOutline(raw)
	c.record(ActionOutline, ok, elapsed)
	return sections, nil
}

// Draft writes the full piece from the approved outline.
func (c *Client) Draft(ctx context.Context, req Request) (string, error) {
	raw, elapsed, err := c.call(ctx, ActionDraft, req)
	if err != nil {
		return "", err
	}
	text := ParseDraft(raw)
	c.record(ActionDraft, text != "", elapsed)
	return text, nil
}

func (c *Client) record(action Action, ok bool, elapsed time.Duration) {
	outcome := metrics.OutcomeSuccess
	if !ok {
		outcome = metrics.OutcomeMalformed
		c.log.Warn("generation returned an unusable payload", logger.String("action", string(action)))
	}
	c.metrics.ObserveGeneration(string(action), outcome, elapsed)
}

// call renders the prompt and invokes the backend with exponential backoff.
func (c *Client) call(ctx context.Context, action Action, req Request) (string, time.Duration, error) {
	prompt, err := RenderPrompt(action, req)
	if err != nil {
		return "", 0, fmt.Errorf("rendering %s prompt: %w", action, err)
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", time.Since(start), ctx.Err()
			case <-time.After(backoff):
			}
		}

		raw, err := c.attempt(ctx, prompt)
		if err == nil {
			c.log.Debug("generation complete",
				logger.String("action", string(action)),
				logger.Int("attempts", attempt+1),
				logger.Duration("elapsed", time.Since(start)))
			return raw, time.Since(start), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		c.log.Warn("generation attempt failed",
			logger.String("action", string(action)),
			logger.Int("attempt", attempt+1),
			logger.Error(err))
	}

	elapsed := time.Since(start)
	c.metrics.ObserveGeneration(string(action), metrics.OutcomeFailure, elapsed)
	return "", elapsed, fmt.Errorf("%s after %d retries: %w", action, c.maxRetries, lastErr)
}

func (c *Client) attempt(ctx context.Context, prompt Prompt) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	raw, err := c.backend.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}
