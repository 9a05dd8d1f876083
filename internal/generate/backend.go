// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/content-engine/internal/secrets"
	"github.com/pdiddy/content-engine/pkg/types"
)

// Supported providers.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderEcho   = "echo"
)

// NewBackend selects a backend from configuration. keys holds the API keys
// loaded by the secrets package.
func NewBackend(cfg types.GenerationConfig, keys map[string]string) (Backend, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderClaude, "anthropic", "":
		key := cfg.APIKey
		if key == "" {
			key = keys[secrets.AnthropicAPIKey]
		}
		if key == "" {
			return nil, fmt.Errorf("claude api key missing; set generation.api_key or .secrets/%s", secrets.AnthropicAPIKey)
		}
		return &ClaudeBackend{
			APIKey:    key,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Client:    &http.Client{Timeout: cfg.Timeout},
		}, nil
	case ProviderOpenAI:
		key := cfg.APIKey
		if key == "" {
			key = keys[secrets.OpenAIAPIKey]
		}
		return NewOpenAIBackend(key, cfg.Model, cfg.BaseURL)
	case ProviderEcho:
		return EchoBackend{}, nil
	}
	return nil, fmt.Errorf("unknown generation provider %q: use claude, openai, or echo", cfg.Provider)
}
