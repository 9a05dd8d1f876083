// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// EchoBackend fabricates deterministic output without calling a model. It
// lets the whole pipeline run offline.
type EchoBackend struct{}

// Complete returns a well-formed payload for the prompt's action.
func (EchoBackend) Complete(_ context.Context, prompt Prompt) (string, error) {
	subject := strings.TrimSpace(prompt.Subject)
	if subject == "" {
		subject = "the topic"
	}

	var payload any
	switch prompt.Action {
	case ActionDeepDive:
		payload = DeepDiveResult{
			Research: []string{
				"Background: how " + subject + " came to matter",
				"Data: the most cited numbers on " + subject,
				"Counterpoint: the strongest case against " + subject,
			},
			Insights: []string{
				"Most coverage of " + subject + " ignores the reader's day-to-day cost",
				"The contrarian angle on " + subject + " is under-served",
			},
		}
	case ActionOutline:
		payload = map[string][]string{"sections": {
			"Open with the reader's pain around " + subject,
			"Lay out the evidence",
			"Address the strongest counterpoint",
			"Close with one concrete next step",
		}}
	case ActionRefinePoint:
		payload = map[string]string{"text": subject + " (sharpened)"}
	case ActionDraft:
		return fmt.Sprintf("# %s\n\nThis draft was produced offline.\n\n%s", subject, prompt.User), nil
	default:
		return "", fmt.Errorf("echo backend: unknown action %q", prompt.Action)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
