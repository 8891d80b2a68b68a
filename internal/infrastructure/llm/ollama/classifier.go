package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/officebrain/concierge/internal/core/domain"
)

const classifierSystemPrompt = `You classify workplace assistant queries.
Respond with a single JSON object and nothing else:
{"intent": "...", "confidence": 0.0, "entities": ["..."], "reasoning": "..."}
Allowed intents: event_lookup, policy_lookup, person_lookup, doc_search, content_summary, chat, clarify.`

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Format  string         `json:"format,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type classifierOutput struct {
	Intent     string   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Entities   []string `json:"entities"`
	Reasoning  string   `json:"reasoning"`
}

// Classify asks the generation model to label a query with an intent.
// Callers decide whether the returned confidence is high enough to act on.
func (c *Client) Classify(ctx context.Context, queryText string) (domain.IntentGuess, error) {
	req := generateRequest{
		Model:  c.genModel,
		Prompt: fmt.Sprintf("Query: %q", queryText),
		System: classifierSystemPrompt,
		Format: "json",
		Stream: false,
		Options: map[string]any{
			"temperature": 0.0,
		},
	}

	var resp generateResponse
	if err := c.postJSON(ctx, "/api/generate", req, &resp, "classify"); err != nil {
		return domain.IntentGuess{}, err
	}

	var out classifierOutput
	if err := json.Unmarshal([]byte(extractJSONObject(resp.Response)), &out); err != nil {
		return domain.IntentGuess{}, fmt.Errorf("parse classifier output: %w", err)
	}

	guess := domain.IntentGuess{
		Intent:     domain.Intent(strings.ToLower(strings.TrimSpace(out.Intent))),
		Confidence: out.Confidence,
		Entities:   entityMap(out.Entities),
		Reasoning:  out.Reasoning,
	}
	return guess, nil
}

// entityMap reduces the model's entity list to the keyed form the planner
// consumes. The first non-empty entity becomes the lookup subject.
func entityMap(entities []string) map[string]string {
	for _, e := range entities {
		if s := strings.TrimSpace(e); s != "" {
			return map[string]string{"subject": s}
		}
	}
	return nil
}
