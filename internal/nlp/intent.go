// Package nlp implements the four LLM-driven operations of the memory
// engine's natural-language pipeline: intent classification, document
// parsing (schema-directed and catalog-directed), query resolution, and
// answer synthesis. Every operation issues exactly one completion call
// and feeds the response through llm.StripMarkdownFences before parsing
// JSON out of it.
package nlp

import (
	"context"
	"encoding/json"

	"github.com/aetherxhub/ferridyn-memory/internal/llm"
)

// IntentKind tags whether an NL input is a store or a retrieve.
type IntentKind string

const (
	IntentRemember IntentKind = "remember"
	IntentRecall   IntentKind = "recall"
)

// Intent is the tagged classification result. Only Content is populated
// for Remember, only Query for Recall.
type Intent struct {
	Kind    IntentKind
	Content string
	Query   string
}

const classifyIntentSystemPrompt = `You classify a user's natural-language input as either storing a memory or recalling one.

Respond with exactly one line of JSON, no prose, no markdown fence:
{"intent":"remember","content":"..."} or {"intent":"recall","query":"..."}

Heuristics:
- A fact statement, with or without a command verb like "remember", "save", or "note", is "remember". Strip the command verb from content if present: "remember I have a meeting at noon" -> content "I have a meeting at noon".
- A question ("what is...", "who is...", "when did..."), an imperative retrieval ("show me...", "find..."), or a bare noun-phrase lookup ("Toby's email") is "recall". Use the input itself (minus the command verb) as query.
- If genuinely ambiguous, default to "remember".`

type intentResponse struct {
	Intent  string `json:"intent"`
	Content string `json:"content"`
	Query   string `json:"query"`
}

// ClassifyIntent asks the model to classify input as Remember or Recall.
func ClassifyIntent(ctx context.Context, client llm.Client, input string) (Intent, error) {
	raw, err := client.Complete(ctx, classifyIntentSystemPrompt, input)
	if err != nil {
		return Intent{}, err
	}

	stripped := llm.StripMarkdownFences(raw)
	var resp intentResponse
	if err := json.Unmarshal([]byte(stripped), &resp); err != nil {
		return Intent{}, llm.Parse("classify intent: invalid JSON", err)
	}

	switch resp.Intent {
	case string(IntentRecall):
		return Intent{Kind: IntentRecall, Query: resp.Query}, nil
	case string(IntentRemember):
		return Intent{Kind: IntentRemember, Content: resp.Content}, nil
	default:
		// Ambiguous or malformed tag: default to remember per the
		// heuristic, treating the raw input as the content.
		return Intent{Kind: IntentRemember, Content: input}, nil
	}
}
