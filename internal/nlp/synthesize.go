package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aetherxhub/ferridyn-memory/internal/kv"
	"github.com/aetherxhub/ferridyn-memory/internal/llm"
)

const noRelevantData = "NO_RELEVANT_DATA"

const synthesizeAnswerSystemPrompt = `You answer a user's question using only the retrieved memory items below. Respond in 1-3 sentences of plain prose, with no hedging ("it seems", "it looks like"). If none of the items actually answer the question, respond with exactly the literal text NO_RELEVANT_DATA and nothing else.`

// SynthesizeAnswer turns a query and its retrieved items into natural
// prose, or nil if the model found nothing relevant. Unlike the other NL
// operations, this one's response is not JSON — it's the literal
// NO_RELEVANT_DATA sentinel, or free text.
func SynthesizeAnswer(ctx context.Context, client llm.Client, queryText string, items []kv.Item) (*string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nRetrieved items:\n", queryText)
	for _, item := range items {
		encoded, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("nlp: encode item for synthesis: %w", err)
		}
		b.Write(encoded)
		b.WriteByte('\n')
	}

	raw, err := client.Complete(ctx, synthesizeAnswerSystemPrompt, b.String())
	if err != nil {
		return nil, err
	}

	stripped := llm.StripMarkdownFences(raw)
	if stripped == noRelevantData {
		return nil, nil
	}
	return &stripped, nil
}
