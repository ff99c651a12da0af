package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aetherxhub/ferridyn-memory/internal/kv"
	"github.com/aetherxhub/ferridyn-memory/internal/llm"
	"github.com/aetherxhub/ferridyn-memory/internal/query"
)

const maxSampledKeys = 20

// SchemaSample pairs a partition schema with a small sample of existing
// sort keys in that category, used to give the resolver prompt concrete
// begins-with candidates instead of asking it to guess blind.
type SchemaSample struct {
	Schema      kv.PartitionSchemaInfo
	SampleKeys  []string // truncated to maxSampledKeys by the caller
}

type resolveResponse struct {
	Type      string `json:"type"`
	Category  string `json:"category"`
	Key       string `json:"key"`
	KeyPrefix *string `json:"key_prefix"`
	IndexName string `json:"index_name"`
	KeyValue  any    `json:"key_value"`
}

const resolveQuerySystemPromptHeader = `You plan the cheapest retrieval for a natural-language query against a memory store.

Respond with exactly one line of JSON, no prose, no markdown fence, one of:
{"type":"exact","category":"...","key":"..."}
{"type":"scan","category":"...","key_prefix":null}
{"type":"scan","category":"...","key_prefix":"..."}
{"type":"index","category":"...","index_name":"...","key_value":...}

Use "exact" only when a sampled key clearly matches the query. Use "scan" with a key_prefix for begins-with matches against sampled keys. Use "scan" with key_prefix null only when the query needs the whole category. Use "index" only for attribute-value lookups where the attribute has a known index.`

func describeSamples(samples []SchemaSample, indexes []kv.IndexInfo) string {
	var b strings.Builder
	for _, s := range samples {
		fmt.Fprintf(&b, "\nCategory %q: %s\n", s.Schema.Prefix, s.Schema.Description)
		keys := s.SampleKeys
		if len(keys) > maxSampledKeys {
			keys = keys[:maxSampledKeys]
		}
		if len(keys) > 0 {
			fmt.Fprintf(&b, "  sample keys: %s\n", strings.Join(keys, ", "))
		}
	}
	if len(indexes) > 0 {
		b.WriteString("\nIndexes:\n")
		for _, idx := range indexes {
			fmt.Fprintf(&b, "- %s (category %q, attribute %q)\n", idx.Name, idx.PartitionSchema, idx.IndexKeyName)
		}
	}
	return b.String()
}

// ResolveQuery asks the model to plan a retrieval for queryText against
// the given schemas (with sampled keys) and indexes, returning the tagged
// ResolvedQuery the executor will run.
func ResolveQuery(ctx context.Context, client llm.Client, samples []SchemaSample, indexes []kv.IndexInfo, queryText string) (query.ResolvedQuery, error) {
	system := resolveQuerySystemPromptHeader + "\n" + describeSamples(samples, indexes)

	raw, err := client.Complete(ctx, system, queryText)
	if err != nil {
		return query.ResolvedQuery{}, err
	}

	stripped := llm.StripMarkdownFences(raw)
	var resp resolveResponse
	if err := json.Unmarshal([]byte(stripped), &resp); err != nil {
		return query.ResolvedQuery{}, llm.Parse("resolve query: invalid JSON", err)
	}

	switch resp.Type {
	case "exact":
		if resp.Category == "" || resp.Key == "" {
			return query.ResolvedQuery{}, llm.Parse("resolve query: exact plan missing category or key", nil)
		}
		return query.ExactLookup(resp.Category, resp.Key), nil
	case "scan":
		if resp.Category == "" {
			return query.ResolvedQuery{}, llm.Parse("resolve query: scan plan missing category", nil)
		}
		return query.PartitionScan(resp.Category, resp.KeyPrefix), nil
	case "index":
		if resp.Category == "" || resp.IndexName == "" || resp.KeyValue == nil {
			return query.ResolvedQuery{}, llm.Parse("resolve query: index plan missing category, index_name, or key_value", nil)
		}
		return query.IndexLookup(resp.Category, resp.IndexName, resp.KeyValue), nil
	default:
		return query.ResolvedQuery{}, llm.Parse(fmt.Sprintf("resolve query: unknown plan type %q", resp.Type), nil)
	}
}
