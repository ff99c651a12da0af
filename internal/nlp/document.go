package nlp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aetherxhub/ferridyn-memory/internal/kv"
	"github.com/aetherxhub/ferridyn-memory/internal/llm"
)

// todayContext formats now the way both parsing prompts expect it:
// "today: YYYY-MM-DD (Weekday)" in local time, used by the model to
// resolve relative dates like "tomorrow" or "next week" to ISO 8601.
func todayContext(now time.Time) string {
	return fmt.Sprintf("today: %s (%s)", now.Format("2006-01-02"), now.Format("Monday"))
}

// nonSystemAttributes filters out the auto-managed created_at/expires_at
// attributes a document-parsing prompt must never be asked to emit.
func nonSystemAttributes(attrs []kv.AttributeDef) []kv.AttributeDef {
	out := make([]kv.AttributeDef, 0, len(attrs))
	for _, a := range attrs {
		if a.Name == "created_at" || a.Name == "expires_at" {
			continue
		}
		out = append(out, a)
	}
	return out
}

func describeAttributes(attrs []kv.AttributeDef) string {
	var b strings.Builder
	for _, a := range attrs {
		fmt.Fprintf(&b, "- %s (%s)\n", a.Name, a.Type)
	}
	return b.String()
}

const documentParsingRules = `Rules:
- "key" must be short, lowercase, and hyphenated (e.g. "team-standup-notes").
- Use null for any attribute you cannot confidently extract; never omit a known attribute field.
- Resolve relative dates ("tomorrow", "next week", "in three days") against the supplied today context, and emit them in ISO 8601 (YYYY-MM-DD).
- Never emit "created_at" or "expires_at" — those are managed automatically.
- Respond with exactly one line of JSON, no prose, no markdown fence.`

// ParseDocument extracts a {key, attr...} document from input against a
// single, already-chosen category's schema (the caller supplies it;
// system attributes are filtered out automatically).
func ParseDocument(ctx context.Context, client llm.Client, schema kv.PartitionSchemaInfo, now time.Time, input string) (kv.Item, error) {
	attrs := nonSystemAttributes(schema.Attributes)

	system := fmt.Sprintf(
		"You extract a structured memory document for the category %q (%s).\n\nAttributes:\n%s\n%s\n\n%s",
		schema.Prefix, schema.Description, describeAttributes(attrs), todayContext(now), documentParsingRules,
	)

	raw, err := client.Complete(ctx, system, input)
	if err != nil {
		return nil, err
	}

	stripped := llm.StripMarkdownFences(raw)
	var doc kv.Item
	if err := json.Unmarshal([]byte(stripped), &doc); err != nil {
		return nil, llm.Parse("parse document: invalid JSON", err)
	}
	if _, ok := doc["key"]; !ok {
		return nil, llm.Parse("parse document: response missing \"key\"", nil)
	}
	return doc, nil
}

// ParseDocumentCatalog is ParseDocument's catalog-directed sibling: the
// prompt enumerates every schema in schemas and asks the model to choose
// a category as well as extract the document. An unrecognized category
// in the response falls back to "notes".
func ParseDocumentCatalog(ctx context.Context, client llm.Client, schemas []kv.PartitionSchemaInfo, now time.Time, input string) (category string, doc kv.Item, err error) {
	var b strings.Builder
	b.WriteString("You choose the best-fitting category for a memory and extract its structured document.\n\nCategories:\n")
	byName := make(map[string]kv.PartitionSchemaInfo, len(schemas))
	for _, s := range schemas {
		byName[s.Prefix] = s
		fmt.Fprintf(&b, "\n- %q: %s\n  Attributes:\n%s", s.Prefix, s.Description, describeAttributes(nonSystemAttributes(s.Attributes)))
	}
	fmt.Fprintf(&b, "\n%s\n\n%s\n\nRespond with {\"category\":\"...\",\"key\":\"...\",<attr>:...}.", todayContext(now), documentParsingRules)

	raw, cerr := client.Complete(ctx, b.String(), input)
	if cerr != nil {
		return "", nil, cerr
	}

	stripped := llm.StripMarkdownFences(raw)
	var doc2 kv.Item
	if err := json.Unmarshal([]byte(stripped), &doc2); err != nil {
		return "", nil, llm.Parse("parse document catalog: invalid JSON", err)
	}

	chosen, _ := doc2["category"].(string)
	if _, ok := byName[chosen]; !ok {
		chosen = "notes"
	}
	delete(doc2, "category")

	if _, ok := doc2["key"]; !ok {
		return "", nil, llm.Parse("parse document catalog: response missing \"key\"", nil)
	}
	return chosen, doc2, nil
}
