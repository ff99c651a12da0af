// Package lifecycle implements the memory engine's write pipeline and the
// two maintenance operations, promote and prune, described in
// SPEC_FULL.md §4.7.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/aetherxhub/ferridyn-memory/internal/backend"
	"github.com/aetherxhub/ferridyn-memory/internal/kv"
	"github.com/aetherxhub/ferridyn-memory/internal/llm"
	"github.com/aetherxhub/ferridyn-memory/internal/merr"
	"github.com/aetherxhub/ferridyn-memory/internal/nlp"
	"github.com/aetherxhub/ferridyn-memory/internal/schema"
	"github.com/aetherxhub/ferridyn-memory/internal/ttl"
)

// Engine is the lifecycle subsystem: write, promote, and prune, built on
// the backend façade and schema manager. Both CLI and MCP surfaces share
// one Engine per table/namespace.
type Engine struct {
	backend *backend.Backend
	schemas *schema.Manager
	table   string
}

// New builds a lifecycle Engine bound to one table.
func New(b *backend.Backend, s *schema.Manager, table string) *Engine {
	return &Engine{backend: b, schemas: s, table: table}
}

// WriteOptions parameterizes the write pipeline. Category is optional:
// when empty, the catalog-directed parse chooses one. TTL is an explicit
// override a surface may supply ahead of the NL parse. There is no key
// override: the item's key always comes from the NL parse.
type WriteOptions struct {
	Category string
	TTL      *time.Duration
	Input    string
	Client   llm.Client
	Now      time.Time
}

// autoInitIfEmpty re-runs EnsurePredefinedSchemas only when the catalog
// has zero schemas at all — SPEC_FULL.md §9 Open Question 2, resolved so
// a partially-populated catalog (some categories defined via `define`,
// others predefined) is never silently re-bootstrapped.
func (e *Engine) autoInitIfEmpty(ctx context.Context) error {
	count, err := e.schemas.SchemaCount(ctx)
	if err != nil {
		return err
	}
	if count == 0 {
		return e.schemas.EnsurePredefinedSchemas(ctx)
	}
	return nil
}

// Write runs the write pipeline: auto-init, category selection, document
// extraction, composition (created_at/expires_at, TTL policy), and the
// final upsert.
func (e *Engine) Write(ctx context.Context, opts WriteOptions) (kv.Item, error) {
	if err := e.autoInitIfEmpty(ctx); err != nil {
		return nil, err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var category string
	var doc kv.Item
	var schemaInfo *kv.PartitionSchemaInfo

	if opts.Category != "" {
		has, err := e.schemas.HasSchema(ctx, opts.Category)
		if err != nil {
			return nil, err
		}
		if !has {
			return nil, merr.Schema(fmt.Sprintf("category %q has no schema", opts.Category), nil)
		}
		info, err := e.schemas.GetSchema(ctx, opts.Category)
		if err != nil {
			return nil, err
		}
		schemaInfo = info
		parsed, err := nlp.ParseDocument(ctx, opts.Client, *schemaInfo, now, opts.Input)
		if err != nil {
			return nil, err
		}
		category, doc = opts.Category, parsed
	} else {
		schemas, err := e.schemas.ListSchemas(ctx)
		if err != nil {
			return nil, err
		}
		cat, parsed, err := nlp.ParseDocumentCatalog(ctx, opts.Client, schemas, now, opts.Input)
		if err != nil {
			return nil, err
		}
		category, doc = cat, parsed
		for _, s := range schemas {
			if s.Prefix == category {
				s := s
				schemaInfo = &s
				break
			}
		}
	}

	final := compose(category, doc, now)

	if schemaInfo != nil && schemaInfo.HasKeyFormat() {
		if key, ok := final["key"].(string); ok {
			if err := schema.ValidateKey(*schemaInfo, key); err != nil {
				return nil, err
			}
		}
	}

	applyTTLPolicy(final, category, opts.TTL)

	if err := e.backend.PutItem(ctx, e.table, final); err != nil {
		return nil, err
	}
	return final, nil
}

// compose builds the final document: category, key, every extracted
// attribute except those two, plus a freshly stamped created_at.
func compose(category string, doc kv.Item, now time.Time) kv.Item {
	final := kv.Item{"category": category}
	if key, ok := doc["key"]; ok {
		final["key"] = key
	}
	for k, v := range doc {
		if k == "key" || k == "category" {
			continue
		}
		final[k] = v
	}
	final["created_at"] = now.UTC().Format(time.RFC3339)
	return final
}

// applyTTLPolicy stamps expires_at per SPEC_FULL.md §4.1's priority:
// explicit ttl > category default (scratchpad/sessions/interactions) >
// events date-derived > none (long-term memory).
func applyTTLPolicy(doc kv.Item, category string, explicitTTL *time.Duration) {
	if explicitTTL != nil {
		doc["expires_at"] = ttl.ComputeExpiresAt(*explicitTTL)
		return
	}
	if d, ok := ttl.DefaultForCategory(category); ok {
		doc["expires_at"] = ttl.ComputeExpiresAt(d)
		return
	}
	if expiresAt, ok := ttl.AutoTTLFromDate(doc); ok {
		doc["expires_at"] = expiresAt
	}
}

// Promote strips an item's TTL (short-term -> long-term), optionally
// re-categorizing it. Same-category promotion is a plain copy-without-
// expiry; cross-category promotion re-runs schema-directed parsing
// against the target category and then deletes the original, which can
// leave duplicates if cancelled between the two backend calls (documented
// in SPEC_FULL.md §5, acceptable for a manually invoked operation).
func (e *Engine) Promote(ctx context.Context, category, key string, toCategory *string, client llm.Client, now time.Time) (kv.Item, error) {
	if now.IsZero() {
		now = time.Now()
	}

	item, ok, err := e.backend.GetItem(ctx, e.table, category, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, merr.InvalidParams(fmt.Sprintf("no item at %s/%s", category, key), nil)
	}

	if toCategory == nil || *toCategory == category {
		promoted := kv.Item{}
		for k, v := range item {
			promoted[k] = v
		}
		delete(promoted, "expires_at")
		promoted["created_at"] = now.UTC().Format(time.RFC3339)
		if err := e.backend.PutItem(ctx, e.table, promoted); err != nil {
			return nil, err
		}
		return promoted, nil
	}

	targetSchema, err := e.schemas.GetSchema(ctx, *toCategory)
	if err != nil {
		return nil, err
	}
	if targetSchema == nil {
		return nil, merr.Schema(fmt.Sprintf("category %q has no schema", *toCategory), nil)
	}

	input := extractTextForRecategorize(item)
	parsed, err := nlp.ParseDocument(ctx, client, *targetSchema, now, input)
	if err != nil {
		return nil, err
	}

	newDoc := compose(*toCategory, parsed, now)
	// explicitly no expires_at on promotion — it is long-term memory now.
	delete(newDoc, "expires_at")

	if err := e.backend.PutItem(ctx, e.table, newDoc); err != nil {
		return nil, err
	}
	if err := e.backend.DeleteItem(ctx, e.table, category, key); err != nil {
		return nil, err
	}
	return newDoc, nil
}

// extractTextForRecategorize returns the item's content attribute, or
// the first string-valued attribute found, to feed the target category's
// schema-directed parse.
func extractTextForRecategorize(item kv.Item) string {
	if content, ok := item["content"].(string); ok && content != "" {
		return content
	}
	for _, v := range item {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Prune deletes every expired item in category, or in every registered
// schema's category if category is nil, returning the total deleted.
func (e *Engine) Prune(ctx context.Context, category *string) (int, error) {
	var targets []string
	if category != nil {
		targets = []string{*category}
	} else {
		schemas, err := e.schemas.ListSchemas(ctx)
		if err != nil {
			return 0, err
		}
		for _, s := range schemas {
			targets = append(targets, s.Prefix)
		}
	}

	total := 0
	for _, cat := range targets {
		items, err := e.backend.Query(ctx, e.table, cat, nil, 1000)
		if err != nil {
			return total, err
		}
		for _, item := range items {
			if !ttl.IsExpired(item) {
				continue
			}
			key, _ := item["key"].(string)
			if key == "" {
				continue
			}
			if err := e.backend.DeleteItem(ctx, e.table, cat, key); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}
