// Package mcpserver exposes the memory engine as a set of MCP tools —
// remember, recall, forget, discover, define, promote, prune — over the
// mark3labs/mcp-go stdio transport, so any MCP-speaking assistant client
// can drive the same engine the CLI does.
package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aetherxhub/ferridyn-memory/internal/backend"
	"github.com/aetherxhub/ferridyn-memory/internal/config"
	"github.com/aetherxhub/ferridyn-memory/internal/kv"
	"github.com/aetherxhub/ferridyn-memory/internal/lifecycle"
	"github.com/aetherxhub/ferridyn-memory/internal/llm"
	"github.com/aetherxhub/ferridyn-memory/internal/nlp"
	"github.com/aetherxhub/ferridyn-memory/internal/query"
	"github.com/aetherxhub/ferridyn-memory/internal/schema"
	"github.com/aetherxhub/ferridyn-memory/internal/ttl"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wires the lifecycle engine, schema manager, and LLM client
// into a set of MCP tool handlers.
type Server struct {
	engine    *lifecycle.Engine
	schemas   *schema.Manager
	backend   *backend.Backend
	llmClient llm.Client
	table     string

	overridesPath string
}

// New builds an MCP Server over the given engine components.
func New(engine *lifecycle.Engine, schemas *schema.Manager, backend *backend.Backend, llmClient llm.Client, table, overridesPath string) *Server {
	return &Server{
		engine:        engine,
		schemas:       schemas,
		backend:       backend,
		llmClient:     llmClient,
		table:         table,
		overridesPath: overridesPath,
	}
}

// MCPServer builds the underlying mcp-go server with every tool
// registered, ready to be served over stdio.
func (s *Server) MCPServer() *server.MCPServer {
	mcpServer := server.NewMCPServer("fmemory", "0.1.0", server.WithToolCapabilities(false))

	mcpServer.AddTool(mcp.NewTool("remember",
		mcp.WithDescription("Store a piece of information in long- or short-term memory. The category is inferred from the text when omitted."),
		mcp.WithString("input", mcp.Required(), mcp.Description("the natural-language text to remember")),
		mcp.WithString("category", mcp.Description("optional category to store under, e.g. project, contacts, notes")),
		mcp.WithString("ttl", mcp.Description("optional explicit time-to-live, e.g. \"24h\", \"7d\"")),
	), s.handleRemember)

	mcpServer.AddTool(mcp.NewTool("recall",
		mcp.WithDescription("Answer a natural-language question from stored memory."),
		mcp.WithString("query", mcp.Required(), mcp.Description("the natural-language question")),
		mcp.WithBoolean("include_expired", mcp.Description("include expired items in the search, default false")),
	), s.handleRecall)

	mcpServer.AddTool(mcp.NewTool("forget",
		mcp.WithDescription("Delete one memory item by category and key."),
		mcp.WithString("category", mcp.Required(), mcp.Description("the item's category")),
		mcp.WithString("key", mcp.Required(), mcp.Description("the item's key")),
	), s.handleForget)

	mcpServer.AddTool(mcp.NewTool("discover",
		mcp.WithDescription("List every registered memory category and its attributes."),
	), s.handleDiscover)

	mcpServer.AddTool(mcp.NewTool("define",
		mcp.WithDescription("Define a new custom memory category."),
		mcp.WithString("category", mcp.Required(), mcp.Description("the new category's name")),
		mcp.WithString("description", mcp.Description("a short description of what this category stores")),
		mcp.WithString("attributes", mcp.Required(), mcp.Description("comma-separated attribute names, e.g. \"dish,servings\"")),
		mcp.WithString("sort_key_format", mcp.Description("optional \"#\"-delimited sort key format, e.g. \"{dish}#{step}\"")),
	), s.handleDefine)

	mcpServer.AddTool(mcp.NewTool("promote",
		mcp.WithDescription("Strip TTL from an item, making it long-term, optionally moving it to a different category."),
		mcp.WithString("category", mcp.Required(), mcp.Description("the item's current category")),
		mcp.WithString("key", mcp.Required(), mcp.Description("the item's key")),
		mcp.WithString("to_category", mcp.Description("optional target category to re-file into")),
	), s.handlePromote)

	mcpServer.AddTool(mcp.NewTool("prune",
		mcp.WithDescription("Delete every expired item, in one category or across all categories."),
		mcp.WithString("category", mcp.Description("optional category to restrict pruning to")),
	), s.handlePrune)

	return mcpServer
}

func (s *Server) handleRemember(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input := req.GetString("input", "")
	if input == "" {
		return mcp.NewToolResultError("input is required"), nil
	}
	category := req.GetString("category", "")

	var ttlPtr *time.Duration
	if raw := req.GetString("ttl", ""); raw != "" {
		d, err := ttl.ParseTTL(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid ttl %q: %s", raw, err)), nil
		}
		ttlPtr = &d
	}

	doc, err := s.engine.Write(ctx, lifecycle.WriteOptions{
		Category: category,
		TTL:      ttlPtr,
		Input:    input,
		Client:   s.llmClient,
		Now:      time.Now(),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("stored as %s/%v", doc["category"], doc["key"])), nil
}

func (s *Server) handleRecall(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	queryText := req.GetString("query", "")
	if queryText == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	schemas, err := s.schemas.ListSchemas(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	samples := make([]nlp.SchemaSample, 0, len(schemas))
	for _, sc := range schemas {
		keys, err := s.backend.ListSortKeyPrefixes(ctx, s.table, sc.Prefix, 20)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		samples = append(samples, nlp.SchemaSample{Schema: sc, SampleKeys: keys})
	}

	indexes, err := s.backend.ListIndexes(ctx, s.table)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resolved, err := nlp.ResolveQuery(ctx, s.llmClient, samples, indexes, queryText)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	items, _, err := query.Execute(ctx, s.backend, s.table, resolved, 50)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !req.GetBool("include_expired", false) {
		items = ttl.FilterExpired(items)
	}

	answer, err := nlp.SynthesizeAnswer(ctx, s.llmClient, queryText, items)
	if err != nil && len(items) > 0 {
		var b strings.Builder
		for _, item := range items {
			fmt.Fprintf(&b, "%v/%v: %v\n", item["category"], item["key"], item["content"])
		}
		return mcp.NewToolResultText(b.String()), nil
	}
	if err != nil {
		return mcp.NewToolResultText("no relevant memory found"), nil
	}
	if answer == nil {
		return mcp.NewToolResultText("no relevant memory found"), nil
	}
	return mcp.NewToolResultText(*answer), nil
}

func (s *Server) handleForget(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	key := req.GetString("key", "")
	if category == "" || key == "" {
		return mcp.NewToolResultError("category and key are required"), nil
	}
	if err := s.backend.DeleteItem(ctx, s.table, category, key); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted %s/%s", category, key)), nil
}

func (s *Server) handleDiscover(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schemas, err := s.schemas.ListSchemas(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result := ""
	for _, sc := range schemas {
		result += fmt.Sprintf("%s: %s\n", sc.Prefix, sc.Description)
		for _, attr := range sc.Attributes {
			result += fmt.Sprintf("  - %s (%s)\n", attr.Name, attr.Type)
		}
	}
	if result == "" {
		result = "no categories registered yet"
	}
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleDefine(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	attrsRaw := req.GetString("attributes", "")
	if category == "" || attrsRaw == "" {
		return mcp.NewToolResultError("category and attributes are required"), nil
	}

	override := config.SchemaOverride{
		Category:      category,
		Description:   req.GetString("description", ""),
		SortKeyFormat: req.GetString("sort_key_format", ""),
	}
	for _, name := range strings.Split(attrsRaw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		override.Attributes = append(override.Attributes, config.AttributeOverride{Name: name, Type: string(kv.TypeString)})
	}

	schemaInfo := override.ToPartitionSchema()
	var indexAttrs []string
	for _, a := range override.Attributes {
		indexAttrs = append(indexAttrs, a.Name)
	}
	if err := s.schemas.CreateCustomSchema(ctx, schemaInfo, indexAttrs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if s.overridesPath != "" {
		f, err := config.LoadOverrides(s.overridesPath)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		f.Schemas = append(f.Schemas, override)
		if err := config.SaveOverrides(s.overridesPath, f); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	return mcp.NewToolResultText(fmt.Sprintf("defined category %q", category)), nil
}

func (s *Server) handlePromote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", "")
	key := req.GetString("key", "")
	if category == "" || key == "" {
		return mcp.NewToolResultError("category and key are required"), nil
	}
	var toCategory *string
	if to := req.GetString("to_category", ""); to != "" {
		toCategory = &to
	}
	doc, err := s.engine.Promote(ctx, category, key, toCategory, s.llmClient, time.Now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("promoted to %s/%v", doc["category"], doc["key"])), nil
}

func (s *Server) handlePrune(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var category *string
	if c := req.GetString("category", ""); c != "" {
		category = &c
	}
	n, err := s.engine.Prune(ctx, category)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("pruned %d expired item(s)", n)), nil
}
