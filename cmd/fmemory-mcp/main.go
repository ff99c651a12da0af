// Command fmemory-mcp runs the memory engine as an MCP tool server over
// stdio, for assistant clients that speak the Model Context Protocol
// instead of invoking the fmemory CLI directly.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aetherxhub/ferridyn-memory/internal/backend"
	"github.com/aetherxhub/ferridyn-memory/internal/config"
	"github.com/aetherxhub/ferridyn-memory/internal/kv"
	"github.com/aetherxhub/ferridyn-memory/internal/lifecycle"
	"github.com/aetherxhub/ferridyn-memory/internal/llm"
	"github.com/aetherxhub/ferridyn-memory/internal/mcpserver"
	"github.com/aetherxhub/ferridyn-memory/internal/schema"
	"github.com/aetherxhub/ferridyn-memory/internal/telemetry"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := telemetry.Init(os.Stderr); err != nil {
		logger.Warn("telemetry init failed, continuing without it", "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(ctx)
	}()

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "fmemory-mcp: ANTHROPIC_API_KEY is required")
		os.Exit(1)
	}

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintln(os.Stderr, "fmemory-mcp: load config:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	dialCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	client, err := backend.DialClient(dialCtx, cfg.SocketPath, 2*time.Second)
	cancel()

	var be *backend.Backend
	if err != nil {
		logger.Warn("memory daemon unavailable, falling back to in-process store", "socket", cfg.SocketPath, "error", err)
		be = backend.NewDirect(kv.NewMemoryStore())
	} else {
		be = backend.NewNetworked(client)
	}

	schemas := schema.New(be, cfg.TableName(), logger)
	engine := lifecycle.New(be, schemas, cfg.TableName())

	llmClient, err := llm.NewAnthropicClient(apiKey, cfg.Model)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fmemory-mcp:", err)
		os.Exit(1)
	}

	overridesPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		overridesPath = filepath.Join(home, ".config", "fmemory", "overrides.yaml")
	}

	srv := mcpserver.New(engine, schemas, be, llmClient, cfg.TableName(), overridesPath)
	if err := server.ServeStdio(srv.MCPServer()); err != nil {
		fmt.Fprintln(os.Stderr, "fmemory-mcp:", err)
		os.Exit(1)
	}
}
