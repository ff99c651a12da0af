package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aetherxhub/ferridyn-memory/internal/backend"
	"github.com/aetherxhub/ferridyn-memory/internal/config"
	"github.com/aetherxhub/ferridyn-memory/internal/kv"
	"github.com/aetherxhub/ferridyn-memory/internal/lifecycle"
	"github.com/aetherxhub/ferridyn-memory/internal/llm"
	"github.com/aetherxhub/ferridyn-memory/internal/nlp"
	"github.com/aetherxhub/ferridyn-memory/internal/schema"
	"github.com/spf13/cobra"
)

var (
	cfgFile        string
	jsonOutput     bool
	includeExpired bool
	promptFlag     string

	cfg     *config.Config
	logger  *slog.Logger
	be      *backend.Backend
	schemas *schema.Manager
	engine  *lifecycle.Engine

	rootCtx = context.Background()
)

var rootCmd = &cobra.Command{
	Use:   "fmemory",
	Short: "fmemory - a structured personal memory layer",
	Long:  `Store and recall natural-language memories over a typed key/value store, with TTL, schemas, and secondary indexes.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("fmemory: load config: %w", err)
		}
		cfg = loaded

		store, err := connectBackend(rootCtx, cfg.SocketPath)
		if err != nil {
			return err
		}
		be = store
		schemas = schema.New(be, cfg.TableName(), logger)
		engine = lifecycle.New(be, schemas, cfg.TableName())
		return nil
	},
	// RunE only fires when fmemory is invoked with no subcommand. With
	// -p/--prompt and nothing else, that's the top-level NL intent
	// shortcut: classify the input and dispatch to remember or recall
	// without the caller having to pick the verb themselves.
	RunE: func(cmd *cobra.Command, args []string) error {
		if promptFlag == "" {
			return cmd.Help()
		}

		client, err := newLLMClient()
		if err != nil {
			return err
		}

		intent, err := nlp.ClassifyIntent(rootCtx, client, promptFlag)
		if err != nil {
			return err
		}

		switch intent.Kind {
		case nlp.IntentRecall:
			return runRecall(intent.Query)
		default:
			return runRemember(intent.Content, "", "")
		}
	},
	SilenceUsage: true,
}

// connectBackend dials the networked engine over its Unix socket; if the
// daemon isn't reachable, it falls back to a fresh in-process store so the
// CLI stays usable for local experimentation, the same graceful
// daemon/direct fallback the teacher's CLI performs for its own backend.
func connectBackend(ctx context.Context, socketPath string) (*backend.Backend, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	client, err := backend.DialClient(dialCtx, socketPath, 2*time.Second)
	if err != nil {
		logger.Warn("memory daemon unavailable, falling back to in-process store", "socket", socketPath, "error", err)
		return backend.NewDirect(kv.NewMemoryStore()), nil
	}
	return backend.NewNetworked(client), nil
}

// newLLMClient builds the Anthropic client on demand, so commands that
// never touch the LLM (forget, prune, schema) never require an API key.
func newLLMClient() (llm.Client, error) {
	return llm.NewAnthropicClient(os.Getenv("ANTHROPIC_API_KEY"), cfg.Model)
}

func printResult(v any, humanLine string) {
	if jsonOutput {
		encoded, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(string(encoded))
		return
	}
	fmt.Println(humanLine)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config.yaml")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&includeExpired, "include-expired", false, "include expired items in recall results")
	rootCmd.PersistentFlags().StringVarP(&promptFlag, "prompt", "p", "", "natural-language input, used instead of positional text")

	rootCmd.AddCommand(discoverCmd, recallCmd, rememberCmd, forgetCmd, defineCmd, schemaCmd, initCmd, promoteCmd, pruneCmd)
}
