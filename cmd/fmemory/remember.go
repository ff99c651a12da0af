package main

import (
	"fmt"
	"time"

	"github.com/aetherxhub/ferridyn-memory/internal/lifecycle"
	"github.com/aetherxhub/ferridyn-memory/internal/ttl"
	"github.com/spf13/cobra"
)

var (
	rememberCategory string
	rememberTTL      string
)

var rememberCmd = &cobra.Command{
	Use:   "remember [text]",
	Short: "Store a piece of information in memory",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		input := inputFromArgsOrPrompt(args)
		if input == "" {
			return fmt.Errorf("remember: no input given, pass text or -p/--prompt")
		}
		return runRemember(input, rememberCategory, rememberTTL)
	},
}

// runRemember parses the optional ttl string and runs the write pipeline,
// shared by the `remember` subcommand and the top-level -p/--prompt intent
// shortcut (see root.go).
func runRemember(input, category, rawTTL string) error {
	client, err := newLLMClient()
	if err != nil {
		return err
	}

	var ttlPtr *time.Duration
	if rawTTL != "" {
		d, err := ttl.ParseTTL(rawTTL)
		if err != nil {
			return fmt.Errorf("remember: invalid --ttl %q: %w", rawTTL, err)
		}
		ttlPtr = &d
	}

	doc, err := engine.Write(rootCtx, lifecycle.WriteOptions{
		Category: category,
		TTL:      ttlPtr,
		Input:    input,
		Client:   client,
		Now:      time.Now(),
	})
	if err != nil {
		return err
	}

	printResult(doc, fmt.Sprintf("stored as %s/%v", doc["category"], doc["key"]))
	return nil
}

func inputFromArgsOrPrompt(args []string) string {
	if promptFlag != "" {
		return promptFlag
	}
	if len(args) > 0 {
		text := args[0]
		for _, a := range args[1:] {
			text += " " + a
		}
		return text
	}
	return ""
}

func init() {
	rememberCmd.Flags().StringVar(&rememberCategory, "category", "", "store under this category instead of letting the model choose")
	rememberCmd.Flags().StringVar(&rememberTTL, "ttl", "", "explicit time-to-live, e.g. \"24h\", \"7d\", \"1w\"")
}
