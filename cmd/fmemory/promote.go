package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var promoteToCategory string

var promoteCmd = &cobra.Command{
	Use:   "promote <category> <key>",
	Short: "Strip an item's TTL, optionally moving it to another category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, key := args[0], args[1]

		// Cross-category promotion re-parses the document and needs the
		// LLM client; same-category promotion is a plain field copy and
		// never touches it (see internal/lifecycle.Promote).
		if promoteToCategory != "" && promoteToCategory != category {
			client, err := newLLMClient()
			if err != nil {
				return err
			}
			doc, err := engine.Promote(rootCtx, category, key, &promoteToCategory, client, time.Now())
			if err != nil {
				return err
			}
			printResult(doc, fmt.Sprintf("promoted to %s/%v", doc["category"], doc["key"]))
			return nil
		}

		doc, err := engine.Promote(rootCtx, category, key, nil, nil, time.Now())
		if err != nil {
			return err
		}
		printResult(doc, fmt.Sprintf("promoted %s/%v", doc["category"], doc["key"]))
		return nil
	},
}

func init() {
	promoteCmd.Flags().StringVar(&promoteToCategory, "to", "", "re-file the item into this category")
}
