package main

import (
	"fmt"

	"github.com/aetherxhub/ferridyn-memory/internal/nlp"
	"github.com/aetherxhub/ferridyn-memory/internal/query"
	"github.com/aetherxhub/ferridyn-memory/internal/ttl"
	"github.com/spf13/cobra"
)

var recallCmd = &cobra.Command{
	Use:   "recall [question]",
	Short: "Answer a natural-language question from memory",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		queryText := inputFromArgsOrPrompt(args)
		if queryText == "" {
			return fmt.Errorf("recall: no question given, pass text or -p/--prompt")
		}
		return runRecall(queryText)
	},
}

// runRecall runs the full resolve/execute/synthesize pipeline, shared by
// the `recall` subcommand and the top-level -p/--prompt intent shortcut
// (see root.go).
func runRecall(queryText string) error {
	client, err := newLLMClient()
	if err != nil {
		return err
	}

	schemaList, err := schemas.ListSchemas(rootCtx)
	if err != nil {
		return err
	}
	samples := make([]nlp.SchemaSample, 0, len(schemaList))
	for _, sc := range schemaList {
		keys, err := be.ListSortKeyPrefixes(rootCtx, cfg.TableName(), sc.Prefix, 20)
		if err != nil {
			return err
		}
		samples = append(samples, nlp.SchemaSample{Schema: sc, SampleKeys: keys})
	}

	indexes, err := be.ListIndexes(rootCtx, cfg.TableName())
	if err != nil {
		return err
	}

	resolved, err := nlp.ResolveQuery(rootCtx, client, samples, indexes, queryText)
	if err != nil {
		return err
	}

	items, broadened, err := query.Execute(rootCtx, be, cfg.TableName(), resolved, cfg.DefaultLimit)
	if err != nil {
		return err
	}
	if !includeExpired {
		items = ttl.FilterExpired(items)
	}

	answer, err := nlp.SynthesizeAnswer(rootCtx, client, queryText, items)
	synthesisFailed := err != nil
	if synthesisFailed {
		logger.Warn("answer synthesis failed, listing retrieved items instead", "error", err)
	}

	if jsonOutput {
		printResult(map[string]any{
			"answer":    answer,
			"items":     items,
			"broadened": broadened,
		}, "")
		return nil
	}
	if synthesisFailed && len(items) > 0 {
		for _, item := range items {
			fmt.Printf("%v/%v: %v\n", item["category"], item["key"], item["content"])
		}
		return nil
	}
	if answer == nil {
		fmt.Println("no relevant memory found")
		return nil
	}
	fmt.Println(*answer)
	return nil
}
