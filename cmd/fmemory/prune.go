package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pruneCategory string

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete every expired item, in one category or across all categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var category *string
		if pruneCategory != "" {
			category = &pruneCategory
		}
		n, err := engine.Prune(rootCtx, category)
		if err != nil {
			return err
		}
		printResult(map[string]int{"deleted": n}, fmt.Sprintf("pruned %d expired item(s)", n))
		return nil
	},
}

func init() {
	pruneCmd.Flags().StringVar(&pruneCategory, "category", "", "restrict pruning to this category")
}
