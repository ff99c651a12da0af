package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect and manage category schemas",
}

var schemaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := schemas.ListSchemas(rootCtx)
		if err != nil {
			return err
		}
		printResult(list, fmt.Sprintf("%d schema(s) registered", len(list)))
		return nil
	},
}

var schemaDropCmd = &cobra.Command{
	Use:   "drop <category>",
	Short: "Drop a category's schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category := args[0]
		if err := schemas.DropSchema(rootCtx, category); err != nil {
			return err
		}
		printResult(map[string]string{"category": category}, fmt.Sprintf("dropped schema %q", category))
		return nil
	},
}

func init() {
	schemaCmd.AddCommand(schemaListCmd, schemaDropCmd)
}
