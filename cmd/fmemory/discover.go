package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List every registered memory category and its attributes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := schemas.ListSchemas(rootCtx)
		if err != nil {
			return err
		}

		if jsonOutput {
			printResult(list, "")
			return nil
		}
		if len(list) == 0 {
			fmt.Println("no categories registered yet")
			return nil
		}
		for _, sc := range list {
			fmt.Printf("%s: %s\n", sc.Prefix, sc.Description)
			for _, attr := range sc.Attributes {
				fmt.Printf("  - %s (%s)\n", attr.Name, attr.Type)
			}
		}
		return nil
	},
}
