package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var forgetCmd = &cobra.Command{
	Use:   "forget <category> <key>",
	Short: "Delete one memory item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, key := args[0], args[1]
		if err := be.DeleteItem(rootCtx, cfg.TableName(), category, key); err != nil {
			return err
		}
		printResult(map[string]string{"category": category, "key": key}, fmt.Sprintf("deleted %s/%s", category, key))
		return nil
	},
}
