package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap the predefined category catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !initForce {
			count, err := schemas.SchemaCount(rootCtx)
			if err != nil {
				return err
			}
			if count > 0 {
				printResult(map[string]int{"existing_schemas": count}, fmt.Sprintf("catalog already has %d schema(s), pass --force to re-run bootstrap", count))
				return nil
			}
		}
		if err := schemas.EnsurePredefinedSchemas(rootCtx); err != nil {
			return err
		}
		printResult(nil, "predefined category catalog is ready")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "re-run bootstrap even if schemas already exist")
}
