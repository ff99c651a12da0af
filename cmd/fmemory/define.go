package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aetherxhub/ferridyn-memory/internal/config"
	"github.com/spf13/cobra"
)

var (
	defineDescription   string
	defineAttributes    string
	defineSortKeyFormat string
)

var defineCmd = &cobra.Command{
	Use:   "define <category>",
	Short: "Define a new custom memory category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category := args[0]
		if strings.TrimSpace(defineAttributes) == "" {
			return fmt.Errorf("define: --attributes is required, e.g. --attributes dish,servings")
		}

		override := config.SchemaOverride{
			Category:      category,
			Description:   defineDescription,
			SortKeyFormat: defineSortKeyFormat,
		}
		for _, name := range strings.Split(defineAttributes, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			override.Attributes = append(override.Attributes, config.AttributeOverride{Name: name, Type: "STRING"})
		}

		schemaInfo := override.ToPartitionSchema()
		indexAttrs := make([]string, 0, len(override.Attributes))
		for _, a := range override.Attributes {
			indexAttrs = append(indexAttrs, a.Name)
		}
		if err := schemas.CreateCustomSchema(rootCtx, schemaInfo, indexAttrs); err != nil {
			return err
		}

		if path := overridesFilePath(); path != "" {
			f, err := config.LoadOverrides(path)
			if err != nil {
				return err
			}
			f.Schemas = append(f.Schemas, override)
			if err := config.SaveOverrides(path, f); err != nil {
				return err
			}
		}

		printResult(schemaInfo, fmt.Sprintf("defined category %q", category))
		return nil
	},
}

// overridesFilePath is where custom `define`d categories persist across
// restarts, alongside the layered config file.
func overridesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "fmemory", "overrides.yaml")
}

func init() {
	defineCmd.Flags().StringVar(&defineDescription, "description", "", "short description of what this category stores")
	defineCmd.Flags().StringVar(&defineAttributes, "attributes", "", "comma-separated attribute names")
	defineCmd.Flags().StringVar(&defineSortKeyFormat, "sort-key-format", "", "optional \"#\"-delimited sort key format, e.g. \"{dish}#{step}\"")
}
