// =============================================================================
// Receipt Normalizer - Schema Command
// =============================================================================
//
// COMMAND USAGE:
//   receipts schema [--out receipt.schema.json] [--version 1.0.0]
//
// Prints (or writes) the JSON Schema of the normalized receipt document.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/receipt-normalizer/internal/schema"
)

var (
	schemaOut     string
	schemaVersion string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the receipt document",
	RunE: func(cmd *cobra.Command, args []string) error {
		version := schemaVersion
		if version == "" {
			version = appConfig.SchemaVersion
		}

		doc, err := schema.Document(version)
		if err != nil {
			return fmt.Errorf("failed to build schema: %w", err)
		}

		if schemaOut == "" {
			_, err := cmd.OutOrStdout().Write(doc)
			return err
		}
		if err := os.WriteFile(schemaOut, doc, 0644); err != nil {
			return fmt.Errorf("failed to write schema: %w", err)
		}
		logger.Info("schema written", "path", schemaOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().StringVar(&schemaOut, "out", "", "Write the schema to this file instead of stdout")
	schemaCmd.Flags().StringVar(&schemaVersion, "version", "", "Schema version embedded in $id (default from config)")
}
