// =============================================================================
// Receipt Normalizer - Export Command
// =============================================================================
//
// COMMAND USAGE:
//   receipts export <receipt.json>... --xlsx receipts.xlsx [--csv items.csv]
//
// Reads normalized receipt documents and writes them to a spreadsheet and/or
// an aggregated-items CSV. Documents that cannot be decoded are skipped with
// a warning.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/receipt-normalizer/internal/export"
	"github.com/ginjaninja78/receipt-normalizer/internal/types"
	"github.com/ginjaninja78/receipt-normalizer/internal/validation"
)

var exportCmd = &cobra.Command{
	Use:   "export <receipt.json>...",
	Short: "Export normalized receipts to XLSX or CSV",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if xlsxPath == "" && csvPath == "" {
			return errors.New("at least one of --xlsx or --csv is required")
		}

		var receipts []*types.Receipt
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read receipt: %w", err)
			}
			r, issues := validation.ValidateDocument(data)
			if r == nil {
				logger.Warn("skipping receipt", "file", path, "issues", issues)
				continue
			}
			if len(issues) > 0 {
				logger.Debug("exporting receipt with issues", "file", path, "issues", len(issues))
			}
			receipts = append(receipts, r)
		}

		if err := writeExports(receipts); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d receipts\n", len(receipts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Path of the XLSX workbook to write")
	exportCmd.Flags().StringVar(&csvPath, "csv", "", "Path of the aggregated-items CSV to write")
}

// writeExports writes receipts to the --xlsx and --csv targets that are set.
func writeExports(receipts []*types.Receipt) error {
	if xlsxPath != "" {
		if err := export.WriteXLSX(xlsxPath, receipts); err != nil {
			return err
		}
		logger.Info("workbook written", "path", xlsxPath, "receipts", len(receipts))
	}

	if csvPath != "" {
		f, err := os.Create(csvPath)
		if err != nil {
			return fmt.Errorf("failed to create CSV file: %w", err)
		}
		if err := export.WriteCSV(f, receipts); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close CSV file: %w", err)
		}
		logger.Info("CSV written", "path", csvPath, "receipts", len(receipts))
	}

	return nil
}
