// =============================================================================
// Receipt Normalizer - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   receipts validate <receipt.json>          validate a normalized receipt
//   receipts validate --raw <payload.json>    transform a payload, then validate
//
// The validation report is printed as JSON. The command fails when the
// report lists any issue.
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/receipt-normalizer/internal/converter"
	"github.com/ginjaninja78/receipt-normalizer/internal/validation"
)

var rawPayload bool

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a receipt document and print its report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		report, err := validateData(data, appConfig.SchemaVersion)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		if !report.Clean() {
			return fmt.Errorf("%s: %d validation issues", args[0], len(report.Issues))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&rawPayload, "raw", false, "Treat the file as a raw payload and transform it first")
}

func validateData(data []byte, schemaVersion string) (validation.Report, error) {
	if !rawPayload {
		_, report := validation.DocumentReport(data)
		return report, nil
	}

	raw, err := converter.DecodePayload(data)
	if err != nil {
		return validation.Report{}, err
	}
	receipt := converter.Transform(raw, converter.Options{SchemaVersion: schemaVersion})
	return validation.ValidateReceipt(receipt), nil
}
