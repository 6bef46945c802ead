// =============================================================================
// Receipt Normalizer - Transform Command
// =============================================================================
//
// This file defines the 'transform' command, the main batch command. It runs
// every payload in the input directory through the pipeline.
//
// COMMAND USAGE:
//   receipts transform [flags]
//
// FLAGS:
//   --file               Process a single payload file instead of the input dir
//   --recursive          Include payloads in subdirectories of the input dir
//   --dry-run            Process without writing, archiving or logging to disk
//   --strict             Reject receipts whose report has any issue
//   --redact             Mask phone, ABN and card fields
//   --enforce-redaction  Reject receipts still exposing sensitive digits
//   --format             Output encoding: json or yaml
//   --xlsx / --csv       Also export the successful receipts
//
// Flags override the matching config.yaml settings.
//
// On success the receipt and its report are written to the output directory
// and the payload is moved to the input archive. Failed payloads stay in
// place and are listed in the error log.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/receipt-normalizer/internal/batch"
	"github.com/ginjaninja78/receipt-normalizer/internal/config"
	"github.com/ginjaninja78/receipt-normalizer/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	filePath      string
	recursive     bool
	dryRun        bool
	strictMode    bool
	redactOutput  bool
	enforceRedact bool
	outputFormat  string
	xlsxPath      string
	csvPath       string
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform raw receipt payloads into normalized receipts",
	Long: `The transform command scans the input directory for *.json payload files
and turns each into a normalized receipt with a validation report.

Files are processed concurrently (max_concurrency). Unless continue_on_error
is disabled, a failing file does not stop the others.

On success:
  - <name>.json and <name>.report.json are written to the output directory
  - The payload is moved to the input archive
  - A run summary is written to the output directory

On error:
  - The failure is recorded in the error log in the output directory
  - The payload remains in the input directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *appConfig
		applyTransformFlags(cmd, &cfg)
		return runTransform(cmd, &cfg)
	},
}

func init() {
	rootCmd.AddCommand(transformCmd)

	flags := transformCmd.Flags()
	flags.StringVar(&filePath, "file", "", "Path to a single payload file to process")
	flags.BoolVar(&recursive, "recursive", false, "Include payloads in subdirectories of the input directory")
	flags.BoolVar(&dryRun, "dry-run", false, "Simulate processing without writing output files")
	flags.BoolVar(&strictMode, "strict", false, "Reject receipts whose validation report has issues")
	flags.BoolVar(&redactOutput, "redact", false, "Mask merchant phone, ABN and card fields")
	flags.BoolVar(&enforceRedact, "enforce-redaction", false, "Reject receipts that still expose sensitive digits (implies --redact)")
	flags.StringVar(&outputFormat, "format", "", "Output encoding: json or yaml (default from config)")
	flags.StringVar(&xlsxPath, "xlsx", "", "Also export successful receipts to this XLSX workbook")
	flags.StringVar(&csvPath, "csv", "", "Also export aggregated items of successful receipts to this CSV file")
}

// applyTransformFlags layers explicitly set flags over the configuration.
func applyTransformFlags(cmd *cobra.Command, cfg *config.MainConfig) {
	flags := cmd.Flags()
	if flags.Changed("strict") {
		cfg.Strict = strictMode
	}
	if flags.Changed("redact") {
		cfg.Redact = redactOutput
	}
	if flags.Changed("enforce-redaction") {
		cfg.EnforceRedaction = enforceRedact
	}
	if cfg.EnforceRedaction {
		cfg.Redact = true
	}
	if outputFormat != "" {
		cfg.OutputFormat = outputFormat
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runTransform(cmd *cobra.Command, cfg *config.MainConfig) error {
	if cfg.OutputFormat != "json" && cfg.OutputFormat != "yaml" {
		return fmt.Errorf("--format must be json or yaml, got %q", cfg.OutputFormat)
	}

	if !dryRun {
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
	}

	files := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir)

	inputs, err := discoverPayloads(files)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		logger.Info("no payload files found", "input_dir", cfg.InputDir)
		return nil
	}

	runner := batch.NewRunner(batch.Options{
		OutputDir:        cfg.OutputDir,
		OutputFormat:     cfg.OutputFormat,
		OutputNameFormat: cfg.OutputNameFormat,
		SchemaVersion:    cfg.SchemaVersion,
		MaxConcurrency:   cfg.MaxConcurrency,
		ContinueOnError:  cfg.ContinueOnError,
		Strict:           cfg.Strict,
		Redact:           cfg.Redact,
		EnforceRedaction: cfg.EnforceRedaction,
		DryRun:           dryRun,
	}, files, logger)

	summary, runErr := runner.Run(cmd.Context(), inputs)

	if err := exportReceipts(summary); err != nil {
		return err
	}
	printSummary(cmd, summary)

	if runErr != nil {
		return runErr
	}
	if failed := summary.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(summary.Results))
	}
	return nil
}

func discoverPayloads(files *utils.FileManager) ([]string, error) {
	if filePath != "" {
		if _, err := os.Stat(filePath); err != nil {
			return nil, fmt.Errorf("failed to open payload file: %w", err)
		}
		return []string{filePath}, nil
	}
	if recursive {
		return files.DiscoverInputFilesRecursive(".json")
	}
	return files.DiscoverInputFiles("*.json")
}

func exportReceipts(summary *batch.Summary) error {
	if xlsxPath == "" && csvPath == "" {
		return nil
	}
	receipts := summary.Receipts()
	if dryRun {
		logger.Info("dry run, skipping export", "receipts", len(receipts))
		return nil
	}
	return writeExports(receipts)
}

func printSummary(cmd *cobra.Command, summary *batch.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %d files, %d succeeded, %d failed (%s)\n",
		summary.RunID,
		len(summary.Results),
		len(summary.Results)-summary.Failed(),
		summary.Failed(),
		summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond))

	for _, res := range summary.Results {
		switch {
		case res.Success && dryRun:
			fmt.Fprintf(out, "  OK    %s (%d items, %d issues)\n", res.FilePath, res.Stats.Items, res.Stats.Issues)
		case res.Success:
			fmt.Fprintf(out, "  OK    %s -> %s (%d issues)\n", res.FilePath, res.OutputFile, res.Stats.Issues)
		default:
			fmt.Fprintf(out, "  FAIL  %s [%s] %v\n", res.FilePath, res.Stage, res.Error)
		}
	}
	if summary.SummaryLog != "" {
		fmt.Fprintf(out, "Summary: %s\n", summary.SummaryLog)
	}
}
