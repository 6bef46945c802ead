// =============================================================================
// Receipt Normalizer - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every subcommand
// receives the loaded configuration and the shared logger.
//
// COBRA CLI STRUCTURE:
//   rootCmd (receipts)
//   ├── transformCmd (receipts transform)
//   ├── validateCmd  (receipts validate)
//   ├── schemaCmd    (receipts schema)
//   ├── exportCmd    (receipts export)
//   ├── serveCmd     (receipts serve)
//   └── versionCmd   (receipts version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads config.yaml (or --config) with RECEIPTS_* environment overrides
//   2. Builds the slog logger from log_level, log_file and --verbose
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/receipt-normalizer/internal/config"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// appConfig is loaded before any subcommand runs.
var appConfig *config.MainConfig

// logger is the process-wide logger, built from appConfig.
var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// logFile is the open log_file, if any.
var logFile *os.File

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "receipts",
	Short: "Receipt Normalizer - Transform raw receipt payloads into validated receipts",
	Long: `Receipt Normalizer turns raw point-of-sale receipt payloads into a
normalized receipt document, validates its structure and arithmetic, and
optionally redacts sensitive fields.

Key Features:
  - Tolerant field extraction with deterministic output
  - Line item aggregation by product identity
  - Structural and arithmetic validation reports
  - Masking of phone numbers, ABNs and card numbers
  - JSON/YAML receipts, XLSX/CSV exports and an HTTP endpoint

Example Usage:
  receipts transform                       # Process every payload in the input directory
  receipts transform --file order.json     # Process a single payload
  receipts validate receipt.json           # Validate a normalized receipt
  receipts schema --out receipt.schema.json`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. Interrupts cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// initConfig loads the configuration and sets up logging.
func initConfig() error {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return err
	}
	appConfig = cfg

	l, f, err := newLogger(cfg, verbose)
	if err != nil {
		return err
	}
	logger = l
	logFile = f
	slog.SetDefault(logger)
	return nil
}

// newLogger builds a text logger writing to stderr and, when configured, to
// the log file as well.
func newLogger(cfg *config.MainConfig, verbose bool) (*slog.Logger, *os.File, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}
	if verbose {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stderr
	var file *os.File
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		out = io.MultiWriter(os.Stderr, f)
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(handler), file, nil
}
