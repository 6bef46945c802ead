// =============================================================================
// Receipt Normalizer - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   receipts version
//
// OUTPUT:
//   Receipt Normalizer
//   Version:        1.0.0
//   Schema Version: 1.0.0
//   Build Date:     2024-01-01
//   Go Version:     go1.24.0
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/receipt-normalizer/internal/types"
)

// These variables are set at build time using ldflags.
// Example build command:
//   go build -ldflags "-X 'github.com/ginjaninja78/receipt-normalizer/cmd.Version=1.0.0'"

// Version is the application version.
var Version = "1.0.0"

// BuildDate is the date the application was built.
var BuildDate = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long:  `Display the application version, receipt schema version, build date, and Go runtime version.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Receipt Normalizer")
		fmt.Fprintf(out, "Version:        %s\n", Version)
		fmt.Fprintf(out, "Schema Version: %s\n", types.SchemaVersion)
		fmt.Fprintf(out, "Build Date:     %s\n", BuildDate)
		fmt.Fprintf(out, "Go Version:     %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
