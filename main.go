// =============================================================================
// Receipt Normalizer - Main Entry Point
// =============================================================================
//
// USAGE:
//   receipts transform   - Transform every payload in the input directory
//   receipts validate    - Validate a normalized receipt
//   receipts schema      - Print the receipt JSON Schema
//   receipts export      - Export receipts to XLSX or CSV
//   receipts serve       - Serve the HTTP API
//   receipts version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Pipeline, validation, redaction, sinks and HTTP API
//   - pkg/utils/     : File discovery, archival and run logs
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/receipt-normalizer/cmd"
)

func main() {
	cmd.Execute()
}
