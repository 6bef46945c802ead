package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ginjaninja78/receipt-normalizer/internal/types"
)

// WriteCSV writes the aggregated items of receipts as CSV with a header row.
func WriteCSV(w io.Writer, receipts []*types.Receipt) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(aggregatedHeaders); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range receipts {
		if r == nil {
			continue
		}
		for _, item := range r.AggregatedItems {
			row := aggregatedRow(r, item)
			record := make([]string, len(row))
			for i, v := range row {
				record[i] = cellText(v)
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}
