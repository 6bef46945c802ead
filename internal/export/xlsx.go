package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/receipt-normalizer/internal/types"
)

// WriteXLSX writes receipts to a workbook at path with the Receipts, Items
// and Aggregated sheets.
func WriteXLSX(path string, receipts []*types.Receipt) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetReceipts); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	for _, name := range []string{SheetItems, SheetAggregated} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	receiptRows := make([][]any, 0, len(receipts))
	var itemRows, aggregatedRows [][]any
	for _, r := range receipts {
		if r == nil {
			continue
		}
		receiptRows = append(receiptRows, receiptRow(r))
		for i, item := range r.Items {
			itemRows = append(itemRows, itemRow(r, i+1, item))
		}
		for _, item := range r.AggregatedItems {
			aggregatedRows = append(aggregatedRows, aggregatedRow(r, item))
		}
	}

	sheets := []struct {
		name    string
		headers []string
		rows    [][]any
	}{
		{SheetReceipts, receiptHeaders, receiptRows},
		{SheetItems, itemHeaders, itemRows},
		{SheetAggregated, aggregatedHeaders, aggregatedRows},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.headers, s.rows, headerStyle); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// writeSheet writes a bold header row followed by rows.
func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any, headerStyle int) error {
	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}

	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}

	return nil
}
