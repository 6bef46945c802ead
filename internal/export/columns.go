// =============================================================================
// Receipt Normalizer - Tabular Export
// =============================================================================
//
// This module flattens receipts into rows for spreadsheet and CSV sinks.
//
// SHEETS:
//   Receipts    one row per receipt (identities, totals, payment summary)
//   Items       one row per basket line
//   Aggregated  one row per aggregated item
//
// The CSV sink writes the Aggregated layout only.
//
// =============================================================================

package export

import (
	"strconv"
	"strings"

	"github.com/ginjaninja78/receipt-normalizer/internal/types"
)

// Sheet names of the workbook.
const (
	SheetReceipts   = "Receipts"
	SheetItems      = "Items"
	SheetAggregated = "Aggregated"
)

var receiptHeaders = []string{
	"Receipt ID", "Order Number", "Date", "Time", "Merchant", "Currency",
	"Total", "Subtotal", "Tax Total", "Discount Total", "Item Count",
	"Item Quantity", "Total Paid", "Payment Methods", "Raw Hash",
}

var itemHeaders = []string{
	"Receipt ID", "Line", "Name", "SKU", "APN", "Colour", "Size",
	"Quantity", "Unit Price", "Line Total", "Currency",
}

var aggregatedHeaders = []string{
	"Receipt ID", "Name", "SKU", "APN", "Colour", "Size",
	"Quantity", "Unit Price", "Line Total", "Currency", "Lines",
}

// =============================================================================
// ROW BUILDERS
// =============================================================================

func receiptRow(r *types.Receipt) []any {
	merchant := types.Deref(r.Merchant.TradingName)
	if merchant == "" {
		merchant = types.Deref(r.Merchant.StoreName)
	}

	var itemCount any
	if r.Totals.ItemCount != nil {
		itemCount = *r.Totals.ItemCount
	}

	return []any{
		types.Deref(r.Identities.ReceiptID),
		types.Deref(r.Identities.OrderNumber),
		types.Deref(r.Timestamps.Date),
		types.Deref(r.Timestamps.Time),
		merchant,
		r.Totals.Currency,
		r.Totals.Total,
		optional(r.Totals.Subtotal),
		optional(r.Totals.TaxTotal),
		optional(r.Totals.DiscountTotal),
		itemCount,
		r.Totals.ComputedItemQuantity,
		r.PaymentSummary.TotalPaid,
		strings.Join(r.PaymentSummary.Methods, " "),
		types.Deref(r.Meta.RawHash),
	}
}

func itemRow(r *types.Receipt, line int, item types.ReceiptItem) []any {
	return []any{
		types.Deref(r.Identities.ReceiptID),
		line,
		item.Name,
		types.Deref(item.SKU),
		types.Deref(item.APN),
		types.Deref(item.Colour),
		types.Deref(item.Size),
		item.Quantity,
		item.UnitPrice,
		item.LineTotal,
		item.Currency,
	}
}

func aggregatedRow(r *types.Receipt, item types.AggregatedItem) []any {
	return []any{
		types.Deref(r.Identities.ReceiptID),
		item.Name,
		types.Deref(item.SKU),
		types.Deref(item.APN),
		types.Deref(item.Colour),
		types.Deref(item.Size),
		item.Quantity,
		item.UnitPrice,
		item.LineTotal,
		item.Currency,
		item.Lines,
	}
}

// optional returns *v, or nil for an empty cell.
func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// cellText renders a row value as CSV text. Money is always two decimals.
func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', 2, 64)
	default:
		return ""
	}
}
