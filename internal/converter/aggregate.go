package converter

import (
	"github.com/ginjaninja78/receipt-normalizer/internal/money"
	"github.com/ginjaninja78/receipt-normalizer/internal/types"
)

// =============================================================================
// AGGREGATION ENGINE
// =============================================================================

// identityKey decides whether two basket lines are the same purchased item.
// Per-line discount and tax are not part of the key.
type identityKey struct {
	name      string
	sku       string
	apn       string
	colour    string
	size      string
	unitPrice float64
	currency  string
}

func keyOf(item types.ReceiptItem) identityKey {
	return identityKey{
		name:      item.Name,
		sku:       types.Deref(item.SKU),
		apn:       types.Deref(item.APN),
		colour:    types.Deref(item.Colour),
		size:      types.Deref(item.Size),
		unitPrice: item.UnitPrice,
		currency:  item.Currency,
	}
}

// Aggregate collapses items sharing an identity key.
//
// GROUPING LOGIC:
//   Output order is the first-seen order of each key. Quantities are summed
//   and line totals are added and re-rounded after every merge, so the result
//   depends only on the input order. The first item of a group supplies all
//   other fields.
func Aggregate(items []types.ReceiptItem) []types.AggregatedItem {
	groups := make(map[identityKey]int)
	result := make([]types.AggregatedItem, 0, len(items))

	for _, item := range items {
		key := keyOf(item)

		idx, exists := groups[key]
		if !exists {
			groups[key] = len(result)
			result = append(result, types.AggregatedItem{
				Name:               item.Name,
				SKU:                item.SKU,
				APN:                item.APN,
				Colour:             item.Colour,
				Size:               item.Size,
				Quantity:           item.Quantity,
				UnitPrice:          item.UnitPrice,
				UnitPriceFormatted: item.UnitPriceFormatted,
				LineTotal:          item.LineTotal,
				LineTotalFormatted: item.LineTotalFormatted,
				Currency:           item.Currency,
				Lines:              1,
			})
			continue
		}

		agg := &result[idx]
		agg.Quantity += item.Quantity
		agg.LineTotal = money.Round2(agg.LineTotal + item.LineTotal)
		agg.LineTotalFormatted = money.Format(agg.LineTotal, agg.Currency)
		agg.Lines++
	}

	return result
}
