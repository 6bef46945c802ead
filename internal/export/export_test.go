package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/receipt-normalizer/internal/types"
)

func sampleReceipts() []*types.Receipt {
	socks := types.ReceiptItem{Name: "Socks", SKU: types.Ptr("100"), Quantity: 2, UnitPrice: 5.25, LineTotal: 10.5, Currency: "AUD"}
	return []*types.Receipt{
		{
			Identities: types.Identities{ReceiptID: types.Ptr("r-1"), OrderNumber: types.Ptr("900")},
			Merchant:   types.Merchant{StoreName: types.Ptr("Pitt St")},
			Totals: types.Totals{
				Currency:             "AUD",
				Total:                21,
				TaxTotal:             types.Ptr(1.91),
				ItemCount:            types.Ptr(2),
				ComputedItemQuantity: 4,
			},
			Items: []types.ReceiptItem{socks, socks},
			AggregatedItems: []types.AggregatedItem{{
				Name: "Socks", SKU: types.Ptr("100"), Quantity: 4, UnitPrice: 5.25, LineTotal: 21, Currency: "AUD", Lines: 2,
			}},
			PaymentSummary: types.PaymentSummary{TotalPaid: 21, Methods: []string{"VISA", "CASH"}},
		},
		nil,
		{
			Identities: types.Identities{ReceiptID: types.Ptr("r-2")},
			Totals:     types.Totals{Currency: "NZD"},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleReceipts()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, aggregatedHeaders, records[0])
	assert.Equal(t, []string{"r-1", "Socks", "100", "", "", "", "4", "5.25", "21.00", "AUD", "2"}, records[1])
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipts.xlsx")
	require.NoError(t, WriteXLSX(path, sampleReceipts()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetReceipts, SheetItems, SheetAggregated}, f.GetSheetList())

	receipts, err := f.GetRows(SheetReceipts)
	require.NoError(t, err)
	require.Len(t, receipts, 3)
	assert.Equal(t, receiptHeaders, receipts[0])
	assert.Equal(t, "r-1", receipts[1][0])
	assert.Equal(t, "Pitt St", receipts[1][4])
	assert.Equal(t, "21", receipts[1][6])
	assert.Equal(t, "", receipts[1][7], "absent subtotal stays empty")
	assert.Equal(t, "1.91", receipts[1][8])
	assert.Equal(t, "VISA CASH", receipts[1][13])
	assert.Equal(t, "r-2", receipts[2][0])

	items, err := f.GetRows(SheetItems)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"r-1", "2", "Socks", "100"}, items[2][:4])

	aggregated, err := f.GetRows(SheetAggregated)
	require.NoError(t, err)
	require.Len(t, aggregated, 2)
	assert.Equal(t, "2", aggregated[1][10])
}
