package validation

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/receipt-normalizer/internal/converter"
	"github.com/ginjaninja78/receipt-normalizer/internal/types"
)

// twoSocksPayload has two lines sharing an identity key, one tax line and a
// single payment of the exact total.
const twoSocksPayload = `{
	"id": "r-1",
	"created_at": 1717401600,
	"total_price": 20,
	"total_tax": 1.82,
	"basket": {"items": [
		{"name": "Crew Socks", "quantity_purchased": 1, "unit_price": 10, "properties": ["SKU: 1"]},
		{"name": "Crew Socks", "quantity_purchased": 1, "unit_price": 10, "properties": ["SKU: 1"]}
	]},
	"taxes": [{"name": "GST", "amount": {"price": 1.82}}],
	"payments": [{"method": "Mastercard (**** 4444)", "amount": 20}]
}`

func transform(t *testing.T, payload string) *types.Receipt {
	t.Helper()
	var raw any
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	return converter.Transform(raw, converter.Options{
		Now: func() time.Time { return time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC) },
	})
}

func TestValidateReceiptEndToEnd(t *testing.T) {
	r := transform(t, twoSocksPayload)

	assert.Len(t, r.Items, 2)
	assert.Len(t, r.AggregatedItems, 1)
	assert.InDelta(t, r.Totals.Total, r.PaymentSummary.TotalPaid, Tolerance)

	report := ValidateReceipt(r)
	assert.True(t, report.ValidationSuccess)
	assert.Empty(t, report.Issues)
	assert.True(t, report.Clean())
	assert.Equal(t, 20.0, report.Sums.ItemsLineTotal)
	assert.Equal(t, 20.0, report.Sums.PaymentsTotal)
	assert.Equal(t, 20.0, report.Sums.AggregatedLineTotal)
	require.NotNil(t, report.Sums.Subtotal)
	assert.Equal(t, 18.18, *report.Sums.Subtotal)
}

func TestValidateReceiptTotalMismatch(t *testing.T) {
	payload := strings.Replace(twoSocksPayload, `"total_price": 20`, `"total_price": 25`, 1)
	r := transform(t, payload)

	report := ValidateReceipt(r)
	assert.True(t, report.ValidationSuccess, "arithmetic problems are not structural")
	assert.False(t, report.Clean())
	require.Len(t, report.Issues, 2)
	assert.Contains(t, report.Issues[0], "sum(lineTotals)")
	assert.Contains(t, report.Issues[0], "20.00")
	assert.Contains(t, report.Issues[0], "25.00")
	assert.Contains(t, report.Issues[1], "sum(payments.amount) 20.00")
}

func TestIntegrityAccumulates(t *testing.T) {
	r := transform(t, twoSocksPayload)
	r.Totals.Subtotal = types.Ptr(10.0)
	r.Totals.ItemCount = types.Ptr(5)
	r.AggregatedItems[0].LineTotal = 19.5

	issues, sums := Integrity(r)
	require.Len(t, issues, 3)
	assert.Equal(t, "totals.subtotal - subtotal + taxTotal 11.82 does not match total 20.00", issues[0])
	assert.Equal(t, "totals.itemCount - itemCount 5 does not match items length 2", issues[1])
	assert.Contains(t, issues[2], "19.50")
	assert.Equal(t, 19.5, sums.AggregatedLineTotal)
}

func TestIntegrityTolerance(t *testing.T) {
	r := transform(t, twoSocksPayload)
	r.Totals.Total = 20.01
	r.Totals.Subtotal = nil

	issues, _ := Integrity(r)
	assert.Empty(t, issues, "a one cent difference is within tolerance")

	r.Totals.Total = 20.02
	issues, _ = Integrity(r)
	assert.Len(t, issues, 2)
}

func TestStructureIssues(t *testing.T) {
	r := transform(t, twoSocksPayload)
	r.Meta.SchemaVersion = ""
	r.Items[1].Quantity = 0
	r.Items[1].Currency = "AUDX"
	r.Payments[0].AmountFormatted = ""

	issues := Structure(r)
	assert.Equal(t, []string{
		"meta.schemaVersion - is required",
		`items.1.quantity - must be greater than 0`,
		`items.1.currency - must have length 3, got "AUDX"`,
		"payments.0.amountFormatted - is required",
	}, issues)

	report := ValidateReceipt(r)
	assert.False(t, report.ValidationSuccess)
}

func TestStructureNil(t *testing.T) {
	assert.Equal(t, []string{"receipt - is required"}, Structure(nil))

	report := ValidateReceipt(nil)
	assert.False(t, report.ValidationSuccess)
	assert.Len(t, report.Issues, 1)
}

func TestValidateDocument(t *testing.T) {
	data, err := json.Marshal(transform(t, twoSocksPayload))
	require.NoError(t, err)

	r, issues := ValidateDocument(data)
	require.NotNil(t, r)
	assert.Empty(t, issues)
	assert.Equal(t, 2, len(r.Items))
	assert.Nil(t, r.Totals.DiscountTotal)
}

func TestValidateDocumentTypeMismatch(t *testing.T) {
	data, err := json.Marshal(transform(t, twoSocksPayload))
	require.NoError(t, err)

	doc := strings.Replace(string(data), `"quantity":1,`, `"quantity":1.5,`, 1)
	require.NotEqual(t, string(data), doc)

	_, issues := ValidateDocument([]byte(doc))
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0], "expected integer, got number 1.5")
}

func TestValidateDocumentMalformed(t *testing.T) {
	r, issues := ValidateDocument([]byte(`{"meta":`))
	assert.Nil(t, r)
	require.Len(t, issues, 1)
	assert.True(t, strings.HasPrefix(issues[0], "receipt - invalid JSON"))

	r, issues = ValidateDocument([]byte(`[1, 2]`))
	assert.Nil(t, r)
	assert.Equal(t, []string{"receipt - expected object, got array"}, issues)
}

func TestIssuePath(t *testing.T) {
	assert.Equal(t, "items.0.quantity", issuePath("Receipt.items[0].quantity"))
	assert.Equal(t, "paymentSummary.methods.12", issuePath("Receipt.paymentSummary.methods[12]"))
	assert.Equal(t, "meta", issuePath("meta"))
}

func TestDocumentReport(t *testing.T) {
	receipt := transform(t, twoSocksPayload)
	receipt.Totals.Total = 30
	data, err := json.Marshal(receipt)
	require.NoError(t, err)

	r, report := DocumentReport(data)
	require.NotNil(t, r)
	assert.True(t, report.ValidationSuccess, "integrity issues leave structure valid")
	assert.Len(t, report.Issues, 3)
	assert.Equal(t, 30.0, report.Sums.Total)

	r, report = DocumentReport([]byte(`nope`))
	assert.Nil(t, r)
	assert.False(t, report.ValidationSuccess)
	require.Len(t, report.Issues, 1)
}
