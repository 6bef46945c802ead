// =============================================================================
// Receipt Normalizer - Receipt Assembler
// =============================================================================
//
// This module turns one raw upstream payload into a normalized Receipt.
//
// ASSEMBLY PIPELINE:
//   1. Hash the raw payload (canonical JSON, SHA-256)
//   2. Read identities, timestamps and merchant
//   3. Normalize basket lines into items
//   4. Aggregate items by identity key
//   5. Read tax lines and derive totals
//   6. Read payments and build the payment summary
//   7. Read the optional extras (slip, returns policy, loyalty, notes)
//
// FAILURE MODEL:
//   Transform never fails. Absent or malformed fields fall back to the
//   defaults in internal/extract; a payload that cannot be serialized only
//   loses meta.rawHash.
//
// CONCURRENCY:
//   Transform keeps no state between calls and performs no I/O. It is safe to
//   call from many goroutines on independent payloads.
//
// =============================================================================

package converter

import (
	"time"

	"github.com/ginjaninja78/receipt-normalizer/internal/extract"
	"github.com/ginjaninja78/receipt-normalizer/internal/money"
	"github.com/ginjaninja78/receipt-normalizer/internal/types"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options tunes a Transform call.
type Options struct {
	// SchemaVersion overrides the version stamped into meta.
	// Default: types.SchemaVersion
	SchemaVersion string

	// RunID is copied into meta.runId for downstream correlation.
	RunID string

	// Now supplies the assembly time. Default: time.Now
	Now func() time.Time
}

func (o Options) schemaVersion() string {
	if o.SchemaVersion == "" {
		return types.SchemaVersion
	}
	return o.SchemaVersion
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// =============================================================================
// TRANSFORM
// =============================================================================

// Transform assembles a Receipt from a decoded upstream payload.
//
// For a fixed payload and SchemaVersion every field except meta.fetchedAtISO
// is identical across calls.
func Transform(raw any, opts Options) *types.Receipt {
	payloadCurrency := extract.Lookup(raw, "currency_code")
	currency := extract.Currency(nil, payloadCurrency)

	receipt := &types.Receipt{
		Meta: types.Meta{
			SchemaVersion: opts.schemaVersion(),
			Source:        types.Source,
			FetchedAtISO:  opts.now().UTC().Format(extract.ISOLayout),
			RawHash:       RawHash(raw),
		},
		Identities: readIdentities(raw),
		Timestamps: extract.Timestamps(extract.Lookup(raw, "created_at"), extract.Lookup(raw, "timezone")),
		Merchant:   extract.Merchant(extract.Lookup(raw, "store")),
	}
	if opts.RunID != "" {
		receipt.Meta.RunID = types.Ptr(opts.RunID)
	}

	receipt.Items = readItems(extract.Lookup(raw, "basket", "items"), payloadCurrency)
	receipt.AggregatedItems = Aggregate(receipt.Items)
	receipt.Totals = readTotals(raw, currency, receipt.Items)
	receipt.Payments = readPayments(extract.Lookup(raw, "payments"), payloadCurrency)
	receipt.PaymentSummary = summarizePayments(receipt.Payments, currency)
	receipt.PaymentCardMeta = readCardMeta(raw)
	receipt.ReturnsPolicy = readReturnsPolicy(extract.Lookup(raw, "returns_policy"))
	receipt.LoyaltyPrograms = readLoyalty(extract.Lookup(raw, "loyalty_programs"))
	receipt.Notes = readNotes(extract.Lookup(raw, "notes"))

	return receipt
}

// =============================================================================
// SECTIONS
// =============================================================================

func readIdentities(raw any) types.Identities {
	ids := types.Identities{
		ReceiptID:   extract.StringPtr(extract.Lookup(raw, "id")),
		OrderNumber: extract.StringPtr(extract.Lookup(raw, "order_number")),
		ReceiptType: extract.StringPtr(extract.Lookup(raw, "receipt_type")),
	}
	if b, ok := extract.Bool(extract.Lookup(raw, "is_tax_invoice")); ok {
		ids.IsTaxInvoice = &b
	}
	return ids
}

// readItems normalizes basket lines in upstream order. Non-object entries are
// skipped.
func readItems(node, payloadCurrency any) []types.ReceiptItem {
	lines := extract.Slice(node)
	items := make([]types.ReceiptItem, 0, len(lines))

	for _, line := range lines {
		m, ok := extract.Map(line)
		if !ok {
			continue
		}

		name, _ := extract.String(m["name"])
		props := extract.ParseProperties(m["properties"])
		quantity := extract.Quantity(m["quantity_purchased"])
		unitPrice := extract.UnitPrice(m["unit_price"])
		lineTotal := money.Mul(unitPrice, quantity)
		currency := extract.Currency(m["currency_code"], payloadCurrency)

		items = append(items, types.ReceiptItem{
			Name:               name,
			SKU:                props.SKU,
			APN:                props.APN,
			Colour:             props.Colour,
			Size:               props.Size,
			Quantity:           quantity,
			UnitPrice:          unitPrice,
			UnitPriceFormatted: money.Format(unitPrice, currency),
			LineTotal:          lineTotal,
			LineTotalFormatted: money.Format(lineTotal, currency),
			Currency:           currency,
			Discount:           extract.OptionalNumber(m["discount"]),
			Tax:                extract.OptionalNumber(m["tax"]),
		})
	}

	return items
}

func readTaxes(node any, currency string) []types.TaxLine {
	entries := extract.Slice(node)
	taxes := make([]types.TaxLine, 0, len(entries))

	for _, entry := range entries {
		m, ok := extract.Map(entry)
		if !ok {
			continue
		}
		amount := extract.TaxAmount(m["amount"])
		taxes = append(taxes, types.TaxLine{
			Name:            extract.StringPtr(m["name"]),
			Rate:            extract.OptionalNumber(m["rate"]),
			Amount:          amount,
			AmountFormatted: money.Format(amount, currency),
		})
	}

	return taxes
}

// readTotals derives the receipt-level totals. The upstream total is
// authoritative; subtotal exists only when a tax total does.
func readTotals(raw any, currency string, items []types.ReceiptItem) types.Totals {
	total, _ := extract.Amount(extract.Lookup(raw, "total_price"))

	totals := types.Totals{
		Currency:       currency,
		Total:          total,
		TotalFormatted: money.Format(total, currency),
		DiscountTotal:  extract.DiscountTotal(extract.Lookup(raw, "total_discount")),
		Taxes:          readTaxes(extract.Lookup(raw, "taxes"), currency),
	}
	totals.DiscountTotalFormatted = money.FormatPtr(totals.DiscountTotal, currency)

	if tax, ok := extract.Amount(extract.Lookup(raw, "total_tax")); ok {
		totals.TaxTotal = &tax
	} else if len(totals.Taxes) > 0 {
		amounts := make([]float64, len(totals.Taxes))
		for i, t := range totals.Taxes {
			amounts[i] = t.Amount
		}
		tax := money.Sum(amounts...)
		totals.TaxTotal = &tax
	}
	if totals.TaxTotal != nil {
		subtotal := money.Sub(total, *totals.TaxTotal)
		totals.Subtotal = &subtotal
	}
	totals.TaxTotalFormatted = money.FormatPtr(totals.TaxTotal, currency)
	totals.SubtotalFormatted = money.FormatPtr(totals.Subtotal, currency)

	count := len(items)
	if n, ok := extract.Int(extract.Lookup(raw, "item_count")); ok && n >= 0 {
		count = n
	}
	totals.ItemCount = &count

	for _, item := range items {
		totals.ComputedItemQuantity += item.Quantity
	}

	return totals
}

func readPayments(node, payloadCurrency any) []types.PaymentDetail {
	entries := extract.Slice(node)
	payments := make([]types.PaymentDetail, 0, len(entries))

	for _, entry := range entries {
		m, ok := extract.Map(entry)
		if !ok {
			continue
		}

		descriptor, _ := extract.String(m["method"])
		amount, _ := extract.Amount(m["amount"])
		currency := extract.Currency(m["currency_code"], payloadCurrency)

		payment := types.PaymentDetail{
			Method:          extract.NormalizePaymentMethod(descriptor),
			MaskedCard:      extract.MaskedCard(descriptor),
			Amount:          amount,
			AmountFormatted: money.Format(amount, currency),
			Currency:        currency,
		}
		if descriptor != "" {
			payment.RawMethod = &descriptor
		}
		payments = append(payments, payment)
	}

	return payments
}

// summarizePayments totals payments and lists each normalized method once,
// in first-seen order.
func summarizePayments(payments []types.PaymentDetail, currency string) types.PaymentSummary {
	amounts := make([]float64, len(payments))
	methods := make([]string, 0, len(payments))
	seen := make(map[string]bool)

	for i, p := range payments {
		amounts[i] = p.Amount
		if p.Method == nil || seen[*p.Method] {
			continue
		}
		seen[*p.Method] = true
		methods = append(methods, *p.Method)
	}

	total := money.Sum(amounts...)
	return types.PaymentSummary{
		TotalPaid:          total,
		TotalPaidFormatted: money.Format(total, currency),
		Methods:            methods,
	}
}

// readCardMeta parses the first terminal slip found on a payment, falling back
// to a slip attached to the payload itself.
func readCardMeta(raw any) *types.PaymentCardMeta {
	for _, entry := range extract.Slice(extract.Lookup(raw, "payments")) {
		if slip, ok := extract.String(extract.Lookup(entry, "terminal_receipt")); ok {
			if meta := extract.SlipMetadata(slip); meta != nil {
				return meta
			}
		}
	}
	if slip, ok := extract.String(extract.Lookup(raw, "terminal_receipt")); ok {
		return extract.SlipMetadata(slip)
	}
	return nil
}

func readReturnsPolicy(node any) *types.ReturnsPolicy {
	if text, ok := extract.String(node); ok {
		return &types.ReturnsPolicy{Text: text}
	}
	text, ok := extract.String(extract.Lookup(node, "text"))
	if !ok {
		return nil
	}
	return &types.ReturnsPolicy{
		Title: extract.StringPtr(extract.Lookup(node, "title")),
		Text:  text,
	}
}

func readLoyalty(node any) []types.LoyaltyProgram {
	var programs []types.LoyaltyProgram

	for _, entry := range extract.Slice(node) {
		m, ok := extract.Map(entry)
		if !ok {
			continue
		}
		program := types.LoyaltyProgram{
			Name:        extract.StringPtr(m["name"]),
			Description: extract.StringPtr(m["description"]),
		}
		if program.Description != nil {
			program.MaskedID = extract.LoyaltyMaskedID(*program.Description)
		}
		if program.Name == nil && program.Description == nil {
			continue
		}
		programs = append(programs, program)
	}

	return programs
}

func readNotes(node any) []string {
	if note, ok := extract.String(node); ok {
		return []string{note}
	}

	var notes []string
	for _, entry := range extract.Slice(node) {
		if note, ok := entry.(string); ok {
			if note, ok := extract.String(note); ok {
				notes = append(notes, note)
			}
		}
	}
	return notes
}
