// =============================================================================
// Receipt Normalizer - Shared Types
// =============================================================================
//
// This package contains the normalized receipt record shared by every stage of
// the pipeline. Types defined here are used by:
//   - converter  (assembles a Receipt from a raw payload)
//   - validation (structural and arithmetic checks)
//   - redact     (in-place masking)
//   - export     (spreadsheet and CSV sinks)
//
// JSON field names are part of the published schema (see internal/schema).
// Optional values are pointers tagged omitempty. DiscountTotal is the one
// nullable field that is always serialized, as null when unknown.
//
// =============================================================================

package types

// SchemaVersion is the version stamped into Meta when the caller does not
// override it.
const SchemaVersion = "1.0.0"

// Source is the fixed tag identifying the upstream payload family.
const Source = "pos-web-receipt"

// DefaultCurrency is used when neither the item nor the payload carries one.
const DefaultCurrency = "AUD"

// =============================================================================
// RECEIPT
// =============================================================================

// Receipt is the normalized record for one purchase transaction.
type Receipt struct {
	Meta            Meta             `json:"meta" yaml:"meta"`
	Identities      Identities       `json:"identities" yaml:"identities"`
	Timestamps      Timestamps       `json:"timestamps" yaml:"timestamps"`
	Merchant        Merchant         `json:"merchant" yaml:"merchant"`
	Totals          Totals           `json:"totals" yaml:"totals"`
	Items           []ReceiptItem    `json:"items" yaml:"items" validate:"dive"`
	AggregatedItems []AggregatedItem `json:"aggregatedItems" yaml:"aggregatedItems" validate:"dive"`
	Payments        []PaymentDetail  `json:"payments" yaml:"payments" validate:"dive"`
	PaymentSummary  PaymentSummary   `json:"paymentSummary" yaml:"paymentSummary"`
	PaymentCardMeta *PaymentCardMeta `json:"paymentCardMeta,omitempty" yaml:"paymentCardMeta,omitempty" validate:"omitempty"`
	ReturnsPolicy   *ReturnsPolicy   `json:"returnsPolicy,omitempty" yaml:"returnsPolicy,omitempty" validate:"omitempty"`
	LoyaltyPrograms []LoyaltyProgram `json:"loyaltyPrograms,omitempty" yaml:"loyaltyPrograms,omitempty" validate:"omitempty,dive"`
	Notes           []string         `json:"notes,omitempty" yaml:"notes,omitempty" validate:"omitempty,dive,required"`
}

// Meta describes how and when the record was produced.
type Meta struct {
	// SchemaVersion is the version of the normalized shape.
	SchemaVersion string `json:"schemaVersion" yaml:"schemaVersion" validate:"required"`

	// Source is always the Source constant for records built by this module.
	Source string `json:"source" yaml:"source" validate:"required"`

	// FetchedAtISO is the wall-clock time of assembly (RFC 3339, UTC).
	FetchedAtISO string `json:"fetchedAtISO" yaml:"fetchedAtISO" validate:"required,datetime=2006-01-02T15:04:05.000Z07:00"`

	// RawHash is the hex SHA-256 of the canonical JSON of the raw payload.
	// It is absent when the payload could not be serialized.
	RawHash *string `json:"rawHash,omitempty" yaml:"rawHash,omitempty" validate:"omitempty,hexadecimal,len=64"`

	// RunID correlates the record with the batch or request that built it.
	RunID *string `json:"runId,omitempty" yaml:"runId,omitempty"`
}

// Identities are passthrough identifiers from the upstream payload.
type Identities struct {
	ReceiptID    *string `json:"receiptId,omitempty" yaml:"receiptId,omitempty"`
	OrderNumber  *string `json:"orderNumber,omitempty" yaml:"orderNumber,omitempty"`
	ReceiptType  *string `json:"receiptType,omitempty" yaml:"receiptType,omitempty"`
	IsTaxInvoice *bool   `json:"isTaxInvoice,omitempty" yaml:"isTaxInvoice,omitempty"`
}

// Timestamps holds the purchase time in several renderings.
// Date and Time are always derived in UTC.
type Timestamps struct {
	EpochSeconds *int64  `json:"epochSeconds,omitempty" yaml:"epochSeconds,omitempty" validate:"omitempty,gte=0"`
	ISO          *string `json:"iso,omitempty" yaml:"iso,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05.000Z07:00"`
	Date         *string `json:"date,omitempty" yaml:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Time         *string `json:"time,omitempty" yaml:"time,omitempty" validate:"omitempty,datetime=15:04"`
	Timezone     *string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// =============================================================================
// MERCHANT
// =============================================================================

// Merchant identifies the store that issued the receipt.
type Merchant struct {
	TradingName *string  `json:"tradingName,omitempty" yaml:"tradingName,omitempty"`
	StoreName   *string  `json:"storeName,omitempty" yaml:"storeName,omitempty"`
	ABN         *string  `json:"abn,omitempty" yaml:"abn,omitempty"`
	Phone       *string  `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address     *Address `json:"address,omitempty" yaml:"address,omitempty" validate:"omitempty"`
}

// Address is a postal address. Full joins the present parts with ", ".
type Address struct {
	Street   *string `json:"street,omitempty" yaml:"street,omitempty"`
	Street2  *string `json:"street2,omitempty" yaml:"street2,omitempty"`
	Suburb   *string `json:"suburb,omitempty" yaml:"suburb,omitempty"`
	State    *string `json:"state,omitempty" yaml:"state,omitempty"`
	Postcode *string `json:"postcode,omitempty" yaml:"postcode,omitempty"`
	Country  *string `json:"country,omitempty" yaml:"country,omitempty"`
	Full     string  `json:"full" yaml:"full" validate:"required"`
}

// =============================================================================
// TOTALS
// =============================================================================

// Totals carries the receipt-level money figures.
type Totals struct {
	Currency               string    `json:"currency" yaml:"currency" validate:"required,len=3"`
	Total                  float64   `json:"total" yaml:"total"`
	TotalFormatted         string    `json:"totalFormatted" yaml:"totalFormatted" validate:"required"`
	Subtotal               *float64  `json:"subtotal,omitempty" yaml:"subtotal,omitempty"`
	SubtotalFormatted      *string   `json:"subtotalFormatted,omitempty" yaml:"subtotalFormatted,omitempty"`
	TaxTotal               *float64  `json:"taxTotal,omitempty" yaml:"taxTotal,omitempty"`
	TaxTotalFormatted      *string   `json:"taxTotalFormatted,omitempty" yaml:"taxTotalFormatted,omitempty"`
	DiscountTotal          *float64  `json:"discountTotal" yaml:"discountTotal"`
	DiscountTotalFormatted *string   `json:"discountTotalFormatted" yaml:"discountTotalFormatted"`
	ItemCount              *int      `json:"itemCount,omitempty" yaml:"itemCount,omitempty" validate:"omitempty,gte=0"`
	ComputedItemQuantity   int       `json:"computedItemQuantity" yaml:"computedItemQuantity" validate:"gte=0"`
	Taxes                  []TaxLine `json:"taxes" yaml:"taxes" validate:"dive"`
}

// TaxLine is one tax row printed on the receipt (GST, duty, ...).
type TaxLine struct {
	Name            *string  `json:"name,omitempty" yaml:"name,omitempty"`
	Rate            *float64 `json:"rate,omitempty" yaml:"rate,omitempty" validate:"omitempty,gte=0"`
	Amount          float64  `json:"amount" yaml:"amount"`
	AmountFormatted string   `json:"amountFormatted" yaml:"amountFormatted" validate:"required"`
}

// =============================================================================
// ITEMS
// =============================================================================

// ReceiptItem is one basket line, in upstream order.
type ReceiptItem struct {
	Name               string   `json:"name" yaml:"name"`
	SKU                *string  `json:"sku,omitempty" yaml:"sku,omitempty"`
	APN                *string  `json:"apn,omitempty" yaml:"apn,omitempty"`
	Colour             *string  `json:"colour,omitempty" yaml:"colour,omitempty"`
	Size               *string  `json:"size,omitempty" yaml:"size,omitempty"`
	Quantity           int      `json:"quantity" yaml:"quantity" validate:"gt=0"`
	UnitPrice          float64  `json:"unitPrice" yaml:"unitPrice"`
	UnitPriceFormatted string   `json:"unitPriceFormatted" yaml:"unitPriceFormatted" validate:"required"`
	LineTotal          float64  `json:"lineTotal" yaml:"lineTotal"`
	LineTotalFormatted string   `json:"lineTotalFormatted" yaml:"lineTotalFormatted" validate:"required"`
	Currency           string   `json:"currency" yaml:"currency" validate:"required,len=3"`
	Discount           *float64 `json:"discount,omitempty" yaml:"discount,omitempty"`
	Tax                *float64 `json:"tax,omitempty" yaml:"tax,omitempty"`
}

// AggregatedItem is the merge of every ReceiptItem sharing an identity key.
// Fields other than Quantity and LineTotal come from the first item seen.
type AggregatedItem struct {
	Name               string  `json:"name" yaml:"name"`
	SKU                *string `json:"sku,omitempty" yaml:"sku,omitempty"`
	APN                *string `json:"apn,omitempty" yaml:"apn,omitempty"`
	Colour             *string `json:"colour,omitempty" yaml:"colour,omitempty"`
	Size               *string `json:"size,omitempty" yaml:"size,omitempty"`
	Quantity           int     `json:"quantity" yaml:"quantity" validate:"gt=0"`
	UnitPrice          float64 `json:"unitPrice" yaml:"unitPrice"`
	UnitPriceFormatted string  `json:"unitPriceFormatted" yaml:"unitPriceFormatted" validate:"required"`
	LineTotal          float64 `json:"lineTotal" yaml:"lineTotal"`
	LineTotalFormatted string  `json:"lineTotalFormatted" yaml:"lineTotalFormatted" validate:"required"`
	Currency           string  `json:"currency" yaml:"currency" validate:"required,len=3"`

	// Lines is how many basket lines were merged into this entry.
	Lines int `json:"lines" yaml:"lines" validate:"gt=0"`
}

// =============================================================================
// PAYMENTS
// =============================================================================

// PaymentDetail is one tender applied to the receipt.
type PaymentDetail struct {
	// Method is the normalized method name (VISA, MASTERCARD, ...).
	Method *string `json:"method,omitempty" yaml:"method,omitempty"`

	// RawMethod is the upstream descriptor, e.g. "VISA (**** 1234)".
	RawMethod *string `json:"rawMethod,omitempty" yaml:"rawMethod,omitempty"`

	MaskedCard      *string `json:"maskedCard,omitempty" yaml:"maskedCard,omitempty"`
	Amount          float64 `json:"amount" yaml:"amount"`
	AmountFormatted string  `json:"amountFormatted" yaml:"amountFormatted" validate:"required"`
	Currency        string  `json:"currency" yaml:"currency" validate:"required,len=3"`
}

// PaymentSummary totals every PaymentDetail.
type PaymentSummary struct {
	TotalPaid          float64  `json:"totalPaid" yaml:"totalPaid"`
	TotalPaidFormatted string   `json:"totalPaidFormatted" yaml:"totalPaidFormatted" validate:"required"`
	Methods            []string `json:"methods" yaml:"methods" validate:"dive,required"`
}

// PaymentCardMeta holds the fields printed on an EFTPOS terminal slip.
type PaymentCardMeta struct {
	MerchantID      *string `json:"merchantId,omitempty" yaml:"merchantId,omitempty"`
	TerminalID      *string `json:"terminalId,omitempty" yaml:"terminalId,omitempty"`
	STAN            *string `json:"stan,omitempty" yaml:"stan,omitempty"`
	RRN             *string `json:"rrn,omitempty" yaml:"rrn,omitempty"`
	AuthCode        *string `json:"authCode,omitempty" yaml:"authCode,omitempty"`
	AccountType     *string `json:"accountType,omitempty" yaml:"accountType,omitempty"`
	TransactionType *string `json:"transactionType,omitempty" yaml:"transactionType,omitempty"`
}

// =============================================================================
// EXTRAS
// =============================================================================

// ReturnsPolicy is the free-text returns statement printed on the receipt.
type ReturnsPolicy struct {
	Title *string `json:"title,omitempty" yaml:"title,omitempty"`
	Text  string  `json:"text" yaml:"text" validate:"required"`
}

// LoyaltyProgram is a loyalty scheme the purchase was linked to.
type LoyaltyProgram struct {
	Name        *string `json:"name,omitempty" yaml:"name,omitempty"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
	MaskedID    *string `json:"maskedId,omitempty" yaml:"maskedId,omitempty"`
}

// =============================================================================
// HELPERS
// =============================================================================

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
