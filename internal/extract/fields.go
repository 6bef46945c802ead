// =============================================================================
// Receipt Normalizer - Scalar Field Extractors
// =============================================================================
//
// Defaulting rules for the numeric and code fields of a payload:
//
//   Quantity       number > 0 ? floor(number) : 1   (floored values below 1 -> 1)
//   UnitPrice      number, else 0; rounded to 2dp
//   Currency       item code -> payload code -> "AUD"
//   TaxAmount      {price: number} or bare number, else 0
//   Amount         number, numeric string or {price: ...}
//   DiscountTotal  finite numeric coercion, else nil ("unknown or none")
//
// =============================================================================

package extract

import (
	"math"
	"strings"

	"github.com/ginjaninja78/receipt-normalizer/internal/money"
	"github.com/ginjaninja78/receipt-normalizer/internal/types"
)

// maxQuantity bounds quantities so that int conversion cannot overflow.
const maxQuantity = 1_000_000

// Quantity normalizes an upstream quantity. Missing, zero, negative and
// non-numeric values all become 1.
func Quantity(node any) int {
	q, ok := Number(node)
	if !ok || q <= 0 {
		return 1
	}
	if q > maxQuantity {
		return maxQuantity
	}
	n := int(math.Floor(q))
	if n < 1 {
		return 1
	}
	return n
}

// UnitPrice returns the rounded unit price, 0 when missing or non-numeric.
func UnitPrice(node any) float64 {
	p, ok := Number(node)
	if !ok {
		return 0
	}
	return money.Round2(p)
}

// Currency resolves the currency for an item: the item's own code, then the
// payload-level code, then DefaultCurrency.
func Currency(itemCode, payloadCode any) string {
	if code, ok := currencyCode(itemCode); ok {
		return code
	}
	if code, ok := currencyCode(payloadCode); ok {
		return code
	}
	return types.DefaultCurrency
}

func currencyCode(node any) (string, bool) {
	s, ok := node.(string)
	if !ok {
		return "", false
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, s != ""
}

// TaxAmount reads a tax line amount given either as {price: n} or as a bare
// number. Anything else is 0.
func TaxAmount(node any) float64 {
	if m, ok := Map(node); ok {
		if p, ok := Number(m["price"]); ok {
			return money.Round2(p)
		}
		return 0
	}
	if p, ok := Number(node); ok {
		return money.Round2(p)
	}
	return 0
}

// Amount reads a money value given as a number, a numeric string or a
// {price: ...} object. The result is rounded to 2dp.
func Amount(node any) (float64, bool) {
	if m, ok := Map(node); ok {
		node = m["price"]
	}
	v, ok := Coerce(node)
	if !ok {
		return 0, false
	}
	return money.Round2(v), true
}

// DiscountTotal coerces the upstream discount field. nil means the field was
// missing or did not coerce to a finite number.
func DiscountTotal(node any) *float64 {
	v, ok := Amount(node)
	if !ok {
		return nil
	}
	return &v
}

// OptionalNumber returns a rounded number or nil.
func OptionalNumber(node any) *float64 {
	v, ok := Number(node)
	if !ok {
		return nil
	}
	v = money.Round2(v)
	return &v
}
