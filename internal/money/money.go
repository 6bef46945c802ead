// =============================================================================
// Receipt Normalizer - Money Helpers
// =============================================================================
//
// Rounding and display formatting for every money field on a Receipt.
//
// ROUNDING:
//   Values are rounded on their shortest decimal representation, half away
//   from zero. 1.005 therefore rounds to 1.01, not the 1.00 that binary
//   float arithmetic would give.
//
// FORMATTING:
//   The currency code picks the locale used for grouping and decimal
//   separators and the number of minor-unit digits. Formatting never
//   changes the numeric value it renders.
//
// =============================================================================

package money

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Sum adds values in decimal arithmetic and rounds the result to two places.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}

// Sub returns a - b rounded to two places.
func Sub(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(2).InexactFloat64()
}

// Mul returns price * qty rounded to two places.
func Mul(price float64, qty int) float64 {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty))).Round(2).InexactFloat64()
}

// =============================================================================
// FORMATTING
// =============================================================================

// locales maps a currency to the locale whose separators it is shown with.
var locales = map[string]language.Tag{
	"AUD": language.MustParse("en-AU"),
	"NZD": language.MustParse("en-NZ"),
	"USD": language.AmericanEnglish,
	"CAD": language.MustParse("en-CA"),
	"GBP": language.BritishEnglish,
	"SGD": language.MustParse("en-SG"),
	"HKD": language.MustParse("en-HK"),
	"EUR": language.German,
	"JPY": language.Japanese,
}

var symbols = map[string]string{
	"AUD": "$",
	"NZD": "$",
	"USD": "$",
	"CAD": "$",
	"SGD": "$",
	"HKD": "$",
	"GBP": "£",
	"EUR": "€",
	"JPY": "¥",
}

// Format renders amount in the given ISO 4217 currency, e.g. "$1,234.50".
//
// Unknown codes fall back to "<amount> <CODE>" with two decimals.
func Format(amount float64, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))

	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%.2f %s", amount, code)
	}

	scale, _ := currency.Standard.Rounding(unit)

	tag, ok := locales[code]
	if !ok {
		tag = language.English
	}

	rounded := decimal.NewFromFloat(amount).Round(int32(scale))
	p := message.NewPrinter(tag)
	digits := p.Sprint(number.Decimal(rounded.Abs().InexactFloat64(), number.Scale(scale)))

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}

	symbol, ok := symbols[code]
	if !ok {
		return sign + code + " " + digits
	}
	return sign + symbol + digits
}

// FormatPtr formats *amount, returning nil when amount is nil.
func FormatPtr(amount *float64, code string) *string {
	if amount == nil {
		return nil
	}
	s := Format(*amount, code)
	return &s
}
