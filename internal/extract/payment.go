// =============================================================================
// Receipt Normalizer - Payment Descriptor Parsing
// =============================================================================
//
// Upstream payments carry a single descriptor such as "VISA (**** 1234)" or
// "Google Pay (**** 9999)". Two independent micro-parsers read it:
//
//   NormalizePaymentMethod  the label before any "(...)" suffix, upper-cased
//                           and classified against a fixed pattern table
//   MaskedCard              the trailing digits after the asterisk mask
//
// =============================================================================

package extract

import (
	"regexp"
	"strings"
)

// methodPattern classifies an upper-cased payment label.
type methodPattern struct {
	method  string
	pattern *regexp.Regexp
}

// methodPatterns is checked in order; the first match wins.
var methodPatterns = []methodPattern{
	{method: "VISA", pattern: regexp.MustCompile(`VISA`)},
	{method: "MASTERCARD", pattern: regexp.MustCompile(`MASTERCARD|MC`)},
	{method: "AMEX", pattern: regexp.MustCompile(`AMEX|AMERICAN EXPRESS`)},
	{method: "APPLE_PAY", pattern: regexp.MustCompile(`APPLE[ _]?PAY`)},
	{method: "GOOGLE_PAY", pattern: regexp.MustCompile(`GOOGLE[ _]?PAY|G ?PAY`)},
}

// maskedCardPattern finds 2 to 4 digits directly after an asterisk mask.
var maskedCardPattern = regexp.MustCompile(`\*+\s*(\d{2,4})(?:\D|$)`)

// PaymentLabel returns the descriptor with any parenthesized suffix removed.
func PaymentLabel(descriptor string) string {
	if i := strings.Index(descriptor, "("); i >= 0 {
		descriptor = descriptor[:i]
	}
	return strings.TrimSpace(descriptor)
}

// NormalizePaymentMethod maps a payment descriptor onto a method name.
// Unrecognized labels are returned upper-cased; an empty label yields nil.
func NormalizePaymentMethod(descriptor string) *string {
	label := strings.ToUpper(PaymentLabel(descriptor))
	if label == "" {
		return nil
	}

	for _, mp := range methodPatterns {
		if mp.pattern.MatchString(label) {
			method := mp.method
			return &method
		}
	}

	return &label
}

// MaskedCard renders the card tail found in a descriptor as "**** *DDDD".
func MaskedCard(descriptor string) *string {
	m := maskedCardPattern.FindStringSubmatch(descriptor)
	if m == nil {
		return nil
	}
	masked := "**** *" + m[1]
	return &masked
}
