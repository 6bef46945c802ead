// =============================================================================
// Receipt Normalizer - Free-Text Micro-Parsers
// =============================================================================
//
// Loyalty descriptions and EFTPOS terminal slips arrive as unstructured text.
// Each parser here uses a fixed pattern table and returns nil when nothing
// matches.
//
// =============================================================================

package extract

import (
	"regexp"
	"strings"

	"github.com/ginjaninja78/receipt-normalizer/internal/types"
)

// =============================================================================
// LOYALTY
// =============================================================================

var loyaltyIDPattern = regexp.MustCompile(`(?i)loyalty id:[ \t]*([^\r\n]*)`)

// LoyaltyMaskedID returns the text following a "Loyalty ID:" label, up to
// the end of its line.
func LoyaltyMaskedID(description string) *string {
	m := loyaltyIDPattern.FindStringSubmatch(description)
	if m == nil {
		return nil
	}
	id := strings.TrimSpace(m[1])
	if id == "" {
		return nil
	}
	return &id
}

// =============================================================================
// TERMINAL SLIP
// =============================================================================

// slipLabel pairs a printed slip label with the field it fills.
type slipLabel struct {
	label string
	set   func(meta *types.PaymentCardMeta, value *string)
}

// slipLabels lists the labels read from a terminal slip.
var slipLabels = []slipLabel{
	{"MERCHANT ID", func(m *types.PaymentCardMeta, v *string) { m.MerchantID = v }},
	{"TERMINAL ID", func(m *types.PaymentCardMeta, v *string) { m.TerminalID = v }},
	{"STAN", func(m *types.PaymentCardMeta, v *string) { m.STAN = v }},
	{"RRN", func(m *types.PaymentCardMeta, v *string) { m.RRN = v }},
	{"AUTH", func(m *types.PaymentCardMeta, v *string) { m.AuthCode = v }},
	{"ACCT TYPE", func(m *types.PaymentCardMeta, v *string) { m.AccountType = v }},
	{"TRANS TYPE", func(m *types.PaymentCardMeta, v *string) { m.TransactionType = v }},
}

// slipPatterns holds one compiled line pattern per label, in slipLabels order.
var slipPatterns = compileSlipPatterns()

func compileSlipPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(slipLabels))
	for i, l := range slipLabels {
		patterns[i] = regexp.MustCompile(`(?im)^[ \t]*` + regexp.QuoteMeta(l.label) + `[ \t]*:[ \t]*([^\r\n]*?)[ \t]*$`)
	}
	return patterns
}

// SlipMetadata reads "LABEL: value" lines from a terminal slip. Labels are
// matched case-insensitively and the first line per label wins. It returns
// nil when no label is found.
func SlipMetadata(text string) *types.PaymentCardMeta {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	meta := &types.PaymentCardMeta{}
	found := false

	for i, l := range slipLabels {
		for _, m := range slipPatterns[i].FindAllStringSubmatch(text, -1) {
			if value := m[1]; value != "" {
				l.set(meta, &value)
				found = true
				break
			}
		}
	}

	if !found {
		return nil
	}
	return meta
}
