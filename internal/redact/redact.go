// =============================================================================
// Receipt Normalizer - Redaction Pass
// =============================================================================
//
// Redaction is the one step allowed to mutate a Receipt after assembly. It
// masks the merchant phone, ABN and loyalty ids down to their last four
// digits and rewrites card fields into the canonical "**** DDDD" shape.
// Loyalty descriptions are free text, so only the long digit runs inside
// them are masked.
//
// ENFORCEMENT:
//   With Options.Enforce set, the sensitive fields are rescanned after
//   masking. Any remaining run of eight or more digits (single spaces or
//   hyphens allowed between them) fails the pass with a *PIIViolationError.
//   This is the only hard failure in the pipeline.
//
// Running Redact twice yields the same receipt as running it once.
//
// =============================================================================

package redact

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/receipt-normalizer/internal/types"
)

// minMaskDigits is the digit count below which a field is left as is.
const minMaskDigits = 6

// visibleDigits is the number of trailing digits kept by a mask.
const visibleDigits = 4

// maskPrefix replaces everything but the visible tail.
const maskPrefix = "****"

// ErrPIIViolation is matched by every error returned from Enforce.
var ErrPIIViolation = errors.New("pii violation")

var (
	nonDigit      = regexp.MustCompile(`\D`)
	canonicalCard = regexp.MustCompile(`^\*{4} \d{2,4}$`)
	longDigitRun  = regexp.MustCompile(`\d(?:[ -]?\d){7,}`)
)

// Options controls a redaction pass.
type Options struct {
	// Enforce fails the pass when unmasked sensitive digits remain.
	Enforce bool
}

// PIIViolationError lists the fields that still expose long digit runs.
type PIIViolationError struct {
	Fields []string
}

func (e *PIIViolationError) Error() string {
	return fmt.Sprintf("%v: unmasked digits in %s", ErrPIIViolation, strings.Join(e.Fields, ", "))
}

// Is makes errors.Is(err, ErrPIIViolation) hold for any PIIViolationError.
func (e *PIIViolationError) Is(target error) bool {
	return target == ErrPIIViolation
}

// =============================================================================
// REDACTION
// =============================================================================

// Redact masks the sensitive fields of r in place.
func Redact(r *types.Receipt, opts Options) error {
	if r == nil {
		return nil
	}

	r.Merchant.Phone = maskTail(r.Merchant.Phone)
	r.Merchant.ABN = maskTail(r.Merchant.ABN)
	for i := range r.Payments {
		r.Payments[i].MaskedCard = canonicalizeCard(r.Payments[i].MaskedCard)
	}
	for i := range r.LoyaltyPrograms {
		l := &r.LoyaltyPrograms[i]
		l.MaskedID = maskTail(l.MaskedID)
		l.Description = maskDigitRuns(l.Description)
	}

	if !opts.Enforce {
		return nil
	}
	return Enforce(r)
}

// Enforce scans the sensitive fields of r and returns a *PIIViolationError
// naming every field that still contains a long digit run.
func Enforce(r *types.Receipt) error {
	if r == nil {
		return nil
	}

	var fields []string
	check := func(path string, value *string) {
		if value != nil && longDigitRun.MatchString(*value) {
			fields = append(fields, path)
		}
	}

	check("merchant.phone", r.Merchant.Phone)
	check("merchant.abn", r.Merchant.ABN)
	for i, p := range r.Payments {
		check(fmt.Sprintf("payments.%d.maskedCard", i), p.MaskedCard)
		check(fmt.Sprintf("payments.%d.rawMethod", i), p.RawMethod)
	}
	for i, l := range r.LoyaltyPrograms {
		check(fmt.Sprintf("loyaltyPrograms.%d.maskedId", i), l.MaskedID)
		check(fmt.Sprintf("loyaltyPrograms.%d.description", i), l.Description)
	}

	if len(fields) > 0 {
		return &PIIViolationError{Fields: fields}
	}
	return nil
}

// maskTail keeps the last four digits of a value with at least six digits.
func maskTail(value *string) *string {
	if value == nil {
		return nil
	}
	digits := nonDigit.ReplaceAllString(*value, "")
	if len(digits) < minMaskDigits {
		return value
	}
	masked := maskPrefix + digits[len(digits)-visibleDigits:]
	return &masked
}

// maskDigitRuns masks every long digit run inside value, keeping the rest of
// the text.
func maskDigitRuns(value *string) *string {
	if value == nil || !longDigitRun.MatchString(*value) {
		return value
	}
	masked := longDigitRun.ReplaceAllStringFunc(*value, func(run string) string {
		return *maskTail(&run)
	})
	return &masked
}

// canonicalizeCard rewrites a card field as "**** " followed by its last
// (up to four) digits.
func canonicalizeCard(value *string) *string {
	if value == nil || canonicalCard.MatchString(*value) {
		return value
	}
	digits := nonDigit.ReplaceAllString(*value, "")
	if digits == "" {
		return value
	}
	if len(digits) > visibleDigits {
		digits = digits[len(digits)-visibleDigits:]
	}
	card := maskPrefix + " " + digits
	return &card
}
