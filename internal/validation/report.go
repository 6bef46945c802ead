package validation

import "github.com/ginjaninja78/receipt-normalizer/internal/types"

// Report is the validation outcome published next to a receipt.
//
// ValidationSuccess reflects structural validity only. Issues lists
// structural issues first, then integrity issues, so a structurally valid
// receipt can still carry arithmetic issues.
type Report struct {
	ValidationSuccess bool     `json:"validationSuccess" yaml:"validationSuccess"`
	Issues            []string `json:"issues" yaml:"issues"`
	Sums              Sums     `json:"sums" yaml:"sums"`
}

// Clean reports whether the receipt passed every check.
func (r Report) Clean() bool {
	return len(r.Issues) == 0
}

// ValidateReceipt runs structural validation and the integrity checks
// on r.
func ValidateReceipt(r *types.Receipt) Report {
	structural := Structure(r)
	report := Report{
		ValidationSuccess: len(structural) == 0,
		Issues:            make([]string, 0, len(structural)),
	}
	report.Issues = append(report.Issues, structural...)
	if r == nil {
		return report
	}

	integrity, sums := Integrity(r)
	report.Issues = append(report.Issues, integrity...)
	report.Sums = sums
	return report
}

// DocumentReport validates an external JSON document and runs the integrity
// checks on it. The receipt is nil when the document could not be decoded,
// in which case the report carries the decoding issue only.
func DocumentReport(data []byte) (*types.Receipt, Report) {
	r, structural := ValidateDocument(data)
	report := Report{
		ValidationSuccess: len(structural) == 0,
		Issues:            make([]string, 0, len(structural)),
	}
	report.Issues = append(report.Issues, structural...)
	if r == nil {
		report.ValidationSuccess = false
		return nil, report
	}

	integrity, sums := Integrity(r)
	report.Issues = append(report.Issues, integrity...)
	report.Sums = sums
	return r, report
}
