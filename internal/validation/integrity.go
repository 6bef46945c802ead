package validation

import (
	"fmt"
	"math"

	"github.com/ginjaninja78/receipt-normalizer/internal/money"
	"github.com/ginjaninja78/receipt-normalizer/internal/types"
)

// =============================================================================
// INTEGRITY CHECKS
// =============================================================================
//
// Cross-field arithmetic invariants, independent of structural validity:
//
//   1. sum(items.lineTotal)            ~ totals.total
//   2. sum(payments.amount)            ~ totals.total
//   3. totals.subtotal + totals.taxTotal ~ totals.total   (both present)
//   4. totals.itemCount == len(items)                     (itemCount present)
//   5. sum(aggregatedItems.lineTotal)  ~ sum(items.lineTotal)
//
// Every applicable check runs; failures accumulate.
//
// =============================================================================

// Tolerance is the absolute difference, in currency units, under which two
// money values are considered equal.
const Tolerance = 0.01

// epsilon absorbs binary float error when a difference is exactly Tolerance.
const epsilon = 1e-9

// Sums are the recomputed totals the integrity checks compare.
type Sums struct {
	ItemsLineTotal      float64  `json:"itemsLineTotal" yaml:"itemsLineTotal"`
	PaymentsTotal       float64  `json:"paymentsTotal" yaml:"paymentsTotal"`
	AggregatedLineTotal float64  `json:"aggregatedLineTotal" yaml:"aggregatedLineTotal"`
	Total               float64  `json:"total" yaml:"total"`
	Subtotal            *float64 `json:"subtotal,omitempty" yaml:"subtotal,omitempty"`
	TaxTotal            *float64 `json:"taxTotal,omitempty" yaml:"taxTotal,omitempty"`
}

// ComputeSums recomputes the totals of r.
func ComputeSums(r *types.Receipt) Sums {
	lineTotals := make([]float64, len(r.Items))
	for i, item := range r.Items {
		lineTotals[i] = item.LineTotal
	}

	payments := make([]float64, len(r.Payments))
	for i, p := range r.Payments {
		payments[i] = p.Amount
	}

	aggregated := make([]float64, len(r.AggregatedItems))
	for i, a := range r.AggregatedItems {
		aggregated[i] = a.LineTotal
	}

	return Sums{
		ItemsLineTotal:      money.Sum(lineTotals...),
		PaymentsTotal:       money.Sum(payments...),
		AggregatedLineTotal: money.Sum(aggregated...),
		Total:               r.Totals.Total,
		Subtotal:            r.Totals.Subtotal,
		TaxTotal:            r.Totals.TaxTotal,
	}
}

// Integrity runs the five arithmetic checks on r and returns one issue per
// failing check together with the sums it compared.
func Integrity(r *types.Receipt) ([]string, Sums) {
	sums := ComputeSums(r)
	var issues []string

	if differs(sums.ItemsLineTotal, sums.Total) {
		issues = append(issues, fmt.Sprintf(
			"totals.total - sum(lineTotals) %.2f does not match total %.2f",
			sums.ItemsLineTotal, sums.Total))
	}

	if differs(sums.PaymentsTotal, sums.Total) {
		issues = append(issues, fmt.Sprintf(
			"paymentSummary.totalPaid - sum(payments.amount) %.2f does not match total %.2f",
			sums.PaymentsTotal, sums.Total))
	}

	if sums.Subtotal != nil && sums.TaxTotal != nil {
		combined := money.Sum(*sums.Subtotal, *sums.TaxTotal)
		if differs(combined, sums.Total) {
			issues = append(issues, fmt.Sprintf(
				"totals.subtotal - subtotal + taxTotal %.2f does not match total %.2f",
				combined, sums.Total))
		}
	}

	if r.Totals.ItemCount != nil && *r.Totals.ItemCount != len(r.Items) {
		issues = append(issues, fmt.Sprintf(
			"totals.itemCount - itemCount %d does not match items length %d",
			*r.Totals.ItemCount, len(r.Items)))
	}

	if differs(sums.AggregatedLineTotal, sums.ItemsLineTotal) {
		issues = append(issues, fmt.Sprintf(
			"aggregatedItems - sum(aggregated lineTotals) %.2f does not match sum(lineTotals) %.2f",
			sums.AggregatedLineTotal, sums.ItemsLineTotal))
	}

	return issues, sums
}

func differs(a, b float64) bool {
	return math.Abs(a-b) > Tolerance+epsilon
}
