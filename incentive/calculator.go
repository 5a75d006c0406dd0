/*
calculator.go - Compensation total derivation

PURPOSE:
  Turns one employee's incentive inputs plus the report's store-wide
  rates into a total. Pure and deterministic: same item + same rates
  always produce the same decimal, with no side effects.

FORMULA:
  total = baseAmount
        + sum(pluses)
        - sum(deductions)
        + captacionQty    * rates.PerCaptacion
        + mecanizacionQty * rates.PerMecanizacion
        + hoursPaidQty    * rates.PerExtraHour
        + responsibilityBonus

ROUNDING:
  None. decimal.Decimal keeps exact results across repeated edits;
  rounding to currency precision happens only at display/export time
  and is never persisted as the authoritative value.

SEE ALSO:
  - types.go:     Item and Rates definitions
  - lifecycle.go: Every mutation ends by re-running this calculator
*/
package incentive

import "github.com/shopspring/decimal"

// ComputeTotal derives the incentive total for a single item. Zero-valued
// fields contribute zero, so a freshly bootstrapped item totals zero without
// special-casing.
func ComputeTotal(item Item, rates Rates) decimal.Decimal {
	total := item.BaseAmount

	for _, p := range item.Pluses {
		total = total.Add(p.Amount)
	}
	for _, d := range item.Deductions {
		total = total.Sub(d.Amount)
	}

	total = total.Add(item.CaptacionQty.Mul(rates.PerCaptacion))
	total = total.Add(item.MecanizacionQty.Mul(rates.PerMecanizacion))
	total = total.Add(item.HoursPaidQty.Mul(rates.PerExtraHour))
	total = total.Add(item.ResponsibilityBonus)

	return total
}

// Recalculate refreshes the cached total of every item in the report.
// Called after rate changes, where a single-item recompute is not enough.
func Recalculate(r *Report) {
	for i := range r.Items {
		r.Items[i].Total = ComputeTotal(r.Items[i], r.Rates)
	}
}
