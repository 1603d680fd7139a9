package fee

import "math"

// The period rules below are pure: no I/O, defined for any numeric input.
// Negative or NaN amounts are coerced to 0 before classification so that every
// record has exactly one status.

func coerce(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// Classify determines the period status of a fee, in rule order:
// nothing owed -> paid; paid in full -> paid; some payment -> partial;
// no payment -> unpaid.
//
// Classification intentionally ignores carried-forward balance_due: status
// reflects the current period only, matching the reference behavior. A student
// who clears the current month but still owes a prior carry-forward is "paid"
// for the period.
func Classify(monthlyFee, paidAmount float64) Status {
	monthlyFee = coerce(monthlyFee)
	paidAmount = coerce(paidAmount)

	switch {
	case monthlyFee <= 0:
		return StatusPaid
	case paidAmount >= monthlyFee:
		return StatusPaid
	case paidAmount > 0:
		return StatusPartial
	default:
		return StatusUnpaid
	}
}

// ComputeBalance returns max(0, monthlyFee + carryForward - paidAmount).
// Overpayment is clamped to zero: the result never goes negative and no credit
// is produced. Callers must reject overpaid inputs via NewFee.Validate before
// persisting; the clamp here is not a substitute for that check.
func ComputeBalance(monthlyFee, carryForward, paidAmount float64) float64 {
	balance := coerce(monthlyFee) + coerce(carryForward) - coerce(paidAmount)
	if balance < 0 {
		return 0
	}
	return balance
}

// Summary aggregates a set of fee records by classification.
type Summary struct {
	PaidAmount    float64 `json:"paid_amount"`
	PaidCount     int     `json:"paid_count"`
	PartialAmount float64 `json:"partial_amount"`
	PartialCount  int     `json:"partial_count"`
	OverdueAmount float64 `json:"overdue_amount"`
	OverdueCount  int     `json:"overdue_count"`
}

// Summarize iterates the records once. A partial payment counts in both the
// partial totals (what was received) and the overdue totals (what is still
// outstanding). Accumulation is associative: input order does not affect the
// result, and no intermediate rounding is applied.
func Summarize(fees []Fee) Summary {
	var s Summary
	for _, f := range fees {
		owed := coerce(f.MonthlyFee)
		paid := coerce(f.PaidAmount)

		switch Classify(owed, paid) {
		case StatusPaid:
			s.PaidAmount += paid
			s.PaidCount++
		case StatusPartial:
			s.PartialAmount += paid
			s.PartialCount++
			s.OverdueAmount += owed - paid
			s.OverdueCount++
		case StatusUnpaid:
			s.OverdueAmount += owed
			s.OverdueCount++
		}
	}
	return s
}

// PreviousPeriod returns the immediately preceding calendar month, wrapping
// January back to December of the prior year.
func PreviousPeriod(month, year int) (int, int) {
	if month <= 1 {
		return 12, year - 1
	}
	return month - 1, year
}

// CarryForward determines the carry-forward input for a new period given the
// student's fee record for the preceding month. A missing (nil) or fully paid
// previous record carries nothing forward; otherwise the previous balance_due
// is added to the new period's due amount.
func CarryForward(prev *Fee) float64 {
	if prev == nil {
		return 0
	}
	if prev.Classify() == StatusPaid {
		return 0
	}
	return coerce(prev.BalanceDue)
}
