/*
Package finance provides the numeric primitives shared by every deal model.

PURPOSE:
  Loan math (payments, paydown, schedules), guarded ratios, rounding and
  the IRR solver live here so the deal calculators never re-derive them.
  Everything in this package is pure: no I/O, no clocks, no shared state.

KEY CONCEPTS IN THIS FILE (amortization.go):
  - MonthlyPayment: Fixed payment for a fully amortizing loan
  - Amortize:       Principal/interest split over the first N periods
  - Schedule:       The same loop, returning every period

CONVENTIONS:
  - Annual rates are percentages (7 means 7%)
  - Monthly rates are fractions (0.07/12)
  - Degenerate inputs (zero principal, zero payment) produce zero values,
    never errors

SEE ALSO:
  - money.go: Ratio, Percent and rounding helpers
  - irr.go: Internal rate of return solver
*/
package finance

import "math"

// =============================================================================
// PAYMENTS
// =============================================================================

// MonthlyRate converts an annual percentage rate into a monthly fraction.
func MonthlyRate(annualPercent float64) float64 {
	return annualPercent / 100 / 12
}

// MonthlyPayment returns the fixed payment that retires principal over
// numPayments periods at monthlyRate.
func MonthlyPayment(principal, monthlyRate float64, numPayments int) float64 {
	if principal <= 0 || numPayments <= 0 {
		return 0
	}
	if monthlyRate == 0 {
		return principal / float64(numPayments)
	}

	growth := math.Pow(1+monthlyRate, float64(numPayments))
	return principal * monthlyRate * growth / (growth - 1)
}

// LoanPayment is MonthlyPayment expressed in the units deal inputs use:
// an annual percentage rate and a term in years.
func LoanPayment(principal, annualPercent float64, termYears int) float64 {
	return MonthlyPayment(principal, MonthlyRate(annualPercent), termYears*12)
}

// InterestOnlyPayment returns the monthly interest on principal.
func InterestOnlyPayment(principal, annualPercent float64) float64 {
	if principal <= 0 {
		return 0
	}
	return principal * MonthlyRate(annualPercent)
}

// =============================================================================
// PAYDOWN
// =============================================================================

// AmortizationStep is one period of an amortization schedule.
type AmortizationStep struct {
	Interest  float64
	Principal float64
}

// Paydown summarizes the first N periods of a loan.
type Paydown struct {
	PrincipalPaid float64
	InterestPaid  float64
	EndingBalance float64
}

// Amortize walks the loan period by period. Interest is recomputed from
// the running balance each period, so the split drifts toward principal.
func Amortize(principal, monthlyRate, payment float64, periods int) Paydown {
	if principal <= 0 || payment <= 0 {
		return Paydown{EndingBalance: math.Max(principal, 0)}
	}

	result := Paydown{EndingBalance: principal}
	for _, step := range Schedule(principal, monthlyRate, payment, periods) {
		result.InterestPaid += step.Interest
		result.PrincipalPaid += step.Principal
		result.EndingBalance -= step.Principal
	}
	return result
}

// Schedule returns the per-period split for the first periods payments.
// The final principal portion is capped at the outstanding balance so the
// balance never goes negative.
func Schedule(principal, monthlyRate, payment float64, periods int) []AmortizationStep {
	if principal <= 0 || payment <= 0 || periods <= 0 {
		return nil
	}

	steps := make([]AmortizationStep, 0, periods)
	balance := principal
	for i := 0; i < periods && balance > 0; i++ {
		interest := balance * monthlyRate
		toPrincipal := payment - interest
		if toPrincipal > balance {
			toPrincipal = balance
		}
		steps = append(steps, AmortizationStep{Interest: interest, Principal: toPrincipal})
		balance -= toPrincipal
	}
	return steps
}
