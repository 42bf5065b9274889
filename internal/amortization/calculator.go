// Package amortization computes fixed-rate annuity installments for credits.
//
// The monthly payment follows the standard annuity formula
//
//	r       = annualRatePercent / 100 / 12
//	payment = P * r / (1 - (1+r)^-n)
//
// Results are rounded half away from zero to two decimal places. The
// functions are pure and safe for concurrent use.
package amortization

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"meinbudget/internal/core"
)

var (
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)
)

// Installment is the result of an amortization calculation.
type Installment struct {
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
	TotalInterest  decimal.Decimal `json:"totalInterest"`
}

// TotalRepayment is principal plus interest, i.e. payment times term.
func (i Installment) TotalRepayment(termMonths int) decimal.Decimal {
	return i.MonthlyPayment.Mul(decimal.NewFromInt(int64(termMonths)))
}

// ComputeInstallment returns the fixed monthly payment and the total interest
// for a loan of principal over termMonths at annualRatePercent.
//
// TotalInterest is derived from the rounded payment, so
// MonthlyPayment*termMonths - TotalInterest equals principal exactly. A zero
// rate splits the principal evenly and reports zero interest. termMonths
// outside 1..core.MaxTermMonths is rejected; principal and rate ranges are
// the caller's concern.
func ComputeInstallment(principal decimal.Decimal, termMonths int, annualRatePercent decimal.Decimal) (Installment, error) {
	if termMonths < 1 || termMonths > core.MaxTermMonths {
		return Installment{}, fmt.Errorf("compute installment: %w", core.ErrInvalidTerm)
	}
	n := decimal.NewFromInt(int64(termMonths))

	if annualRatePercent.IsZero() {
		return evenSplit(principal, n), nil
	}

	r := monthlyRate(annualRatePercent)
	// float64 for the power only, decimal for everything monetary.
	// (1+r)^-n underflows to 0 for long high-rate terms, leaving payment = P*r.
	denom := 1 - math.Pow(1+r, -float64(termMonths))
	if denom == 0 {
		// r below float64 resolution around 1
		return evenSplit(principal, n), nil
	}
	raw := principal.InexactFloat64() * r / denom
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return Installment{}, fmt.Errorf("compute installment: %w: rate %s out of range", core.ErrValidation, annualRatePercent)
	}
	payment := decimal.NewFromFloat(raw).Round(2)

	return Installment{
		MonthlyPayment: payment,
		TotalInterest:  payment.Mul(n).Sub(principal).Round(2),
	}, nil
}

func evenSplit(principal, n decimal.Decimal) Installment {
	return Installment{
		MonthlyPayment: principal.DivRound(n, 2),
		TotalInterest:  decimal.Zero,
	}
}

func monthlyRate(annualRatePercent decimal.Decimal) float64 {
	return annualRatePercent.Div(hundred).Div(monthsInYear).InexactFloat64()
}
