package amortization

import (
	"fmt"

	"github.com/shopspring/decimal"

	"meinbudget/internal/core"
)

// ScheduleEntry is one period of a repayment plan.
type ScheduleEntry struct {
	Period           int             `json:"period"`
	DueDate          core.Date       `json:"dueDate"`
	Payment          decimal.Decimal `json:"payment"`
	Principal        decimal.Decimal `json:"principal"`
	Interest         decimal.Decimal `json:"interest"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

// Schedule generates the repayment plan for a fixed-rate loan. Period k is due
// k months after startDate. The last period absorbs rounding differences so
// the remaining balance ends at exactly zero.
func Schedule(principal decimal.Decimal, termMonths int, annualRatePercent decimal.Decimal, startDate core.Date) ([]ScheduleEntry, error) {
	inst, err := ComputeInstallment(principal, termMonths, annualRatePercent)
	if err != nil {
		return nil, fmt.Errorf("generate schedule: %w", err)
	}

	rate := decimal.NewFromFloat(monthlyRate(annualRatePercent))
	entries := make([]ScheduleEntry, 0, termMonths)
	remaining := principal

	for period := 1; period <= termMonths; period++ {
		interest := remaining.Mul(rate).Round(2)
		principalPart := inst.MonthlyPayment.Sub(interest)
		if period == termMonths || principalPart.GreaterThan(remaining) {
			principalPart = remaining
		}
		remaining = remaining.Sub(principalPart)

		entries = append(entries, ScheduleEntry{
			Period:           period,
			DueDate:          startDate.AddMonths(period),
			Payment:          principalPart.Add(interest),
			Principal:        principalPart,
			Interest:         interest,
			RemainingBalance: remaining,
		})
		if remaining.IsZero() {
			break
		}
	}
	return entries, nil
}

// Progress describes how far a credit has been repaid as of a given day.
type Progress struct {
	InstallmentsPaid int             `json:"installmentsPaid"`
	InstallmentsLeft int             `json:"installmentsLeft"`
	AmountPaid       decimal.Decimal `json:"amountPaid"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
	NextDueDate      *core.Date      `json:"nextDueDate,omitempty"`
}

// ProgressOf assumes every installment due on or before asOf has been paid.
func ProgressOf(c core.Credit, asOf core.Date) (Progress, error) {
	entries, err := Schedule(c.TotalAmount, c.TermMonths, c.EffectiveInterestRate, c.StartDate)
	if err != nil {
		return Progress{}, err
	}
	p := Progress{
		AmountPaid:       decimal.Zero,
		RemainingBalance: c.TotalAmount,
	}
	for _, e := range entries {
		if e.DueDate.After(asOf.Time) {
			due := e.DueDate
			p.NextDueDate = &due
			break
		}
		p.InstallmentsPaid++
		p.AmountPaid = p.AmountPaid.Add(e.Payment)
		p.RemainingBalance = e.RemainingBalance
	}
	p.InstallmentsLeft = len(entries) - p.InstallmentsPaid
	return p, nil
}
