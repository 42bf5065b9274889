// Package stats derives the dashboard and statistics aggregates from the
// in-memory collections. All functions are pure.
package stats

import (
	"sort"

	"github.com/shopspring/decimal"

	"meinbudget/internal/core"
)

// TrendMonths is how many most recent months the trend keeps.
const TrendMonths = 6

type CategoryTotal struct {
	CategoryID string          `json:"categoryId"`
	Name       string          `json:"name"`
	Icon       string          `json:"icon"`
	Color      string          `json:"color"`
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
}

type MonthTotal struct {
	Month    string          `json:"month"` // YYYY-MM
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

type CreditTotals struct {
	Count                int             `json:"count"`
	TotalAmount          decimal.Decimal `json:"totalAmount"`
	TotalMonthlyPayments decimal.Decimal `json:"totalMonthlyPayments"`
}

type Summary struct {
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	Balance       decimal.Decimal `json:"balance"`
	ByCategory    []CategoryTotal `json:"byCategory"`
	MonthlyTrend  []MonthTotal    `json:"monthlyTrend"`
	Credits       CreditTotals    `json:"credits"`
}

func Compute(transactions []core.Transaction, categories []core.Category, credits []core.Credit) Summary {
	income, expenses := Totals(transactions)
	return Summary{
		TotalIncome:   income,
		TotalExpenses: expenses,
		Balance:       income.Sub(expenses),
		ByCategory:    ByCategory(transactions, categories),
		MonthlyTrend:  MonthlyTrend(transactions, TrendMonths),
		Credits:       Credits(credits),
	}
}

func Totals(transactions []core.Transaction) (income, expenses decimal.Decimal) {
	income, expenses = decimal.Zero, decimal.Zero
	for _, t := range transactions {
		switch t.Type {
		case core.Income:
			income = income.Add(t.Amount)
		case core.Expense:
			expenses = expenses.Add(t.Amount)
		}
	}
	return income, expenses
}

// ByCategory sums transactions per known category. Categories without any
// amount are omitted. Ordered by total descending, then name.
func ByCategory(transactions []core.Transaction, categories []core.Category) []CategoryTotal {
	sums := make(map[string]*CategoryTotal, len(categories))
	for _, c := range categories {
		sums[c.ID] = &CategoryTotal{CategoryID: c.ID, Name: c.Name, Icon: c.Icon, Color: c.Color, Total: decimal.Zero}
	}
	for _, t := range transactions {
		if ct, ok := sums[t.CategoryID]; ok {
			ct.Total = ct.Total.Add(t.Amount)
			ct.Count++
		}
	}

	out := make([]CategoryTotal, 0, len(sums))
	for _, ct := range sums {
		if ct.Total.IsPositive() {
			out = append(out, *ct)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MonthlyTrend buckets income and expenses by YYYY-MM and keeps the last n
// months that have data, oldest first.
func MonthlyTrend(transactions []core.Transaction, n int) []MonthTotal {
	buckets := map[string]*MonthTotal{}
	for _, t := range transactions {
		key := t.Date.MonthKey()
		b, ok := buckets[key]
		if !ok {
			b = &MonthTotal{Month: key, Income: decimal.Zero, Expenses: decimal.Zero}
			buckets[key] = b
		}
		if t.Type == core.Income {
			b.Income = b.Income.Add(t.Amount)
		} else {
			b.Expenses = b.Expenses.Add(t.Amount)
		}
	}

	out := make([]MonthTotal, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

func Credits(credits []core.Credit) CreditTotals {
	totals := CreditTotals{Count: len(credits), TotalAmount: decimal.Zero, TotalMonthlyPayments: decimal.Zero}
	for _, c := range credits {
		totals.TotalAmount = totals.TotalAmount.Add(c.TotalAmount)
		totals.TotalMonthlyPayments = totals.TotalMonthlyPayments.Add(c.MonthlyRate)
	}
	return totals
}

// Recent returns up to n transactions, newest date first. Ties go to the
// later CreatedAt.
func Recent(transactions []core.Transaction, n int) []core.Transaction {
	out := append([]core.Transaction(nil), transactions...)
	SortByDateDesc(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func SortByDateDesc(transactions []core.Transaction) {
	sort.SliceStable(transactions, func(i, j int) bool {
		a, b := transactions[i], transactions[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.After(b.Date.Time)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
