package stats

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meinbudget/internal/core"
)

func tx(id string, typ core.TransactionType, cat, amount string, y, m, d int) core.Transaction {
	return core.Transaction{
		ID: id, Type: typ, CategoryID: cat,
		Amount:    decimal.RequireFromString(amount),
		Date:      core.NewDate(y, m, d),
		CreatedAt: time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC),
	}
}

func TestCompute(t *testing.T) {
	categories := []core.Category{
		{ID: "gehalt", Name: "Gehalt", Icon: "💰", Color: "#10b981", TransactionType: core.Income},
		{ID: "einkauf", Name: "Einkauf", Icon: "🛒", Color: "#ec4899", TransactionType: core.Expense},
		{ID: "tanken", Name: "Tanken", Icon: "⛽", Color: "#8b5cf6", TransactionType: core.Expense},
	}
	transactions := []core.Transaction{
		tx("1", core.Income, "gehalt", "3000", 2025, 1, 28),
		tx("2", core.Expense, "einkauf", "120.50", 2025, 1, 5),
		tx("3", core.Expense, "einkauf", "80.25", 2025, 2, 3),
		tx("4", core.Income, "gehalt", "3000", 2025, 2, 28),
	}
	credits := []core.Credit{
		{TotalAmount: decimal.NewFromInt(10000), MonthlyRate: decimal.RequireFromString("181.92")},
		{TotalAmount: decimal.NewFromInt(12000), MonthlyRate: decimal.NewFromInt(1000)},
	}

	s := Compute(transactions, categories, credits)
	assert.Equal(t, "6000.00", s.TotalIncome.StringFixed(2))
	assert.Equal(t, "200.75", s.TotalExpenses.StringFixed(2))
	assert.Equal(t, "5799.25", s.Balance.StringFixed(2))

	require.Len(t, s.ByCategory, 2)
	assert.Equal(t, "Gehalt", s.ByCategory[0].Name)
	assert.Equal(t, 2, s.ByCategory[0].Count)
	assert.Equal(t, "Einkauf", s.ByCategory[1].Name)
	assert.Equal(t, "200.75", s.ByCategory[1].Total.StringFixed(2))

	require.Len(t, s.MonthlyTrend, 2)
	assert.Equal(t, "2025-01", s.MonthlyTrend[0].Month)
	assert.Equal(t, "120.50", s.MonthlyTrend[0].Expenses.StringFixed(2))
	assert.Equal(t, "3000.00", s.MonthlyTrend[1].Income.StringFixed(2))

	assert.Equal(t, 2, s.Credits.Count)
	assert.Equal(t, "22000.00", s.Credits.TotalAmount.StringFixed(2))
	assert.Equal(t, "1181.92", s.Credits.TotalMonthlyPayments.StringFixed(2))
}

func TestMonthlyTrendKeepsLastMonths(t *testing.T) {
	var transactions []core.Transaction
	for m := 1; m <= 9; m++ {
		transactions = append(transactions, tx("x", core.Expense, "c", "1", 2024, m, 1))
	}
	transactions = append(transactions, tx("y", core.Expense, "c", "1", 2025, 1, 1))

	trend := MonthlyTrend(transactions, TrendMonths)
	require.Len(t, trend, 6)
	assert.Equal(t, "2024-05", trend[0].Month)
	assert.Equal(t, "2025-01", trend[5].Month)
}

func TestComputeEmpty(t *testing.T) {
	s := Compute(nil, nil, nil)
	assert.True(t, s.Balance.IsZero())
	assert.Empty(t, s.ByCategory)
	assert.Empty(t, s.MonthlyTrend)
	assert.True(t, s.Credits.TotalAmount.IsZero())
}

func TestRecent(t *testing.T) {
	transactions := []core.Transaction{
		tx("old", core.Expense, "c", "1", 2025, 1, 1),
		tx("new", core.Expense, "c", "1", 2025, 3, 1),
		tx("mid", core.Expense, "c", "1", 2025, 2, 1),
	}
	got := Recent(transactions, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
	assert.Equal(t, "old", transactions[0].ID)
}
