package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"meinbudget/internal/core"
	"meinbudget/internal/format"
	"meinbudget/internal/state"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// money renders an amount in the user's display currency.
func money(m *state.Manager, amount decimal.Decimal) string {
	return format.Currency(amount, m.Settings().Currency)
}

// signed renders expenses with a leading minus.
func signed(m *state.Manager, t core.Transaction) string {
	if t.Type == core.Expense {
		return "-" + money(m, t.Amount)
	}
	return money(m, t.Amount)
}

// dateArg parses a YYYY-MM-DD flag value; empty means today.
func dateArg(s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.DateOf(time.Now()), nil
	}
	return core.ParseDate(s)
}

// resolveCategory finds a category by id or, case-insensitively, by name
// among the categories of typ.
func resolveCategory(m *state.Manager, ref string, typ core.TransactionType) (core.Category, error) {
	if c, err := m.Category(ref); err == nil {
		return c, nil
	}
	for _, c := range m.Categories() {
		if c.TransactionType == typ && strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("%w: no %s category named %q", core.ErrValidation, typ, ref)
}

func categoryName(m *state.Manager, id string) string {
	if c, err := m.Category(id); err == nil {
		return c.Icon + " " + c.Name
	}
	return id
}
