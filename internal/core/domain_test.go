package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateAddMonths(t *testing.T) {
	cases := []struct {
		from Date
		n    int
		want string
	}{
		{NewDate(2025, 1, 15), 1, "2025-02-15"},
		{NewDate(2025, 1, 31), 1, "2025-02-28"},
		{NewDate(2024, 1, 31), 1, "2024-02-29"},
		{NewDate(2025, 11, 30), 3, "2026-02-28"},
		{NewDate(2025, 3, 10), -3, "2024-12-10"},
	}
	for _, tc := range cases {
		if got := tc.from.AddMonths(tc.n).String(); got != tc.want {
			t.Fatalf("%s + %d months: expected %s, got %s", tc.from, tc.n, tc.want, got)
		}
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2025, 3, 7))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2025-03-07"` {
		t.Fatalf("unexpected json %s", b)
	}
	var d Date
	if err := json.Unmarshal([]byte(`"2024-12-31"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !d.Equal(NewDate(2024, 12, 31).Time) {
		t.Fatalf("unexpected date %s", d)
	}
	if err := json.Unmarshal([]byte(`"31.12.2024"`), &d); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Amount:      decimal.RequireFromString("12.50"),
		Type:        Expense,
		CategoryID:  "cat",
		Description: "Wocheneinkauf",
		Date:        NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	mutate := []func(tx *Transaction){
		func(tx *Transaction) { tx.Amount = decimal.Zero },
		func(tx *Transaction) { tx.Amount = decimal.RequireFromString("-3") },
		func(tx *Transaction) { tx.Amount = decimal.RequireFromString("1.234") },
		func(tx *Transaction) { tx.Type = "transfer" },
		func(tx *Transaction) { tx.CategoryID = " " },
		func(tx *Transaction) { tx.Description = "" },
		func(tx *Transaction) { tx.Date = Date{} },
	}
	for i, m := range mutate {
		tx := good
		m(&tx)
		err := tx.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !IsValidation(err) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestCreditValidate(t *testing.T) {
	good := Credit{
		Creditor:              "Sparkasse",
		Debtor:                "Max",
		TotalAmount:           decimal.NewFromInt(10000),
		TermMonths:            60,
		EffectiveInterestRate: decimal.RequireFromString("3.5"),
		StartDate:             NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Credit{good, good, good, good, good, good}
	bads[5].TermMonths = MaxTermMonths + 1
	bads[0].Creditor = ""
	bads[1].TermMonths = 0
	bads[2].EffectiveInterestRate = decimal.NewFromInt(101)
	bads[3].TotalAmount = decimal.Zero
	bads[4].StartDate = Date{}
	for i, c := range bads {
		if err := c.Validate(); !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestCheckCategory(t *testing.T) {
	salary := Category{Name: "Gehalt", Type: CategoryGehalt, TransactionType: Income}
	if err := CheckCategory(Income, salary); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := CheckCategory(Expense, salary); !errors.Is(err, ErrCategoryMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestSettingsPatchApply(t *testing.T) {
	dark := true
	cur := " USD "
	base := DefaultSettings()
	got := SettingsPatch{DarkMode: &dark, Currency: &cur}.Apply(base)
	if !got.DarkMode || got.Currency != "USD" {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.PINEnabled || got.SyncEnabled || got.LastSync != nil {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if base.DarkMode {
		t.Fatalf("base settings mutated")
	}
	if !(SettingsPatch{}).Empty() {
		t.Fatalf("zero patch should be empty")
	}
}
