package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"meinbudget/internal/core"
)

func TestStoreTransactionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	tx := core.Transaction{ID: "t1", Amount: decimal.NewFromInt(5), Type: core.Expense, CategoryID: "c", Description: "x", Date: core.NewDate(2025, 2, 1)}

	if err := s.AddTransaction(ctx, tx); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.AddTransaction(ctx, tx); !errors.Is(err, core.ErrDuplicateKey) {
		t.Fatalf("expected duplicate key, got %v", err)
	}
	if err := s.UpdateTransaction(ctx, core.Transaction{ID: "missing"}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := s.GetTransaction(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, "missing"); err != nil {
		t.Fatalf("delete of missing id should be a no-op, got %v", err)
	}

	got, err := s.TransactionsByDate(ctx, core.NewDate(2025, 1, 1), core.NewDate(2025, 2, 1))
	if err != nil || len(got) != 1 {
		t.Fatalf("expected 1 in range, got %d (err=%v)", len(got), err)
	}
	got, _ = s.TransactionsByDate(ctx, core.NewDate(2025, 2, 2), core.NewDate(2025, 3, 1))
	if len(got) != 0 {
		t.Fatalf("expected none in range, got %d", len(got))
	}
}

func TestStoreSettingsDefaults(t *testing.T) {
	ctx := context.Background()
	s := New()
	got, found, err := s.GetSettings(ctx)
	if err != nil || found {
		t.Fatalf("expected defaults, found=%v err=%v", found, err)
	}
	if got.Currency != core.DefaultCurrency || got.ID != core.SettingsID {
		t.Fatalf("unexpected defaults %+v", got)
	}

	got.DarkMode = true
	if err := s.PutSettings(ctx, got); err != nil {
		t.Fatalf("put: %v", err)
	}
	again, found, _ := s.GetSettings(ctx)
	if !found || !again.DarkMode {
		t.Fatalf("settings not persisted: %+v", again)
	}
}
