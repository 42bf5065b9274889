// Package seed installs the predefined categories on first start.
package seed

import (
	"context"
	"fmt"

	"meinbudget/internal/core"
	"meinbudget/internal/log"
	"meinbudget/internal/state"
)

// Target is the state manager surface seeding needs.
type Target interface {
	StoredCategories(ctx context.Context) ([]core.Category, error)
	AddCategory(ctx context.Context, in state.CategoryInput) (core.Category, error)
}

// Predefined returns the seven built-in categories.
func Predefined() []state.CategoryInput {
	return []state.CategoryInput{
		{Name: "Gehalt", Type: core.CategoryGehalt, TransactionType: core.Income, Icon: "💰", Color: "#10b981"},
		{Name: "Kindergeld", Type: core.CategoryKindergeld, TransactionType: core.Income, Icon: "👶", Color: "#3b82f6"},
		{Name: "Kredit", Type: core.CategoryKredit, TransactionType: core.Expense, Icon: "🏦", Color: "#ef4444"},
		{Name: "Versicherung", Type: core.CategoryVersicherung, TransactionType: core.Expense, Icon: "🛡️", Color: "#f59e0b"},
		{Name: "Tanken", Type: core.CategoryTanken, TransactionType: core.Expense, Icon: "⛽", Color: "#8b5cf6"},
		{Name: "Einkauf", Type: core.CategoryEinkauf, TransactionType: core.Expense, Icon: "🛒", Color: "#ec4899"},
		{Name: "Unterhaltung", Type: core.CategoryUnterhaltung, TransactionType: core.Expense, Icon: "🎬", Color: "#14b8a6"},
	}
}

// Run inserts the predefined categories if and only if the store holds no
// categories at all. It returns how many were inserted. The target must be
// initialized.
func Run(ctx context.Context, target Target, logger *log.Logger) (int, error) {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSeed)

	existing, err := target.StoredCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("read categories: %w", err)
	}
	if len(existing) > 0 {
		logger.DebugContext(ctx, "Categories present, skipping seed", log.FieldCount, len(existing))
		return 0, nil
	}

	n := 0
	for _, in := range Predefined() {
		if _, err := target.AddCategory(ctx, in); err != nil {
			logger.ErrorContext(ctx, "Seeding stopped",
				log.FieldOperation, log.OpSeed, log.FieldCount, n, log.FieldError, err)
			return n, fmt.Errorf("seed category %s: %w", in.Name, err)
		}
		n++
	}
	logger.InfoContext(ctx, "Predefined categories seeded", log.FieldOperation, log.OpSeed, log.FieldCount, n)
	return n, nil
}
