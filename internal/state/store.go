package state

import (
	"context"

	"meinbudget/internal/core"
)

// RecordStore is the durable side of the manager. Implementations must return
// core.ErrDuplicateKey on add of an existing id, core.ErrNotFound on get or
// update of a missing id, and treat delete of a missing id as a no-op.
type RecordStore interface {
	AddTransaction(ctx context.Context, t core.Transaction) error
	GetAllTransactions(ctx context.Context) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	TransactionsByDate(ctx context.Context, from, to core.Date) ([]core.Transaction, error)
	TransactionsByCategory(ctx context.Context, categoryID string) ([]core.Transaction, error)

	AddCredit(ctx context.Context, c core.Credit) error
	GetAllCredits(ctx context.Context) ([]core.Credit, error)
	GetCredit(ctx context.Context, id string) (core.Credit, error)
	UpdateCredit(ctx context.Context, c core.Credit) error
	DeleteCredit(ctx context.Context, id string) error
	CreditsByStartDate(ctx context.Context, from, to core.Date) ([]core.Credit, error)

	AddCategory(ctx context.Context, c core.Category) error
	GetAllCategories(ctx context.Context) ([]core.Category, error)
	GetCategory(ctx context.Context, id string) (core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, id string) error

	GetSettings(ctx context.Context) (core.Settings, bool, error)
	PutSettings(ctx context.Context, s core.Settings) error
}
