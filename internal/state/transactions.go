package state

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"meinbudget/internal/core"
	"meinbudget/internal/log"
)

// TransactionInput carries the user-editable fields of a transaction.
type TransactionInput struct {
	Amount      decimal.Decimal      `json:"amount"`
	Type        core.TransactionType `json:"type"`
	CategoryID  string               `json:"categoryId"`
	Description string               `json:"description"`
	Date        core.Date            `json:"date"`
}

func transactionID(t core.Transaction) string { return t.ID }

func (m *Manager) AddTransaction(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	done, err := m.begin()
	defer done()
	if err != nil {
		return core.Transaction{}, err
	}

	now := m.now()
	t := core.Transaction{
		ID:          m.newID(),
		Amount:      in.Amount,
		Type:        in.Type,
		CategoryID:  in.CategoryID,
		Description: strings.TrimSpace(in.Description),
		Date:        in.Date,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := m.store.AddTransaction(ctx, t); err != nil {
		m.logFailure(ctx, log.OpCreate, log.CollectionTransactions, t.ID, err)
		return core.Transaction{}, fmt.Errorf("add transaction: %w", err)
	}
	m.apply(func() { m.transactions = append(m.transactions, t) })
	m.logSuccess(ctx, log.OpCreate, log.CollectionTransactions, t.ID)
	return t, nil
}

// UpdateTransaction replaces the editable fields of an existing transaction.
// The record is marked unsynced since its content changed.
func (m *Manager) UpdateTransaction(ctx context.Context, id string, in TransactionInput) (core.Transaction, error) {
	done, err := m.begin()
	defer done()
	if err != nil {
		return core.Transaction{}, err
	}

	current, err := m.Transaction(id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	t := current
	t.Amount = in.Amount
	t.Type = in.Type
	t.CategoryID = in.CategoryID
	t.Description = strings.TrimSpace(in.Description)
	t.Date = in.Date
	t.UpdatedAt = m.advance(current.UpdatedAt)
	t.Synced = false
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := m.store.UpdateTransaction(ctx, t); err != nil {
		m.logFailure(ctx, log.OpUpdate, log.CollectionTransactions, id, err)
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	m.apply(func() { replaceByID(m.transactions, t, transactionID) })
	m.logSuccess(ctx, log.OpUpdate, log.CollectionTransactions, id)
	return t, nil
}

// DeleteTransaction removes the transaction. Unknown ids are a no-op.
func (m *Manager) DeleteTransaction(ctx context.Context, id string) error {
	done, err := m.begin()
	defer done()
	if err != nil {
		return err
	}

	if err := m.store.DeleteTransaction(ctx, id); err != nil {
		m.logFailure(ctx, log.OpDelete, log.CollectionTransactions, id, err)
		return fmt.Errorf("delete transaction: %w", err)
	}
	m.apply(func() { m.transactions = removeByID(m.transactions, id, transactionID) })
	m.logSuccess(ctx, log.OpDelete, log.CollectionTransactions, id)
	return nil
}

// MarkTransactionSynced flips the synced flag without touching UpdatedAt.
// published is the UpdatedAt of the content that was sent; if the record
// changed since, it stays unsynced so the next pass sends the new content.
func (m *Manager) MarkTransactionSynced(ctx context.Context, id string, published time.Time) error {
	done, err := m.begin()
	defer done()
	if err != nil {
		return err
	}

	t, err := m.Transaction(id)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	if !t.UpdatedAt.Equal(published) {
		m.logStale(ctx, log.CollectionTransactions, id)
		return nil
	}
	if t.Synced {
		return nil
	}
	t.Synced = true
	if err := m.store.UpdateTransaction(ctx, t); err != nil {
		m.logFailure(ctx, log.OpSync, log.CollectionTransactions, id, err)
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	m.apply(func() { replaceByID(m.transactions, t, transactionID) })
	return nil
}
