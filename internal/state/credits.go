package state

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"meinbudget/internal/amortization"
	"meinbudget/internal/core"
	"meinbudget/internal/log"
)

// CreditInput carries the user-editable fields of a credit. The monthly
// installment is always derived, never supplied.
type CreditInput struct {
	Creditor              string          `json:"creditor"`
	Debtor                string          `json:"debtor"`
	TotalAmount           decimal.Decimal `json:"totalAmount"`
	TermMonths            int             `json:"termMonths"`
	EffectiveInterestRate decimal.Decimal `json:"effectiveInterestRate"`
	StartDate             core.Date       `json:"startDate"`
	Description           string          `json:"description,omitempty"`
}

func creditID(c core.Credit) string { return c.ID }

// withInstallment validates c and fills MonthlyRate from the calculator.
func withInstallment(c core.Credit) (core.Credit, error) {
	if err := c.Validate(); err != nil {
		return core.Credit{}, err
	}
	inst, err := amortization.ComputeInstallment(c.TotalAmount, c.TermMonths, c.EffectiveInterestRate)
	if err != nil {
		return core.Credit{}, err
	}
	c.MonthlyRate = inst.MonthlyPayment
	return c, nil
}

func (m *Manager) AddCredit(ctx context.Context, in CreditInput) (core.Credit, error) {
	done, err := m.begin()
	defer done()
	if err != nil {
		return core.Credit{}, err
	}

	now := m.now()
	c, err := withInstallment(core.Credit{
		ID:                    m.newID(),
		Creditor:              strings.TrimSpace(in.Creditor),
		Debtor:                strings.TrimSpace(in.Debtor),
		TotalAmount:           in.TotalAmount,
		TermMonths:            in.TermMonths,
		EffectiveInterestRate: in.EffectiveInterestRate,
		StartDate:             in.StartDate,
		Description:           strings.TrimSpace(in.Description),
		CreatedAt:             now,
		UpdatedAt:             now,
	})
	if err != nil {
		return core.Credit{}, err
	}
	if err := m.store.AddCredit(ctx, c); err != nil {
		m.logFailure(ctx, log.OpCreate, log.CollectionCredits, c.ID, err)
		return core.Credit{}, fmt.Errorf("add credit: %w", err)
	}
	m.apply(func() { m.credits = append(m.credits, c) })
	m.logSuccess(ctx, log.OpCreate, log.CollectionCredits, c.ID)
	return c, nil
}

// UpdateCredit replaces the editable fields and recomputes the installment.
func (m *Manager) UpdateCredit(ctx context.Context, id string, in CreditInput) (core.Credit, error) {
	done, err := m.begin()
	defer done()
	if err != nil {
		return core.Credit{}, err
	}

	current, err := m.Credit(id)
	if err != nil {
		return core.Credit{}, fmt.Errorf("update credit: %w", err)
	}
	next := current
	next.Creditor = strings.TrimSpace(in.Creditor)
	next.Debtor = strings.TrimSpace(in.Debtor)
	next.TotalAmount = in.TotalAmount
	next.TermMonths = in.TermMonths
	next.EffectiveInterestRate = in.EffectiveInterestRate
	next.StartDate = in.StartDate
	next.Description = strings.TrimSpace(in.Description)
	next.UpdatedAt = m.advance(current.UpdatedAt)
	next.Synced = false

	c, err := withInstallment(next)
	if err != nil {
		return core.Credit{}, err
	}
	if err := m.store.UpdateCredit(ctx, c); err != nil {
		m.logFailure(ctx, log.OpUpdate, log.CollectionCredits, id, err)
		return core.Credit{}, fmt.Errorf("update credit: %w", err)
	}
	m.apply(func() { replaceByID(m.credits, c, creditID) })
	m.logSuccess(ctx, log.OpUpdate, log.CollectionCredits, id)
	return c, nil
}

// DeleteCredit removes the credit. Unknown ids are a no-op.
func (m *Manager) DeleteCredit(ctx context.Context, id string) error {
	done, err := m.begin()
	defer done()
	if err != nil {
		return err
	}

	if err := m.store.DeleteCredit(ctx, id); err != nil {
		m.logFailure(ctx, log.OpDelete, log.CollectionCredits, id, err)
		return fmt.Errorf("delete credit: %w", err)
	}
	m.apply(func() { m.credits = removeByID(m.credits, id, creditID) })
	m.logSuccess(ctx, log.OpDelete, log.CollectionCredits, id)
	return nil
}

// MarkCreditSynced flips the synced flag without touching UpdatedAt, unless
// the credit changed after the published version.
func (m *Manager) MarkCreditSynced(ctx context.Context, id string, published time.Time) error {
	done, err := m.begin()
	defer done()
	if err != nil {
		return err
	}

	c, err := m.Credit(id)
	if err != nil {
		return fmt.Errorf("mark credit synced: %w", err)
	}
	if !c.UpdatedAt.Equal(published) {
		m.logStale(ctx, log.CollectionCredits, id)
		return nil
	}
	if c.Synced {
		return nil
	}
	c.Synced = true
	if err := m.store.UpdateCredit(ctx, c); err != nil {
		m.logFailure(ctx, log.OpSync, log.CollectionCredits, id, err)
		return fmt.Errorf("mark credit synced: %w", err)
	}
	m.apply(func() { replaceByID(m.credits, c, creditID) })
	return nil
}
