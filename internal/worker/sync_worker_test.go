package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meinbudget/internal/core"
	"meinbudget/internal/outbox"
	"meinbudget/internal/state"
	"meinbudget/internal/storage/memory"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []outbox.Record
	failIDs   map[string]bool
	// during runs inside Publish, before the record is accepted
	during func(rec outbox.Record)
}

func (p *fakePublisher) Publish(_ context.Context, rec outbox.Record) error {
	if p.during != nil {
		p.during(rec)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failIDs[rec.ID] {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, rec)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func newManager(t *testing.T, syncEnabled bool) *state.Manager {
	t.Helper()
	ctx := context.Background()
	m := state.New(memory.New())
	require.NoError(t, m.Initialize(ctx))
	_, err := m.UpdateSettings(ctx, core.SettingsPatch{SyncEnabled: &syncEnabled})
	require.NoError(t, err)
	return m
}

func addTransaction(t *testing.T, m *state.Manager, amount string) core.Transaction {
	t.Helper()
	tx, err := m.AddTransaction(context.Background(), state.TransactionInput{
		Amount:      decimal.RequireFromString(amount),
		Type:        core.Expense,
		CategoryID:  "einkauf",
		Description: "Wocheneinkauf",
		Date:        core.NewDate(2025, 3, 1),
	})
	require.NoError(t, err)
	return tx
}

func addCredit(t *testing.T, m *state.Manager) core.Credit {
	t.Helper()
	c, err := m.AddCredit(context.Background(), state.CreditInput{
		Creditor:              "Sparkasse",
		Debtor:                "Anna",
		TotalAmount:           decimal.NewFromInt(10000),
		TermMonths:            60,
		EffectiveInterestRate: decimal.RequireFromString("3.5"),
		StartDate:             core.NewDate(2025, 1, 15),
	})
	require.NoError(t, err)
	return c
}

func TestRunOnce_SkipsWhenDisabled(t *testing.T) {
	m := newManager(t, false)
	addTransaction(t, m, "10")
	pub := &fakePublisher{}

	res, err := NewSyncWorker(m, pub, DefaultConfig(), nil).RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Zero(t, pub.count())
	assert.Nil(t, m.Settings().LastSync)
}

func TestRunOnce_PublishesAndMarksSynced(t *testing.T) {
	m := newManager(t, true)
	tx := addTransaction(t, m, "10")
	cr := addCredit(t, m)
	pub := &fakePublisher{}

	res, err := NewSyncWorker(m, pub, DefaultConfig(), nil).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Pending: 2, Published: 2}, res)
	assert.Equal(t, 2, pub.count())

	gotTx, err := m.Transaction(tx.ID)
	require.NoError(t, err)
	assert.True(t, gotTx.Synced)
	assert.Equal(t, tx.UpdatedAt, gotTx.UpdatedAt)

	gotCr, err := m.Credit(cr.ID)
	require.NoError(t, err)
	assert.True(t, gotCr.Synced)
	assert.NotNil(t, m.Settings().LastSync)

	// Nothing left to publish.
	res, err = NewSyncWorker(m, pub, DefaultConfig(), nil).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Pending)
	assert.Equal(t, 2, pub.count())
}

func TestRunOnce_EditDuringPublishIsSentNextPass(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, true)
	tx := addTransaction(t, m, "10")

	edited := false
	pub := &fakePublisher{}
	pub.during = func(rec outbox.Record) {
		if edited {
			return
		}
		edited = true
		_, err := m.UpdateTransaction(ctx, rec.ID, state.TransactionInput{
			Amount:      decimal.RequireFromString("99"),
			Type:        core.Expense,
			CategoryID:  "einkauf",
			Description: "Getränkemarkt",
			Date:        core.NewDate(2025, 3, 1),
		})
		require.NoError(t, err)
	}
	w := NewSyncWorker(m, pub, DefaultConfig(), nil)

	_, err := w.RunOnce(ctx)
	require.NoError(t, err)
	got, err := m.Transaction(tx.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("99")))
	assert.False(t, got.Synced, "edit arrived after the snapshot was published")

	res, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Published)
	require.Equal(t, 2, pub.count())

	sent, err := pub.published[1].Transaction()
	require.NoError(t, err)
	assert.True(t, sent.Amount.Equal(decimal.RequireFromString("99")))
	got, err = m.Transaction(tx.ID)
	require.NoError(t, err)
	assert.True(t, got.Synced)
}

func TestRunOnce_FailedPublishStaysUnsynced(t *testing.T) {
	m := newManager(t, true)
	ok := addTransaction(t, m, "10")
	bad := addTransaction(t, m, "20")
	pub := &fakePublisher{failIDs: map[string]bool{bad.ID: true}}

	res, err := NewSyncWorker(m, pub, DefaultConfig(), nil).RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 records failed")
	assert.Equal(t, 1, res.Published)
	assert.Equal(t, 1, res.Failed)

	gotOK, _ := m.Transaction(ok.ID)
	gotBad, _ := m.Transaction(bad.ID)
	assert.True(t, gotOK.Synced)
	assert.False(t, gotBad.Synced)
	assert.Nil(t, m.Settings().LastSync)
}

func TestRunOnce_RespectsBatchSize(t *testing.T) {
	m := newManager(t, true)
	for i := 0; i < 5; i++ {
		addTransaction(t, m, "1")
	}
	pub := &fakePublisher{}
	w := NewSyncWorker(m, pub, Config{Interval: time.Minute, BatchSize: 2}, nil)

	res, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, res.Pending)
	assert.Equal(t, 2, res.Published)

	res, err = w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Pending)
}

func TestRunOnce_UpdatedRecordIsRepublished(t *testing.T) {
	m := newManager(t, true)
	tx := addTransaction(t, m, "10")
	pub := &fakePublisher{}
	w := NewSyncWorker(m, pub, DefaultConfig(), nil)

	_, err := w.RunOnce(context.Background())
	require.NoError(t, err)

	_, err = m.UpdateTransaction(context.Background(), tx.ID, state.TransactionInput{
		Amount:      decimal.RequireFromString("12"),
		Type:        core.Expense,
		CategoryID:  "einkauf",
		Description: tx.Description,
		Date:        tx.Date,
	})
	require.NoError(t, err)

	res, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Published)
	assert.Equal(t, 2, pub.count())
}

func TestSyncWorker_StartStop(t *testing.T) {
	m := newManager(t, true)
	addTransaction(t, m, "10")
	pub := &fakePublisher{}
	w := NewSyncWorker(m, pub, Config{Interval: 10 * time.Millisecond, BatchSize: 10}, nil)

	assert.False(t, w.IsRunning())
	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start(context.Background()), "second start must fail")

	assert.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))
	assert.False(t, w.IsRunning())
	require.NoError(t, w.Stop(ctx), "stopping a stopped worker is a no-op")
}

func TestNewSyncWorker_Defaults(t *testing.T) {
	w := NewSyncWorker(nil, nil, Config{}, nil)
	assert.Equal(t, DefaultConfig(), w.config)
}
