// Package state keeps the in-memory view of every collection and mediates all
// mutations. Each action writes to the record store first and touches memory
// only after the write succeeded, so memory never holds a record the store
// does not.
package state

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"meinbudget/internal/core"
	"meinbudget/internal/log"
)

type Phase int

const (
	Uninitialized Phase = iota
	Initializing
	Ready
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

type Manager struct {
	store  RecordStore
	logger *log.Logger
	newID  func() string
	now    func() time.Time

	initMu  sync.Mutex // serializes Initialize
	writeMu sync.Mutex // one action at a time

	mu           sync.RWMutex // guards everything below
	phase        Phase
	transactions []core.Transaction
	credits      []core.Credit
	categories   []core.Category
	settings     core.Settings
	version      uint64
}

type Option func(*Manager)

// WithIDGenerator replaces uuid.NewString.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

// WithClock replaces the UTC wall clock used for timestamps.
func WithClock(fn func() time.Time) Option {
	return func(m *Manager) { m.now = fn }
}

func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l.WithComponent(log.ComponentState) }
}

func New(store RecordStore, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		logger:   log.Discard(),
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
		settings: core.DefaultSettings(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// Version increases every time memory changes. Readers use it as a cache key.
func (m *Manager) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Initialize loads all four collections concurrently and moves the manager to
// Ready. It is a no-op once Ready. On failure the manager stays Initializing
// and the error is returned; the caller may call Initialize again.
func (m *Manager) Initialize(ctx context.Context) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	if m.Phase() == Ready {
		return nil
	}
	m.setPhase(Initializing)
	start := time.Now()

	var (
		transactions []core.Transaction
		credits      []core.Credit
		categories   []core.Category
		settings     core.Settings
		found        bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		transactions, err = m.store.GetAllTransactions(gctx)
		return err
	})
	g.Go(func() (err error) {
		credits, err = m.store.GetAllCredits(gctx)
		return err
	})
	g.Go(func() (err error) {
		categories, err = m.store.GetAllCategories(gctx)
		return err
	})
	g.Go(func() (err error) {
		settings, found, err = m.store.GetSettings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		m.logger.ErrorContext(ctx, "State initialization failed",
			log.NewFields().WithOperation(log.OpInitialize).WithError(err).ToSlice()...)
		return fmt.Errorf("initialize state: %w", err)
	}

	if !found {
		settings = core.DefaultSettings()
		if err := m.store.PutSettings(ctx, settings); err != nil {
			m.logger.ErrorContext(ctx, "Persisting default settings failed",
				log.NewFields().WithOperation(log.OpInitialize).WithError(err).ToSlice()...)
			return fmt.Errorf("initialize state: persist default settings: %w", err)
		}
	}

	m.mu.Lock()
	m.transactions = transactions
	m.credits = credits
	m.categories = categories
	m.settings = settings.Clone()
	m.phase = Ready
	m.version++
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "State initialized",
		log.FieldPhase, Ready.String(),
		"transactions", len(transactions),
		"credits", len(credits),
		"categories", len(categories),
		"settings_created", !found,
		log.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

func (m *Manager) setPhase(p Phase) {
	m.mu.Lock()
	m.phase = p
	m.mu.Unlock()
	m.logger.Debug("Lifecycle phase changed", log.FieldPhase, p.String())
}

// begin takes the writer lock and checks the lifecycle. Callers must defer the
// returned unlock.
func (m *Manager) begin() (func(), error) {
	m.writeMu.Lock()
	if m.Phase() != Ready {
		m.writeMu.Unlock()
		return func() {}, core.ErrNotReady
	}
	return m.writeMu.Unlock, nil
}

// apply runs fn under the memory lock and bumps the version.
func (m *Manager) apply(fn func()) {
	m.mu.Lock()
	fn()
	m.version++
	m.mu.Unlock()
}

// advance returns the clock reading for an update, strictly after prev so
// UpdatedAt identifies one version of a record.
func (m *Manager) advance(prev time.Time) time.Time {
	now := m.now()
	if !now.After(prev) {
		return prev.Add(time.Nanosecond)
	}
	return now
}

func (m *Manager) logStale(ctx context.Context, collection, id string) {
	m.logger.DebugContext(ctx, "Record changed after publish, left unsynced",
		log.NewFields().WithOperation(log.OpSync).WithRecord(collection, id).ToSlice()...)
}

func (m *Manager) logFailure(ctx context.Context, op, collection, id string, err error) {
	m.logger.WarnContext(ctx, "Store write rejected",
		log.NewFields().WithOperation(op).WithRecord(collection, id).WithError(err).ToSlice()...)
}

func (m *Manager) logSuccess(ctx context.Context, op, collection, id string) {
	m.logger.DebugContext(ctx, "Store write applied",
		log.NewFields().WithOperation(op).WithRecord(collection, id).ToSlice()...)
}

// --- snapshots ---

func (m *Manager) Transactions() []core.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.transactions)
}

func (m *Manager) Credits() []core.Credit {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.credits)
}

func (m *Manager) Categories() []core.Category {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.categories)
}

func (m *Manager) Settings() core.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings.Clone()
}

func (m *Manager) Transaction(id string) (core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := slices.IndexFunc(m.transactions, func(t core.Transaction) bool { return t.ID == id }); i >= 0 {
		return m.transactions[i], nil
	}
	return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
}

func (m *Manager) Credit(id string) (core.Credit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := slices.IndexFunc(m.credits, func(c core.Credit) bool { return c.ID == id }); i >= 0 {
		return m.credits[i], nil
	}
	return core.Credit{}, fmt.Errorf("credit %s: %w", id, core.ErrNotFound)
}

func (m *Manager) Category(id string) (core.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := slices.IndexFunc(m.categories, func(c core.Category) bool { return c.ID == id }); i >= 0 {
		return m.categories[i], nil
	}
	return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
}

// --- durable lookups ---

func (m *Manager) TransactionsByDate(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	return m.store.TransactionsByDate(ctx, from, to)
}

func (m *Manager) TransactionsByCategory(ctx context.Context, categoryID string) ([]core.Transaction, error) {
	return m.store.TransactionsByCategory(ctx, categoryID)
}

func (m *Manager) CreditsByStartDate(ctx context.Context, from, to core.Date) ([]core.Credit, error) {
	return m.store.CreditsByStartDate(ctx, from, to)
}

// StoredCategories reads the category collection from the store, bypassing memory.
func (m *Manager) StoredCategories(ctx context.Context) ([]core.Category, error) {
	return m.store.GetAllCategories(ctx)
}

func replaceByID[T any](items []T, v T, idOf func(T) string) {
	id := idOf(v)
	for i := range items {
		if idOf(items[i]) == id {
			items[i] = v
			return
		}
	}
}

func removeByID[T any](items []T, id string, idOf func(T) string) []T {
	return slices.DeleteFunc(items, func(v T) bool { return idOf(v) == id })
}
