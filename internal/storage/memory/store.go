// Package memory is a non-durable record store used for development and tests.
// It follows the same error contract as the SQLite repository.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"meinbudget/internal/core"
)

type Store struct {
	mu           sync.Mutex
	transactions map[string]core.Transaction
	credits      map[string]core.Credit
	categories   map[string]core.Category
	settings     *core.Settings
}

func New() *Store {
	return &Store{
		transactions: map[string]core.Transaction{},
		credits:      map[string]core.Credit{},
		categories:   map[string]core.Category{},
	}
}

func (s *Store) AddTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[t.ID]; ok {
		return fmt.Errorf("insert transaction %s: %w", t.ID, core.ErrDuplicateKey)
	}
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) GetAllTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return values(s.transactions), nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[t.ID]; !ok {
		return fmt.Errorf("update transaction %s: %w", t.ID, core.ErrNotFound)
	}
	s.transactions[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transactions, id)
	return nil
}

func (s *Store) TransactionsByDate(_ context.Context, from, to core.Date) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if !t.Date.Before(from.Time) && !t.Date.After(to.Time) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (s *Store) TransactionsByCategory(_ context.Context, categoryID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.CategoryID == categoryID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (s *Store) AddCredit(_ context.Context, c core.Credit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credits[c.ID]; ok {
		return fmt.Errorf("insert credit %s: %w", c.ID, core.ErrDuplicateKey)
	}
	s.credits[c.ID] = c
	return nil
}

func (s *Store) GetAllCredits(_ context.Context) ([]core.Credit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return values(s.credits), nil
}

func (s *Store) GetCredit(_ context.Context, id string) (core.Credit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.credits[id]
	if !ok {
		return core.Credit{}, fmt.Errorf("get credit %s: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) UpdateCredit(_ context.Context, c core.Credit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credits[c.ID]; !ok {
		return fmt.Errorf("update credit %s: %w", c.ID, core.ErrNotFound)
	}
	s.credits[c.ID] = c
	return nil
}

func (s *Store) DeleteCredit(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.credits, id)
	return nil
}

func (s *Store) CreditsByStartDate(_ context.Context, from, to core.Date) ([]core.Credit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Credit
	for _, c := range s.credits {
		if !c.StartDate.Before(from.Time) && !c.StartDate.After(to.Time) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate.Time) })
	return out, nil
}

func (s *Store) AddCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; ok {
		return fmt.Errorf("insert category %s: %w", c.ID, core.ErrDuplicateKey)
	}
	s.categories[c.ID] = c
	return nil
}

func (s *Store) GetAllCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return values(s.categories), nil
}

func (s *Store) GetCategory(_ context.Context, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return fmt.Errorf("update category %s: %w", c.ID, core.ErrNotFound)
	}
	s.categories[c.ID] = c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.categories, id)
	return nil
}

func (s *Store) GetSettings(_ context.Context) (core.Settings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		return core.DefaultSettings(), false, nil
	}
	return s.settings.Clone(), true, nil
}

func (s *Store) PutSettings(_ context.Context, settings core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := settings.Clone()
	s.settings = &stored
	return nil
}

func values[T any](m map[string]T) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}
