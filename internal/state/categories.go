package state

import (
	"context"
	"fmt"
	"strings"

	"meinbudget/internal/core"
	"meinbudget/internal/log"
)

// CategoryInput describes a new category. An empty Type means a user-defined
// category; any other type marks a predefined one.
type CategoryInput struct {
	Name            string               `json:"name"`
	Type            core.CategoryType    `json:"type,omitempty"`
	TransactionType core.TransactionType `json:"transactionType"`
	Icon            string               `json:"icon"`
	Color           string               `json:"color"`
}

// CategoryUpdate holds the fields that may change after creation.
type CategoryUpdate struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func categoryID(c core.Category) string { return c.ID }

func (m *Manager) AddCategory(ctx context.Context, in CategoryInput) (core.Category, error) {
	done, err := m.begin()
	defer done()
	if err != nil {
		return core.Category{}, err
	}

	kind := in.Type
	if kind == "" {
		kind = core.CategoryCustom
	}
	c := core.Category{
		ID:              m.newID(),
		Name:            strings.TrimSpace(in.Name),
		Type:            kind,
		TransactionType: in.TransactionType,
		Icon:            in.Icon,
		Color:           in.Color,
		IsCustom:        kind == core.CategoryCustom,
		CreatedAt:       m.now(),
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := m.store.AddCategory(ctx, c); err != nil {
		m.logFailure(ctx, log.OpCreate, log.CollectionCategories, c.ID, err)
		return core.Category{}, fmt.Errorf("add category: %w", err)
	}
	m.apply(func() { m.categories = append(m.categories, c) })
	m.logSuccess(ctx, log.OpCreate, log.CollectionCategories, c.ID)
	return c, nil
}

// UpdateCategory changes name, icon and color. The transaction type and the
// predefined/custom kind are fixed at creation.
func (m *Manager) UpdateCategory(ctx context.Context, id string, in CategoryUpdate) (core.Category, error) {
	done, err := m.begin()
	defer done()
	if err != nil {
		return core.Category{}, err
	}

	c, err := m.Category(id)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Icon = in.Icon
	c.Color = in.Color
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := m.store.UpdateCategory(ctx, c); err != nil {
		m.logFailure(ctx, log.OpUpdate, log.CollectionCategories, id, err)
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	m.apply(func() { replaceByID(m.categories, c, categoryID) })
	m.logSuccess(ctx, log.OpUpdate, log.CollectionCategories, id)
	return c, nil
}

// DeleteCategory removes the category. Unknown ids are a no-op. Transactions
// that reference it keep their category id.
func (m *Manager) DeleteCategory(ctx context.Context, id string) error {
	done, err := m.begin()
	defer done()
	if err != nil {
		return err
	}

	if err := m.store.DeleteCategory(ctx, id); err != nil {
		m.logFailure(ctx, log.OpDelete, log.CollectionCategories, id, err)
		return fmt.Errorf("delete category: %w", err)
	}
	m.apply(func() { m.categories = removeByID(m.categories, id, categoryID) })
	m.logSuccess(ctx, log.OpDelete, log.CollectionCategories, id)
	return nil
}
