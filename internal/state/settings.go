package state

import (
	"context"
	"fmt"

	"meinbudget/internal/core"
	"meinbudget/internal/log"
)

// UpdateSettings merges patch onto the current settings, persists the merged
// record and then replaces the in-memory copy.
func (m *Manager) UpdateSettings(ctx context.Context, patch core.SettingsPatch) (core.Settings, error) {
	done, err := m.begin()
	defer done()
	if err != nil {
		return core.Settings{}, err
	}
	return m.putSettings(ctx, patch.Apply(m.Settings()))
}

// ToggleDarkMode flips the dark mode flag.
func (m *Manager) ToggleDarkMode(ctx context.Context) (core.Settings, error) {
	done, err := m.begin()
	defer done()
	if err != nil {
		return core.Settings{}, err
	}
	next := m.Settings()
	next.DarkMode = !next.DarkMode
	return m.putSettings(ctx, next)
}

func (m *Manager) putSettings(ctx context.Context, next core.Settings) (core.Settings, error) {
	if err := next.Validate(); err != nil {
		return core.Settings{}, err
	}
	if err := m.store.PutSettings(ctx, next); err != nil {
		m.logFailure(ctx, log.OpUpdate, log.CollectionSettings, next.ID, err)
		return core.Settings{}, fmt.Errorf("update settings: %w", err)
	}
	m.apply(func() { m.settings = next.Clone() })
	m.logSuccess(ctx, log.OpUpdate, log.CollectionSettings, next.ID)
	return next.Clone(), nil
}
