package core

import (
	"fmt"
	"strings"
	"time"
)

// SettingsID is the fixed key of the settings singleton.
const SettingsID = "app-settings"

// DefaultCurrency is the display currency used until the user picks another one.
const DefaultCurrency = "€"

type Settings struct {
	ID               string     `json:"id"`
	DarkMode         bool       `json:"darkMode"`
	Currency         string     `json:"currency"`
	PINEnabled       bool       `json:"pinEnabled"`
	BiometricEnabled bool       `json:"biometricEnabled"`
	SyncEnabled      bool       `json:"syncEnabled"`
	LastSync         *time.Time `json:"lastSync,omitempty"`
}

// SettingsPatch is a field mask: nil fields are left unchanged.
type SettingsPatch struct {
	DarkMode         *bool      `json:"darkMode,omitempty"`
	Currency         *string    `json:"currency,omitempty"`
	PINEnabled       *bool      `json:"pinEnabled,omitempty"`
	BiometricEnabled *bool      `json:"biometricEnabled,omitempty"`
	SyncEnabled      *bool      `json:"syncEnabled,omitempty"`
	LastSync         *time.Time `json:"lastSync,omitempty"`
}

func DefaultSettings() Settings {
	return Settings{
		ID:       SettingsID,
		Currency: DefaultCurrency,
	}
}

func (s Settings) Validate() error {
	if s.ID != SettingsID {
		return fmt.Errorf("%w: settings id must be %q", ErrValidation, SettingsID)
	}
	if strings.TrimSpace(s.Currency) == "" {
		return fmt.Errorf("%w: empty currency", ErrValidation)
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p SettingsPatch) Empty() bool {
	return p.DarkMode == nil && p.Currency == nil && p.PINEnabled == nil &&
		p.BiometricEnabled == nil && p.SyncEnabled == nil && p.LastSync == nil
}

// Apply merges the patch onto s field by field and returns the result.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.DarkMode != nil {
		s.DarkMode = *p.DarkMode
	}
	if p.Currency != nil {
		s.Currency = strings.TrimSpace(*p.Currency)
	}
	if p.PINEnabled != nil {
		s.PINEnabled = *p.PINEnabled
	}
	if p.BiometricEnabled != nil {
		s.BiometricEnabled = *p.BiometricEnabled
	}
	if p.SyncEnabled != nil {
		s.SyncEnabled = *p.SyncEnabled
	}
	if p.LastSync != nil {
		ts := *p.LastSync
		s.LastSync = &ts
	}
	return s
}

// Clone returns a copy that shares no pointers with s.
func (s Settings) Clone() Settings {
	if s.LastSync != nil {
		ts := *s.LastSync
		s.LastSync = &ts
	}
	return s
}
