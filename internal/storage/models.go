package storage

import "database/sql"

// Row types mirror the table layout; repository.go converts them to core records.

type TransactionRow struct {
	ID          string
	Amount      string
	Type        string
	CategoryID  string
	Description string
	Date        string
	CreatedAt   string
	UpdatedAt   string
	Synced      int64
}

type CreditRow struct {
	ID                    string
	Creditor              string
	Debtor                string
	TotalAmount           string
	TermMonths            int64
	MonthlyRate           string
	EffectiveInterestRate string
	StartDate             string
	Description           sql.NullString
	CreatedAt             string
	UpdatedAt             string
	Synced                int64
}

type CategoryRow struct {
	ID              string
	Name            string
	Type            string
	TransactionType string
	Icon            string
	Color           string
	IsCustom        int64
	CreatedAt       string
}

type SettingsRow struct {
	ID               string
	DarkMode         int64
	Currency         string
	PinEnabled       int64
	BiometricEnabled int64
	SyncEnabled      int64
	LastSync         sql.NullString
}
