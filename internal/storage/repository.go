package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"meinbudget/internal/core"
	"meinbudget/internal/log"
)

// storeLog tags storage debug output; resolved per call so it follows the
// process default installed at start-up.
func storeLog() *slog.Logger {
	return slog.Default().With(log.FieldComponent, log.ComponentStorage)
}

// dsnPragmas are applied to every pooled connection.
const dsnPragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// SQLiteRepository is the durable record store: one table per collection,
// secondary lookups served by indexes on the same tables.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w: %w", core.ErrStorageUnavailable, err)
	}

	db, err := sql.Open("sqlite", dbPath+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w: %w", core.ErrStorageUnavailable, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w: %w", core.ErrStorageUnavailable, err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w: %w", core.ErrStorageUnavailable, err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w: %w", core.ErrStorageUnavailable, err)
	}
	return nil
}

// --- transactions ---

func (r *SQLiteRepository) AddTransaction(ctx context.Context, t core.Transaction) error {
	if err := r.queries.InsertTransaction(ctx, transactionToRow(t)); err != nil {
		return writeErr("insert transaction", t.ID, err)
	}
	storeLog().DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"type", t.Type,
		"amount", t.Amount.StringFixed(2),
		"date", t.Date.String())
	return nil
}

func (r *SQLiteRepository) GetAllTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, readErr("list transactions", err)
	}
	return transactionsFromRows(rows)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, lookupErr("get transaction", id, err)
	}
	return transactionFromRow(row)
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	n, err := r.queries.UpdateTransaction(ctx, transactionToRow(t))
	if err != nil {
		return writeErr("update transaction", t.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update transaction %s: %w", t.ID, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	if err := r.queries.DeleteTransaction(ctx, id); err != nil {
		return writeErr("delete transaction", id, err)
	}
	return nil
}

func (r *SQLiteRepository) TransactionsByDate(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByDate(ctx, from.String(), to.String())
	if err != nil {
		return nil, readErr("list transactions by date", err)
	}
	return transactionsFromRows(rows)
}

func (r *SQLiteRepository) TransactionsByCategory(ctx context.Context, categoryID string) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByCategory(ctx, categoryID)
	if err != nil {
		return nil, readErr("list transactions by category", err)
	}
	return transactionsFromRows(rows)
}

// --- credits ---

func (r *SQLiteRepository) AddCredit(ctx context.Context, c core.Credit) error {
	if err := r.queries.InsertCredit(ctx, creditToRow(c)); err != nil {
		return writeErr("insert credit", c.ID, err)
	}
	storeLog().DebugContext(ctx, "Credit saved to SQLite",
		"id", c.ID,
		"creditor", c.Creditor,
		"total_amount", c.TotalAmount.StringFixed(2),
		"term_months", c.TermMonths)
	return nil
}

func (r *SQLiteRepository) GetAllCredits(ctx context.Context) ([]core.Credit, error) {
	rows, err := r.queries.ListCredits(ctx)
	if err != nil {
		return nil, readErr("list credits", err)
	}
	return creditsFromRows(rows)
}

func (r *SQLiteRepository) GetCredit(ctx context.Context, id string) (core.Credit, error) {
	row, err := r.queries.GetCredit(ctx, id)
	if err != nil {
		return core.Credit{}, lookupErr("get credit", id, err)
	}
	return creditFromRow(row)
}

func (r *SQLiteRepository) UpdateCredit(ctx context.Context, c core.Credit) error {
	n, err := r.queries.UpdateCredit(ctx, creditToRow(c))
	if err != nil {
		return writeErr("update credit", c.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update credit %s: %w", c.ID, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCredit(ctx context.Context, id string) error {
	if err := r.queries.DeleteCredit(ctx, id); err != nil {
		return writeErr("delete credit", id, err)
	}
	return nil
}

func (r *SQLiteRepository) CreditsByStartDate(ctx context.Context, from, to core.Date) ([]core.Credit, error) {
	rows, err := r.queries.ListCreditsByStartDate(ctx, from.String(), to.String())
	if err != nil {
		return nil, readErr("list credits by start date", err)
	}
	return creditsFromRows(rows)
}

// --- categories ---

func (r *SQLiteRepository) AddCategory(ctx context.Context, c core.Category) error {
	if err := r.queries.InsertCategory(ctx, categoryToRow(c)); err != nil {
		return writeErr("insert category", c.ID, err)
	}
	storeLog().DebugContext(ctx, "Category saved to SQLite", "id", c.ID, "name", c.Name, "custom", c.IsCustom)
	return nil
}

func (r *SQLiteRepository) GetAllCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, readErr("list categories", err)
	}
	out := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		c, err := categoryFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	row, err := r.queries.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, lookupErr("get category", id, err)
	}
	return categoryFromRow(row)
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	n, err := r.queries.UpdateCategory(ctx, categoryToRow(c))
	if err != nil {
		return writeErr("update category", c.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update category %s: %w", c.ID, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	if err := r.queries.DeleteCategory(ctx, id); err != nil {
		return writeErr("delete category", id, err)
	}
	return nil
}

// --- settings ---

// GetSettings returns the stored settings and true, or the defaults and false
// when the singleton has never been written.
func (r *SQLiteRepository) GetSettings(ctx context.Context) (core.Settings, bool, error) {
	row, err := r.queries.GetSettings(ctx, core.SettingsID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DefaultSettings(), false, nil
	}
	if err != nil {
		return core.Settings{}, false, readErr("get settings", err)
	}
	s, err := settingsFromRow(row)
	if err != nil {
		return core.Settings{}, false, err
	}
	return s, true, nil
}

func (r *SQLiteRepository) PutSettings(ctx context.Context, s core.Settings) error {
	if err := r.queries.UpsertSettings(ctx, settingsToRow(s)); err != nil {
		return writeErr("put settings", s.ID, err)
	}
	return nil
}

// --- errors ---

func writeErr(op, id string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s %s: %w", op, id, core.ErrDuplicateKey)
	}
	return fmt.Errorf("%s %s: %w: %w", op, id, core.ErrStorageUnavailable, err)
}

func readErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, core.ErrStorageUnavailable, err)
}

func lookupErr(op, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", op, id, core.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w: %w", op, id, core.ErrStorageUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var serr *msqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- row conversion ---

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func transactionToRow(t core.Transaction) TransactionRow {
	return TransactionRow{
		ID:          t.ID,
		Amount:      t.Amount.StringFixed(2),
		Type:        string(t.Type),
		CategoryID:  t.CategoryID,
		Description: t.Description,
		Date:        t.Date.String(),
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
		Synced:      boolToInt(t.Synced),
	}
}

func transactionFromRow(row TransactionRow) (core.Transaction, error) {
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("decode transaction %s amount: %w", row.ID, err)
	}
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("decode transaction %s date: %w", row.ID, err)
	}
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	updated, err := parseTime(row.UpdatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          row.ID,
		Amount:      amount,
		Type:        core.TransactionType(row.Type),
		CategoryID:  row.CategoryID,
		Description: row.Description,
		Date:        date,
		CreatedAt:   created,
		UpdatedAt:   updated,
		Synced:      row.Synced != 0,
	}, nil
}

func transactionsFromRows(rows []TransactionRow) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := transactionFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func creditToRow(c core.Credit) CreditRow {
	return CreditRow{
		ID:                    c.ID,
		Creditor:              c.Creditor,
		Debtor:                c.Debtor,
		TotalAmount:           c.TotalAmount.StringFixed(2),
		TermMonths:            int64(c.TermMonths),
		MonthlyRate:           c.MonthlyRate.StringFixed(2),
		EffectiveInterestRate: c.EffectiveInterestRate.String(),
		StartDate:             c.StartDate.String(),
		Description:           sql.NullString{String: c.Description, Valid: c.Description != ""},
		CreatedAt:             formatTime(c.CreatedAt),
		UpdatedAt:             formatTime(c.UpdatedAt),
		Synced:                boolToInt(c.Synced),
	}
}

func creditFromRow(row CreditRow) (core.Credit, error) {
	total, err := decimal.NewFromString(row.TotalAmount)
	if err != nil {
		return core.Credit{}, fmt.Errorf("decode credit %s total amount: %w", row.ID, err)
	}
	monthly, err := decimal.NewFromString(row.MonthlyRate)
	if err != nil {
		return core.Credit{}, fmt.Errorf("decode credit %s monthly rate: %w", row.ID, err)
	}
	rate, err := decimal.NewFromString(row.EffectiveInterestRate)
	if err != nil {
		return core.Credit{}, fmt.Errorf("decode credit %s interest rate: %w", row.ID, err)
	}
	start, err := core.ParseDate(row.StartDate)
	if err != nil {
		return core.Credit{}, fmt.Errorf("decode credit %s start date: %w", row.ID, err)
	}
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return core.Credit{}, err
	}
	updated, err := parseTime(row.UpdatedAt)
	if err != nil {
		return core.Credit{}, err
	}
	return core.Credit{
		ID:                    row.ID,
		Creditor:              row.Creditor,
		Debtor:                row.Debtor,
		TotalAmount:           total,
		TermMonths:            int(row.TermMonths),
		MonthlyRate:           monthly,
		EffectiveInterestRate: rate,
		StartDate:             start,
		Description:           row.Description.String,
		CreatedAt:             created,
		UpdatedAt:             updated,
		Synced:                row.Synced != 0,
	}, nil
}

func creditsFromRows(rows []CreditRow) ([]core.Credit, error) {
	out := make([]core.Credit, 0, len(rows))
	for _, row := range rows {
		c, err := creditFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func categoryToRow(c core.Category) CategoryRow {
	return CategoryRow{
		ID:              c.ID,
		Name:            c.Name,
		Type:            string(c.Type),
		TransactionType: string(c.TransactionType),
		Icon:            c.Icon,
		Color:           c.Color,
		IsCustom:        boolToInt(c.IsCustom),
		CreatedAt:       formatTime(c.CreatedAt),
	}
}

func categoryFromRow(row CategoryRow) (core.Category, error) {
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return core.Category{}, err
	}
	return core.Category{
		ID:              row.ID,
		Name:            row.Name,
		Type:            core.CategoryType(row.Type),
		TransactionType: core.TransactionType(row.TransactionType),
		Icon:            row.Icon,
		Color:           row.Color,
		IsCustom:        row.IsCustom != 0,
		CreatedAt:       created,
	}, nil
}

func settingsToRow(s core.Settings) SettingsRow {
	row := SettingsRow{
		ID:               s.ID,
		DarkMode:         boolToInt(s.DarkMode),
		Currency:         s.Currency,
		PinEnabled:       boolToInt(s.PINEnabled),
		BiometricEnabled: boolToInt(s.BiometricEnabled),
		SyncEnabled:      boolToInt(s.SyncEnabled),
	}
	if s.LastSync != nil {
		row.LastSync = sql.NullString{String: formatTime(*s.LastSync), Valid: true}
	}
	return row
}

func settingsFromRow(row SettingsRow) (core.Settings, error) {
	s := core.Settings{
		ID:               row.ID,
		DarkMode:         row.DarkMode != 0,
		Currency:         row.Currency,
		PINEnabled:       row.PinEnabled != 0,
		BiometricEnabled: row.BiometricEnabled != 0,
		SyncEnabled:      row.SyncEnabled != 0,
	}
	if row.LastSync.Valid {
		ts, err := parseTime(row.LastSync.String)
		if err != nil {
			return core.Settings{}, err
		}
		s.LastSync = &ts
	}
	return s, nil
}
