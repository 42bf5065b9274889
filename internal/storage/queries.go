package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// --- transactions ---

const transactionColumns = `id, amount, type, category_id, description, date, created_at, updated_at, synced`

const insertTransaction = `INSERT INTO transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertTransaction(ctx context.Context, arg TransactionRow) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		arg.ID, arg.Amount, arg.Type, arg.CategoryID, arg.Description,
		arg.Date, arg.CreatedAt, arg.UpdatedAt, arg.Synced)
	return err
}

const updateTransaction = `UPDATE transactions
SET amount = ?, type = ?, category_id = ?, description = ?, date = ?, created_at = ?, updated_at = ?, synced = ?
WHERE id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, arg TransactionRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Amount, arg.Type, arg.CategoryID, arg.Description, arg.Date,
		arg.CreatedAt, arg.UpdatedAt, arg.Synced, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteTransaction, id)
	return err
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id string) (TransactionRow, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactions)
}

const listTransactionsByDate = `SELECT ` + transactionColumns + ` FROM transactions
WHERE date BETWEEN ? AND ? ORDER BY date`

func (q *Queries) ListTransactionsByDate(ctx context.Context, from, to string) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactionsByDate, from, to)
}

const listTransactionsByCategory = `SELECT ` + transactionColumns + ` FROM transactions
WHERE category_id = ? ORDER BY date`

func (q *Queries) ListTransactionsByCategory(ctx context.Context, categoryID string) ([]TransactionRow, error) {
	return q.queryTransactions(ctx, listTransactionsByCategory, categoryID)
}

func (q *Queries) queryTransactions(ctx context.Context, query string, args ...interface{}) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		i, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanTransaction(s rowScanner) (TransactionRow, error) {
	var i TransactionRow
	err := s.Scan(&i.ID, &i.Amount, &i.Type, &i.CategoryID, &i.Description,
		&i.Date, &i.CreatedAt, &i.UpdatedAt, &i.Synced)
	return i, err
}

// --- credits ---

const creditColumns = `id, creditor, debtor, total_amount, term_months, monthly_rate,
effective_interest_rate, start_date, description, created_at, updated_at, synced`

const insertCredit = `INSERT INTO credits (` + creditColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertCredit(ctx context.Context, arg CreditRow) error {
	_, err := q.db.ExecContext(ctx, insertCredit,
		arg.ID, arg.Creditor, arg.Debtor, arg.TotalAmount, arg.TermMonths, arg.MonthlyRate,
		arg.EffectiveInterestRate, arg.StartDate, arg.Description, arg.CreatedAt, arg.UpdatedAt, arg.Synced)
	return err
}

const updateCredit = `UPDATE credits
SET creditor = ?, debtor = ?, total_amount = ?, term_months = ?, monthly_rate = ?,
    effective_interest_rate = ?, start_date = ?, description = ?, created_at = ?, updated_at = ?, synced = ?
WHERE id = ?`

func (q *Queries) UpdateCredit(ctx context.Context, arg CreditRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateCredit,
		arg.Creditor, arg.Debtor, arg.TotalAmount, arg.TermMonths, arg.MonthlyRate,
		arg.EffectiveInterestRate, arg.StartDate, arg.Description, arg.CreatedAt, arg.UpdatedAt,
		arg.Synced, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteCredit = `DELETE FROM credits WHERE id = ?`

func (q *Queries) DeleteCredit(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteCredit, id)
	return err
}

const getCredit = `SELECT ` + creditColumns + ` FROM credits WHERE id = ?`

func (q *Queries) GetCredit(ctx context.Context, id string) (CreditRow, error) {
	return scanCredit(q.db.QueryRowContext(ctx, getCredit, id))
}

const listCredits = `SELECT ` + creditColumns + ` FROM credits`

func (q *Queries) ListCredits(ctx context.Context) ([]CreditRow, error) {
	return q.queryCredits(ctx, listCredits)
}

const listCreditsByStartDate = `SELECT ` + creditColumns + ` FROM credits
WHERE start_date BETWEEN ? AND ? ORDER BY start_date`

func (q *Queries) ListCreditsByStartDate(ctx context.Context, from, to string) ([]CreditRow, error) {
	return q.queryCredits(ctx, listCreditsByStartDate, from, to)
}

func (q *Queries) queryCredits(ctx context.Context, query string, args ...interface{}) ([]CreditRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CreditRow
	for rows.Next() {
		i, err := scanCredit(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanCredit(s rowScanner) (CreditRow, error) {
	var i CreditRow
	err := s.Scan(&i.ID, &i.Creditor, &i.Debtor, &i.TotalAmount, &i.TermMonths, &i.MonthlyRate,
		&i.EffectiveInterestRate, &i.StartDate, &i.Description, &i.CreatedAt, &i.UpdatedAt, &i.Synced)
	return i, err
}

// --- categories ---

const categoryColumns = `id, name, type, transaction_type, icon, color, is_custom, created_at`

const insertCategory = `INSERT INTO categories (` + categoryColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertCategory(ctx context.Context, arg CategoryRow) error {
	_, err := q.db.ExecContext(ctx, insertCategory,
		arg.ID, arg.Name, arg.Type, arg.TransactionType, arg.Icon, arg.Color, arg.IsCustom, arg.CreatedAt)
	return err
}

const updateCategory = `UPDATE categories
SET name = ?, type = ?, transaction_type = ?, icon = ?, color = ?, is_custom = ?, created_at = ?
WHERE id = ?`

func (q *Queries) UpdateCategory(ctx context.Context, arg CategoryRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateCategory,
		arg.Name, arg.Type, arg.TransactionType, arg.Icon, arg.Color, arg.IsCustom, arg.CreatedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, deleteCategory, id)
	return err
}

const getCategory = `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id string) (CategoryRow, error) {
	return scanCategory(q.db.QueryRowContext(ctx, getCategory, id))
}

const listCategories = `SELECT ` + categoryColumns + ` FROM categories`

func (q *Queries) ListCategories(ctx context.Context) ([]CategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CategoryRow
	for rows.Next() {
		i, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanCategory(s rowScanner) (CategoryRow, error) {
	var i CategoryRow
	err := s.Scan(&i.ID, &i.Name, &i.Type, &i.TransactionType, &i.Icon, &i.Color, &i.IsCustom, &i.CreatedAt)
	return i, err
}

// --- settings ---

const getSettings = `SELECT id, dark_mode, currency, pin_enabled, biometric_enabled, sync_enabled, last_sync
FROM settings WHERE id = ?`

func (q *Queries) GetSettings(ctx context.Context, id string) (SettingsRow, error) {
	var i SettingsRow
	err := q.db.QueryRowContext(ctx, getSettings, id).Scan(
		&i.ID, &i.DarkMode, &i.Currency, &i.PinEnabled, &i.BiometricEnabled, &i.SyncEnabled, &i.LastSync)
	return i, err
}

const upsertSettings = `INSERT INTO settings (id, dark_mode, currency, pin_enabled, biometric_enabled, sync_enabled, last_sync)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    dark_mode = excluded.dark_mode,
    currency = excluded.currency,
    pin_enabled = excluded.pin_enabled,
    biometric_enabled = excluded.biometric_enabled,
    sync_enabled = excluded.sync_enabled,
    last_sync = excluded.last_sync`

func (q *Queries) UpsertSettings(ctx context.Context, arg SettingsRow) error {
	_, err := q.db.ExecContext(ctx, upsertSettings,
		arg.ID, arg.DarkMode, arg.Currency, arg.PinEnabled, arg.BiometricEnabled, arg.SyncEnabled, arg.LastSync)
	return err
}
