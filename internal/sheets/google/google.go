// Package google exports outbox records to a Google Sheets spreadsheet, one
// worksheet per collection, one row per record.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"meinbudget/internal/core"
	"meinbudget/internal/log"
	"meinbudget/internal/outbox"
)

const defaultCacheValidDuration = 2 * time.Minute

var (
	transactionHeader = []any{"ID", "Datum", "Typ", "Kategorie", "Betrag", "Beschreibung", "Geändert"}
	creditHeader      = []any{"ID", "Gläubiger", "Schuldner", "Betrag", "Laufzeit", "Zinssatz", "Rate", "Beginn", "Beschreibung", "Geändert"}
)

type Config struct {
	SpreadsheetID   string
	SheetName       string // worksheet prefix, e.g. "MeinBudget"
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	creditsSheet      string
	logger            *log.Logger

	mu                 sync.Mutex
	rows               map[string]*rowIndex
	cacheValidDuration time.Duration
}

// rowIndex maps record ids to their 1-based row in one worksheet.
type rowIndex struct {
	ids       map[string]int
	count     int
	expiresAt time.Time
}

var _ outbox.Publisher = (*Client)(nil)

// New authenticates with a service account. Extra options are appended after
// the credentials, which lets tests point the client at a local endpoint.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	if len(opts) == 0 {
		creds, err := credentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", cfg.SpreadsheetID)

	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "MeinBudget"
	}
	return &Client{
		svc:                svc,
		spreadsheetID:      cfg.SpreadsheetID,
		transactionsSheet:  base + " Transaktionen",
		creditsSheet:       base + " Kredite",
		logger:             logger,
		rows:               map[string]*rowIndex{},
		cacheValidDuration: defaultCacheValidDuration,
	}, nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
}

// Publish writes the record into its worksheet. A record already present is
// overwritten in place, so publishing twice leaves one row.
func (c *Client) Publish(ctx context.Context, rec outbox.Record) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheet, header, row, err := c.rowFor(rec)
	if err != nil {
		return err
	}

	idx, err := c.index(ctx, sheet)
	if err != nil {
		return err
	}

	c.mu.Lock()
	empty := idx.count == 0
	target, existing := idx.ids[rec.ID]
	switch {
	case existing:
	case empty:
		target = 2
	default:
		target = idx.count + 1
	}
	c.mu.Unlock()

	// An empty worksheet gets its header row in the same write.
	values := [][]any{row}
	rng := fmt.Sprintf("%s!A%d", sheet, target)
	if empty {
		values = [][]any{header, row}
		rng = sheet + "!A1"
	}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		c.InvalidateRowCache()
		return fmt.Errorf("write %s row %d: %w", sheet, target, err)
	}

	c.mu.Lock()
	idx.ids[rec.ID] = target
	if target > idx.count {
		idx.count = target
	}
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "Record written to sheet",
		log.FieldCollection, rec.Collection,
		log.FieldRecordID, rec.ID,
		"sheet", sheet,
		"row", target,
		"updated", existing)
	return nil
}

func (c *Client) Close() error { return nil }

// InvalidateRowCache forces the next Publish to re-read the id columns.
func (c *Client) InvalidateRowCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, idx := range c.rows {
		idx.expiresAt = time.Time{}
	}
}

// index returns the id column of sheet, served from cache while fresh.
func (c *Client) index(ctx context.Context, sheet string) (*rowIndex, error) {
	c.mu.Lock()
	if c.rows == nil {
		c.rows = map[string]*rowIndex{}
	}
	if idx, ok := c.rows[sheet]; ok && time.Now().Before(idx.expiresAt) {
		c.mu.Unlock()
		return idx, nil
	}
	c.mu.Unlock()

	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read ids of %s: %w", sheet, err)
	}
	idx := &rowIndex{
		ids:       make(map[string]int, len(resp.Values)),
		count:     len(resp.Values),
		expiresAt: time.Now().Add(c.cacheValidDuration),
	}
	for i, row := range resp.Values {
		if i == 0 || len(row) == 0 {
			continue
		}
		if id := strings.TrimSpace(fmt.Sprint(row[0])); id != "" {
			idx.ids[id] = i + 1
		}
	}

	c.mu.Lock()
	c.rows[sheet] = idx
	c.mu.Unlock()
	return idx, nil
}

func (c *Client) rowFor(rec outbox.Record) (sheet string, header, row []any, err error) {
	switch rec.Collection {
	case log.CollectionTransactions:
		t, err := rec.Transaction()
		if err != nil {
			return "", nil, nil, err
		}
		return c.transactionsSheet, transactionHeader, transactionRow(t), nil
	case log.CollectionCredits:
		cr, err := rec.Credit()
		if err != nil {
			return "", nil, nil, err
		}
		return c.creditsSheet, creditHeader, creditRow(cr), nil
	}
	return "", nil, nil, fmt.Errorf("unsupported collection %q", rec.Collection)
}

func transactionRow(t core.Transaction) []any {
	return []any{
		t.ID,
		t.Date.String(),
		string(t.Type),
		t.CategoryID,
		t.Amount.StringFixed(2),
		t.Description,
		t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func creditRow(c core.Credit) []any {
	return []any{
		c.ID,
		c.Creditor,
		c.Debtor,
		c.TotalAmount.StringFixed(2),
		strconv.Itoa(c.TermMonths),
		c.EffectiveInterestRate.String(),
		c.MonthlyRate.StringFixed(2),
		c.StartDate.String(),
		c.Description,
		c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
