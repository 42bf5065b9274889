package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"meinbudget/internal/core"
	"meinbudget/internal/outbox"
)

// fakeSheets serves the two Values endpoints the client uses.
type fakeSheets struct {
	mu     sync.Mutex
	sheets map[string][][]any
	gets   int
	puts   int
}

func newFakeSheets(t *testing.T) (*fakeSheets, *httptest.Server) {
	f := &fakeSheets{sheets: map[string][][]any{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeSheets) serve(w http.ResponseWriter, r *http.Request) {
	_, rng, ok := strings.Cut(r.URL.Path, "/values/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	sheet, cell, _ := strings.Cut(rng, "!")

	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodGet:
		f.gets++
		var col [][]any
		for _, row := range f.sheets[sheet] {
			if len(row) == 0 {
				col = append(col, []any{})
				continue
			}
			col = append(col, row[:1])
		}
		json.NewEncoder(w).Encode(map[string]any{"range": rng, "values": col})
	case http.MethodPut:
		f.puts++
		var body struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		start, _ := strconv.Atoi(strings.TrimPrefix(cell, "A"))
		rows := f.sheets[sheet]
		for i, v := range body.Values {
			n := start + i
			for len(rows) < n {
				rows = append(rows, nil)
			}
			rows[n-1] = v
		}
		f.sheets[sheet] = rows
		json.NewEncoder(w).Encode(map[string]any{"updatedRange": rng})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeSheets) rows(sheet string) [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sheets[sheet]
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-1", SheetName: "Test"}, nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return c
}

func transactionRecord(t *testing.T, id, amount string) outbox.Record {
	rec, err := outbox.NewTransactionRecord(core.Transaction{
		ID:          id,
		Amount:      decimal.RequireFromString(amount),
		Type:        core.Expense,
		CategoryID:  "einkauf",
		Description: "Wocheneinkauf",
		Date:        core.NewDate(2025, 3, 1),
		UpdatedAt:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}, time.Now())
	require.NoError(t, err)
	return rec
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	require.Error(t, err)
	assert.Equal(t, "missing spreadsheet id", err.Error())
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "x"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "x", CredentialsFile: "/nonexistent/sa.json"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}

func TestPublish_WritesHeaderAndRows(t *testing.T) {
	fake, srv := newFakeSheets(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	require.NoError(t, c.Publish(ctx, transactionRecord(t, "t1", "12.5")))
	require.NoError(t, c.Publish(ctx, transactionRecord(t, "t2", "3")))

	rows := fake.rows("Test Transaktionen")
	require.Len(t, rows, 3)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "t1", rows[1][0])
	assert.Equal(t, "12.50", rows[1][4])
	assert.Equal(t, "t2", rows[2][0])
	assert.Equal(t, "2025-03-01", rows[2][1])
}

func TestPublish_RepublishOverwritesRow(t *testing.T) {
	fake, srv := newFakeSheets(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	require.NoError(t, c.Publish(ctx, transactionRecord(t, "t1", "12.5")))
	require.NoError(t, c.Publish(ctx, transactionRecord(t, "t2", "3")))

	// A fresh client must locate the row from the sheet, not its cache.
	c2 := newTestClient(t, srv)
	require.NoError(t, c2.Publish(ctx, transactionRecord(t, "t1", "99.99")))

	rows := fake.rows("Test Transaktionen")
	require.Len(t, rows, 3)
	assert.Equal(t, "99.99", rows[1][4])
}

func TestPublish_UsesRowCache(t *testing.T) {
	fake, srv := newFakeSheets(t)
	c := newTestClient(t, srv)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, c.Publish(ctx, transactionRecord(t, id, "1")))
	}
	fake.mu.Lock()
	assert.Equal(t, 1, fake.gets)
	assert.Equal(t, 3, fake.puts)
	fake.mu.Unlock()

	c.InvalidateRowCache()
	require.NoError(t, c.Publish(ctx, transactionRecord(t, "d", "1")))
	fake.mu.Lock()
	assert.Equal(t, 2, fake.gets)
	fake.mu.Unlock()
	assert.Len(t, fake.rows("Test Transaktionen"), 5)
}

func TestPublish_CreditsGoToOwnSheet(t *testing.T) {
	fake, srv := newFakeSheets(t)
	c := newTestClient(t, srv)

	rec, err := outbox.NewCreditRecord(core.Credit{
		ID:                    "c1",
		Creditor:              "Sparkasse",
		Debtor:                "Anna",
		TotalAmount:           decimal.NewFromInt(10000),
		TermMonths:            60,
		EffectiveInterestRate: decimal.RequireFromString("3.5"),
		MonthlyRate:           decimal.RequireFromString("181.92"),
		StartDate:             core.NewDate(2025, 1, 15),
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, c.Publish(context.Background(), rec))

	rows := fake.rows("Test Kredite")
	require.Len(t, rows, 2)
	assert.Equal(t, "Sparkasse", rows[1][1])
	assert.Equal(t, "60", rows[1][4])
	assert.Equal(t, "181.92", rows[1][6])
	assert.Empty(t, fake.rows("Test Transaktionen"))
}

func TestPublish_RejectsUnknownCollection(t *testing.T) {
	_, srv := newFakeSheets(t)
	c := newTestClient(t, srv)

	err := c.Publish(context.Background(), outbox.Record{Collection: "categories", ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported collection")
}

func TestPublish_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	err := c.Publish(context.Background(), outbox.Record{Collection: "transactions"})
	require.Error(t, err)
	assert.Equal(t, "sheets service not initialized", err.Error())
}
