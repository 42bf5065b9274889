package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meinbudget/internal/core"
)

// run executes one CLI invocation against the SQLite database at db.
func run(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--backend", "sqlite", "--db", db}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func testDB(t *testing.T) string {
	t.Helper()
	t.Setenv("PORT", "8081")
	t.Setenv("SYNC_TARGET", "none")
	t.Setenv("LOG_LEVEL", "error")
	return filepath.Join(t.TempDir(), "budget.db")
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	want := map[string][]string{
		"serve":    nil,
		"tx":       {"add", "list", "delete"},
		"credit":   {"add", "list", "quote", "schedule", "delete"},
		"category": {"list", "add", "delete"},
		"settings": {"show", "set", "toggle-dark-mode"},
		"stats":    nil,
		"sync":     {"tail"},
		"version":  nil,
	}
	for name, subs := range want {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
		for _, sub := range subs {
			var found *cobra.Command
			for _, c := range cmd.Commands() {
				if c.Name() == sub {
					found = c
				}
			}
			assert.NotNil(t, found, "%s %s", name, sub)
		}
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("db"))
}

func TestCategoriesSeededOnFirstUse(t *testing.T) {
	db := testDB(t)
	out, err := run(t, db, "category", "list")
	require.NoError(t, err)
	for _, name := range []string{"Gehalt", "Kindergeld", "Kredit", "Versicherung", "Tanken", "Einkauf", "Unterhaltung"} {
		assert.Contains(t, out, name)
	}

	out, err = run(t, db, "category", "list", "--type", "income")
	require.NoError(t, err)
	assert.Contains(t, out, "Gehalt")
	assert.NotContains(t, out, "Tanken")

	_, err = run(t, db, "category", "add", "Haustier", "--icon", "🐕")
	require.NoError(t, err)
	out, err = run(t, db, "category", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Haustier")
	assert.Equal(t, 8+1, strings.Count(out, "\n"), "header plus eight categories")
}

func TestTransactionCommands(t *testing.T) {
	db := testDB(t)

	out, err := run(t, db, "tx", "add", "--amount", "42,50", "--category", "einkauf",
		"--description", "Wocheneinkauf", "--date", "2025-03-14")
	require.NoError(t, err)
	assert.Contains(t, out, "-42,50 €")
	assert.Contains(t, out, "2025-03-14")

	_, err = run(t, db, "tx", "add", "--type", "income", "--amount", "3000", "--category", "Gehalt",
		"--description", "Gehalt März", "--date", "2025-03-28")
	require.NoError(t, err)

	_, err = run(t, db, "tx", "add", "--amount", "10", "--category", "Gehalt", "--description", "falsch")
	assert.Error(t, err, "income category on an expense")

	out, err = run(t, db, "tx", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Wocheneinkauf")
	assert.Less(t, strings.Index(out, "Gehalt März"), strings.Index(out, "Wocheneinkauf"), "newest first")

	out, err = run(t, db, "tx", "list", "--from", "2025-03-20")
	require.NoError(t, err)
	assert.NotContains(t, out, "Wocheneinkauf")
	assert.Contains(t, out, "Gehalt März")

	out, err = run(t, db, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "2.957,50 €")
	assert.Contains(t, out, "2025-03")
}

func TestCreditCommands(t *testing.T) {
	db := testDB(t)

	out, err := run(t, db, "credit", "quote", "--amount", "10000", "--term", "60", "--rate", "3,5")
	require.NoError(t, err)
	assert.Contains(t, out, "181,92 €")

	out, err = run(t, db, "credit", "quote", "--amount", "12000", "--term", "12", "--rate", "0,0000000000000001")
	require.NoError(t, err)
	assert.Contains(t, out, "1.000,00 €")

	_, err = run(t, db, "credit", "quote", "--amount", "12000", "--term", "10000", "--rate", "100")
	assert.ErrorIs(t, err, core.ErrValidation)

	out, err = run(t, db, "credit", "quote", "--amount", "12000", "--term", "12", "--schedule", "--start", "2025-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, "1.000,00 €")
	assert.Contains(t, out, "2026-01-01")

	out, err = run(t, db, "credit", "add", "--creditor", "Sparkasse", "--debtor", "Familie",
		"--amount", "10000", "--term", "60", "--rate", "3,5", "--start", "2025-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, "181,92 €")

	out, err = run(t, db, "credit", "list", "--as-of", "2025-03-15")
	require.NoError(t, err)
	assert.Contains(t, out, "Sparkasse")
	assert.Contains(t, out, "2/60")

	_, err = run(t, db, "credit", "schedule", "missing")
	assert.Error(t, err)
}

func TestSettingsCommands(t *testing.T) {
	db := testDB(t)

	out, err := run(t, db, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "€")
	assert.Contains(t, out, "never")

	out, err = run(t, db, "settings", "set", "--currency", "USD", "--sync")
	require.NoError(t, err)
	assert.Contains(t, out, "USD")

	_, err = run(t, db, "settings", "set", "--currency", "EURO")
	assert.Error(t, err)
	_, err = run(t, db, "settings", "set")
	assert.Error(t, err)

	out, err = run(t, db, "settings", "toggle-dark-mode")
	require.NoError(t, err)
	assert.Contains(t, out, "Dark mode: true")
}

func TestSyncWithoutTarget(t *testing.T) {
	_, err := run(t, testDB(t), "sync")
	assert.ErrorIs(t, err, errNoSyncTarget)
}

func TestVersion(t *testing.T) {
	out, err := run(t, testDB(t), "version")
	require.NoError(t, err)
	assert.Equal(t, "meinbudget dev\n", out)
}
