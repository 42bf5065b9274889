package seed

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meinbudget/internal/core"
	"meinbudget/internal/log"
	"meinbudget/internal/state"
	"meinbudget/internal/storage"
	"meinbudget/internal/storage/memory"
)

func TestRunSeedsOnce(t *testing.T) {
	ctx := context.Background()
	m := state.New(memory.New())
	require.NoError(t, m.Initialize(ctx))

	n, err := Run(ctx, m, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	n, err = Run(ctx, m, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	cats := m.Categories()
	require.Len(t, cats, 7)
	income := 0
	for _, c := range cats {
		assert.False(t, c.IsCustom, c.Name)
		assert.NotEqual(t, core.CategoryCustom, c.Type)
		if c.TransactionType == core.Income {
			income++
		}
	}
	assert.Equal(t, 2, income)
}

func TestRunLogsSeedOperation(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})})
	m := state.New(memory.New(), state.WithLogger(logger))
	require.NoError(t, m.Initialize(ctx))

	_, err := Run(ctx, m, logger)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "phase=initializing")
	assert.Contains(t, out, "phase=ready")
	assert.Contains(t, out, "component=seed")
	assert.Contains(t, out, "operation=seed")
	assert.Contains(t, out, "count=7")
}

func TestRunSkipsWhenCustomCategoryExists(t *testing.T) {
	ctx := context.Background()
	m := state.New(memory.New())
	require.NoError(t, m.Initialize(ctx))

	_, err := m.AddCategory(ctx, state.CategoryInput{Name: "Haustier", TransactionType: core.Expense})
	require.NoError(t, err)

	n, err := Run(ctx, m, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, m.Categories(), 1)
}

func TestRunAcrossRestartsOnSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seed.db")

	for i := 0; i < 2; i++ {
		repo, err := storage.NewSQLiteRepository(path)
		require.NoError(t, err)
		m := state.New(repo)
		require.NoError(t, m.Initialize(ctx))
		_, err = Run(ctx, m, nil)
		require.NoError(t, err)
		assert.Len(t, m.Categories(), 7)
		require.NoError(t, repo.Close())
	}
}

func TestPredefinedCatalog(t *testing.T) {
	want := map[string]string{
		"Gehalt": "#10b981", "Kindergeld": "#3b82f6", "Kredit": "#ef4444",
		"Versicherung": "#f59e0b", "Tanken": "#8b5cf6", "Einkauf": "#ec4899",
		"Unterhaltung": "#14b8a6",
	}
	got := Predefined()
	require.Len(t, got, len(want))
	for _, c := range got {
		assert.Equal(t, want[c.Name], c.Color, c.Name)
		assert.NotEmpty(t, c.Icon)
	}
}
