package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meinbudget/internal/backend"
	"meinbudget/internal/config"
	"meinbudget/internal/core"
	"meinbudget/internal/log"
	"meinbudget/internal/outbox"
	"meinbudget/internal/storage/memory"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Port:          "8081",
		DataBackend:   config.BackendMemory,
		SyncTarget:    config.SyncTargetNone,
		SyncBatchSize: 10,
	}
}

func TestOpenAppSeedsCategories(t *testing.T) {
	app, err := OpenApp(context.Background(), memoryConfig(), nil, nil)
	require.NoError(t, err)
	defer app.Close()

	assert.Len(t, app.State.Categories(), 7)
	assert.Nil(t, app.Worker)
	assert.Nil(t, app.Pinger())
}

func TestOpenAppLogsStartupAndShutdown(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Handler: slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})})

	app, err := OpenApp(context.Background(), memoryConfig(), logger, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "operation=startup")
	require.NoError(t, app.Close())

	out := buf.String()
	assert.Contains(t, out, "component=cli")
	assert.Contains(t, out, "operation=shutdown")
}

func TestOpenAppSQLiteSurvivesReopen(t *testing.T) {
	cfg := memoryConfig()
	cfg.DataBackend = config.BackendSQLite
	cfg.SQLiteDBPath = filepath.Join(t.TempDir(), "budget.db")
	ctx := context.Background()

	app, err := OpenApp(ctx, cfg, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, app.Pinger())
	require.NoError(t, app.Pinger().Ping(ctx))
	dark := true
	_, err = app.State.UpdateSettings(ctx, core.SettingsPatch{DarkMode: &dark})
	require.NoError(t, err)
	require.NoError(t, app.Close())

	app, err = OpenApp(ctx, cfg, nil, nil)
	require.NoError(t, err)
	defer app.Close()
	assert.Len(t, app.State.Categories(), 7, "seeding must not repeat")
	assert.True(t, app.State.Settings().DarkMode)
}

type stubFactory struct {
	res *backend.Result
	err error
}

func (f stubFactory) Create(context.Context, backend.Config) (*backend.Result, error) {
	return f.res, f.err
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, outbox.Record) error { return nil }
func (nopPublisher) Close() error                                 { return nil }

func TestOpenAppWithPublisherBuildsWorker(t *testing.T) {
	closed := false
	f := stubFactory{res: &backend.Result{
		Store:     memory.New(),
		Publisher: nopPublisher{},
		Cleanup:   func() error { closed = true; return nil },
	}}
	app, err := OpenApp(context.Background(), memoryConfig(), nil, f)
	require.NoError(t, err)
	require.NotNil(t, app.Worker)
	require.NoError(t, app.Close())
	assert.True(t, closed)
}

func TestOpenAppFactoryError(t *testing.T) {
	boom := errors.New("disk gone")
	_, err := OpenApp(context.Background(), memoryConfig(), nil, stubFactory{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestOpenAppRejectsInvalidConfig(t *testing.T) {
	cfg := memoryConfig()
	cfg.DataBackend = "postgres"
	_, err := OpenApp(context.Background(), cfg, nil, nil)
	assert.Error(t, err)
}

func TestLoadAndValidateConfigOverrides(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("SYNC_TARGET", "")
	cfg, err := LoadAndValidateConfig(func(c *config.Config) { c.Port = "9999" })
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)

	_, err = LoadAndValidateConfig(func(c *config.Config) { c.Port = "port" })
	assert.ErrorContains(t, err, "invalid port")
}
