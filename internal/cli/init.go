// Package cli holds the start-up sequence shared by every meinbudget command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"meinbudget/internal/backend"
	"meinbudget/internal/config"
	"meinbudget/internal/log"
	"meinbudget/internal/seed"
	"meinbudget/internal/state"
	"meinbudget/internal/worker"
)

// SetupLogger builds a text logger writing to w at level and installs it as
// the slog default.
func SetupLogger(level string, w io.Writer) *log.Logger {
	lvl := log.ParseLevel(level)
	logger := log.New(log.Config{
		Level:     lvl,
		Component: log.ComponentApp,
		Handler:   slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}),
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig reads the environment, applies overrides in order
// and validates the result.
func LoadAndValidateConfig(overrides ...func(*config.Config)) (*config.Config, error) {
	cfg := config.Load()
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App is an initialized manager over an open backend.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	State   *state.Manager
	Backend *backend.Result
	// Worker is nil when no sync target is configured.
	Worker *worker.SyncWorker
}

// OpenApp opens the configured store, initializes the state manager and
// installs the predefined categories on an empty store.
func OpenApp(ctx context.Context, cfg *config.Config, logger *log.Logger, factory backend.Factory) (*App, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if factory == nil {
		factory = backend.NewFactory(logger)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}

	res, err := factory.Create(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	manager := state.New(res.Store, state.WithLogger(logger))
	if err := manager.Initialize(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("initialize state: %w", err), res.Cleanup())
	}
	if _, err := seed.Run(ctx, manager, logger); err != nil {
		return nil, errors.Join(fmt.Errorf("seed categories: %w", err), res.Cleanup())
	}

	app := &App{
		Config:  cfg,
		Logger:  logger.WithComponent(log.ComponentCLI),
		State:   manager,
		Backend: res,
	}
	if res.Publisher != nil {
		app.Worker = worker.NewSyncWorker(manager, res.Publisher, worker.Config{
			Interval:  cfg.SyncInterval,
			BatchSize: cfg.SyncBatchSize,
		}, logger)
	}
	app.Logger.DebugContext(ctx, "Application ready",
		log.FieldOperation, log.OpStartup,
		"backend", bcfg.Store,
		"sync_worker", app.Worker != nil)
	return app, nil
}

// Pinger returns the store's health check, or nil when it has none.
func (a *App) Pinger() backend.Pinger {
	if p, ok := a.Backend.Store.(backend.Pinger); ok {
		return p
	}
	return nil
}

// Close releases the store and the publisher.
func (a *App) Close() error {
	if a.Backend == nil || a.Backend.Cleanup == nil {
		return nil
	}
	err := a.Backend.Cleanup()
	if a.Logger != nil {
		if err != nil {
			a.Logger.Warn("Application closed with errors", log.FieldOperation, log.OpShutdown, log.FieldError, err)
		} else {
			a.Logger.Debug("Application closed", log.FieldOperation, log.OpShutdown)
		}
	}
	return err
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs once the signal arrives, bounded by timeout; done closes after it.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup ended.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
