package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"meinbudget/internal/cli"
	apphttp "meinbudget/internal/http"
	"meinbudget/internal/log"
)

const shutdownTimeout = 30 * time.Second

func serveCmd(opts *rootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API and the background sync worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != "" {
				opts.cfg.Port = port
				if err := opts.cfg.Validate(); err != nil {
					return err
				}
			}
			return serve(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides PORT)")
	return cmd
}

func serve(ctx context.Context, opts *rootOptions) error {
	logger := opts.logger
	cfg := opts.cfg

	app, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	srvOpts := apphttp.Options{
		Logger:          logger,
		Pinger:          app.Pinger(),
		WriteRateLimit:  cfg.WriteRateLimit,
		WriteRateWindow: cfg.WriteRateWindow,
		StatsCacheTTL:   cfg.StatsCacheTTL,
	}
	if app.Worker != nil {
		srvOpts.Syncer = app.Worker
	}
	srv := apphttp.NewServer(":"+cfg.Port, app.State, srvOpts)

	shutdownCtx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if app.Worker != nil {
			if err := app.Worker.Stop(ctx); err != nil {
				logger.Error("Sync worker shutdown error", log.FieldError, err)
			}
		}
	})

	if app.Worker != nil {
		if err := app.Worker.Start(shutdownCtx); err != nil {
			return fmt.Errorf("start sync worker: %w", err)
		}
	}

	logger.Info("Starting meinbudget",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		log.FieldTarget, cfg.SyncTarget,
		"sync", cfg.SyncEnabled())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if app.Worker != nil {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = app.Worker.Stop(stopCtx)
		}
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-shutdownCtx.Done():
		cli.WaitForShutdown(shutdownCtx, done)
		return nil
	}
}
