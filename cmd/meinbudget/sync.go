package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"meinbudget/internal/amqp"
)

var errNoSyncTarget = errors.New("no sync target configured; set SYNC_TARGET to amqp or sheets")

func syncCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push unsynced transactions and credits to the sync target once",
		Long: `Runs one sync pass: every transaction and credit not yet synced is published
to the configured target (AMQP or Google Sheets) and then marked synced.
Nothing happens while sync is disabled in the settings.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()
			if app.Worker == nil {
				return errNoSyncTarget
			}

			res, err := app.Worker.RunOnce(ctx)
			out := cmd.OutOrStdout()
			if res.Skipped {
				fmt.Fprintln(out, "Sync is disabled. Enable it with 'meinbudget settings set --sync'.")
				return nil
			}
			fmt.Fprintf(out, "Published %d of %d pending records", res.Published, res.Pending)
			if res.Failed > 0 {
				fmt.Fprintf(out, ", %d failed", res.Failed)
			}
			fmt.Fprintln(out)
			return err
		},
	}
	cmd.AddCommand(syncTailCmd(opts))
	return cmd
}

// consumer is implemented by publishers that can also read back what they
// published.
type consumer interface {
	Consume(ctx context.Context, handler func(*amqp.SyncMessage) error) error
}

func syncTailCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tail",
		Short: "Print sync messages arriving on the AMQP queue until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			c, ok := app.Backend.Publisher.(consumer)
			if !ok {
				return fmt.Errorf("sync tail needs SYNC_TARGET=amqp")
			}
			out := cmd.OutOrStdout()
			err = c.Consume(ctx, func(msg *amqp.SyncMessage) error {
				fmt.Fprintf(out, "%s\t%s\t%s\tupdated %s\n",
					msg.Timestamp.Local().Format(time.RFC3339),
					msg.Record.Collection,
					msg.Record.ID,
					msg.Record.UpdatedAt.Local().Format(time.RFC3339))
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
