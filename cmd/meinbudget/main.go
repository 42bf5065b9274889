package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"meinbudget/internal/cli"
	"meinbudget/internal/config"
	"meinbudget/internal/log"
)

var version = "dev"

// rootOptions carries the persistent flags and what PersistentPreRunE
// derives from them.
type rootOptions struct {
	dbPath   string
	backend  string
	logLevel string

	cfg    *config.Config
	logger *log.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "meinbudget",
		Short: "💶 Household budget: transactions, credits and categories",
		Long: `meinbudget keeps income, expenses and loan repayments in a local SQLite
database and serves them over a JSON API. Every command opens the store,
loads it into memory and installs the predefined categories on first use.`,
		SilenceUsage:      true,
		PersistentPreRunE: opts.load,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.dbPath, "db", "", "SQLite database path (overrides SQLITE_DB_PATH)")
	pf.StringVar(&opts.backend, "backend", "", "record store: sqlite or memory (overrides DATA_BACKEND)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")

	cmd.AddCommand(serveCmd(opts))
	cmd.AddCommand(txCmd(opts))
	cmd.AddCommand(creditCmd(opts))
	cmd.AddCommand(categoryCmd(opts))
	cmd.AddCommand(settingsCmd(opts))
	cmd.AddCommand(statsCmd(opts))
	cmd.AddCommand(syncCmd(opts))
	cmd.AddCommand(versionCmd())
	return cmd
}

func (o *rootOptions) load(cmd *cobra.Command, _ []string) error {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig(func(c *config.Config) {
		if o.dbPath != "" {
			c.SQLiteDBPath = o.dbPath
		}
		if o.backend != "" {
			c.DataBackend = o.backend
		}
		switch {
		case o.logLevel != "":
			c.LogLevel = o.logLevel
		case os.Getenv("LOG_LEVEL") == "" && cmd.Name() != "serve":
			// one-shot commands stay quiet unless asked
			c.LogLevel = "warn"
		}
	})
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.logger = cli.SetupLogger(cfg.LogLevel, cmd.ErrOrStderr())
	return nil
}

// open initializes the application for one command. Callers close it.
func (o *rootOptions) open(ctx context.Context) (*cli.App, error) {
	return cli.OpenApp(ctx, o.cfg, o.logger, nil)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		// no config needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "meinbudget", version)
		},
	}
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
