package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"meinbudget/internal/core"
	"meinbudget/internal/format"
)

func settingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change application settings",
	}
	cmd.AddCommand(settingsShowCmd(opts))
	cmd.AddCommand(settingsSetCmd(opts))
	cmd.AddCommand(settingsToggleDarkModeCmd(opts))
	return cmd
}

func printSettings(out io.Writer, s core.Settings) error {
	w := newTable(out)
	lastSync := "never"
	if s.LastSync != nil {
		lastSync = s.LastSync.Local().Format(time.RFC3339)
	}
	fmt.Fprintf(w, "Currency:\t%s\n", s.Currency)
	fmt.Fprintf(w, "Dark mode:\t%t\n", s.DarkMode)
	fmt.Fprintf(w, "PIN:\t%t\n", s.PINEnabled)
	fmt.Fprintf(w, "Biometric:\t%t\n", s.BiometricEnabled)
	fmt.Fprintf(w, "Sync:\t%t\n", s.SyncEnabled)
	fmt.Fprintf(w, "Last sync:\t%s\n", lastSync)
	return w.Flush()
}

func settingsShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()
			return printSettings(cmd.OutOrStdout(), app.State.Settings())
		},
	}
}

func settingsSetCmd(opts *rootOptions) *cobra.Command {
	var (
		currency                      string
		darkMode, pin, biometric, syn bool
	)
	cmd := &cobra.Command{
		Use:     "set",
		Short:   "Change settings; only the given flags are applied",
		Example: `  meinbudget settings set --currency EUR --sync`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var patch core.SettingsPatch
			f := cmd.Flags()
			if f.Changed("currency") {
				if !format.ValidCurrency(currency) {
					return fmt.Errorf("%w: unknown currency %q", core.ErrValidation, currency)
				}
				patch.Currency = &currency
			}
			if f.Changed("dark-mode") {
				patch.DarkMode = &darkMode
			}
			if f.Changed("pin") {
				patch.PINEnabled = &pin
			}
			if f.Changed("biometric") {
				patch.BiometricEnabled = &biometric
			}
			if f.Changed("sync") {
				patch.SyncEnabled = &syn
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to change; see --help")
			}

			ctx := cmd.Context()
			app, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			s, err := app.State.UpdateSettings(ctx, patch)
			if err != nil {
				return err
			}
			return printSettings(cmd.OutOrStdout(), s)
		},
	}
	f := cmd.Flags()
	f.StringVar(&currency, "currency", "", "display currency: € or an ISO 4217 code")
	f.BoolVar(&darkMode, "dark-mode", false, "dark theme")
	f.BoolVar(&pin, "pin", false, "PIN lock")
	f.BoolVar(&biometric, "biometric", false, "biometric unlock")
	f.BoolVar(&syn, "sync", false, "push changes to the configured sync target")
	return cmd
}

func settingsToggleDarkModeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle-dark-mode",
		Short: "Flip the dark mode flag",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			s, err := app.State.ToggleDarkMode(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dark mode: %t\n", s.DarkMode)
			return nil
		},
	}
}
