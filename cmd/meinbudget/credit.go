package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"meinbudget/internal/amortization"
	"meinbudget/internal/core"
	"meinbudget/internal/format"
	"meinbudget/internal/state"
)

func creditCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credit",
		Short: "Track loans and their repayment plans",
	}
	cmd.AddCommand(creditAddCmd(opts))
	cmd.AddCommand(creditListCmd(opts))
	cmd.AddCommand(creditQuoteCmd())
	cmd.AddCommand(creditScheduleCmd(opts))
	cmd.AddCommand(creditDeleteCmd(opts))
	return cmd
}

// loanFlags are shared by add and quote.
type loanFlags struct {
	amount string
	term   int
	rate   string
	start  string
}

func (l *loanFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&l.amount, "amount", "a", "", "principal, e.g. 10000")
	f.IntVar(&l.term, "term", 0, "term in months")
	f.StringVar(&l.rate, "rate", "0", "effective annual interest rate in percent, e.g. 3,5")
	f.StringVar(&l.start, "start", "", "start day YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("term")
}

func (l *loanFlags) parse() (state.CreditInput, error) {
	principal, err := core.ParseAmount(l.amount)
	if err != nil {
		return state.CreditInput{}, err
	}
	rate, err := core.ParsePercent(l.rate)
	if err != nil {
		return state.CreditInput{}, err
	}
	start, err := dateArg(l.start)
	if err != nil {
		return state.CreditInput{}, err
	}
	return state.CreditInput{
		TotalAmount:           principal,
		TermMonths:            l.term,
		EffectiveInterestRate: rate,
		StartDate:             start,
	}, nil
}

func creditAddCmd(opts *rootOptions) *cobra.Command {
	var (
		loan        loanFlags
		creditor    string
		debtor      string
		description string
	)
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Record a credit; the monthly installment is computed",
		Example: `  meinbudget credit add --creditor Sparkasse --debtor Familie --amount 10000 --term 60 --rate 3,5 --start 2025-01-01`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			in, err := loan.parse()
			if err != nil {
				return err
			}
			in.Creditor, in.Debtor, in.Description = creditor, debtor, description

			app, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			c, err := app.State.AddCredit(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added credit %s: %s over %d months, %s per month\n",
				c.ID, money(app.State, c.TotalAmount), c.TermMonths, money(app.State, c.MonthlyRate))
			return nil
		},
	}
	loan.register(cmd)
	f := cmd.Flags()
	f.StringVar(&creditor, "creditor", "", "who lent the money")
	f.StringVar(&debtor, "debtor", "", "who repays it")
	f.StringVarP(&description, "description", "d", "", "optional note")
	_ = cmd.MarkFlagRequired("creditor")
	_ = cmd.MarkFlagRequired("debtor")
	return cmd
}

func creditListCmd(opts *rootOptions) *cobra.Command {
	var asOf string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List credits with their repayment progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			credits := app.State.Credits()
			if len(credits) == 0 {
				fmt.Fprintln(out, "No credits found. Use 'meinbudget credit add' to record one.")
				return nil
			}
			day, err := dateArg(asOf)
			if err != nil {
				return err
			}
			w := newTable(out)
			fmt.Fprintln(w, "CREDITOR\tDEBTOR\tAMOUNT\tRATE\tMONTHLY\tPAID\tREMAINING\tID")
			for _, c := range credits {
				p, err := amortization.ProgressOf(c, day)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s %%\t%s\t%d/%d\t%s\t%s\n",
					c.Creditor, c.Debtor,
					money(app.State, c.TotalAmount),
					format.Number(c.EffectiveInterestRate),
					money(app.State, c.MonthlyRate),
					p.InstallmentsPaid, c.TermMonths,
					money(app.State, p.RemainingBalance),
					c.ID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "count installments due up to this day (default today)")
	return cmd
}

func creditQuoteCmd() *cobra.Command {
	var (
		loan     loanFlags
		schedule bool
	)
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Compute the installment for a prospective credit without storing it",
		// pure calculation, no store
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := loan.parse()
			if err != nil {
				return err
			}
			inst, err := amortization.ComputeInstallment(in.TotalAmount, in.TermMonths, in.EffectiveInterestRate)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Monthly installment: %s\n", format.Currency(inst.MonthlyPayment, core.DefaultCurrency))
			fmt.Fprintf(out, "Total interest:      %s\n", format.Currency(inst.TotalInterest, core.DefaultCurrency))
			fmt.Fprintf(out, "Total repayment:     %s\n", format.Currency(inst.TotalRepayment(in.TermMonths), core.DefaultCurrency))
			if !schedule {
				return nil
			}
			entries, err := amortization.Schedule(in.TotalAmount, in.TermMonths, in.EffectiveInterestRate, in.StartDate)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			return printSchedule(out, entries, core.DefaultCurrency)
		},
	}
	loan.register(cmd)
	cmd.Flags().BoolVar(&schedule, "schedule", false, "also print the repayment plan")
	return cmd
}

func creditScheduleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <id>",
		Short: "Print the repayment plan of a credit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			c, err := app.State.Credit(args[0])
			if err != nil {
				return err
			}
			entries, err := amortization.Schedule(c.TotalAmount, c.TermMonths, c.EffectiveInterestRate, c.StartDate)
			if err != nil {
				return err
			}
			return printSchedule(cmd.OutOrStdout(), entries, app.State.Settings().Currency)
		},
	}
}

func printSchedule(out io.Writer, entries []amortization.ScheduleEntry, currency string) error {
	w := newTable(out)
	fmt.Fprintln(w, "#\tDUE\tPAYMENT\tPRINCIPAL\tINTEREST\tREMAINING")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.Period, e.DueDate,
			format.Currency(e.Payment, currency),
			format.Currency(e.Principal, currency),
			format.Currency(e.Interest, currency),
			format.Currency(e.RemainingBalance, currency))
	}
	return w.Flush()
}

func creditDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a credit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.State.DeleteCredit(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted credit %s\n", args[0])
			return nil
		},
	}
}
