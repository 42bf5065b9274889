package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"meinbudget/internal/stats"
)

func statsCmd(opts *rootOptions) *cobra.Command {
	var recent int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show balance, category totals, monthly trend and credit totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			m := app.State
			transactions := m.Transactions()
			s := stats.Compute(transactions, m.Categories(), m.Credits())
			out := cmd.OutOrStdout()

			w := newTable(out)
			fmt.Fprintf(w, "Income:\t%s\n", money(m, s.TotalIncome))
			fmt.Fprintf(w, "Expenses:\t%s\n", money(m, s.TotalExpenses))
			fmt.Fprintf(w, "Balance:\t%s\n", money(m, s.Balance))
			if err := w.Flush(); err != nil {
				return err
			}

			if len(s.ByCategory) > 0 {
				fmt.Fprintln(out, "\nBy category")
				w = newTable(out)
				for _, c := range s.ByCategory {
					fmt.Fprintf(w, "  %s %s\t%s\t%d\n", c.Icon, c.Name, money(m, c.Total), c.Count)
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}

			if len(s.MonthlyTrend) > 0 {
				fmt.Fprintln(out, "\nMonthly trend")
				w = newTable(out)
				fmt.Fprintln(w, "  MONTH\tINCOME\tEXPENSES")
				for _, mt := range s.MonthlyTrend {
					fmt.Fprintf(w, "  %s\t%s\t%s\n", mt.Month, money(m, mt.Income), money(m, mt.Expenses))
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}

			if s.Credits.Count > 0 {
				fmt.Fprintf(out, "\nCredits: %d, %s borrowed, %s per month\n",
					s.Credits.Count, money(m, s.Credits.TotalAmount), money(m, s.Credits.TotalMonthlyPayments))
			}

			if recent > 0 && len(transactions) > 0 {
				fmt.Fprintln(out, "\nRecent")
				w = newTable(out)
				for _, t := range stats.Recent(transactions, recent) {
					fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", t.Date, signed(m, t), categoryName(m, t.CategoryID), t.Description)
				}
				return w.Flush()
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&recent, "recent", 5, "also list the newest n transactions")
	return cmd
}
