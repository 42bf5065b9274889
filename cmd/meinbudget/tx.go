package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"meinbudget/internal/core"
	"meinbudget/internal/state"
	"meinbudget/internal/stats"
)

func txCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transaction"},
		Short:   "Record, list and delete income and expenses",
	}
	cmd.AddCommand(txAddCmd(opts))
	cmd.AddCommand(txListCmd(opts))
	cmd.AddCommand(txDeleteCmd(opts))
	return cmd
}

func txAddCmd(opts *rootOptions) *cobra.Command {
	var (
		amount      string
		typ         string
		category    string
		description string
		date        string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Example: `  meinbudget tx add --amount 42,50 --category Einkauf --description "Wocheneinkauf"
  meinbudget tx add --type income --amount 3000 --category Gehalt --description "Gehalt März" --date 2025-03-28`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			value, err := core.ParseAmount(amount)
			if err != nil {
				return err
			}
			when, err := dateArg(date)
			if err != nil {
				return err
			}
			txType := core.TransactionType(typ)
			if !txType.Valid() {
				return core.ErrInvalidType
			}

			app, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			cat, err := resolveCategory(app.State, category, txType)
			if err != nil {
				return err
			}
			if err := core.CheckCategory(txType, cat); err != nil {
				return err
			}
			t, err := app.State.AddTransaction(ctx, state.TransactionInput{
				Amount:      value,
				Type:        txType,
				CategoryID:  cat.ID,
				Description: description,
				Date:        when,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s %s on %s (%s)\n",
				t.Type, signed(app.State, t), cat.Name, t.Date, t.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&amount, "amount", "a", "", "amount, e.g. 12,50")
	f.StringVarP(&typ, "type", "t", string(core.Expense), "income or expense")
	f.StringVarP(&category, "category", "c", "", "category name or id")
	f.StringVarP(&description, "description", "d", "", "what it was for")
	f.StringVar(&date, "date", "", "booking day YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func txListCmd(opts *rootOptions) *cobra.Command {
	var (
		from, to string
		category string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			var list []core.Transaction
			switch {
			case from != "" || to != "":
				lo, hi := core.NewDate(1, 1, 1), core.NewDate(9999, 12, 31)
				if from != "" {
					if lo, err = core.ParseDate(from); err != nil {
						return err
					}
				}
				if to != "" {
					if hi, err = core.ParseDate(to); err != nil {
						return err
					}
				}
				if list, err = app.State.TransactionsByDate(ctx, lo, hi); err != nil {
					return err
				}
			default:
				list = app.State.Transactions()
			}
			if category != "" {
				cat, err := resolveCategory(app.State, category, core.Expense)
				if err != nil {
					if cat, err = resolveCategory(app.State, category, core.Income); err != nil {
						return err
					}
				}
				list = slices.DeleteFunc(list, func(t core.Transaction) bool { return t.CategoryID != cat.ID })
			}
			if limit > 0 {
				list = stats.Recent(list, limit)
			} else {
				stats.SortByDateDesc(list)
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No transactions found. Use 'meinbudget tx add' to record one.")
				return nil
			}
			w := newTable(out)
			fmt.Fprintln(w, "DATE\tAMOUNT\tCATEGORY\tDESCRIPTION\tSYNCED\tID")
			for _, t := range list {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
					t.Date, signed(app.State, t), categoryName(app.State, t.CategoryID), t.Description, t.Synced, t.ID)
			}
			return w.Flush()
		},
	}
	f := cmd.Flags()
	f.StringVar(&from, "from", "", "first day YYYY-MM-DD")
	f.StringVar(&to, "to", "", "last day YYYY-MM-DD")
	f.StringVarP(&category, "category", "c", "", "category name or id")
	f.IntVarP(&limit, "limit", "n", 0, "show only the newest n")
	return cmd
}

func txDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.State.DeleteTransaction(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction %s\n", args[0])
			return nil
		},
	}
}
