package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"meinbudget/internal/core"
	"meinbudget/internal/state"
)

func categoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"categories"},
		Short:   "Manage income and expense categories",
	}
	cmd.AddCommand(categoryListCmd(opts))
	cmd.AddCommand(categoryAddCmd(opts))
	cmd.AddCommand(categoryDeleteCmd(opts))
	return cmd
}

func categoryListCmd(opts *rootOptions) *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			list := app.State.Categories()
			sort.SliceStable(list, func(i, j int) bool {
				if list[i].TransactionType != list[j].TransactionType {
					return list[i].TransactionType == core.Income
				}
				return list[i].Name < list[j].Name
			})

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ICON\tNAME\tTYPE\tKIND\tCOLOR\tID")
			for _, c := range list {
				if typ != "" && string(c.TransactionType) != typ {
					continue
				}
				kind := "predefined"
				if c.IsCustom {
					kind = "custom"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", c.Icon, c.Name, c.TransactionType, kind, c.Color, c.ID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "", "only income or expense")
	return cmd
}

func categoryAddCmd(opts *rootOptions) *cobra.Command {
	var typ, icon, color string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a custom category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			c, err := app.State.AddCategory(ctx, state.CategoryInput{
				Name:            args[0],
				TransactionType: core.TransactionType(typ),
				Icon:            icon,
				Color:           color,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s category %s %s (%s)\n", c.TransactionType, c.Icon, c.Name, c.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&typ, "type", "t", string(core.Expense), "income or expense")
	f.StringVar(&icon, "icon", "🏷️", "emoji shown next to the name")
	f.StringVar(&color, "color", "#6b7280", "hex color")
	return cmd
}

func categoryDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category; its transactions keep the id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.State.DeleteCategory(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s\n", args[0])
			return nil
		},
	}
}
