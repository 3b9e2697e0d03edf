package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/microfin-dev/microfin/internal/accounts"
	"github.com/microfin-dev/microfin/internal/model"
)

func newCOACommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coa",
		Short: "Manage the chart of accounts",
	}
	cmd.AddCommand(
		newCOAListCommand(root),
		newCOAAddCommand(root),
		newCOAImportCommand(root),
		newCOAExportCommand(root),
	)
	return cmd
}

func newCOAListCommand(root *rootOptions) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter model.Category
			if category != "" {
				c, err := model.ParseCategory(category)
				if err != nil {
					return err
				}
				filter = c
			}
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "CODE\tNAME\tCATEGORY\t")
				for _, a := range s.book.Accounts() {
					if filter != "" && a.Category != filter {
						continue
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t\n", a.Code, a.Name, a.Category)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list one category")
	return cmd
}

func newCOAAddCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add CODE NAME CATEGORY",
		Short: "Register a new account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := model.ParseCategory(args[2])
			if err != nil {
				return err
			}
			acct := model.Account{Code: args[0], Name: args[1], Category: category}
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				if err := s.book.AddAccount(ctx, acct); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added account %s %s (%s)\n", acct.Code, acct.Name, acct.Category)
				return s.commit(cmd, "coa: add "+acct.Code)
			})
		},
	}
}

func newCOAImportCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Register every account in a chart-of-accounts CSV",
		Long:  "Import accounts from a code,name,category CSV. Nothing is registered if any row is invalid or already exists.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			accts, err := accounts.ReadAccounts(f)
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				if err := s.book.ImportAccounts(ctx, accts); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts\n", len(accts))
				return s.commit(cmd, fmt.Sprintf("coa: import %d accounts", len(accts)))
			})
		},
	}
}

func newCOAExportCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write the chart of accounts as CSV (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				return writeTo(cmd, args, func(w io.Writer) error {
					return accounts.WriteAccounts(w, s.book.Accounts())
				})
			})
		},
	}
}

// writeTo writes to args[0] when given, else to the command's output.
func writeTo(cmd *cobra.Command, args []string, write func(io.Writer) error) error {
	if len(args) == 0 {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
