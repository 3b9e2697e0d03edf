package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/microfin-dev/microfin/internal/ledger"
)

func newLedgerCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "General ledger balances",
	}

	var all bool
	balances := &cobra.Command{
		Use:   "balances",
		Short: "Balance of every account on its normal side",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				bals := s.book.Balances()
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "CODE\tNAME\tCATEGORY\tDEBITS\tCREDITS\tBALANCE\t")
				for _, b := range bals {
					if !all && b.TotalDebits.IsZero() && b.TotalCredits.IsZero() {
						continue
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
						b.Code, b.Name, b.Category, money(b.TotalDebits), money(b.TotalCredits), money(b.Balance))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				if diff := ledger.Totals(bals).EquationDifference(); !diff.Abs().LessThan(ledger.Tolerance) {
					fmt.Fprintf(cmd.OutOrStdout(), "WARNING: accounting equation off by %s\n", money(diff))
				}
				return nil
			})
		},
	}
	balances.Flags().BoolVar(&all, "all", false, "include accounts without activity")

	trial := &cobra.Command{
		Use:   "trial",
		Short: "Trial balance over posted entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				tb := s.book.TrialBalance()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Entries:       %d\n", tb.Entries)
				fmt.Fprintf(out, "Total debits:  %s\n", money(tb.TotalDebits))
				fmt.Fprintf(out, "Total credits: %s\n", money(tb.TotalCredits))
				if tb.Balanced() {
					fmt.Fprintln(out, "Balanced")
					return nil
				}
				return fmt.Errorf("trial balance is off by %s", money(tb.Difference()))
			})
		},
	}

	detail := &cobra.Command{
		Use:   "detail CODE",
		Short: "Running detail ledger of one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				lines, err := s.book.Detail(args[0])
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "DATE\tENTRY\tDESCRIPTION\tDEBIT\tCREDIT\tBALANCE\t")
				for _, l := range lines {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
						l.Entry.Date.Format(dateLayout), l.Entry.ID, l.Entry.Description,
						money(l.Debit), money(l.Credit), money(l.Balance))
				}
				return tw.Flush()
			})
		},
	}

	cmd.AddCommand(balances, trial, detail)
	return cmd
}
