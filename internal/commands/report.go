package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/microfin-dev/microfin/internal/report"
)

func newReportCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Financial statements over posted entries",
	}

	pl := &cobra.Command{
		Use:   "pl",
		Short: "Profit and loss",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				st := s.book.ProfitAndLoss()
				out := cmd.OutOrStdout()
				warnUnposted(out, st.UnpostedCount)
				tw := newTable(out)
				fmt.Fprintln(tw, "Revenue\t\t\t")
				writeLines(tw, st.Revenue)
				fmt.Fprintf(tw, "Total revenue\t\t%s\t\n", money(st.TotalRevenue))
				fmt.Fprintln(tw, "Expenses\t\t\t")
				writeLines(tw, st.Expenses)
				fmt.Fprintf(tw, "Total expenses\t\t%s\t\n", money(st.TotalExpenses))
				fmt.Fprintf(tw, "Net profit\t\t%s\t\n", money(st.NetProfit))
				return tw.Flush()
			})
		},
	}

	bs := &cobra.Command{
		Use:   "bs",
		Short: "Balance sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				st := s.book.BalanceSheet()
				out := cmd.OutOrStdout()
				warnUnposted(out, st.UnpostedCount)
				tw := newTable(out)
				fmt.Fprintln(tw, "Assets\t\t\t")
				writeLines(tw, st.Assets)
				fmt.Fprintf(tw, "Total assets\t\t%s\t\n", money(st.TotalAssets))
				fmt.Fprintln(tw, "Liabilities\t\t\t")
				writeLines(tw, st.Liabilities)
				fmt.Fprintf(tw, "Total liabilities\t\t%s\t\n", money(st.TotalLiabilities))
				fmt.Fprintln(tw, "Equity\t\t\t")
				writeLines(tw, st.Equity)
				fmt.Fprintf(tw, "  Retained earnings\t\t%s\t\n", money(st.RetainedEarnings))
				fmt.Fprintf(tw, "Total liabilities and equity\t\t%s\t\n", money(st.LiabilitiesAndEquity()))
				if err := tw.Flush(); err != nil {
					return err
				}
				if !st.Balanced() {
					fmt.Fprintf(out, "WARNING: balance sheet is off by %s\n", money(st.Difference()))
				}
				return nil
			})
		},
	}

	cf := &cobra.Command{
		Use:   "cf",
		Short: "Cash flow statement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				st := s.book.CashFlow()
				out := cmd.OutOrStdout()
				warnUnposted(out, st.UnpostedCount)
				tw := newTable(out)
				fmt.Fprintln(tw, "ACTIVITY\tINFLOW\tOUTFLOW\tNET\t")
				for _, a := range []report.Activity{report.Operating, report.Investing, report.Financing} {
					f := st.Section(a)
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", a, money(f.Inflow), money(f.Outflow), money(f.Net()))
				}
				fmt.Fprintf(tw, "Net change in cash\t\t\t%s\t\n", money(st.NetChange))
				return tw.Flush()
			})
		},
	}

	vat := &cobra.Command{
		Use:   "vat",
		Short: "Value-added tax return",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				st := s.book.VAT()
				out := cmd.OutOrStdout()
				warnUnposted(out, st.UnpostedCount)
				tw := newTable(out)
				fmt.Fprintf(tw, "Taxable revenue\t%s\t\n", money(st.TaxableRevenue))
				fmt.Fprintf(tw, "Rate\t%s%%\t\n", st.Rate.Mul(decimal.NewFromInt(100)).String())
				fmt.Fprintf(tw, "Output tax\t%s\t\n", money(st.OutputTax))
				fmt.Fprintf(tw, "Input tax\t%s\t\n", money(st.InputTax))
				if st.Payable.IsNegative() {
					fmt.Fprintf(tw, "Credit carried forward\t%s\t\n", money(st.Payable.Neg()))
				} else {
					fmt.Fprintf(tw, "Tax payable\t%s\t\n", money(st.Payable))
				}
				return tw.Flush()
			})
		},
	}

	cmd.AddCommand(pl, bs, cf, vat)
	return cmd
}

func writeLines(tw *tabwriter.Writer, lines []report.Line) {
	for _, l := range lines {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t\n", l.Code, l.Name, money(l.Amount))
	}
}

func warnUnposted(w io.Writer, n int) {
	if n > 0 {
		fmt.Fprintf(w, "WARNING: %d unposted entries are not included\n", n)
	}
}
