package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/microfin-dev/microfin/internal/journal"
	"github.com/microfin-dev/microfin/internal/model"
)

func newVoucherCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voucher",
		Short: "Record vouchers",
	}
	cmd.AddCommand(newVoucherAddCommand(root))
	return cmd
}

func newVoucherAddCommand(root *rootOptions) *cobra.Command {
	var (
		date    string
		memo    string
		debits  []string
		credits []string
		post    bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Commit a balanced voucher",
		Example: `  microfin voucher add --date 2024-03-01 --memo "Consulting fee" \
    --debit 1002=50000 --credit 6001=50000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDate(date)
			if err != nil {
				return err
			}
			lines, err := parseLines(debits, credits, memo)
			if err != nil {
				return err
			}
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				created, err := s.book.CommitVoucher(ctx, day, lines)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Committed voucher %s (%d lines)\n", created[0].VoucherID, len(created))
				if post {
					res, err := s.book.PostVoucher(ctx, created[0].VoucherID, nil)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Posted %d entries in batch %s\n", len(res.Posted), res.BatchID)
				}
				return s.commit(cmd, "voucher: "+created[0].VoucherID)
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "voucher date, YYYY-MM-DD")
	cmd.Flags().StringVar(&memo, "memo", "", "description for every line")
	cmd.Flags().StringArrayVar(&debits, "debit", nil, "debit line as CODE=AMOUNT (repeatable)")
	cmd.Flags().StringArrayVar(&credits, "credit", nil, "credit line as CODE=AMOUNT (repeatable)")
	cmd.Flags().BoolVar(&post, "post", false, "post this voucher immediately; other unposted vouchers are left alone")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

// parseLines turns CODE=AMOUNT flags into voucher lines, debits first.
func parseLines(debits, credits []string, memo string) ([]journal.Line, error) {
	var lines []journal.Line
	for _, arg := range debits {
		code, amount, err := parseLine(arg)
		if err != nil {
			return nil, err
		}
		lines = append(lines, journal.Debit(code, amount, memo))
	}
	for _, arg := range credits {
		code, amount, err := parseLine(arg)
		if err != nil {
			return nil, err
		}
		lines = append(lines, journal.Credit(code, amount, memo))
	}
	return lines, nil
}

func parseLine(arg string) (string, decimal.Decimal, error) {
	code, raw, ok := strings.Cut(arg, "=")
	if !ok || code == "" {
		return "", decimal.Zero, fmt.Errorf("invalid line %q: want CODE=AMOUNT", arg)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("invalid amount in %q: %w", arg, err)
	}
	return strings.TrimSpace(code), amount, nil
}

func newJournalCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect journal entries",
	}

	var unposted bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List journal entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tDATE\tACCOUNT\tDEBIT\tCREDIT\tSTATUS\tDESCRIPTION\t")
				for _, e := range s.book.Entries() {
					if unposted && e.Posted() {
						continue
					}
					debit, credit := "", ""
					if e.Side == model.SideDebit {
						debit = money(e.Amount)
					} else {
						credit = money(e.Amount)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
						e.ID, e.Date.Format(dateLayout), e.AccountCode, debit, credit, e.Status, e.Description)
				}
				return tw.Flush()
			})
		},
	}
	list.Flags().BoolVar(&unposted, "unposted", false, "only list entries awaiting posting")

	export := &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write the journal as CSV (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				return writeTo(cmd, args, func(w io.Writer) error {
					return journal.WriteEntries(w, s.book.Entries())
				})
			})
		},
	}

	cmd.AddCommand(list, export)
	return cmd
}
