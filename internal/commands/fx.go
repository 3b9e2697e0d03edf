package commands

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/microfin-dev/microfin/internal/currency"
)

func newFXCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fx",
		Short: "Exchange rates and foreign-currency revaluation",
	}
	cmd.AddCommand(
		newFXRatesCommand(root),
		newFXRefreshCommand(root),
		newFXRevalueCommand(root),
		newFXConvertCommand(root),
	)
	return cmd
}

func newFXRatesCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rates",
		Short: "Show the stored rate table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintf(tw, "CODE\tNAME\tRATE TO %s\t\n", s.cfg.BaseCurrency)
				for _, r := range s.book.Rates() {
					fmt.Fprintf(tw, "%s\t%s\t%s\t\n", r.Code, r.Name, r.RateToBase.StringFixed(4))
				}
				return tw.Flush()
			})
		},
	}
}

func newFXRefreshCommand(root *rootOptions) *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh rates from the simulated feed (each rate moves by up to 1%)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = uint64(time.Now().UnixNano())
			}
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				feed := currency.NewJitterFeed(s.book.Rates(), s.cfg.BaseCurrency, rand.New(rand.NewPCG(seed, seed)))
				rates, err := s.book.RefreshRates(ctx, feed)
				if err != nil {
					return err
				}
				tw := newTable(cmd.OutOrStdout())
				for _, r := range rates {
					fmt.Fprintf(tw, "%s\t%s\t\n", r.Code, r.RateToBase.StringFixed(4))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				return s.commit(cmd, "fx: refresh rates")
			})
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for reproducible rates")
	return cmd
}

func newFXRevalueCommand(root *rootOptions) *cobra.Command {
	var book bool
	cmd := &cobra.Command{
		Use:   "revalue",
		Short: "Compute unrealized gains and losses on foreign balances",
		Long: `Revalue every foreign-currency balance at the stored rates. With --book
the net difference is committed as an unposted voucher against the FX
gain/loss account and the balances are carried forward at the new rates.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				out := cmd.OutOrStdout()
				if !book {
					revals, err := s.book.Revalue(ctx, nil)
					if err != nil {
						return err
					}
					printRevaluations(out, revals)
					return nil
				}

				created, revals, err := s.book.RevaluationVoucher(ctx, nil)
				if err != nil {
					return err
				}
				printRevaluations(out, revals)
				if created == nil {
					fmt.Fprintln(out, "Nothing to book")
					return nil
				}
				fmt.Fprintf(out, "Committed voucher %s (%d lines); run post to post it\n", created[0].VoucherID, len(created))
				return s.commit(cmd, "fx: revaluation "+created[0].VoucherID)
			})
		},
	}
	cmd.Flags().BoolVar(&book, "book", false, "commit the adjustment voucher")
	return cmd
}

func printRevaluations(w io.Writer, revals []currency.Revaluation) {
	tw := newTable(w)
	fmt.Fprintln(tw, "ACCOUNT\tCURRENCY\tAMOUNT\tBOOKED RATE\tCURRENT RATE\tBOOKED VALUE\tCURRENT VALUE\tGAIN/LOSS\t")
	for _, r := range revals {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Balance.AccountCode, r.Balance.Currency, money(r.Balance.OriginalAmount),
			r.Balance.BookedRate.StringFixed(4), r.CurrentRate.StringFixed(4),
			money(r.BookedValue), money(r.CurrentValue), money(r.GainLoss))
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t\t\t\t\t%s\t\n", money(currency.Total(revals)))
	tw.Flush()
}

func newFXConvertCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "convert AMOUNT FROM TO",
		Short: "Convert an amount between currencies at the stored rates",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}
			return withSession(cmd, root, func(ctx context.Context, s *session) error {
				got, err := currency.Convert(amount, args[1], args[2], currency.RatesFrom(s.book.Rates()))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s %s\n", money(amount), args[1], money(got), args[2])
				return nil
			})
		},
	}
}
