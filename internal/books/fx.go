package books

import (
	"context"
	"fmt"
	"strings"

	"github.com/microfin-dev/microfin/internal/audit"
	"github.com/microfin-dev/microfin/internal/currency"
	"github.com/microfin-dev/microfin/internal/model"
	"github.com/microfin-dev/microfin/internal/store"
)

// Rates returns the current rate table.
func (b *Book) Rates() []model.CurrencyRate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.CurrencyRate(nil), b.rates...)
}

// ForeignBalances returns the foreign-currency balances under revaluation.
func (b *Book) ForeignBalances() []model.ForeignBalance {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.ForeignBalance(nil), b.foreign...)
}

// RefreshRates replaces the rate table with the feed's. The base currency
// must stay at exactly 1.
func (b *Book) RefreshRates(ctx context.Context, feed currency.Feed) ([]model.CurrencyRate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next, err := feed.Rates(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching rates: %w", err)
	}
	base, err := currency.RatesFrom(next).Get(b.cfg.BaseCurrency)
	if err != nil {
		return nil, err
	}
	if !base.Equal(one) {
		return nil, fmt.Errorf("feed quotes base currency %s at %s", b.cfg.BaseCurrency, base)
	}

	if err := b.save(ctx, map[string]any{store.KeyRates: next}, func() { b.rates = next }); err != nil {
		return nil, err
	}
	b.log.Info("exchange rates refreshed", "currencies", len(next))
	b.record(audit.ActionRefreshFX, describeRates(next, b.cfg.BaseCurrency), "", "")
	return append([]model.CurrencyRate(nil), next...), nil
}

func describeRates(rates []model.CurrencyRate, base string) string {
	parts := make([]string, 0, len(rates))
	for _, r := range rates {
		if strings.EqualFold(r.Code, base) {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%s", r.Code, r.RateToBase.StringFixed(4)))
	}
	return strings.Join(parts, " ")
}

// Revalue computes the unrealized gain or loss of every foreign balance
// at the stored rates, or at the feed's rates when feed is not nil.
// Nothing is booked.
func (b *Book) Revalue(ctx context.Context, feed currency.Feed) ([]currency.Revaluation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revalue(ctx, feed)
}

func (b *Book) revalue(ctx context.Context, feed currency.Feed) ([]currency.Revaluation, error) {
	table := b.rates
	if feed != nil {
		var err error
		if table, err = feed.Rates(ctx); err != nil {
			return nil, fmt.Errorf("fetching rates: %w", err)
		}
	}
	return currency.Revalue(b.foreign, currency.RatesFrom(table))
}

// RevaluationVoucher books the revaluation as an unposted voucher against
// the FX gain/loss account and moves every revalued balance to its
// current rate, so the same difference is never booked twice. It returns
// nil entries when there is nothing to book.
func (b *Book) RevaluationVoucher(ctx context.Context, feed currency.Feed) ([]model.JournalEntry, []currency.Revaluation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	revals, err := b.revalue(ctx, feed)
	if err != nil {
		return nil, nil, err
	}
	lines := currency.AdjustmentLines(revals, b.cfg.Accounts.FXGainLoss)
	if lines == nil {
		b.log.Info("revaluation: nothing to book")
		return nil, revals, nil
	}

	rebased := make([]model.ForeignBalance, len(revals))
	for i, r := range revals {
		rebased[i] = r.Balance
		rebased[i].BookedRate = r.CurrentRate
	}

	created, err := b.commitVoucher(ctx, b.now(), lines, map[string]any{store.KeyForeignBalances: rebased})
	if err != nil {
		return nil, nil, err
	}
	b.foreign = rebased
	b.record(audit.ActionRevalue, fmt.Sprintf("net %s", currency.Total(revals).StringFixed(2)), created[0].VoucherID, "")
	return created, revals, nil
}
