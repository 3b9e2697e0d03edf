// Package currency revalues foreign-currency balances at current rates and
// keeps the rate table.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/microfin-dev/microfin/internal/journal"
	"github.com/microfin-dev/microfin/internal/model"
)

// MissingRateError is returned when a currency has no current rate.
type MissingRateError struct {
	Currency string
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("no exchange rate for currency %q", e.Currency)
}

// Rates maps an upper-case currency code to its value in the base currency.
type Rates map[string]decimal.Decimal

// RatesFrom indexes a rate table by code.
func RatesFrom(table []model.CurrencyRate) Rates {
	r := make(Rates, len(table))
	for _, c := range table {
		r[strings.ToUpper(c.Code)] = c.RateToBase
	}
	return r
}

// Get returns the rate for code.
func (r Rates) Get(code string) (decimal.Decimal, error) {
	rate, ok := r[strings.ToUpper(code)]
	if !ok {
		return decimal.Zero, &MissingRateError{Currency: code}
	}
	return rate, nil
}

// Revaluation is the unrealized gain or loss on one foreign balance.
type Revaluation struct {
	Balance      model.ForeignBalance
	CurrentRate  decimal.Decimal
	BookedValue  decimal.Decimal // original amount at the booked rate
	CurrentValue decimal.Decimal // original amount at the current rate
	GainLoss     decimal.Decimal
}

// Revalue computes originalAmount * (currentRate - bookedRate) for every
// balance. The result is exact; nothing is rounded or booked.
func Revalue(balances []model.ForeignBalance, rates Rates) ([]Revaluation, error) {
	out := make([]Revaluation, 0, len(balances))
	for _, b := range balances {
		rate, err := rates.Get(b.Currency)
		if err != nil {
			return nil, err
		}
		out = append(out, Revaluation{
			Balance:      b,
			CurrentRate:  rate,
			BookedValue:  b.OriginalAmount.Mul(b.BookedRate),
			CurrentValue: b.OriginalAmount.Mul(rate),
			GainLoss:     b.OriginalAmount.Mul(rate.Sub(b.BookedRate)),
		})
	}
	return out, nil
}

// Total sums the gains and losses.
func Total(revals []Revaluation) decimal.Decimal {
	sum := decimal.Zero
	for _, r := range revals {
		sum = sum.Add(r.GainLoss)
	}
	return sum
}

// AdjustmentLines drafts the voucher that books the revaluation: each
// balance account is debited for a gain or credited for a loss, and the
// net goes to fxAccount. Amounts are rounded to cents per account so the
// draft balances exactly. It returns nil when every adjustment rounds to
// zero. The lines are only a candidate for the journal engine.
func AdjustmentLines(revals []Revaluation, fxAccount string) []journal.Line {
	var lines []journal.Line
	net := decimal.Zero
	for _, r := range revals {
		amt := r.GainLoss.Round(2)
		if amt.IsZero() {
			continue
		}
		desc := fmt.Sprintf("FX revaluation %s @ %s", strings.ToUpper(r.Balance.Currency), r.CurrentRate)
		if amt.IsPositive() {
			lines = append(lines, journal.Debit(r.Balance.AccountCode, amt, desc))
		} else {
			lines = append(lines, journal.Credit(r.Balance.AccountCode, amt.Neg(), desc))
		}
		net = net.Add(amt)
	}
	if len(lines) == 0 {
		return nil
	}

	switch {
	case net.IsPositive():
		lines = append(lines, journal.Credit(fxAccount, net, "Unrealized exchange gain"))
	case net.IsNegative():
		lines = append(lines, journal.Debit(fxAccount, net.Neg(), "Unrealized exchange loss"))
	}
	return lines
}

// Convert converts amount between two currencies through the base rate.
func Convert(amount decimal.Decimal, from, to string, rates Rates) (decimal.Decimal, error) {
	fromRate, err := rates.Get(from)
	if err != nil {
		return decimal.Zero, err
	}
	toRate, err := rates.Get(to)
	if err != nil {
		return decimal.Zero, err
	}
	if toRate.IsZero() {
		return decimal.Zero, fmt.Errorf("rate for %s is zero", to)
	}
	return amount.Mul(fromRate).Div(toRate), nil
}
