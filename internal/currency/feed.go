package currency

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/microfin-dev/microfin/internal/model"
)

// Feed supplies current exchange rates.
type Feed interface {
	Rates(ctx context.Context) ([]model.CurrencyRate, error)
}

// StaticFeed serves a fixed rate table.
type StaticFeed []model.CurrencyRate

// Rates returns a copy of the table.
func (f StaticFeed) Rates(ctx context.Context) ([]model.CurrencyRate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]model.CurrencyRate(nil), f...), nil
}

var (
	one         = decimal.NewFromInt(1)
	jitterRange = 0.02
)

// ratePlaces bounds the precision of refreshed rates.
const ratePlaces = 6

// Refresh moves every non-base rate by a uniform factor in [-1%, +1%].
// The base currency stays at exactly 1.
func Refresh(table []model.CurrencyRate, base string, rng *rand.Rand) []model.CurrencyRate {
	out := make([]model.CurrencyRate, len(table))
	for i, c := range table {
		out[i] = c
		if strings.EqualFold(c.Code, base) {
			out[i].RateToBase = one
			continue
		}
		factor := decimal.NewFromFloat(rng.Float64()*jitterRange - jitterRange/2)
		out[i].RateToBase = c.RateToBase.Mul(one.Add(factor)).Round(ratePlaces)
	}
	return out
}

// JitterFeed simulates a market feed: every call moves the last rates
// with Refresh.
type JitterFeed struct {
	mu    sync.Mutex
	base  string
	rates []model.CurrencyRate
	rng   *rand.Rand
}

// NewJitterFeed starts a simulated feed from the given table.
func NewJitterFeed(table []model.CurrencyRate, base string, rng *rand.Rand) *JitterFeed {
	return &JitterFeed{
		base:  base,
		rates: append([]model.CurrencyRate(nil), table...),
		rng:   rng,
	}
}

// Rates returns the next simulated table.
func (f *JitterFeed) Rates(ctx context.Context) ([]model.CurrencyRate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rates = Refresh(f.rates, f.base, f.rng)
	return append([]model.CurrencyRate(nil), f.rates...), nil
}
