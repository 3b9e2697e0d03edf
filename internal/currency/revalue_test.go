package currency

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microfin-dev/microfin/internal/journal"
	"github.com/microfin-dev/microfin/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func balances() []model.ForeignBalance {
	return []model.ForeignBalance{
		{Currency: "USD", AccountCode: "100201", OriginalAmount: dec("12500.50"), BookedRate: dec("7.15")},
		{Currency: "HKD", AccountCode: "100202", OriginalAmount: dec("88400"), BookedRate: dec("0.91")},
		{Currency: "EUR", AccountCode: "112201", OriginalAmount: dec("5600"), BookedRate: dec("7.75")},
	}
}

func table() []model.CurrencyRate {
	return []model.CurrencyRate{
		{Code: "CNY", Name: "Renminbi", Symbol: "¥", RateToBase: dec("1")},
		{Code: "USD", Name: "US Dollar", Symbol: "$", RateToBase: dec("7.24")},
		{Code: "HKD", Name: "Hong Kong Dollar", Symbol: "HK$", RateToBase: dec("0.92")},
		{Code: "EUR", Name: "Euro", Symbol: "€", RateToBase: dec("7.82")},
	}
}

func TestRevalue_USDGain(t *testing.T) {
	revals, err := Revalue(balances()[:1], Rates{"USD": dec("7.24")})
	require.NoError(t, err)
	require.Len(t, revals, 1)

	r := revals[0]
	assert.Equal(t, "1125.045", r.GainLoss.String())
	assert.True(t, r.BookedValue.Equal(dec("89378.575")))
	assert.True(t, r.CurrentValue.Equal(dec("90503.62")))
	assert.True(t, r.CurrentValue.Sub(r.BookedValue).Equal(r.GainLoss))
}

func TestRevalue_AllBalances(t *testing.T) {
	revals, err := Revalue(balances(), RatesFrom(table()))
	require.NoError(t, err)
	require.Len(t, revals, 3)

	assert.True(t, revals[1].GainLoss.Equal(dec("884")))
	assert.True(t, revals[2].GainLoss.Equal(dec("392")))
	assert.True(t, Total(revals).Equal(dec("2401.045")))
}

func TestRevalue_MissingRate(t *testing.T) {
	_, err := Revalue(balances(), Rates{"USD": dec("7.24")})
	var mre *MissingRateError
	require.ErrorAs(t, err, &mre)
	assert.Equal(t, "HKD", mre.Currency)
}

func TestRevalue_CaseInsensitiveCodes(t *testing.T) {
	b := balances()[:1]
	b[0].Currency = "usd"
	revals, err := Revalue(b, RatesFrom([]model.CurrencyRate{{Code: "Usd", RateToBase: dec("7.15")}}))
	require.NoError(t, err)
	assert.True(t, revals[0].GainLoss.IsZero())
}

func TestAdjustmentLines_Gain(t *testing.T) {
	revals, err := Revalue(balances(), RatesFrom(table()))
	require.NoError(t, err)

	lines := AdjustmentLines(revals, "6061")
	require.Len(t, lines, 4)

	assert.Equal(t, "100201", lines[0].AccountCode)
	assert.Equal(t, model.SideDebit, lines[0].Side)
	assert.Equal(t, "1125.05", lines[0].Amount.StringFixed(2))
	assert.Contains(t, lines[0].Description, "USD")
	assert.Equal(t, model.SideDebit, lines[1].Side)
	assert.Equal(t, "6061", lines[3].AccountCode)
	assert.Equal(t, model.SideCredit, lines[3].Side)
	assert.Equal(t, "2401.05", lines[3].Amount.StringFixed(2))

	v, err := journal.NewEngine(nil, "CNY").Validate(lines)
	require.NoError(t, err)
	assert.True(t, v.TotalDebit.Equal(v.TotalCredit))
}

func TestAdjustmentLines_Loss(t *testing.T) {
	revals, err := Revalue(balances()[:1], Rates{"USD": dec("7.00")})
	require.NoError(t, err)
	assert.Equal(t, "-1875.075", revals[0].GainLoss.String())

	lines := AdjustmentLines(revals, "6061")
	require.Len(t, lines, 2)
	assert.Equal(t, model.SideCredit, lines[0].Side)
	assert.Equal(t, "1875.08", lines[0].Amount.StringFixed(2))
	assert.Equal(t, model.SideDebit, lines[1].Side)
	assert.Equal(t, "6061", lines[1].AccountCode)
}

func TestAdjustmentLines_NothingToBook(t *testing.T) {
	revals, err := Revalue(balances()[:1], Rates{"USD": dec("7.15")})
	require.NoError(t, err)
	assert.Nil(t, AdjustmentLines(revals, "6061"))
	assert.Nil(t, AdjustmentLines(nil, "6061"))
}

func TestAdjustmentLines_OffsettingMovements(t *testing.T) {
	b := []model.ForeignBalance{
		{Currency: "USD", AccountCode: "100201", OriginalAmount: dec("100"), BookedRate: dec("7")},
		{Currency: "EUR", AccountCode: "112201", OriginalAmount: dec("100"), BookedRate: dec("8")},
	}
	revals, err := Revalue(b, Rates{"USD": dec("8"), "EUR": dec("7")})
	require.NoError(t, err)
	assert.True(t, Total(revals).IsZero())

	lines := AdjustmentLines(revals, "6061")
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.NotEqual(t, "6061", l.AccountCode)
	}
}

func TestConvert(t *testing.T) {
	rates := RatesFrom(table())

	got, err := Convert(dec("100"), "USD", "CNY", rates)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("724")))

	got, err = Convert(dec("724"), "cny", "usd", rates)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("100")), got.String())

	_, err = Convert(dec("1"), "JPY", "CNY", rates)
	var mre *MissingRateError
	assert.ErrorAs(t, err, &mre)

	_, err = Convert(dec("1"), "USD", "XXX", Rates{"USD": dec("7"), "XXX": decimal.Zero})
	assert.ErrorContains(t, err, "is zero")
}

func TestRefresh_BoundsAndBase(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	before := table()
	limit := dec("0.01")

	for round := 0; round < 50; round++ {
		after := Refresh(before, "CNY", rng)
		require.Len(t, after, len(before))
		assert.True(t, after[0].RateToBase.Equal(decimal.NewFromInt(1)))
		for i := 1; i < len(after); i++ {
			move := after[i].RateToBase.Sub(before[i].RateToBase).Abs()
			assert.True(t, move.LessThanOrEqual(before[i].RateToBase.Mul(limit)),
				"%s moved %s from %s", after[i].Code, move, before[i].RateToBase)
			assert.Equal(t, before[i].Code, after[i].Code)
		}
	}
	// the input table is not modified
	assert.True(t, before[1].RateToBase.Equal(dec("7.24")))
}

func TestRefresh_PinsDriftedBase(t *testing.T) {
	drifted := table()
	drifted[0].RateToBase = dec("1.3")
	after := Refresh(drifted, "cny", rand.New(rand.NewPCG(1, 1)))
	assert.True(t, after[0].RateToBase.Equal(decimal.NewFromInt(1)))
}

func TestStaticFeed(t *testing.T) {
	f := StaticFeed(table())
	got, err := f.Rates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, table(), got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Rates(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJitterFeed_Moves(t *testing.T) {
	f := NewJitterFeed(table(), "CNY", rand.New(rand.NewPCG(3, 4)))
	first, err := f.Rates(context.Background())
	require.NoError(t, err)
	second, err := f.Rates(context.Background())
	require.NoError(t, err)

	assert.True(t, first[0].RateToBase.Equal(decimal.NewFromInt(1)))
	assert.False(t, first[1].RateToBase.Equal(second[1].RateToBase))
}
