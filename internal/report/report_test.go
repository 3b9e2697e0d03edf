package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microfin-dev/microfin/internal/accounts"
	"github.com/microfin-dev/microfin/internal/id"
	"github.com/microfin-dev/microfin/internal/journal"
	"github.com/microfin-dev/microfin/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type book struct {
	t       *testing.T
	engine  *journal.Engine
	entries []model.JournalEntry
	seq     int
}

func newBook(t *testing.T) *book {
	svc, err := accounts.NewService(accounts.DefaultChart())
	require.NoError(t, err)
	return &book{t: t, engine: journal.NewEngine(svc, "CNY")}
}

func (b *book) add(posted bool, lines ...journal.Line) {
	b.t.Helper()
	b.seq++
	vid := id.FormatVoucherID(2024, 3, b.seq)
	entries, err := b.engine.Commit(vid, time.Date(2024, 3, b.seq, 0, 0, 0, 0, time.UTC), lines)
	require.NoError(b.t, err)
	if posted {
		for i := range entries {
			entries[i].Status = model.StatusPosted
		}
	}
	b.entries = append(b.entries, entries...)
}

// sample is a month of activity: capital, a sale, equipment, rent, a loan,
// a cash withdrawal and one unposted purchase.
func sample(t *testing.T) []model.JournalEntry {
	b := newBook(t)
	b.add(true, journal.Debit("1002", dec("50000"), "capital"), journal.Credit("4001", dec("50000"), "capital"))
	b.add(true, journal.Debit("1002", dec("50000"), "sale"), journal.Credit("6001", dec("50000"), "sale"))
	b.add(true, journal.Debit("1601", dec("20000"), "lathe"), journal.Credit("1002", dec("20000"), "lathe"))
	b.add(true, journal.Debit("6602", dec("1500"), "rent"), journal.Credit("1002", dec("1500"), "rent"))
	b.add(true, journal.Debit("1002", dec("10000"), "loan"), journal.Credit("2001", dec("10000"), "loan"))
	b.add(true, journal.Debit("1001", dec("500"), "petty cash"), journal.Credit("1002", dec("500"), "petty cash"))
	b.add(false, journal.Debit("6401", dec("300"), "stock"), journal.Credit("2202", dec("300"), "stock"))
	return b.entries
}

func TestProfitAndLoss(t *testing.T) {
	s := ProfitAndLoss(sample(t), accounts.DefaultChart())

	assert.True(t, s.TotalRevenue.Equal(dec("50000")))
	assert.True(t, s.TotalExpenses.Equal(dec("1500")), "unposted cost of sales is excluded")
	assert.True(t, s.NetProfit.Equal(dec("48500")))
	assert.Equal(t, 2, s.UnpostedCount)
	require.Len(t, s.Revenue, 2)
	assert.Equal(t, "6001", s.Revenue[0].Code)
}

func TestProfitAndLoss_ExpenseRefundNetsOff(t *testing.T) {
	b := newBook(t)
	b.add(true, journal.Debit("6602", dec("800"), "supplies"), journal.Credit("1001", dec("800"), "supplies"))
	b.add(true, journal.Debit("1001", dec("200"), "refund"), journal.Credit("6602", dec("200"), "refund"))

	s := ProfitAndLoss(b.entries, accounts.DefaultChart())
	assert.True(t, s.TotalExpenses.Equal(dec("600")))
	assert.True(t, s.NetProfit.Equal(dec("-600")))
}

func TestBalanceSheet(t *testing.T) {
	p := BalanceSheet(sample(t), accounts.DefaultChart())

	assert.True(t, p.TotalAssets.Equal(dec("108500")), p.TotalAssets.String())
	assert.True(t, p.TotalLiabilities.Equal(dec("10000")))
	assert.True(t, p.TotalEquity.Equal(dec("50000")))
	assert.True(t, p.RetainedEarnings.Equal(dec("48500")))
	assert.True(t, p.LiabilitiesAndEquity().Equal(dec("108500")))
	assert.True(t, p.Balanced())
	assert.Equal(t, 2, p.UnpostedCount)
}

func TestBalanceSheet_Empty(t *testing.T) {
	p := BalanceSheet(nil, accounts.DefaultChart())
	assert.True(t, p.Difference().IsZero())
	assert.True(t, p.Balanced())
	assert.Zero(t, p.UnpostedCount)
}

func TestCashFlow(t *testing.T) {
	s := CashFlow(sample(t), accounts.DefaultChart(), accounts.CashAccounts)

	assert.True(t, s.Operating.Inflow.Equal(dec("50000")))
	assert.True(t, s.Operating.Outflow.Equal(dec("1500")))
	assert.True(t, s.Investing.Inflow.IsZero())
	assert.True(t, s.Investing.Outflow.Equal(dec("20000")))
	assert.True(t, s.Financing.Inflow.Equal(dec("60000")))
	assert.True(t, s.Financing.Net().Equal(dec("60000")))
	assert.True(t, s.NetChange.Equal(dec("88500")))
	assert.Equal(t, s.Investing, s.Section(Investing))
}

func TestCashFlow_NetChangeMatchesCashBalances(t *testing.T) {
	entries := sample(t)
	s := CashFlow(entries, accounts.DefaultChart(), accounts.CashAccounts)
	p := BalanceSheet(entries, accounts.DefaultChart())

	cash := decimal.Zero
	for _, l := range p.Assets {
		if l.Code == accounts.CodeCash || l.Code == accounts.CodeBank {
			cash = cash.Add(l.Amount)
		}
	}
	assert.True(t, s.NetChange.Equal(cash))
}

func TestVAT(t *testing.T) {
	v := VAT(sample(t), accounts.DefaultChart(), accounts.CodeMainRevenue, dec("0.13"), dec("1250.40"))

	assert.True(t, v.TaxableRevenue.Equal(dec("50000")))
	assert.Equal(t, "6500.00", v.OutputTax.StringFixed(2))
	assert.Equal(t, "5249.60", v.Payable.StringFixed(2))
	assert.Equal(t, 2, v.UnpostedCount)
}

func TestVAT_CreditCarriedForward(t *testing.T) {
	v := VAT(nil, accounts.DefaultChart(), accounts.CodeMainRevenue, dec("0.13"), dec("1250.40"))
	assert.True(t, v.OutputTax.IsZero())
	assert.True(t, v.Payable.Equal(dec("-1250.40")))
}
