// Package ledger derives account balances from posted journal entries.
// Nothing here stores state: every figure is recomputed from the entries
// passed in, and unposted entries are ignored.
package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/microfin-dev/microfin/internal/model"
)

// Tolerance is the rounding allowance for equality checks between totals.
var Tolerance = decimal.New(1, -2)

// AccountBalance is one general-ledger row.
type AccountBalance struct {
	Code         string
	Name         string
	Category     model.Category
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
	Balance      decimal.Decimal // on the category's normal side
}

// NormalBalance applies the normal-balance convention of category to a
// pair of debit and credit totals.
func NormalBalance(category model.Category, debits, credits decimal.Decimal) decimal.Decimal {
	switch category.NormalSide() {
	case model.SideDebit:
		return debits.Sub(credits)
	case model.SideCredit:
		return credits.Sub(debits)
	default:
		panic(fmt.Sprintf("unhandled side for category %q", category))
	}
}

// ComputeBalances returns one row per account in coa, in coa order,
// including accounts with no activity. Only posted entries count.
// Accounts with an invalid category are left out, and their entries
// show up in Orphans instead.
func ComputeBalances(entries []model.JournalEntry, coa []model.Account) []AccountBalance {
	type sums struct{ debit, credit decimal.Decimal }
	coa = validAccounts(coa)
	byCode := make(map[string]*sums, len(coa))
	for _, a := range coa {
		byCode[a.Code] = &sums{debit: decimal.Zero, credit: decimal.Zero}
	}

	for _, e := range entries {
		if !e.Posted() {
			continue
		}
		s, ok := byCode[e.AccountCode]
		if !ok {
			continue
		}
		switch e.Side {
		case model.SideDebit:
			s.debit = s.debit.Add(e.Amount)
		case model.SideCredit:
			s.credit = s.credit.Add(e.Amount)
		}
	}

	out := make([]AccountBalance, len(coa))
	for i, a := range coa {
		s := byCode[a.Code]
		out[i] = AccountBalance{
			Code:         a.Code,
			Name:         a.Name,
			Category:     a.Category,
			TotalDebits:  s.debit,
			TotalCredits: s.credit,
			Balance:      NormalBalance(a.Category, s.debit, s.credit),
		}
	}
	return out
}

func validAccounts(coa []model.Account) []model.Account {
	valid := make([]model.Account, 0, len(coa))
	for _, a := range coa {
		if a.Category.Valid() {
			valid = append(valid, a)
		}
	}
	return valid
}

// Find returns the row for code.
func Find(balances []AccountBalance, code string) (AccountBalance, bool) {
	for _, b := range balances {
		if b.Code == code {
			return b, true
		}
	}
	return AccountBalance{}, false
}

// CategoryTotals sums normal-side balances per category.
type CategoryTotals struct {
	Assets      decimal.Decimal
	Liabilities decimal.Decimal
	Equity      decimal.Decimal
	Revenue     decimal.Decimal
	Expenses    decimal.Decimal
}

// Totals sums balances by category.
func Totals(balances []AccountBalance) CategoryTotals {
	t := CategoryTotals{
		Assets:      decimal.Zero,
		Liabilities: decimal.Zero,
		Equity:      decimal.Zero,
		Revenue:     decimal.Zero,
		Expenses:    decimal.Zero,
	}
	for _, b := range balances {
		switch b.Category {
		case model.CategoryAsset:
			t.Assets = t.Assets.Add(b.Balance)
		case model.CategoryLiability:
			t.Liabilities = t.Liabilities.Add(b.Balance)
		case model.CategoryEquity:
			t.Equity = t.Equity.Add(b.Balance)
		case model.CategoryRevenue:
			t.Revenue = t.Revenue.Add(b.Balance)
		case model.CategoryExpense:
			t.Expenses = t.Expenses.Add(b.Balance)
		}
	}
	return t
}

// EquationDifference returns assets - (liabilities + equity + revenue - expenses).
// It is zero for any ledger built from balanced vouchers whose accounts
// are all in the chart.
func (t CategoryTotals) EquationDifference() decimal.Decimal {
	return t.Assets.Sub(t.Liabilities.Add(t.Equity).Add(t.Revenue).Sub(t.Expenses))
}

// TrialBalance is the raw debit/credit total over posted entries.
type TrialBalance struct {
	TotalDebits  decimal.Decimal
	TotalCredits decimal.Decimal
	Entries      int
}

// Trial totals posted debits and credits across all entries, whether or
// not their account is in the chart.
func Trial(entries []model.JournalEntry) TrialBalance {
	tb := TrialBalance{TotalDebits: decimal.Zero, TotalCredits: decimal.Zero}
	for _, e := range entries {
		if !e.Posted() {
			continue
		}
		tb.Entries++
		switch e.Side {
		case model.SideDebit:
			tb.TotalDebits = tb.TotalDebits.Add(e.Amount)
		case model.SideCredit:
			tb.TotalCredits = tb.TotalCredits.Add(e.Amount)
		}
	}
	return tb
}

// Difference returns debits minus credits.
func (tb TrialBalance) Difference() decimal.Decimal {
	return tb.TotalDebits.Sub(tb.TotalCredits)
}

// Balanced reports whether debits equal credits within Tolerance.
func (tb TrialBalance) Balanced() bool {
	return tb.Difference().Abs().LessThan(Tolerance)
}

// Orphans returns posted entries whose account code is not in coa, or
// whose account has an invalid category. They are excluded from
// ComputeBalances but still count in Trial.
func Orphans(entries []model.JournalEntry, coa []model.Account) []model.JournalEntry {
	known := make(map[string]bool, len(coa))
	for _, a := range validAccounts(coa) {
		known[a.Code] = true
	}
	var out []model.JournalEntry
	for _, e := range entries {
		if e.Posted() && !known[e.AccountCode] {
			out = append(out, e)
		}
	}
	return out
}

// DetailLine is one row of an account's detail ledger.
type DetailLine struct {
	Entry   model.JournalEntry
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Balance decimal.Decimal // running, on the account's normal side
}

// Detail returns the posted entries of acct in date order with a running
// balance. Entries on the same date keep ID order. An account with an
// invalid category has no normal side and yields no lines.
func Detail(entries []model.JournalEntry, acct model.Account) []DetailLine {
	if !acct.Category.Valid() {
		return nil
	}
	var posted []model.JournalEntry
	for _, e := range entries {
		if e.Posted() && e.AccountCode == acct.Code {
			posted = append(posted, e)
		}
	}
	sort.SliceStable(posted, func(i, j int) bool {
		if !posted[i].Date.Equal(posted[j].Date) {
			return posted[i].Date.Before(posted[j].Date)
		}
		return posted[i].ID < posted[j].ID
	})

	out := make([]DetailLine, len(posted))
	debits, credits := decimal.Zero, decimal.Zero
	for i, e := range posted {
		line := DetailLine{Entry: e, Debit: decimal.Zero, Credit: decimal.Zero}
		switch e.Side {
		case model.SideDebit:
			line.Debit = e.Amount
			debits = debits.Add(e.Amount)
		case model.SideCredit:
			line.Credit = e.Amount
			credits = credits.Add(e.Amount)
		}
		line.Balance = NormalBalance(acct.Category, debits, credits)
		out[i] = line
	}
	return out
}
