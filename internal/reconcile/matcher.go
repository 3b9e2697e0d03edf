// Package reconcile matches posted cash-account entries against a bank
// statement and builds the bank reconciliation statement.
package reconcile

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/microfin-dev/microfin/internal/model"
)

// Tolerance is the largest residual accepted as reconciled.
var Tolerance = decimal.New(1, -2)

// Pair links one system entry to one bank statement item.
type Pair struct {
	EntryID    string
	BankItemID string
	Amount     decimal.Decimal
}

// Result is the outcome of one matching run. Entries and BankItems are
// copies of the inputs with matched flags set.
type Result struct {
	RunID     string
	Pairs     []Pair
	Entries   []model.JournalEntry
	BankItems []model.BankStatementItem
}

// CashEntries returns the posted entries booked to account.
func CashEntries(entries []model.JournalEntry, account string) []model.JournalEntry {
	var out []model.JournalEntry
	for _, e := range entries {
		if e.Posted() && e.AccountCode == account {
			out = append(out, e)
		}
	}
	return out
}

func corresponds(e model.JournalEntry, b model.BankStatementItem) bool {
	switch e.Side {
	case model.SideDebit:
		return b.Direction == model.DirectionIn
	case model.SideCredit:
		return b.Direction == model.DirectionOut
	}
	return false
}

// Reconcile pairs bank items with system entries. For each bank item in
// order, the first unreconciled entry with the same amount and matching
// polarity (debit with in, credit with out) is taken. Items and entries
// that are already matched are never unmatched and never matched again.
func Reconcile(entries []model.JournalEntry, items []model.BankStatementItem) Result {
	res := Result{
		RunID:     uuid.NewString(),
		Entries:   append([]model.JournalEntry(nil), entries...),
		BankItems: append([]model.BankStatementItem(nil), items...),
	}

	for bi := range res.BankItems {
		item := &res.BankItems[bi]
		if item.Matched {
			continue
		}
		for ei := range res.Entries {
			e := &res.Entries[ei]
			if e.Reconciled || !e.Posted() {
				continue
			}
			if !e.Amount.Equal(item.Amount) || !corresponds(*e, *item) {
				continue
			}
			e.Reconciled = true
			item.Matched = true
			res.Pairs = append(res.Pairs, Pair{EntryID: e.ID, BankItemID: item.ID, Amount: item.Amount})
			break
		}
	}
	return res
}

// UnbalancedError reports a reconciliation statement whose adjusted
// balances still differ. It is a reportable state, not a failure.
type UnbalancedError struct {
	AdjustedSystem decimal.Decimal
	AdjustedBank   decimal.Decimal
	Difference     decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("reconciliation unbalanced: adjusted system %s, adjusted bank %s, difference %s",
		e.AdjustedSystem.StringFixed(2), e.AdjustedBank.StringFixed(2), e.Difference.StringFixed(2))
}

// Statement is a bank reconciliation statement.
type Statement struct {
	SystemBalance decimal.Decimal
	BankBalance   decimal.Decimal

	BankOnlyIn    decimal.Decimal // unmatched bank credits not yet booked
	BankOnlyOut   decimal.Decimal
	SystemOnlyIn  decimal.Decimal // unreconciled debits not yet on the statement
	SystemOnlyOut decimal.Decimal

	AdjustedSystem decimal.Decimal
	AdjustedBank   decimal.Decimal
	Difference     decimal.Decimal // AdjustedSystem - AdjustedBank

	UnmatchedEntries   []model.JournalEntry
	UnmatchedBankItems []model.BankStatementItem
}

// Balanced reports whether the adjusted balances agree within Tolerance.
func (s Statement) Balanced() bool {
	return s.Difference.Abs().LessThan(Tolerance)
}

// Err returns an *UnbalancedError when the statement does not balance.
func (s Statement) Err() error {
	if s.Balanced() {
		return nil
	}
	return &UnbalancedError{AdjustedSystem: s.AdjustedSystem, AdjustedBank: s.AdjustedBank, Difference: s.Difference}
}

// BuildStatement computes the two-sided reconciliation statement. The
// system balance is net debits of the posted cash entries; the bank
// balance is net inflow of the statement items.
func BuildStatement(entries []model.JournalEntry, items []model.BankStatementItem) Statement {
	s := Statement{
		SystemBalance: decimal.Zero,
		BankBalance:   decimal.Zero,
		BankOnlyIn:    decimal.Zero,
		BankOnlyOut:   decimal.Zero,
		SystemOnlyIn:  decimal.Zero,
		SystemOnlyOut: decimal.Zero,
	}

	for _, e := range entries {
		if !e.Posted() {
			continue
		}
		s.SystemBalance = s.SystemBalance.Add(e.Signed())
		if e.Reconciled {
			continue
		}
		s.UnmatchedEntries = append(s.UnmatchedEntries, e)
		switch e.Side {
		case model.SideDebit:
			s.SystemOnlyIn = s.SystemOnlyIn.Add(e.Amount)
		case model.SideCredit:
			s.SystemOnlyOut = s.SystemOnlyOut.Add(e.Amount)
		}
	}

	for _, b := range items {
		s.BankBalance = s.BankBalance.Add(b.Signed())
		if b.Matched {
			continue
		}
		s.UnmatchedBankItems = append(s.UnmatchedBankItems, b)
		switch b.Direction {
		case model.DirectionIn:
			s.BankOnlyIn = s.BankOnlyIn.Add(b.Amount)
		case model.DirectionOut:
			s.BankOnlyOut = s.BankOnlyOut.Add(b.Amount)
		}
	}

	s.AdjustedSystem = s.SystemBalance.Add(s.BankOnlyIn).Sub(s.BankOnlyOut)
	s.AdjustedBank = s.BankBalance.Add(s.SystemOnlyIn).Sub(s.SystemOnlyOut)
	s.Difference = s.AdjustedSystem.Sub(s.AdjustedBank)
	return s
}
