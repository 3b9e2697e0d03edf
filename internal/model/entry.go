package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the side of a double-entry leg.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// Valid reports whether s is debit or credit.
func (s Side) Valid() bool {
	return s == SideDebit || s == SideCredit
}

// ParseSide accepts "debit"/"credit" in any case.
func ParseSide(s string) (Side, error) {
	side := Side(strings.ToLower(s))
	if !side.Valid() {
		return "", fmt.Errorf("unknown side %q", s)
	}
	return side, nil
}

// Status is the posting state of a journal entry. It only ever moves
// from unposted to posted.
type Status string

const (
	StatusUnposted Status = "unposted"
	StatusPosted   Status = "posted"
)

// ParseStatus accepts "unposted"/"posted" in any case.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(s))
	switch st {
	case StatusUnposted, StatusPosted:
		return st, nil
	}
	return "", fmt.Errorf("unknown entry status %q", s)
}

// JournalEntry is one leg of a double-entry transaction.
type JournalEntry struct {
	ID          string          `json:"id"`
	VoucherID   string          `json:"voucher_id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	AccountCode string          `json:"account_code"`
	Amount      decimal.Decimal `json:"amount"`
	Side        Side            `json:"side"`
	Currency    string          `json:"currency"`
	Status      Status          `json:"status"`
	Reconciled  bool            `json:"reconciled"`
}

// Posted reports whether the entry affects ledger balances.
func (e JournalEntry) Posted() bool {
	return e.Status == StatusPosted
}

// Signed returns the amount as seen from the debit side: positive for
// debits, negative for credits.
func (e JournalEntry) Signed() decimal.Decimal {
	if e.Side == SideCredit {
		return e.Amount.Neg()
	}
	return e.Amount
}
