package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the flow of money on a bank statement line.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// ParseDirection accepts "in"/"out" in any case.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(s))
	if d != DirectionIn && d != DirectionOut {
		return "", fmt.Errorf("unknown direction %q", s)
	}
	return d, nil
}

// BankStatementItem is one line of an external bank statement feed.
type BankStatementItem struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"` // always positive
	Direction   Direction       `json:"direction"`
	Matched     bool            `json:"matched"`
}

// Signed returns the amount as seen from the account holder: positive for
// money in, negative for money out.
func (b BankStatementItem) Signed() decimal.Decimal {
	if b.Direction == DirectionOut {
		return b.Amount.Neg()
	}
	return b.Amount
}
