package journal

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrTooFewLines is returned for a voucher with fewer than two lines.
	ErrTooFewLines = errors.New("voucher needs at least two lines")
	// ErrEmptyVoucher is returned when both debit and credit totals are zero.
	ErrEmptyVoucher = errors.New("voucher is empty: debit and credit totals are both zero")
)

// ImbalanceError reports a voucher whose debits and credits differ.
// Difference is debits minus credits.
type ImbalanceError struct {
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Difference  decimal.Decimal
}

func (e *ImbalanceError) Error() string {
	return fmt.Sprintf("voucher does not balance: debits %s, credits %s, difference %s",
		e.TotalDebit.StringFixed(2), e.TotalCredit.StringFixed(2), e.Difference.StringFixed(2))
}

// LineError describes a single malformed voucher line.
type LineError struct {
	Line   int // 1-based
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// UnknownAccountError is returned when a line references a code that is
// not in the chart of accounts.
type UnknownAccountError struct {
	Line int
	Code string
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("line %d: unknown account %s", e.Line, e.Code)
}
