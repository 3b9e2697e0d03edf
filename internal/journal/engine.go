package journal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/microfin-dev/microfin/internal/id"
	"github.com/microfin-dev/microfin/internal/model"
)

// Tolerance absorbs rounding when comparing debit and credit totals.
var Tolerance = decimal.New(1, -2)

// AccountChecker tests whether an account code exists in the chart of accounts.
type AccountChecker interface {
	Exists(code string) bool
}

// Line is one draft line of a voucher. Side and Amount together replace a
// pair of mutually exclusive debit/credit columns.
type Line struct {
	AccountCode string
	Description string
	Side        model.Side
	Amount      decimal.Decimal
}

// Debit returns a debit line.
func Debit(code string, amount decimal.Decimal, description string) Line {
	return Line{AccountCode: code, Description: description, Side: model.SideDebit, Amount: amount}
}

// Credit returns a credit line.
func Credit(code string, amount decimal.Decimal, description string) Line {
	return Line{AccountCode: code, Description: description, Side: model.SideCredit, Amount: amount}
}

// Voucher is a validated, balanced set of lines.
type Voucher struct {
	Lines       []Line
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// Engine validates vouchers and turns them into unposted journal entries.
type Engine struct {
	accounts     AccountChecker
	baseCurrency string
}

// NewEngine creates an Engine. A nil accounts checker disables the account
// existence check.
func NewEngine(accounts AccountChecker, baseCurrency string) *Engine {
	return &Engine{accounts: accounts, baseCurrency: strings.ToUpper(baseCurrency)}
}

// BaseCurrency returns the currency stamped on committed entries.
func (e *Engine) BaseCurrency() string {
	return e.baseCurrency
}

// Validate checks a voucher as a unit. Nothing is created.
func (e *Engine) Validate(lines []Line) (Voucher, error) {
	if len(lines) < 2 {
		return Voucher{}, ErrTooFewLines
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for i, l := range lines {
		if !l.Side.Valid() {
			return Voucher{}, &LineError{Line: i + 1, Reason: fmt.Sprintf("unknown side %q", l.Side)}
		}
		if l.Amount.IsNegative() {
			return Voucher{}, &LineError{Line: i + 1, Reason: fmt.Sprintf("amount %s is negative", l.Amount)}
		}
		if e.accounts != nil && !e.accounts.Exists(l.AccountCode) {
			return Voucher{}, &UnknownAccountError{Line: i + 1, Code: l.AccountCode}
		}
		switch l.Side {
		case model.SideDebit:
			totalDebit = totalDebit.Add(l.Amount)
		case model.SideCredit:
			totalCredit = totalCredit.Add(l.Amount)
		}
	}

	if totalDebit.IsZero() && totalCredit.IsZero() {
		return Voucher{}, ErrEmptyVoucher
	}

	for i, l := range lines {
		if l.Amount.IsZero() {
			return Voucher{}, &LineError{Line: i + 1, Reason: "amount must be greater than zero"}
		}
	}

	diff := totalDebit.Sub(totalCredit)
	if diff.Abs().GreaterThanOrEqual(Tolerance) {
		return Voucher{}, &ImbalanceError{TotalDebit: totalDebit, TotalCredit: totalCredit, Difference: diff}
	}

	out := make([]Line, len(lines))
	copy(out, lines)
	return Voucher{Lines: out, TotalDebit: totalDebit, TotalCredit: totalCredit}, nil
}

// Commit validates the lines and returns one unposted entry per line, all
// dated date and tagged with voucherID. Persisting them is the caller's job.
func (e *Engine) Commit(voucherID string, date time.Time, lines []Line) ([]model.JournalEntry, error) {
	if voucherID == "" {
		return nil, errors.New("voucher ID is required")
	}
	v, err := e.Validate(lines)
	if err != nil {
		return nil, err
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	entries := make([]model.JournalEntry, len(v.Lines))
	for i, l := range v.Lines {
		entries[i] = model.JournalEntry{
			ID:          id.FormatEntryID(voucherID, i),
			VoucherID:   voucherID,
			Date:        day,
			Description: l.Description,
			AccountCode: l.AccountCode,
			Amount:      l.Amount,
			Side:        l.Side,
			Currency:    e.baseCurrency,
			Status:      model.StatusUnposted,
		}
	}
	return entries, nil
}

// IsValidationError reports whether err is one of the engine's voucher
// rejection errors.
func IsValidationError(err error) bool {
	var (
		imbalance *ImbalanceError
		line      *LineError
		unknown   *UnknownAccountError
	)
	return errors.Is(err, ErrTooFewLines) ||
		errors.Is(err, ErrEmptyVoucher) ||
		errors.As(err, &imbalance) ||
		errors.As(err, &line) ||
		errors.As(err, &unknown)
}
