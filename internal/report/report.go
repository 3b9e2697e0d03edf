// Package report builds the financial statements from posted entries. All
// figures use the ledger's normal-balance convention: revenue is
// credits net of debits and expenses are debits net of credits.
package report

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/microfin-dev/microfin/internal/accounts"
	"github.com/microfin-dev/microfin/internal/ledger"
	"github.com/microfin-dev/microfin/internal/model"
)

// Line is one account row on a statement.
type Line struct {
	Code   string
	Name   string
	Amount decimal.Decimal
}

// Unposted counts entries that no report includes yet.
func Unposted(entries []model.JournalEntry) int {
	n := 0
	for _, e := range entries {
		if !e.Posted() {
			n++
		}
	}
	return n
}

func linesFor(balances []ledger.AccountBalance, cat model.Category) ([]Line, decimal.Decimal) {
	var lines []Line
	total := decimal.Zero
	for _, b := range balances {
		if b.Category != cat {
			continue
		}
		lines = append(lines, Line{Code: b.Code, Name: b.Name, Amount: b.Balance})
		total = total.Add(b.Balance)
	}
	return lines, total
}

// IncomeStatement is the profit and loss report.
type IncomeStatement struct {
	Revenue       []Line
	Expenses      []Line
	TotalRevenue  decimal.Decimal
	TotalExpenses decimal.Decimal
	NetProfit     decimal.Decimal
	UnpostedCount int
}

// ProfitAndLoss computes revenue, expenses and net profit.
func ProfitAndLoss(entries []model.JournalEntry, coa []model.Account) IncomeStatement {
	balances := ledger.ComputeBalances(entries, coa)
	s := IncomeStatement{UnpostedCount: Unposted(entries)}
	s.Revenue, s.TotalRevenue = linesFor(balances, model.CategoryRevenue)
	s.Expenses, s.TotalExpenses = linesFor(balances, model.CategoryExpense)
	s.NetProfit = s.TotalRevenue.Sub(s.TotalExpenses)
	return s
}

// FinancialPosition is the balance sheet. Current-period profit is shown
// as retained earnings since there is no closing process.
type FinancialPosition struct {
	Assets           []Line
	Liabilities      []Line
	Equity           []Line
	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	TotalEquity      decimal.Decimal
	RetainedEarnings decimal.Decimal
	UnpostedCount    int
}

// LiabilitiesAndEquity is the right-hand side of the sheet.
func (p FinancialPosition) LiabilitiesAndEquity() decimal.Decimal {
	return p.TotalLiabilities.Add(p.TotalEquity).Add(p.RetainedEarnings)
}

// Difference is assets minus liabilities and equity.
func (p FinancialPosition) Difference() decimal.Decimal {
	return p.TotalAssets.Sub(p.LiabilitiesAndEquity())
}

// Balanced reports whether the sheet balances within the ledger tolerance.
func (p FinancialPosition) Balanced() bool {
	return p.Difference().Abs().LessThan(ledger.Tolerance)
}

// BalanceSheet computes the statement of financial position.
func BalanceSheet(entries []model.JournalEntry, coa []model.Account) FinancialPosition {
	balances := ledger.ComputeBalances(entries, coa)
	p := FinancialPosition{UnpostedCount: Unposted(entries)}
	p.Assets, p.TotalAssets = linesFor(balances, model.CategoryAsset)
	p.Liabilities, p.TotalLiabilities = linesFor(balances, model.CategoryLiability)
	p.Equity, p.TotalEquity = linesFor(balances, model.CategoryEquity)

	totals := ledger.Totals(balances)
	p.RetainedEarnings = totals.Revenue.Sub(totals.Expenses)
	return p
}

// VATReturn is the value-added tax summary for the period.
type VATReturn struct {
	TaxableRevenue decimal.Decimal
	Rate           decimal.Decimal
	OutputTax      decimal.Decimal
	InputTax       decimal.Decimal
	Payable        decimal.Decimal // negative means a carry-forward credit
	UnpostedCount  int
}

// VAT applies rate to the balance of revenueAccount and offsets inputTax.
func VAT(entries []model.JournalEntry, coa []model.Account, revenueAccount string, rate, inputTax decimal.Decimal) VATReturn {
	balances := ledger.ComputeBalances(entries, coa)
	taxable := decimal.Zero
	if b, ok := ledger.Find(balances, revenueAccount); ok {
		taxable = b.Balance
	}
	out := taxable.Mul(rate).Round(2)
	return VATReturn{
		TaxableRevenue: taxable,
		Rate:           rate,
		OutputTax:      out,
		InputTax:       inputTax,
		Payable:        out.Sub(inputTax),
		UnpostedCount:  Unposted(entries),
	}
}

func hasPrefix(code string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}

// Activity is a cash flow section.
type Activity string

const (
	Operating Activity = "operating"
	Investing Activity = "investing"
	Financing Activity = "financing"
)

// Flow is the gross movement of one section.
type Flow struct {
	Inflow  decimal.Decimal
	Outflow decimal.Decimal
}

// Net is inflow minus outflow.
func (f Flow) Net() decimal.Decimal {
	return f.Inflow.Sub(f.Outflow)
}

// CashFlowStatement groups cash movements by activity.
type CashFlowStatement struct {
	Operating     Flow
	Investing     Flow
	Financing     Flow
	NetChange     decimal.Decimal
	UnpostedCount int
}

// Section returns the flow for a.
func (s CashFlowStatement) Section(a Activity) Flow {
	switch a {
	case Investing:
		return s.Investing
	case Financing:
		return s.Financing
	}
	return s.Operating
}

// CashFlow classifies posted legs on cashAccounts by the other legs of
// the same voucher: equity or borrowings make a financing flow, fixed
// assets an investing flow, anything else an operating flow. Vouchers
// that only move money between cash accounts are left out.
func CashFlow(entries []model.JournalEntry, coa []model.Account, cashAccounts []string) CashFlowStatement {
	cash := make(map[string]bool, len(cashAccounts))
	for _, c := range cashAccounts {
		cash[c] = true
	}
	category := make(map[string]model.Category, len(coa))
	for _, a := range coa {
		category[a.Code] = a.Category
	}

	byVoucher := make(map[string][]model.JournalEntry)
	var order []string
	for _, e := range entries {
		if !e.Posted() {
			continue
		}
		if _, ok := byVoucher[e.VoucherID]; !ok {
			order = append(order, e.VoucherID)
		}
		byVoucher[e.VoucherID] = append(byVoucher[e.VoucherID], e)
	}

	zero := Flow{Inflow: decimal.Zero, Outflow: decimal.Zero}
	s := CashFlowStatement{Operating: zero, Investing: zero, Financing: zero, UnpostedCount: Unposted(entries)}
	for _, vid := range order {
		legs := byVoucher[vid]
		activity, ok := classify(legs, cash, category)
		if !ok {
			continue
		}
		flow := s.Section(activity)
		for _, e := range legs {
			if !cash[e.AccountCode] {
				continue
			}
			if e.Side == model.SideDebit {
				flow.Inflow = flow.Inflow.Add(e.Amount)
			} else {
				flow.Outflow = flow.Outflow.Add(e.Amount)
			}
		}
		switch activity {
		case Operating:
			s.Operating = flow
		case Investing:
			s.Investing = flow
		case Financing:
			s.Financing = flow
		}
	}
	s.NetChange = s.Operating.Net().Add(s.Investing.Net()).Add(s.Financing.Net())
	return s
}

// classify returns false when the voucher has no cash leg or no non-cash
// counterpart.
func classify(legs []model.JournalEntry, cash map[string]bool, category map[string]model.Category) (Activity, bool) {
	var hasCash, hasOther, financing, investing bool
	for _, e := range legs {
		if cash[e.AccountCode] {
			hasCash = true
			continue
		}
		hasOther = true
		switch {
		case category[e.AccountCode] == model.CategoryEquity:
			financing = true
		case category[e.AccountCode] == model.CategoryLiability && hasPrefix(e.AccountCode, accounts.LoanCodePrefixes):
			financing = true
		case strings.HasPrefix(e.AccountCode, accounts.FixedAssetCodeStart):
			investing = true
		}
	}
	if !hasCash || !hasOther {
		return "", false
	}
	switch {
	case financing:
		return Financing, true
	case investing:
		return Investing, true
	}
	return Operating, true
}
