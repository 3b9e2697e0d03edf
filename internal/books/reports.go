package books

import (
	"github.com/shopspring/decimal"

	"github.com/microfin-dev/microfin/internal/accounts"
	"github.com/microfin-dev/microfin/internal/report"
)

var one = decimal.NewFromInt(1)

// ProfitAndLoss reports revenue, expenses and net profit.
func (b *Book) ProfitAndLoss() report.IncomeStatement {
	b.mu.Lock()
	defer b.mu.Unlock()
	return report.ProfitAndLoss(b.entries, b.coa.All())
}

// BalanceSheet reports the financial position.
func (b *Book) BalanceSheet() report.FinancialPosition {
	b.mu.Lock()
	defer b.mu.Unlock()
	return report.BalanceSheet(b.entries, b.coa.All())
}

// CashFlow reports cash movements on cash on hand and the bank account
// by activity.
func (b *Book) CashFlow() report.CashFlowStatement {
	b.mu.Lock()
	defer b.mu.Unlock()
	cash := []string{accounts.CodeCash}
	if b.cfg.Accounts.Cash != accounts.CodeCash {
		cash = append(cash, b.cfg.Accounts.Cash)
	}
	return report.CashFlow(b.entries, b.coa.All(), cash)
}

// VAT reports output tax on the configured revenue account.
func (b *Book) VAT() report.VATReturn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return report.VAT(b.entries, b.coa.All(), b.cfg.Accounts.VATRevenue, b.cfg.VAT.Rate, b.cfg.VAT.InputTax)
}
