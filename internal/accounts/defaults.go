package accounts

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/microfin-dev/microfin/internal/model"
)

// Well-known codes in the default chart.
const (
	CodeCash            = "1001"
	CodeBank            = "1002"
	CodeBankUSD         = "100201"
	CodeBankHKD         = "100202"
	CodeReceivable      = "1122"
	CodeReceivableEUR   = "112201"
	CodeInventory       = "1405"
	CodeFixedAssets     = "1601"
	CodeShortTermLoans  = "2001"
	CodePayable         = "2202"
	CodeTaxPayable      = "2221"
	CodeLongTermLoans   = "2501"
	CodePaidInCapital   = "4001"
	CodeMainRevenue     = "6001"
	CodeFXGainLoss      = "6061"
	CodeCostOfSales     = "6401"
	CodeAdminExpense    = "6602"
	FixedAssetCodeStart = "16"
)

// LoanCodePrefixes identify borrowings among the liabilities. Cash moved
// against them is a financing flow.
var LoanCodePrefixes = []string{CodeShortTermLoans, CodeLongTermLoans}

// CashAccounts are the accounts whose movements make up cash flow.
var CashAccounts = []string{CodeCash, CodeBank}

// DefaultChart returns the small-enterprise chart of accounts.
func DefaultChart() []model.Account {
	return []model.Account{
		{Code: CodeCash, Name: "Cash on Hand", Category: model.CategoryAsset},
		{Code: CodeBank, Name: "Bank Deposits", Category: model.CategoryAsset},
		{Code: CodeBankUSD, Name: "Bank Deposits - USD", Category: model.CategoryAsset},
		{Code: CodeBankHKD, Name: "Bank Deposits - HKD", Category: model.CategoryAsset},
		{Code: CodeReceivable, Name: "Accounts Receivable", Category: model.CategoryAsset},
		{Code: CodeReceivableEUR, Name: "Accounts Receivable - EUR", Category: model.CategoryAsset},
		{Code: CodeInventory, Name: "Inventory", Category: model.CategoryAsset},
		{Code: CodeFixedAssets, Name: "Fixed Assets", Category: model.CategoryAsset},
		{Code: CodeShortTermLoans, Name: "Short-term Borrowings", Category: model.CategoryLiability},
		{Code: CodePayable, Name: "Accounts Payable", Category: model.CategoryLiability},
		{Code: CodeTaxPayable, Name: "Taxes Payable", Category: model.CategoryLiability},
		{Code: CodeLongTermLoans, Name: "Long-term Borrowings", Category: model.CategoryLiability},
		{Code: CodePaidInCapital, Name: "Paid-in Capital", Category: model.CategoryEquity},
		{Code: CodeMainRevenue, Name: "Main Business Revenue", Category: model.CategoryRevenue},
		{Code: CodeFXGainLoss, Name: "Exchange Gains and Losses", Category: model.CategoryRevenue},
		{Code: CodeCostOfSales, Name: "Cost of Main Business", Category: model.CategoryExpense},
		{Code: CodeAdminExpense, Name: "Administrative Expenses", Category: model.CategoryExpense},
	}
}

// OpeningBalance is one account's opening amount on its normal side.
type OpeningBalance struct {
	Code   string
	Amount decimal.Decimal
}

// Template is a starter profile for a new set of books.
type Template struct {
	Name              string
	CompanyName       string
	Scale             model.Scale
	RegisteredCapital decimal.Decimal
	Balances          []OpeningBalance
}

// Templates lists the built-in opening templates by name.
var Templates = map[string]Template{
	"service": {
		Name:              "service",
		CompanyName:       "Future Consulting Services Ltd.",
		Scale:             model.ScaleMicro,
		RegisteredCapital: decimal.NewFromInt(50000),
		Balances: []OpeningBalance{
			{Code: CodeBank, Amount: decimal.NewFromInt(50000)},
			{Code: CodePaidInCapital, Amount: decimal.NewFromInt(50000)},
		},
	},
	"retail": {
		Name:              "retail",
		CompanyName:       "Everyday Goods Store",
		Scale:             model.ScaleSmall,
		RegisteredCapital: decimal.NewFromInt(130000),
		Balances: []OpeningBalance{
			{Code: CodeBank, Amount: decimal.NewFromInt(100000)},
			{Code: CodeInventory, Amount: decimal.NewFromInt(30000)},
			{Code: CodePaidInCapital, Amount: decimal.NewFromInt(130000)},
		},
	},
	"factory": {
		Name:              "factory",
		CompanyName:       "Pioneer Precision Manufacturing",
		Scale:             model.ScaleMedium,
		RegisteredCapital: decimal.NewFromInt(500000),
		Balances: []OpeningBalance{
			{Code: CodeBank, Amount: decimal.NewFromInt(200000)},
			{Code: CodeFixedAssets, Amount: decimal.NewFromInt(150000)},
			{Code: CodePaidInCapital, Amount: decimal.NewFromInt(350000)},
		},
	},
}

// LookupTemplate returns the named opening template.
func LookupTemplate(name string) (Template, error) {
	t, ok := Templates[name]
	if !ok {
		return Template{}, fmt.Errorf("unknown opening template %q", name)
	}
	return t, nil
}
