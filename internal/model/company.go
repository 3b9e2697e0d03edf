package model

import "github.com/shopspring/decimal"

// Scale is the enterprise size class recorded at set-up.
type Scale string

const (
	ScaleMicro  Scale = "micro"
	ScaleSmall  Scale = "small"
	ScaleMedium Scale = "medium"
)

// CompanyInfo is the profile of the single entity the books belong to.
type CompanyInfo struct {
	Name              string          `json:"name" yaml:"name"`
	TaxID             string          `json:"tax_id" yaml:"tax_id"`
	LegalPerson       string          `json:"legal_person" yaml:"legal_person"`
	Currency          string          `json:"currency" yaml:"currency"`
	FiscalYearStart   int             `json:"fiscal_year_start" yaml:"fiscal_year_start"` // month, 1-12
	Scale             Scale           `json:"scale" yaml:"scale"`
	RegisteredCapital decimal.Decimal `json:"registered_capital" yaml:"registered_capital"`
	Initialized       bool            `json:"initialized" yaml:"-"`
}

// CurrencyRate is the value of one unit of Code in the base currency.
type CurrencyRate struct {
	Code       string          `json:"code" yaml:"code"`
	Name       string          `json:"name" yaml:"name"`
	Symbol     string          `json:"symbol" yaml:"symbol"`
	RateToBase decimal.Decimal `json:"rate_to_base" yaml:"rate_to_base"`
}

// ForeignBalance is a foreign-currency balance held in a sub-account,
// recorded at the rate it was booked at.
type ForeignBalance struct {
	Currency       string          `json:"currency" yaml:"currency"`
	AccountCode    string          `json:"account_code" yaml:"account_code"`
	OriginalAmount decimal.Decimal `json:"original_amount" yaml:"original_amount"`
	BookedRate     decimal.Decimal `json:"booked_rate" yaml:"booked_rate"`
}
