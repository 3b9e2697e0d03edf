package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/microfin-dev/microfin/internal/accounts"
	"github.com/microfin-dev/microfin/internal/model"
)

// FileName is the default config file name in the books directory.
const FileName = "microfin.yaml"

// Environment overrides.
const (
	EnvDBPath    = "MICROFIN_DB_PATH"
	EnvLogLevel  = "MICROFIN_LOG_LEVEL"
	EnvLogFormat = "MICROFIN_LOG_FORMAT"
)

// Config represents the top-level microfin.yaml configuration.
type Config struct {
	Company         model.CompanyInfo      `yaml:"company"`
	BaseCurrency    string                 `yaml:"base_currency"`
	Accounts        AccountsConfig         `yaml:"accounts"`
	VAT             VATConfig              `yaml:"vat"`
	Currencies      []model.CurrencyRate   `yaml:"currencies"`
	ForeignBalances []model.ForeignBalance `yaml:"foreign_balances,omitempty"`
	Import          ImportConfig           `yaml:"import"`
	Database        DatabaseConfig         `yaml:"database"`
	Logging         LoggingConfig          `yaml:"logging"`
	Git             GitConfig              `yaml:"git"`
}

// AccountsConfig names the accounts the core operations book against.
type AccountsConfig struct {
	Cash       string `yaml:"cash"`         // reconciled against the bank statement
	FXGainLoss string `yaml:"fx_gain_loss"` // receives net revaluation differences
	VATRevenue string `yaml:"vat_revenue"`  // taxable revenue for the VAT return
}

// VATConfig holds the value-added tax parameters.
type VATConfig struct {
	Rate     decimal.Decimal `yaml:"rate"`
	InputTax decimal.Decimal `yaml:"input_tax"`
}

// ImportConfig selects the bank statement parser.
type ImportConfig struct {
	Format string `yaml:"format"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// GitConfig controls versioning of CSV snapshots.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// LoadDotEnv loads environment files. With no paths it loads ./.env if
// one exists.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("loading .env file: %w", err)
	}
	return nil
}

// Load reads a microfin.yaml file on top of the defaults, applies the
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	// lists from the file replace the defaults rather than merging
	cfg.Currencies = nil
	cfg.ForeignBalances = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Currencies == nil {
		cfg.Currencies = Default("").Currencies
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ApplyEnv overrides file values with MICROFIN_* environment variables.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvDBPath); ok && v != "" {
		c.Database.Path = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok && v != "" {
		c.Logging.Format = v
	}
}

// Rate returns the configured rate entry for code.
func (c *Config) Rate(code string) (model.CurrencyRate, bool) {
	for _, r := range c.Currencies {
		if strings.EqualFold(r.Code, code) {
			return r, true
		}
	}
	return model.CurrencyRate{}, false
}

// Default returns a Config with sensible defaults for a new set of books.
func Default(companyName string) *Config {
	return &Config{
		Company: model.CompanyInfo{
			Name:            companyName,
			Currency:        "CNY",
			FiscalYearStart: 1,
			Scale:           model.ScaleSmall,
		},
		BaseCurrency: "CNY",
		Accounts: AccountsConfig{
			Cash:       accounts.CodeBank,
			FXGainLoss: accounts.CodeFXGainLoss,
			VATRevenue: accounts.CodeMainRevenue,
		},
		VAT: VATConfig{
			Rate:     decimal.RequireFromString("0.13"),
			InputTax: decimal.RequireFromString("1250.40"),
		},
		Currencies: []model.CurrencyRate{
			{Code: "CNY", Name: "Renminbi", Symbol: "¥", RateToBase: decimal.NewFromInt(1)},
			{Code: "USD", Name: "US Dollar", Symbol: "$", RateToBase: decimal.RequireFromString("7.24")},
			{Code: "HKD", Name: "Hong Kong Dollar", Symbol: "HK$", RateToBase: decimal.RequireFromString("0.92")},
			{Code: "EUR", Name: "Euro", Symbol: "€", RateToBase: decimal.RequireFromString("7.82")},
		},
		ForeignBalances: []model.ForeignBalance{
			{Currency: "USD", AccountCode: accounts.CodeBankUSD, OriginalAmount: decimal.RequireFromString("12500.50"), BookedRate: decimal.RequireFromString("7.15")},
			{Currency: "HKD", AccountCode: accounts.CodeBankHKD, OriginalAmount: decimal.RequireFromString("88400"), BookedRate: decimal.RequireFromString("0.91")},
			{Currency: "EUR", AccountCode: accounts.CodeReceivableEUR, OriginalAmount: decimal.RequireFromString("5600"), BookedRate: decimal.RequireFromString("7.75")},
		},
		Import:   ImportConfig{Format: "generic"},
		Database: DatabaseConfig{Path: ".microfin/microfin.db"},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "Microfin",
			AuthorEmail: "books@microfin.local",
		},
	}
}

var (
	logLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	logFormats = map[string]bool{"text": true, "json": true}
)

// Validate checks the whole configuration and reports every problem at
// once.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Company.Name) == "" {
		problems = append(problems, "company.name is required")
	}
	if c.Company.FiscalYearStart < 1 || c.Company.FiscalYearStart > 12 {
		problems = append(problems, "company.fiscal_year_start must be a month between 1 and 12")
	}
	if len(c.BaseCurrency) != 3 {
		problems = append(problems, "base_currency must be a three-letter code")
	}

	if c.Accounts.Cash == "" {
		problems = append(problems, "accounts.cash is required")
	}
	if c.Accounts.FXGainLoss == "" {
		problems = append(problems, "accounts.fx_gain_loss is required")
	}
	if c.Accounts.VATRevenue == "" {
		problems = append(problems, "accounts.vat_revenue is required")
	}

	if c.VAT.Rate.IsNegative() || c.VAT.Rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		problems = append(problems, "vat.rate must be in [0, 1)")
	}
	if c.VAT.InputTax.IsNegative() {
		problems = append(problems, "vat.input_tax must not be negative")
	}

	seen := make(map[string]bool)
	for _, r := range c.Currencies {
		code := strings.ToUpper(r.Code)
		if seen[code] {
			problems = append(problems, fmt.Sprintf("currency %s is listed twice", code))
		}
		seen[code] = true
		if !r.RateToBase.IsPositive() {
			problems = append(problems, fmt.Sprintf("currency %s must have a positive rate", code))
		}
	}
	if base, ok := c.Rate(c.BaseCurrency); !ok {
		problems = append(problems, fmt.Sprintf("base currency %s is missing from currencies", c.BaseCurrency))
	} else if !base.RateToBase.Equal(decimal.NewFromInt(1)) {
		problems = append(problems, fmt.Sprintf("base currency %s must have rate 1", c.BaseCurrency))
	}

	for _, fb := range c.ForeignBalances {
		if strings.EqualFold(fb.Currency, c.BaseCurrency) {
			problems = append(problems, fmt.Sprintf("foreign balance on %s is in the base currency", fb.AccountCode))
		}
		if fb.AccountCode == "" {
			problems = append(problems, fmt.Sprintf("foreign balance in %s needs an account_code", fb.Currency))
		}
		if !fb.BookedRate.IsPositive() {
			problems = append(problems, fmt.Sprintf("foreign balance on %s must have a positive booked_rate", fb.AccountCode))
		}
	}

	if c.Database.Path == "" {
		problems = append(problems, "database.path is required")
	}
	if !logLevels[strings.ToLower(c.Logging.Level)] {
		problems = append(problems, fmt.Sprintf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level))
	}
	if !logFormats[strings.ToLower(c.Logging.Format)] {
		problems = append(problems, fmt.Sprintf("logging.format %q must be text or json", c.Logging.Format))
	}

	if c.Git.AutoCommit && (c.Git.AuthorName == "" || c.Git.AuthorEmail == "") {
		problems = append(problems, "git.author_name and git.author_email are required with git.auto_commit")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
