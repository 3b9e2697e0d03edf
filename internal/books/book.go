// Package books holds the explicit ledger state of one company and
// orchestrates the core operations over it. Every state transition is
// computed on copies, written to the store, and only then made visible.
package books

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/microfin-dev/microfin/internal/accounts"
	"github.com/microfin-dev/microfin/internal/audit"
	"github.com/microfin-dev/microfin/internal/config"
	"github.com/microfin-dev/microfin/internal/model"
	"github.com/microfin-dev/microfin/internal/store"
)

// ErrAlreadyInitialized is returned when Initialize runs on set-up books.
var ErrAlreadyInitialized = errors.New("books are already initialized")

// ErrNotInitialized is returned by operations that need a company profile.
var ErrNotInitialized = errors.New("books are not initialized; run init first")

// Store persists named documents. *store.Store implements it.
type Store interface {
	Load(ctx context.Context, key string, dst any) (bool, error)
	SaveAll(ctx context.Context, values map[string]any) error
}

// Auditor records state transitions. *audit.Log implements it.
type Auditor interface {
	Record(action audit.Action, details, voucherID, runID string) error
}

// Options configures Open.
type Options struct {
	Config *config.Config
	Store  Store
	Audit  Auditor      // optional
	Logger *slog.Logger // optional
	Now    func() time.Time
}

// Book is the in-memory state of one set of books. It is safe for
// concurrent use; all operations are serialized.
type Book struct {
	mu sync.Mutex

	cfg   *config.Config
	store Store
	audit Auditor
	log   *slog.Logger
	now   func() time.Time

	company   model.CompanyInfo
	coa       *accounts.Service
	entries   []model.JournalEntry
	bankItems []model.BankStatementItem
	rates     []model.CurrencyRate
	foreign   []model.ForeignBalance
	customers []model.Customer
	suppliers []model.Supplier
	invoices  []model.Invoice
	expenses  []model.ExpenseClaim
	orders    []model.PurchaseOrder
}

// Open loads the books from the store. Keys that were never saved start
// from the configuration: the default chart, the configured rates and
// foreign balances, and an uninitialized company.
func Open(ctx context.Context, opts Options) (*Book, error) {
	if opts.Config == nil || opts.Store == nil {
		return nil, errors.New("books: config and store are required")
	}
	b := &Book{
		cfg:     opts.Config,
		store:   opts.Store,
		audit:   opts.Audit,
		log:     opts.Logger,
		now:     opts.Now,
		company: opts.Config.Company,
		rates:   append([]model.CurrencyRate(nil), opts.Config.Currencies...),
		foreign: append([]model.ForeignBalance(nil), opts.Config.ForeignBalances...),
	}
	if b.log == nil {
		b.log = slog.New(slog.DiscardHandler)
	}
	if b.now == nil {
		b.now = time.Now
	}
	b.company.Initialized = false

	chart := accounts.DefaultChart()
	targets := []struct {
		key string
		dst any
	}{
		{store.KeyCompany, &b.company},
		{store.KeyCOA, &chart},
		{store.KeyEntries, &b.entries},
		{store.KeyBankItems, &b.bankItems},
		{store.KeyRates, &b.rates},
		{store.KeyForeignBalances, &b.foreign},
		{store.KeyCustomers, &b.customers},
		{store.KeySuppliers, &b.suppliers},
		{store.KeyInvoices, &b.invoices},
		{store.KeyExpenses, &b.expenses},
		{store.KeyOrders, &b.orders},
	}
	for _, t := range targets {
		if _, err := b.store.Load(ctx, t.key, t.dst); err != nil {
			return nil, err
		}
	}

	coa, err := accounts.NewService(chart)
	if err != nil {
		return nil, fmt.Errorf("loading chart of accounts: %w", err)
	}
	b.coa = coa

	b.log.Debug("books opened",
		"company", b.company.Name,
		"accounts", coa.Len(),
		"entries", len(b.entries),
		"bank_items", len(b.bankItems))
	return b, nil
}

// save writes values in one transaction and, only if that succeeds,
// applies the in-memory change.
func (b *Book) save(ctx context.Context, values map[string]any, apply func()) error {
	if err := b.store.SaveAll(ctx, values); err != nil {
		b.log.Error("saving books failed", "error", err)
		return err
	}
	apply()
	return nil
}

func (b *Book) record(action audit.Action, details, voucherID, runID string) {
	if b.audit == nil {
		return
	}
	if err := b.audit.Record(action, details, voucherID, runID); err != nil {
		b.log.Warn("audit log write failed", "action", action, "error", err)
	}
}

// Config returns the configuration the books were opened with.
func (b *Book) Config() *config.Config {
	return b.cfg
}

// Company returns the company profile.
func (b *Book) Company() model.CompanyInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.company
}

// Accounts returns the chart of accounts in code order.
func (b *Book) Accounts() []model.Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.coa.All()
}

// Account returns one account of the chart.
func (b *Book) Account(code string) (model.Account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.coa.Get(code)
}

// AddAccount registers a new account.
func (b *Book) AddAccount(ctx context.Context, acct model.Account) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next, err := accounts.NewService(b.coa.All())
	if err != nil {
		return err
	}
	if err := next.Register(acct); err != nil {
		return err
	}
	err = b.save(ctx, map[string]any{store.KeyCOA: next.All()}, func() { b.coa = next })
	if err != nil {
		return err
	}
	b.log.Info("account added", "code", acct.Code, "category", acct.Category)
	b.record(audit.ActionAddAccount, fmt.Sprintf("%s %s (%s)", acct.Code, acct.Name, acct.Category), "", "")
	return nil
}

// ImportAccounts registers every account in order. Nothing is saved if
// any of them is rejected.
func (b *Book) ImportAccounts(ctx context.Context, accts []model.Account) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next, err := accounts.NewService(b.coa.All())
	if err != nil {
		return err
	}
	for _, a := range accts {
		if err := next.Register(a); err != nil {
			return err
		}
	}
	err = b.save(ctx, map[string]any{store.KeyCOA: next.All()}, func() { b.coa = next })
	if err != nil {
		return err
	}
	b.log.Info("accounts imported", "count", len(accts))
	b.record(audit.ActionAddAccount, fmt.Sprintf("imported %d accounts", len(accts)), "", "")
	return nil
}
