package books

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/microfin-dev/microfin/internal/accounts"
	"github.com/microfin-dev/microfin/internal/audit"
	"github.com/microfin-dev/microfin/internal/id"
	"github.com/microfin-dev/microfin/internal/journal"
	"github.com/microfin-dev/microfin/internal/ledger"
	"github.com/microfin-dev/microfin/internal/model"
	"github.com/microfin-dev/microfin/internal/posting"
	"github.com/microfin-dev/microfin/internal/store"
)

// InitOptions describes a new set of books.
type InitOptions struct {
	Company  model.CompanyInfo
	Template *accounts.Template // optional opening balances
	Date     time.Time          // date of the opening voucher
}

// Initialize records the company profile and, with a template, books and
// posts the opening balances.
func (b *Book) Initialize(ctx context.Context, opts InitOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.company.Initialized {
		return ErrAlreadyInitialized
	}

	company := opts.Company
	if company.Currency == "" {
		company.Currency = b.cfg.BaseCurrency
	}
	if company.FiscalYearStart == 0 {
		company.FiscalYearStart = 1
	}
	entries := b.entries
	var voucherID string
	if t := opts.Template; t != nil {
		if company.Name == "" {
			company.Name = t.CompanyName
		}
		if company.Scale == "" {
			company.Scale = t.Scale
		}
		if company.RegisteredCapital.IsZero() {
			company.RegisteredCapital = t.RegisteredCapital
		}

		lines, err := b.openingLines(t.Balances)
		if err != nil {
			return err
		}
		date := opts.Date
		if date.IsZero() {
			date = b.now()
		}
		voucherID = id.NextVoucherID(date, voucherIDs(b.entries))
		opening, err := b.engine().Commit(voucherID, date, lines)
		if err != nil {
			return fmt.Errorf("opening balances: %w", err)
		}
		res, err := posting.NewProcessor(posting.WithClock(b.now)).Post(ctx,
			append(cloneEntries(b.entries), opening...), entryIDs(opening))
		if err != nil {
			return err
		}
		entries = res.Entries
	}
	if company.Name == "" {
		return errors.New("company name is required")
	}
	company.Initialized = true

	err := b.save(ctx, map[string]any{
		store.KeyCompany: company,
		store.KeyCOA:     b.coa.All(),
		store.KeyEntries: entries,
	}, func() {
		b.company = company
		b.entries = entries
	})
	if err != nil {
		return err
	}
	b.log.Info("books initialized", "company", company.Name, "opening_voucher", voucherID)
	b.record(audit.ActionInitialize, company.Name, voucherID, "")
	return nil
}

func (b *Book) openingLines(balances []accounts.OpeningBalance) ([]journal.Line, error) {
	lines := make([]journal.Line, 0, len(balances))
	for _, ob := range balances {
		acct, ok := b.coa.Get(ob.Code)
		if !ok {
			return nil, fmt.Errorf("opening balance: unknown account %s", ob.Code)
		}
		lines = append(lines, journal.Line{
			AccountCode: ob.Code,
			Description: "Opening balance",
			Side:        acct.Category.NormalSide(),
			Amount:      ob.Amount,
		})
	}
	return lines, nil
}

func (b *Book) engine() *journal.Engine {
	return journal.NewEngine(b.coa, b.cfg.BaseCurrency)
}

func cloneEntries(entries []model.JournalEntry) []model.JournalEntry {
	return append([]model.JournalEntry(nil), entries...)
}

func entryIDs(entries []model.JournalEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func voucherIDs(entries []model.JournalEntry) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if !seen[e.VoucherID] {
			seen[e.VoucherID] = true
			out = append(out, e.VoucherID)
		}
	}
	return out
}

// Entries returns a copy of the journal.
func (b *Book) Entries() []model.JournalEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneEntries(b.entries)
}

// CommitVoucher validates lines as one voucher dated date and appends its
// entries, unposted, under the next voucher number of that month.
func (b *Book) CommitVoucher(ctx context.Context, date time.Time, lines []journal.Line) ([]model.JournalEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.commitVoucher(ctx, date, lines, nil)
}

// commitVoucher expects b.mu to be held. extra is saved in the same
// transaction and applied with the entries.
func (b *Book) commitVoucher(ctx context.Context, date time.Time, lines []journal.Line, extra map[string]any) ([]model.JournalEntry, error) {
	voucherID := id.NextVoucherID(date, voucherIDs(b.entries))
	created, err := b.engine().Commit(voucherID, date, lines)
	if err != nil {
		return nil, err
	}

	next := append(cloneEntries(b.entries), created...)
	values := map[string]any{store.KeyEntries: next}
	for k, v := range extra {
		values[k] = v
	}
	if err := b.save(ctx, values, func() { b.entries = next }); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, e := range created {
		if e.Side == model.SideDebit {
			total = total.Add(e.Amount)
		}
	}
	b.log.Info("voucher committed", "voucher_id", voucherID, "lines", len(created), "total", total.StringFixed(2))
	b.record(audit.ActionCommit, fmt.Sprintf("%d lines, total %s", len(created), total.StringFixed(2)), voucherID, "")
	return created, nil
}

// Post posts every unposted entry as one atomic batch. progress, if not
// nil, is told about the stages after the batch is durable.
func (b *Book) Post(ctx context.Context, progress posting.ProgressFunc) (posting.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var ids []string
	for _, e := range b.entries {
		if e.Status == model.StatusUnposted {
			ids = append(ids, e.ID)
		}
	}
	return b.post(ctx, ids, progress)
}

// PostVoucher posts only the entries of voucherID, leaving other
// unposted vouchers alone. A voucher that is already posted is a no-op.
func (b *Book) PostVoucher(ctx context.Context, voucherID string, progress posting.ProgressFunc) (posting.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var ids []string
	found := false
	for _, e := range b.entries {
		if e.VoucherID != voucherID {
			continue
		}
		found = true
		if e.Status == model.StatusUnposted {
			ids = append(ids, e.ID)
		}
	}
	if !found {
		return posting.Result{}, fmt.Errorf("unknown voucher %s", voucherID)
	}
	return b.post(ctx, ids, progress)
}

// post expects b.mu to be held.
func (b *Book) post(ctx context.Context, ids []string, progress posting.ProgressFunc) (posting.Result, error) {
	opts := []posting.Option{
		posting.WithClock(b.now),
		posting.WithSyncer(posting.SyncFunc(func(ctx context.Context, staged []model.JournalEntry) error {
			return b.store.SaveAll(ctx, map[string]any{store.KeyEntries: staged})
		})),
	}
	if progress != nil {
		opts = append(opts, posting.WithProgress(progress))
	}

	res, err := posting.NewProcessor(opts...).Post(ctx, b.entries, ids)
	if err != nil {
		b.log.Error("posting failed", "error", err)
		return posting.Result{}, err
	}
	b.entries = res.Entries
	if len(res.Posted) == 0 {
		b.log.Info("nothing to post")
		return res, nil
	}

	b.log.Info("batch posted", "batch_id", res.BatchID, "entries", len(res.Posted))
	b.record(audit.ActionPost, fmt.Sprintf("posted %d entries", len(res.Posted)), "", res.BatchID)
	return res, nil
}

// Balances returns the general ledger over posted entries.
func (b *Book) Balances() []ledger.AccountBalance {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ledger.ComputeBalances(b.entries, b.coa.All())
}

// TrialBalance returns raw debit and credit totals over posted entries.
func (b *Book) TrialBalance() ledger.TrialBalance {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ledger.Trial(b.entries)
}

// Detail returns the running ledger of one account.
func (b *Book) Detail(code string) ([]ledger.DetailLine, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct, ok := b.coa.Get(code)
	if !ok {
		return nil, fmt.Errorf("unknown account %s", code)
	}
	return ledger.Detail(b.entries, acct), nil
}
