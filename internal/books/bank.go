package books

import (
	"context"
	"fmt"

	"github.com/microfin-dev/microfin/internal/audit"
	"github.com/microfin-dev/microfin/internal/model"
	"github.com/microfin-dev/microfin/internal/reconcile"
	"github.com/microfin-dev/microfin/internal/store"
)

// BankItems returns the imported bank statement lines.
func (b *Book) BankItems() []model.BankStatementItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.BankStatementItem(nil), b.bankItems...)
}

// ImportBankItems appends statement lines. Items whose ID is already
// known are skipped, so re-importing a statement is harmless. It returns
// the number of items added.
func (b *Book) ImportBankItems(ctx context.Context, items []model.BankStatementItem) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	known := make(map[string]bool, len(b.bankItems))
	for _, it := range b.bankItems {
		known[it.ID] = true
	}
	next := append([]model.BankStatementItem(nil), b.bankItems...)
	added := 0
	for _, it := range items {
		if known[it.ID] {
			continue
		}
		if !it.Amount.IsPositive() {
			return 0, fmt.Errorf("bank item %s: amount %s must be positive", it.ID, it.Amount)
		}
		known[it.ID] = true
		it.Matched = false
		next = append(next, it)
		added++
	}
	if added == 0 {
		return 0, nil
	}

	if err := b.save(ctx, map[string]any{store.KeyBankItems: next}, func() { b.bankItems = next }); err != nil {
		return 0, err
	}
	b.log.Info("bank statement imported", "added", added, "skipped", len(items)-added)
	b.record(audit.ActionImportBank, fmt.Sprintf("imported %d of %d items", added, len(items)), "", "")
	return added, nil
}

// Reconciliation is the outcome of Reconcile.
type Reconciliation struct {
	RunID     string
	Pairs     []reconcile.Pair
	Statement reconcile.Statement
}

// Reconcile matches the posted cash-account entries against the bank
// statement and persists the new flags. An unbalanced statement is
// reported through Statement.Err, not as an error.
func (b *Book) Reconcile(ctx context.Context) (Reconciliation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cashAccount := b.cfg.Accounts.Cash
	res := reconcile.Reconcile(reconcile.CashEntries(b.entries, cashAccount), b.bankItems)
	stmt := reconcile.BuildStatement(res.Entries, res.BankItems)
	out := Reconciliation{RunID: res.RunID, Pairs: res.Pairs, Statement: stmt}

	if len(res.Pairs) > 0 {
		reconciled := make(map[string]bool, len(res.Pairs))
		for _, p := range res.Pairs {
			reconciled[p.EntryID] = true
		}
		entries := cloneEntries(b.entries)
		for i := range entries {
			if reconciled[entries[i].ID] {
				entries[i].Reconciled = true
			}
		}
		err := b.save(ctx, map[string]any{
			store.KeyEntries:   entries,
			store.KeyBankItems: res.BankItems,
		}, func() {
			b.entries = entries
			b.bankItems = res.BankItems
		})
		if err != nil {
			return Reconciliation{}, err
		}
	}

	attrs := []any{
		"run_id", res.RunID,
		"matched", len(res.Pairs),
		"difference", stmt.Difference.StringFixed(2),
	}
	if stmt.Balanced() {
		b.log.Info("reconciliation complete", attrs...)
	} else {
		b.log.Warn("reconciliation unbalanced", attrs...)
	}
	b.record(audit.ActionReconcile, fmt.Sprintf("matched %d, difference %s", len(res.Pairs), stmt.Difference.StringFixed(2)), "", res.RunID)
	return out, nil
}

// Statement builds the reconciliation statement from the current flags
// without matching anything.
func (b *Book) Statement() reconcile.Statement {
	b.mu.Lock()
	defer b.mu.Unlock()
	return reconcile.BuildStatement(reconcile.CashEntries(b.entries, b.cfg.Accounts.Cash), b.bankItems)
}
