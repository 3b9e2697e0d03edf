package reconcile

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microfin-dev/microfin/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var day = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func entry(id, amount string, side model.Side) model.JournalEntry {
	return model.JournalEntry{
		ID:          id,
		VoucherID:   "V2024-03-001",
		Date:        day,
		AccountCode: "1002",
		Amount:      dec(amount),
		Side:        side,
		Currency:    "CNY",
		Status:      model.StatusPosted,
	}
}

func item(id, amount string, dir model.Direction) model.BankStatementItem {
	return model.BankStatementItem{ID: id, Date: day, Amount: dec(amount), Direction: dir}
}

func mockBank() []model.BankStatementItem {
	return []model.BankStatementItem{
		item("B001", "50000", model.DirectionIn),
		item("B002", "1500", model.DirectionOut),
		item("B003", "24.5", model.DirectionIn),
	}
}

func TestReconcile_MatchesDebitWithInflow(t *testing.T) {
	entries := []model.JournalEntry{entry("V2024-03-001a", "50000", model.SideDebit)}
	items := []model.BankStatementItem{item("B001", "50000", model.DirectionIn)}

	res := Reconcile(entries, items)

	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "V2024-03-001a", res.Pairs[0].EntryID)
	assert.Equal(t, "B001", res.Pairs[0].BankItemID)
	assert.True(t, res.Entries[0].Reconciled)
	assert.True(t, res.BankItems[0].Matched)
	assert.NotEmpty(t, res.RunID)

	// inputs are untouched
	assert.False(t, entries[0].Reconciled)
	assert.False(t, items[0].Matched)
}

func TestReconcile_PolarityMustAgree(t *testing.T) {
	entries := []model.JournalEntry{entry("V2024-03-001a", "1500", model.SideDebit)}
	items := []model.BankStatementItem{item("B002", "1500", model.DirectionOut)}

	res := Reconcile(entries, items)

	assert.Empty(t, res.Pairs)
	assert.False(t, res.Entries[0].Reconciled)
	assert.False(t, res.BankItems[0].Matched)
}

func TestReconcile_SkipsUnpostedAndReconciled(t *testing.T) {
	unposted := entry("V2024-03-001a", "100", model.SideDebit)
	unposted.Status = model.StatusUnposted
	done := entry("V2024-03-002a", "100", model.SideDebit)
	done.Reconciled = true
	open := entry("V2024-03-003a", "100", model.SideDebit)

	res := Reconcile([]model.JournalEntry{unposted, done, open},
		[]model.BankStatementItem{item("B1", "100", model.DirectionIn)})

	require.Len(t, res.Pairs, 1)
	assert.Equal(t, "V2024-03-003a", res.Pairs[0].EntryID)
	assert.False(t, res.Entries[0].Reconciled)
}

func TestReconcile_FirstFoundInBankOrder(t *testing.T) {
	entries := []model.JournalEntry{
		entry("E1", "10", model.SideDebit),
		entry("E2", "10", model.SideDebit),
	}
	items := []model.BankStatementItem{
		item("B1", "10", model.DirectionIn),
		item("B2", "10", model.DirectionIn),
		item("B3", "10", model.DirectionIn),
	}

	res := Reconcile(entries, items)

	require.Len(t, res.Pairs, 2)
	assert.Equal(t, Pair{EntryID: "E1", BankItemID: "B1", Amount: dec("10")}, res.Pairs[0])
	assert.Equal(t, Pair{EntryID: "E2", BankItemID: "B2", Amount: dec("10")}, res.Pairs[1])
	assert.False(t, res.BankItems[2].Matched)
}

func TestReconcile_Deterministic(t *testing.T) {
	entries := []model.JournalEntry{
		entry("E1", "50000", model.SideDebit),
		entry("E2", "1500", model.SideCredit),
		entry("E3", "1500", model.SideCredit),
	}

	a := Reconcile(entries, mockBank())
	b := Reconcile(entries, mockBank())

	assert.Equal(t, a.Pairs, b.Pairs)
	assert.Equal(t, a.Entries, b.Entries)
	assert.Equal(t, a.BankItems, b.BankItems)
}

func TestReconcile_RerunIsMonotonic(t *testing.T) {
	entries := []model.JournalEntry{entry("E1", "50000", model.SideDebit)}
	first := Reconcile(entries, mockBank())
	second := Reconcile(first.Entries, first.BankItems)

	assert.Empty(t, second.Pairs)
	assert.True(t, second.Entries[0].Reconciled)
	assert.True(t, second.BankItems[0].Matched)
}

func TestCashEntries(t *testing.T) {
	other := entry("X", "1", model.SideCredit)
	other.AccountCode = "6001"
	unposted := entry("Y", "1", model.SideDebit)
	unposted.Status = model.StatusUnposted
	cash := entry("Z", "1", model.SideDebit)

	got := CashEntries([]model.JournalEntry{other, unposted, cash}, "1002")
	require.Len(t, got, 1)
	assert.Equal(t, "Z", got[0].ID)
}

func TestBuildStatement_BankOnlyItems(t *testing.T) {
	res := Reconcile([]model.JournalEntry{entry("E1", "50000", model.SideDebit)}, mockBank())
	s := BuildStatement(res.Entries, res.BankItems)

	assert.True(t, s.SystemBalance.Equal(dec("50000")))
	assert.True(t, s.BankBalance.Equal(dec("48524.5")))
	assert.True(t, s.BankOnlyIn.Equal(dec("24.5")))
	assert.True(t, s.BankOnlyOut.Equal(dec("1500")))
	assert.True(t, s.SystemOnlyIn.IsZero())
	assert.True(t, s.AdjustedSystem.Equal(dec("48524.5")), s.AdjustedSystem.String())
	assert.True(t, s.AdjustedBank.Equal(dec("48524.5")))
	assert.True(t, s.Balanced())
	assert.NoError(t, s.Err())
	assert.Len(t, s.UnmatchedBankItems, 2)
	assert.Empty(t, s.UnmatchedEntries)
}

func TestBuildStatement_SystemOnlyItems(t *testing.T) {
	entries := []model.JournalEntry{
		entry("E1", "50000", model.SideDebit),
		entry("E2", "300", model.SideCredit),
		entry("E3", "80", model.SideDebit),
	}
	res := Reconcile(entries, []model.BankStatementItem{item("B001", "50000", model.DirectionIn)})
	s := BuildStatement(res.Entries, res.BankItems)

	assert.True(t, s.SystemBalance.Equal(dec("49780")))
	assert.True(t, s.SystemOnlyIn.Equal(dec("80")))
	assert.True(t, s.SystemOnlyOut.Equal(dec("300")))
	assert.True(t, s.AdjustedBank.Equal(dec("49780")))
	assert.True(t, s.Balanced())
}

func TestBuildStatement_Unbalanced(t *testing.T) {
	// a bank item flagged matched by an earlier run without a matching
	// reconciled entry leaves a residual
	stale := item("B9", "24.5", model.DirectionIn)
	stale.Matched = true

	s := BuildStatement(nil, []model.BankStatementItem{stale})

	assert.False(t, s.Balanced())
	var ue *UnbalancedError
	require.ErrorAs(t, s.Err(), &ue)
	assert.True(t, ue.Difference.Equal(dec("-24.5")))
	assert.Contains(t, ue.Error(), "-24.50")
}

func TestBuildStatement_Empty(t *testing.T) {
	s := BuildStatement(nil, nil)
	assert.True(t, s.Difference.IsZero())
	assert.NoError(t, s.Err())
}
