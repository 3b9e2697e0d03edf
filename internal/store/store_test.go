package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microfin-dev/microfin/internal/model"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "microfin.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func sampleEntries() []model.JournalEntry {
	return []model.JournalEntry{{
		ID:          "V2024-03-001a",
		VoucherID:   "V2024-03-001",
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		AccountCode: "1002",
		Amount:      decimal.RequireFromString("50000.10"),
		Side:        model.SideDebit,
		Currency:    "CNY",
		Status:      model.StatusPosted,
	}}
}

func TestLoad_Missing(t *testing.T) {
	s, _ := openTemp(t)
	var got []model.JournalEntry
	found, err := s.Load(context.Background(), KeyEntries, &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestSaveLoad(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, KeyEntries, sampleEntries()))

	var got []model.JournalEntry
	found, err := s.Load(ctx, KeyEntries, &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got, 1)
	assert.Equal(t, "V2024-03-001a", got[0].ID)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("50000.10")))
	assert.Equal(t, model.StatusPosted, got[0].Status)
	assert.True(t, got[0].Date.Equal(sampleEntries()[0].Date))
}

func TestSave_LastWriteWins(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, KeyCompany, model.CompanyInfo{Name: "First"}))
	require.NoError(t, s.Save(ctx, KeyCompany, model.CompanyInfo{Name: "Second"}))

	var got model.CompanyInfo
	_, err := s.Load(ctx, KeyCompany, &got)
	require.NoError(t, err)
	assert.Equal(t, "Second", got.Name)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyCompany}, keys)
}

func TestSaveAll(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	err := s.SaveAll(ctx, map[string]any{
		KeyEntries: sampleEntries(),
		KeyCOA:     []model.Account{{Code: "1002", Name: "Bank", Category: model.CategoryAsset}},
		KeyCompany: model.CompanyInfo{Name: "Acme", Initialized: true},
	})
	require.NoError(t, err)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{KeyCOA, KeyCompany, KeyEntries}, keys)

	var info model.CompanyInfo
	found, err := s.Load(ctx, KeyCompany, &info)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, info.Initialized)
}

func TestSaveAll_EncodeFailureWritesNothing(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	err := s.SaveAll(ctx, map[string]any{
		KeyEntries: sampleEntries(),
		KeyRates:   make(chan int),
	})
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "encode", se.Op)
	assert.Equal(t, KeyRates, se.Key)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestLoad_DecodeError(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, KeyCompany, "just a string"))

	var info model.CompanyInfo
	_, err := s.Load(ctx, KeyCompany, &info)
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "decode", se.Op)
	assert.Contains(t, se.Error(), `"company"`)
}

func TestSave_CanceledContext(t *testing.T) {
	s, _ := openTemp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Save(ctx, KeyEntries, sampleEntries())
	var se *Error
	assert.ErrorAs(t, err, &se)
}

func TestDelete(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, KeyRates, []int{1}))
	require.NoError(t, s.Delete(ctx, KeyRates))
	require.NoError(t, s.Delete(ctx, KeyRates))

	var got []int
	found, err := s.Load(ctx, KeyRates, &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReopenKeepsData(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, KeyEntries, sampleEntries()))
	require.NoError(t, s.Close())

	again, err := Open(path)
	require.NoError(t, err)
	defer again.Close()

	var got []model.JournalEntry
	found, err := again.Load(ctx, KeyEntries, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Len(t, got, 1)
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Save(context.Background(), KeyCompany, model.CompanyInfo{Name: "Mem"}))
}
