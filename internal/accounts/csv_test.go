package accounts

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microfin-dev/microfin/internal/model"
)

func TestRoundTrip(t *testing.T) {
	accounts := []model.Account{
		{Code: "1002", Name: "Bank Deposits", Category: model.CategoryAsset},
		{Code: "6602", Name: "Administrative Expenses", Category: model.CategoryExpense},
	}

	var buf bytes.Buffer
	err := WriteAccounts(&buf, accounts)
	require.NoError(t, err)

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	assert.Equal(t, accounts, got)
}

func TestAllCategories(t *testing.T) {
	for _, c := range model.Categories {
		acct := model.Account{Code: "1000", Name: "Test", Category: c}

		var buf bytes.Buffer
		require.NoError(t, WriteAccounts(&buf, []model.Account{acct}))

		got, err := ReadAccounts(&buf)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, c, got[0].Category, "category %q should survive round-trip", c)
	}
}

func TestReadTestdata(t *testing.T) {
	f, err := os.Open("../../testdata/chart-of-accounts.csv")
	require.NoError(t, err)
	defer f.Close()

	accounts, err := ReadAccounts(f)
	require.NoError(t, err)
	require.Len(t, accounts, 10)

	categories := make(map[model.Category]bool)
	for _, acct := range accounts {
		categories[acct.Category] = true
	}
	assert.Len(t, categories, 5, "testdata chart spans all five categories")

	svc, err := NewService(accounts)
	require.NoError(t, err)
	assert.True(t, svc.Exists("1002"))
}

func TestReadAccounts_BadCategory(t *testing.T) {
	_, err := ReadAccounts(strings.NewReader("code,name,category\n1001,Cash,MONEY\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestReadAccounts_WrongFieldCount(t *testing.T) {
	_, err := ReadAccounts(strings.NewReader("code,name,category\n1001,Cash\n"))
	assert.Error(t, err)
}

func TestReadAccounts_Empty(t *testing.T) {
	got, err := ReadAccounts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDefaultChartRoundTrip(t *testing.T) {
	chart := DefaultChart()

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, chart))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	assert.Equal(t, chart, got)
}
