package accounts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microfin-dev/microfin/internal/model"
)

func newDefaultService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(DefaultChart())
	require.NoError(t, err)
	return svc
}

func TestNewService(t *testing.T) {
	svc := newDefaultService(t)
	assert.Len(t, svc.All(), len(DefaultChart()))
	assert.Equal(t, len(DefaultChart()), svc.Len())
}

func TestNewService_Duplicate(t *testing.T) {
	chart := append(DefaultChart(), model.Account{Code: CodeBank, Name: "Again", Category: model.CategoryAsset})
	_, err := NewService(chart)
	var dup *DuplicateAccountCodeError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, CodeBank, dup.Code)
}

func TestGetExists(t *testing.T) {
	svc := newDefaultService(t)

	acct, ok := svc.Get(CodeBank)
	assert.True(t, ok)
	assert.Equal(t, "Bank Deposits", acct.Name)
	assert.Equal(t, model.CategoryAsset, acct.Category)

	_, ok = svc.Get("9999")
	assert.False(t, ok)

	assert.True(t, svc.Exists(CodeMainRevenue))
	assert.False(t, svc.Exists("9999"))
}

func TestRegister_KeepsCodeOrder(t *testing.T) {
	svc := newDefaultService(t)

	require.NoError(t, svc.Register(model.Account{Code: "100203", Name: "Bank Deposits - JPY", Category: model.CategoryAsset}))
	require.NoError(t, svc.Register(model.Account{Code: "0999", Name: "Petty Cash", Category: model.CategoryAsset}))

	all := svc.All()
	assert.Equal(t, "0999", all[0].Code)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Code, all[i].Code)
	}
	assert.True(t, svc.Exists("100203"))
}

func TestRegister_Rejects(t *testing.T) {
	svc := newDefaultService(t)

	tests := []struct {
		name string
		acct model.Account
	}{
		{"blank code", model.Account{Code: " ", Name: "X", Category: model.CategoryAsset}},
		{"blank name", model.Account{Code: "7001", Category: model.CategoryAsset}},
		{"bad category", model.Account{Code: "7001", Name: "X", Category: "income"}},
		{"duplicate", model.Account{Code: CodeCash, Name: "Cash", Category: model.CategoryAsset}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := svc.Len()
			assert.Error(t, svc.Register(tt.acct))
			assert.Equal(t, before, svc.Len(), "failed register must not change the chart")
		})
	}
}

func TestRegister_DuplicateKeepsCategory(t *testing.T) {
	svc := newDefaultService(t)

	err := svc.Register(model.Account{Code: CodeBank, Name: "Bank", Category: model.CategoryLiability})
	var dup *DuplicateAccountCodeError
	require.ErrorAs(t, err, &dup)

	acct, _ := svc.Get(CodeBank)
	assert.Equal(t, model.CategoryAsset, acct.Category)
}

func TestByCategory(t *testing.T) {
	svc := newDefaultService(t)

	assets := svc.ByCategory(model.CategoryAsset)
	assert.Len(t, assets, 8)
	for _, a := range assets {
		assert.Equal(t, model.CategoryAsset, a.Category)
	}

	revenue := svc.ByCategory(model.CategoryRevenue)
	assert.Len(t, revenue, 2)
}

func TestWithPrefix(t *testing.T) {
	svc := newDefaultService(t)

	bank := svc.WithPrefix(CodeBank)
	require.Len(t, bank, 3)
	assert.Equal(t, CodeBank, bank[0].Code)
	assert.Equal(t, CodeBankUSD, bank[1].Code)
	assert.Equal(t, CodeBankHKD, bank[2].Code)
}

func TestAll_ReturnsCopy(t *testing.T) {
	svc := newDefaultService(t)
	all := svc.All()
	all[0].Name = "changed"

	acct, _ := svc.Get(all[0].Code)
	assert.NotEqual(t, "changed", acct.Name)
}

func TestTemplatesBalance(t *testing.T) {
	svc := newDefaultService(t)
	for name, tmpl := range Templates {
		t.Run(name, func(t *testing.T) {
			var debit, credit = 0.0, 0.0
			for _, b := range tmpl.Balances {
				acct, ok := svc.Get(b.Code)
				require.True(t, ok, "template %s references unknown account %s", name, b.Code)
				f := b.Amount.InexactFloat64()
				if acct.Category.NormalSide() == model.SideDebit {
					debit += f
				} else {
					credit += f
				}
			}
			assert.InDelta(t, debit, credit, 0.001)
		})
	}
}

func TestLookupTemplate(t *testing.T) {
	tmpl, err := LookupTemplate("retail")
	require.NoError(t, err)
	assert.Equal(t, model.ScaleSmall, tmpl.Scale)

	_, err = LookupTemplate("bakery")
	assert.Error(t, err)
}
