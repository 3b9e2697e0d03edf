package model

import (
	"fmt"
	"strings"
)

// Category classifies accounts in the chart of accounts by normal balance.
type Category string

const (
	CategoryAsset     Category = "asset"
	CategoryLiability Category = "liability"
	CategoryEquity    Category = "equity"
	CategoryRevenue   Category = "revenue"
	CategoryExpense   Category = "expense"
)

// Categories lists every category in statement order.
var Categories = []Category{
	CategoryAsset,
	CategoryLiability,
	CategoryEquity,
	CategoryRevenue,
	CategoryExpense,
}

// Valid reports whether c is one of the five known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryAsset, CategoryLiability, CategoryEquity, CategoryRevenue, CategoryExpense:
		return true
	}
	return false
}

// NormalSide returns the side that increases an account of this category.
func (c Category) NormalSide() Side {
	switch c {
	case CategoryAsset, CategoryExpense:
		return SideDebit
	case CategoryLiability, CategoryEquity, CategoryRevenue:
		return SideCredit
	default:
		panic(fmt.Sprintf("unknown account category %q", string(c)))
	}
}

// ParseCategory accepts the lower-case form as well as the upper-case
// form used by older exports ("ASSET").
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(s))
	if !c.Valid() {
		return "", fmt.Errorf("unknown account category %q", s)
	}
	return c, nil
}

// Account is one row of the chart of accounts.
type Account struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
}
