package accounts

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/microfin-dev/microfin/internal/model"
)

// DuplicateAccountCodeError is returned when registering a code that is
// already in the chart.
type DuplicateAccountCodeError struct {
	Code string
}

func (e *DuplicateAccountCodeError) Error() string {
	return fmt.Sprintf("account code %s already exists", e.Code)
}

// Service is the in-memory chart of accounts, kept in code order.
type Service struct {
	accounts []model.Account
	byCode   map[string]model.Account
}

// NewService creates a Service from a slice of accounts. Duplicate or
// malformed rows are rejected.
func NewService(accounts []model.Account) (*Service, error) {
	s := &Service{byCode: make(map[string]model.Account, len(accounts))}
	for _, a := range accounts {
		if err := s.Register(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Register adds an account to the chart. The category of an existing code
// can never be changed through the registry.
func (s *Service) Register(acct model.Account) error {
	acct.Code = strings.TrimSpace(acct.Code)
	acct.Name = strings.TrimSpace(acct.Name)
	if acct.Code == "" {
		return errors.New("account code is required")
	}
	if acct.Name == "" {
		return fmt.Errorf("account %s: name is required", acct.Code)
	}
	if !acct.Category.Valid() {
		return fmt.Errorf("account %s: unknown category %q", acct.Code, acct.Category)
	}
	if _, ok := s.byCode[acct.Code]; ok {
		return &DuplicateAccountCodeError{Code: acct.Code}
	}

	i := sort.Search(len(s.accounts), func(i int) bool { return s.accounts[i].Code >= acct.Code })
	s.accounts = append(s.accounts, model.Account{})
	copy(s.accounts[i+1:], s.accounts[i:])
	s.accounts[i] = acct
	s.byCode[acct.Code] = acct
	return nil
}

// All returns a copy of every account in code order.
func (s *Service) All() []model.Account {
	out := make([]model.Account, len(s.accounts))
	copy(out, s.accounts)
	return out
}

// Len returns the number of accounts.
func (s *Service) Len() int {
	return len(s.accounts)
}

// Get returns an account by code.
func (s *Service) Get(code string) (model.Account, bool) {
	a, ok := s.byCode[code]
	return a, ok
}

// Exists reports whether an account code exists.
func (s *Service) Exists(code string) bool {
	_, ok := s.byCode[code]
	return ok
}

// ByCategory returns all accounts of the given category.
func (s *Service) ByCategory(category model.Category) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Category == category {
			result = append(result, a)
		}
	}
	return result
}

// WithPrefix returns the accounts whose code starts with prefix, which
// covers a parent account and its sub-accounts ("1002", "100201").
func (s *Service) WithPrefix(prefix string) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if strings.HasPrefix(a.Code, prefix) {
			result = append(result, a)
		}
	}
	return result
}
