// Package memory is the in-process Store backend. It is the default for
// tests and for embedded use; every value crosses the boundary as a copy.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/currency"
	"github.com/xraph/treasury/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Currency storage
	currencies map[string]*currency.Currency

	// Account storage
	accounts map[uuid.UUID]*account.Account

	// Balance storage
	balances map[account.BalanceKey]*account.Balance
}

func New() *Store {
	return &Store{
		currencies: make(map[string]*currency.Currency),
		accounts:   make(map[uuid.UUID]*account.Account),
		balances:   make(map[account.BalanceKey]*account.Balance),
	}
}

// Currency Store implementation
func (s *Store) SaveCurrency(_ context.Context, c *currency.Currency) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *c
	cp.UpdatedAt = time.Now().UTC()
	if prev, ok := s.currencies[c.Code]; ok {
		cp.CreatedAt = prev.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.UpdatedAt
	}
	s.currencies[c.Code] = &cp
	return nil
}

func (s *Store) ListCurrencies(_ context.Context) ([]*currency.Currency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*currency.Currency, 0, len(s.currencies))
	for _, c := range s.currencies {
		cp := *c
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

// Account Store implementation
func (s *Store) CreateAccount(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID]; exists {
		return fmt.Errorf("%w: %s", account.ErrExists, a.ID)
	}
	s.accounts[a.ID] = a.Clone()
	return nil
}

func (s *Store) GetAccount(_ context.Context, accountID uuid.UUID) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.accounts[accountID]; ok {
		return a.Clone(), nil
	}
	return nil, account.ErrNotFound
}

func (s *Store) UpdateAccount(_ context.Context, a *account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID]; !exists {
		return account.ErrNotFound
	}
	s.accounts[a.ID] = a.Clone()
	return nil
}

func (s *Store) DeleteAccount(_ context.Context, accountID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[accountID]; !exists {
		return account.ErrNotFound
	}
	delete(s.accounts, accountID)
	for key := range s.balances {
		if key.AccountID == accountID {
			delete(s.balances, key)
		}
	}
	return nil
}

func (s *Store) ListAccounts(_ context.Context, opts account.ListOpts) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*account.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		if opts.Kind != "" && a.Kind != opts.Kind {
			continue
		}
		if opts.After != uuid.Nil && account.CompareIDs(a.ID, opts.After) <= 0 {
			continue
		}
		result = append(result, a.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return account.CompareIDs(result[i].ID, result[j].ID) < 0
	})

	// Apply limit/offset
	start := min(opts.Offset, len(result))
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// Balance Store implementation
func (s *Store) GetBalance(_ context.Context, key account.BalanceKey) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.balances[key]; ok {
		return b.Amount, nil
	}
	return decimal.Zero, nil
}

func (s *Store) SetBalance(_ context.Context, key account.BalanceKey, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[key.AccountID]; !exists {
		return account.ErrNotFound
	}
	s.balances[key] = &account.Balance{Key: key, Amount: amount, UpdatedAt: time.Now().UTC()}
	return nil
}

func (s *Store) ListBalances(_ context.Context, accountID uuid.UUID) ([]*account.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*account.Balance, 0)
	for key, b := range s.balances {
		if key.AccountID == accountID {
			cp := *b
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key.Less(result[j].Key) })
	return result, nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	return nil // Always available
}

func (s *Store) Close() error {
	return nil // Nothing to close
}
