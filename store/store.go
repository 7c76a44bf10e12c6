package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/currency"
)

// Store is the unified storage interface for all Treasury state: the
// currency table, the account table and the balance table. Instead of
// embedding the sub-interfaces, we explicitly declare all methods to keep
// the backend contract readable in one place.
type Store interface {
	// Currency methods
	SaveCurrency(ctx context.Context, c *currency.Currency) error
	ListCurrencies(ctx context.Context) ([]*currency.Currency, error)

	// Account methods
	CreateAccount(ctx context.Context, a *account.Account) error
	GetAccount(ctx context.Context, accountID uuid.UUID) (*account.Account, error)
	UpdateAccount(ctx context.Context, a *account.Account) error
	DeleteAccount(ctx context.Context, accountID uuid.UUID) error
	ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error)

	// Balance methods
	GetBalance(ctx context.Context, key account.BalanceKey) (decimal.Decimal, error)
	SetBalance(ctx context.Context, key account.BalanceKey, amount decimal.Decimal) error
	ListBalances(ctx context.Context, accountID uuid.UUID) ([]*account.Balance, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Compile-time checks that the sub-interfaces stay a subset of Store.
var (
	_ account.Store  = Store(nil)
	_ currency.Store = Store(nil)
)
