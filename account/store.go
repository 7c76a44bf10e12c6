package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store persists accounts and their balances. Implementations return copies;
// mutating a returned account has no effect until UpdateAccount.
type Store interface {
	CreateAccount(ctx context.Context, a *Account) error
	GetAccount(ctx context.Context, accountID uuid.UUID) (*Account, error)
	UpdateAccount(ctx context.Context, a *Account) error
	// DeleteAccount removes the account together with every balance it holds.
	DeleteAccount(ctx context.Context, accountID uuid.UUID) error
	ListAccounts(ctx context.Context, opts ListOpts) ([]*Account, error)

	// GetBalance returns zero when nothing was ever recorded under key.
	GetBalance(ctx context.Context, key BalanceKey) (decimal.Decimal, error)
	SetBalance(ctx context.Context, key BalanceKey, amount decimal.Decimal) error
	ListBalances(ctx context.Context, accountID uuid.UUID) ([]*Balance, error)
}
