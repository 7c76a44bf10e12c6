package treasury

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/transaction"
)

// Compile-time interface checks.
var (
	_ Economy = (*Treasury)(nil)
	_ Bank    = (*Treasury)(nil)
)

// Economy is the ledger contract shared by every implementation. Callers
// query the capability methods before relying on optional features; an
// unsupported call answers false or NOT_IMPLEMENTED.
type Economy interface {
	// Capabilities
	Name() string
	IsEnabled() bool
	HasSharedAccountSupport() bool
	HasMultiCurrencySupport() bool
	HasBankSupport() bool
	HasWorldScopeSupport() bool

	// Currencies
	HasCurrency(code string) bool
	Currencies() []string
	DefaultCurrency(caller string) string
	DefaultCurrencyNameSingular(caller string) string
	DefaultCurrencyNamePlural(caller string) string
	FractionalDigits(caller, code string) int
	Format(caller string, amount decimal.Decimal, code string) string

	// Accounts
	CreateAccount(ctx context.Context, caller string, accountID uuid.UUID, name string, scope Scope) bool
	CreateSharedAccount(ctx context.Context, caller string, accountID uuid.UUID, name string, owner uuid.UUID) bool
	HasAccount(ctx context.Context, accountID uuid.UUID, scope Scope) bool
	RenameAccount(ctx context.Context, caller string, accountID uuid.UUID, name string) bool
	AccountName(ctx context.Context, accountID uuid.UUID) (string, bool)
	UUIDNameMap(ctx context.Context, caller string) map[uuid.UUID]string

	// Permissions
	IsAccountOwner(ctx context.Context, caller string, accountID, candidate uuid.UUID) bool
	IsAccountMember(ctx context.Context, caller string, accountID, candidate uuid.UUID) bool
	AddAccountMember(ctx context.Context, caller string, accountID, member uuid.UUID, perms ...account.Permission) bool
	RemoveAccountMember(ctx context.Context, caller string, accountID, member uuid.UUID) bool
	HasAccountPermission(ctx context.Context, caller string, accountID, member uuid.UUID, perm account.Permission) bool
	UpdateAccountPermission(ctx context.Context, caller string, accountID, member uuid.UUID, perm account.Permission, value bool) bool
	SetOwner(ctx context.Context, caller string, accountID, newOwner uuid.UUID) bool

	// Balances
	Balance(ctx context.Context, caller string, accountID uuid.UUID, scope Scope) decimal.Decimal
	Has(ctx context.Context, caller string, accountID uuid.UUID, amount decimal.Decimal, scope Scope) bool
	Withdraw(ctx context.Context, caller string, accountID uuid.UUID, amount decimal.Decimal, scope Scope) transaction.Response
	Deposit(ctx context.Context, caller string, accountID uuid.UUID, amount decimal.Decimal, scope Scope) transaction.Response
}

// Bank is the legacy bank contract. It gains nothing the shared account
// contract does not already provide, apart from deletion.
type Bank interface {
	CreateBank(ctx context.Context, caller string, bankID uuid.UUID, name string, owner uuid.UUID) bool
	DeleteBank(ctx context.Context, caller string, bankID uuid.UUID) bool
	HasBankAccount(ctx context.Context, bankID uuid.UUID) bool
	BankAccountName(ctx context.Context, bankID uuid.UUID) (string, bool)
	RenameBankAccount(ctx context.Context, caller string, bankID uuid.UUID, name string) bool
	BankSupportsCurrency(ctx context.Context, bankID uuid.UUID, code string) bool
	BankBalance(ctx context.Context, caller string, bankID uuid.UUID) decimal.Decimal
	BankHas(ctx context.Context, caller string, bankID uuid.UUID, amount decimal.Decimal) bool
	BankWithdraw(ctx context.Context, caller string, bankID uuid.UUID, amount decimal.Decimal) transaction.Response
	BankDeposit(ctx context.Context, caller string, bankID uuid.UUID, amount decimal.Decimal) transaction.Response
	IsBankOwner(ctx context.Context, caller string, bankID, candidate uuid.UUID) bool
	IsBankMember(ctx context.Context, caller string, bankID, candidate uuid.UUID) bool
	Banks(ctx context.Context, caller string) []uuid.UUID
	BankUUIDNameMap(ctx context.Context, caller string) map[uuid.UUID]string
}
