package treasury

import (
	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/currency"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

// Re-export common types for convenience so users don't have to import leaf packages.

// Money is re-exported from types package.
type Money = types.Money

// Entity is re-exported from types package.
type Entity = types.Entity

// Currency is re-exported from currency package.
type Currency = currency.Currency

// Account is re-exported from account package.
type Account = account.Account

// Permission is re-exported from account package.
type Permission = account.Permission

// PermissionSet is re-exported from account package.
type PermissionSet = account.PermissionSet

// Response is re-exported from transaction package.
type Response = transaction.Response

// Re-export permission tags
const (
	PermBalance           = account.PermBalance
	PermDeposit           = account.PermDeposit
	PermWithdraw          = account.PermWithdraw
	PermManageMembers     = account.PermManageMembers
	PermTransferOwnership = account.PermTransferOwnership
	PermAdminister        = account.PermAdminister
)

// Re-export outcome types
const (
	Success        = transaction.Success
	Failure        = transaction.Failure
	NotImplemented = transaction.NotImplemented
)

// Re-export Money constructors
var (
	NewMoney = types.New
	Zero     = types.Zero
	Sum      = types.Sum
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
