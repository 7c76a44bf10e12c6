// Package account defines ledger accounts, their balance keys and the
// member capability sets that govern shared access.
package account

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/types"
)

var (
	ErrNotFound = errors.New("treasury: account not found")
	ErrExists   = errors.New("treasury: account already exists")
)

type Kind string

const (
	KindPersonal Kind = "personal"
	KindShared   Kind = "shared"
	KindBank     Kind = "bank"
)

// Account is a named, uniquely identified ledger entity. Balances are stored
// separately under BalanceKey so that a rename or membership change never
// touches money.
type Account struct {
	types.Entity
	ID      uuid.UUID                   `json:"id"`
	Name    string                      `json:"name"`
	Kind    Kind                        `json:"kind"`
	World   string                      `json:"world,omitempty"`
	Owner   uuid.UUID                   `json:"owner"`
	Members map[uuid.UUID]PermissionSet `json:"members,omitempty"`

	// Currency is the single implicit currency of a bank account.
	Currency string `json:"currency,omitempty"`
}

// Clone returns a deep copy of a. Stores hand out clones so that callers
// never share a member map with another goroutine.
func (a *Account) Clone() *Account {
	cp := *a
	cp.Members = make(map[uuid.UUID]PermissionSet, len(a.Members))
	for m, perms := range a.Members {
		cp.Members[m] = perms.Clone()
	}
	return &cp
}

// HasOwner reports whether an owner is set.
func (a *Account) HasOwner() bool { return a.Owner != uuid.Nil }

func (a *Account) IsOwner(candidate uuid.UUID) bool {
	return candidate != uuid.Nil && a.Owner == candidate
}

// IsMember reports whether candidate is the owner or an explicit member.
func (a *Account) IsMember(candidate uuid.UUID) bool {
	if a.IsOwner(candidate) {
		return true
	}
	_, ok := a.Members[candidate]
	return ok
}

// HasPermission reports whether member holds perm. The owner implicitly holds
// every capability, including ones that did not exist when it was granted.
func (a *Account) HasPermission(member uuid.UUID, perm Permission) bool {
	if a.IsOwner(member) {
		return true
	}
	return a.Members[member].Has(perm)
}

// VisibleIn reports whether the account can be addressed from world. Global
// accounts are visible everywhere; a world-bound account only in its own
// world and in the global scope.
func (a *Account) VisibleIn(world string) bool {
	return a.World == "" || world == "" || a.World == world
}

// BalanceKey identifies one balance: an account, a currency and an optional
// world partition ("" is the global scope).
type BalanceKey struct {
	AccountID uuid.UUID `json:"account_id"`
	Currency  string    `json:"currency"`
	World     string    `json:"world,omitempty"`
}

// String renders the key with the currency and world quoted, so distinct keys
// never render alike whatever characters their parts contain.
func (k BalanceKey) String() string {
	return fmt.Sprintf("%s/%q/%q", k.AccountID, k.Currency, k.World)
}

// Less orders keys by account, then currency, then world.
func (k BalanceKey) Less(other BalanceKey) bool {
	if c := compareUUID(k.AccountID, other.AccountID); c != 0 {
		return c < 0
	}
	if k.Currency != other.Currency {
		return k.Currency < other.Currency
	}
	return k.World < other.World
}

// Balance is a stored amount under a key.
type Balance struct {
	Key       BalanceKey      `json:"key"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ListOpts filters and pages ListAccounts. Results are ordered by ID. After
// resumes a listing strictly past the given ID, so pages stay stable while
// accounts are created or deleted; Offset is applied after it.
type ListOpts struct {
	Kind   Kind
	After  uuid.UUID
	Limit  int
	Offset int
}

// CompareIDs orders account identifiers bytewise. Multi-account operations
// acquire locks in this order.
func CompareIDs(a, b uuid.UUID) int { return compareUUID(a, b) }

func compareUUID(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) }
