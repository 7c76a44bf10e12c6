// Package plugin provides an extensible plugin system for Treasury.
// Plugins can hook into account, membership and transaction events to extend
// functionality. Hooks run after the ledger has released its locks, so a
// plugin observes committed state and can never stall a balance key.
package plugin

import (
	"context"

	"github.com/google/uuid"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/currency"
	"github.com/xraph/treasury/transaction"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, t any) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Account lifecycle hooks
// ──────────────────────────────────────────────────

// OnAccountCreated is called after any account, shared account or bank is created.
type OnAccountCreated interface {
	Plugin
	OnAccountCreated(ctx context.Context, a *account.Account) error
}

// OnAccountRenamed is called after an account's display name changes.
type OnAccountRenamed interface {
	Plugin
	OnAccountRenamed(ctx context.Context, a *account.Account, oldName string) error
}

// OnAccountDeleted is called after a bank is deleted.
type OnAccountDeleted interface {
	Plugin
	OnAccountDeleted(ctx context.Context, accountID uuid.UUID) error
}

// ──────────────────────────────────────────────────
// Membership hooks
// ──────────────────────────────────────────────────

// OnMemberAdded is called when a member joins an account.
type OnMemberAdded interface {
	Plugin
	OnMemberAdded(ctx context.Context, accountID, member uuid.UUID, perms account.PermissionSet) error
}

// OnMemberRemoved is called when a member leaves an account.
type OnMemberRemoved interface {
	Plugin
	OnMemberRemoved(ctx context.Context, accountID, member uuid.UUID) error
}

// OnPermissionUpdated is called when a single capability is granted or revoked.
type OnPermissionUpdated interface {
	Plugin
	OnPermissionUpdated(ctx context.Context, accountID, member uuid.UUID, perm account.Permission, value bool) error
}

// OnOwnerChanged is called after ownership moves to a new identity.
type OnOwnerChanged interface {
	Plugin
	OnOwnerChanged(ctx context.Context, accountID, oldOwner, newOwner uuid.UUID) error
}

// ──────────────────────────────────────────────────
// Transaction hooks
// ──────────────────────────────────────────────────

// OnTransaction is called with the outcome of every deposit, withdrawal and
// transfer, whatever its type.
type OnTransaction interface {
	Plugin
	OnTransaction(ctx context.Context, r *transaction.Response) error
}

// ──────────────────────────────────────────────────
// Currency hooks
// ──────────────────────────────────────────────────

// OnCurrencyRegistered is called when a currency joins the registry.
type OnCurrencyRegistered interface {
	Plugin
	OnCurrencyRegistered(ctx context.Context, c *currency.Currency) error
}

// ──────────────────────────────────────────────────
// Presence providers
// ──────────────────────────────────────────────────

// PresenceProvider tells the ledger whether a member is currently reachable.
// Transient permission grants are only accepted for reachable members.
type PresenceProvider interface {
	Plugin
	Online(ctx context.Context, member uuid.UUID) bool
}
