package treasury

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/xraph/treasury/account"
)

// transientGrants holds in-memory permissions that are never persisted and
// vanish on restart, indexed member -> account -> permissions.
type transientGrants struct {
	mu     sync.RWMutex
	grants map[uuid.UUID]map[uuid.UUID]account.PermissionSet
}

func newTransientGrants() *transientGrants {
	return &transientGrants{grants: make(map[uuid.UUID]map[uuid.UUID]account.PermissionSet)}
}

func (g *transientGrants) has(accountID, member uuid.UUID, perm account.Permission) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.grants[member][accountID].Has(perm)
}

func (g *transientGrants) set(accountID, member uuid.UUID, perm account.Permission, value bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	byAccount, ok := g.grants[member]
	if !ok {
		if !value {
			return
		}
		byAccount = make(map[uuid.UUID]account.PermissionSet)
		g.grants[member] = byAccount
	}
	set, ok := byAccount[accountID]
	if !ok {
		set = account.NewPermissionSet()
		byAccount[accountID] = set
	}
	set.Set(perm, value)

	if len(set) == 0 {
		delete(byAccount, accountID)
	}
	if len(byAccount) == 0 {
		delete(g.grants, member)
	}
}

func (g *transientGrants) clearMember(member uuid.UUID) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	for _, set := range g.grants[member] {
		n += len(set)
	}
	delete(g.grants, member)
	return n
}

func (g *transientGrants) clearAccountMember(accountID, member uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.grants[member], accountID)
	if len(g.grants[member]) == 0 {
		delete(g.grants, member)
	}
}

func (g *transientGrants) clearAccount(accountID uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for member, byAccount := range g.grants {
		delete(byAccount, accountID)
		if len(byAccount) == 0 {
			delete(g.grants, member)
		}
	}
}

// ──────────────────────────────────────────────────
// Transient permissions
// ──────────────────────────────────────────────────

// AddTransientPermission grants perm to member on id until it is removed or
// the process exits. Transient grants are only accepted for reachable
// members: an unreachable member yields ErrUnsupportedOperation, distinct
// from false (account missing or shared accounts disabled) and true.
func (t *Treasury) AddTransientPermission(
	ctx context.Context,
	caller string,
	accountID, member uuid.UUID,
	perm account.Permission,
) (bool, error) {
	return t.setTransient(ctx, caller, accountID, member, perm, true)
}

// RemoveTransientPermission drops a transient grant of perm. It follows the
// same reachability rule as AddTransientPermission.
func (t *Treasury) RemoveTransientPermission(
	ctx context.Context,
	caller string,
	accountID, member uuid.UUID,
	perm account.Permission,
) (bool, error) {
	return t.setTransient(ctx, caller, accountID, member, perm, false)
}

func (t *Treasury) setTransient(
	ctx context.Context,
	caller string,
	accountID, member uuid.UUID,
	perm account.Permission,
	value bool,
) (bool, error) {
	if !t.caps.SharedAccounts || member == uuid.Nil {
		return false, nil
	}
	if !t.online(ctx, member) {
		return false, fmt.Errorf("%w: member %s is not reachable", ErrUnsupportedOperation, member)
	}

	unlock := t.locks.lifecycle.RLock(accountID)
	defer unlock()

	if _, err := t.store.GetAccount(ctx, accountID); err != nil {
		return false, nil
	}
	t.transient.set(accountID, member, perm, value)

	t.logger.Debug("treasury: transient permission updated",
		"caller", caller,
		"account", accountID,
		"member", member,
		"permission", perm,
		"value", value,
	)
	return true, nil
}

// ClearTransientPermissions drops every transient grant of member, typically
// when the member disconnects. It returns the number of grants dropped.
func (t *Treasury) ClearTransientPermissions(member uuid.UUID) int {
	return t.transient.clearMember(member)
}

// online consults the explicit Presence, then every registered presence
// provider. With neither configured every member is reachable.
func (t *Treasury) online(ctx context.Context, member uuid.UUID) bool {
	if t.presence != nil {
		return t.presence(ctx, member)
	}
	providers := t.plugins.PresenceProviders()
	if len(providers) == 0 {
		return true
	}
	for _, p := range providers {
		if p.Online(ctx, member) {
			return true
		}
	}
	return false
}
