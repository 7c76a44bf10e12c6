package treasury

import (
	"context"

	"github.com/google/uuid"

	"github.com/xraph/treasury/account"
)

// ──────────────────────────────────────────────────
// Permission matrix
// ──────────────────────────────────────────────────

// IsAccountOwner reports whether candidate owns id.
func (t *Treasury) IsAccountOwner(ctx context.Context, _ string, accountID, candidate uuid.UUID) bool {
	a, err := t.Account(ctx, accountID)
	return err == nil && a.IsOwner(candidate)
}

// IsAccountMember reports whether candidate is a member of id. The owner
// counts as a member.
func (t *Treasury) IsAccountMember(ctx context.Context, _ string, accountID, candidate uuid.UUID) bool {
	a, err := t.Account(ctx, accountID)
	return err == nil && a.IsMember(candidate)
}

// HasAccountPermission reports whether member holds perm on id, either
// through the stored grant, a transient grant or ownership.
func (t *Treasury) HasAccountPermission(ctx context.Context, _ string, accountID, member uuid.UUID, perm account.Permission) bool {
	a, err := t.Account(ctx, accountID)
	if err != nil {
		return false
	}
	return t.permitted(a, member, perm)
}

func (t *Treasury) permitted(a *account.Account, member uuid.UUID, perm account.Permission) bool {
	return a.HasPermission(member, perm) || t.transient.has(a.ID, member, perm)
}

// AddAccountMember makes member a member of id holding exactly perms. It
// returns false when the account does not exist, member is the owner or
// already a member, or shared accounts are disabled.
func (t *Treasury) AddAccountMember(ctx context.Context, caller string, accountID, member uuid.UUID, perms ...account.Permission) bool {
	if !t.caps.SharedAccounts || member == uuid.Nil {
		return false
	}

	granted := account.NewPermissionSet(perms...)
	_, ok := t.mutateRecord(ctx, caller, "add_member", accountID, func(a *account.Account) bool {
		if a.IsOwner(member) {
			return false
		}
		if _, exists := a.Members[member]; exists {
			return false
		}
		a.Members[member] = granted.Clone()
		return true
	})
	if !ok {
		return false
	}

	t.plugins.EmitMemberAdded(ctx, accountID, member, granted)
	return true
}

// RemoveAccountMember revokes every permission and the membership of member.
// The owner cannot be removed this way; transfer ownership with SetOwner
// first.
func (t *Treasury) RemoveAccountMember(ctx context.Context, caller string, accountID, member uuid.UUID) bool {
	if !t.caps.SharedAccounts {
		return false
	}

	_, ok := t.mutateRecord(ctx, caller, "remove_member", accountID, func(a *account.Account) bool {
		if a.IsOwner(member) {
			t.logger.Debug("treasury: remove member refused",
				"caller", caller,
				"account", accountID,
				"member", member,
				"error", ErrOwnerNotRemovable,
			)
			return false
		}
		if _, exists := a.Members[member]; !exists {
			return false
		}
		delete(a.Members, member)
		return true
	})
	if !ok {
		return false
	}

	t.transient.clearAccountMember(accountID, member)
	t.plugins.EmitMemberRemoved(ctx, accountID, member)
	return true
}

// UpdateAccountPermission sets or clears one permission of an existing
// member. Owners always hold every permission, so updating the owner is a
// no-op that reports true.
func (t *Treasury) UpdateAccountPermission(
	ctx context.Context,
	caller string,
	accountID, member uuid.UUID,
	perm account.Permission,
	value bool,
) bool {
	if !t.caps.SharedAccounts {
		return false
	}

	var ownerUpdate bool
	_, ok := t.mutateRecord(ctx, caller, "update_permission", accountID, func(a *account.Account) bool {
		if a.IsOwner(member) {
			ownerUpdate = true
			return false
		}
		set, exists := a.Members[member]
		if !exists {
			return false
		}
		if set == nil {
			set = account.NewPermissionSet()
			a.Members[member] = set
		}
		set.Set(perm, value)
		return true
	})
	if ownerUpdate {
		return true
	}
	if !ok {
		return false
	}

	t.plugins.EmitPermissionUpdated(ctx, accountID, member, perm, value)
	return true
}

// SetOwner transfers ownership of id to newOwner. The previous owner stays
// on as a member with no permissions; newOwner leaves the member table since
// ownership implies every permission.
func (t *Treasury) SetOwner(ctx context.Context, caller string, accountID, newOwner uuid.UUID) bool {
	if !t.caps.SharedAccounts || newOwner == uuid.Nil {
		return false
	}

	var oldOwner uuid.UUID
	var changed bool
	_, ok := t.mutateRecord(ctx, caller, "set_owner", accountID, func(a *account.Account) bool {
		oldOwner = a.Owner
		if oldOwner == newOwner {
			return false
		}
		if oldOwner != uuid.Nil {
			a.Members[oldOwner] = account.NewPermissionSet()
		}
		delete(a.Members, newOwner)
		a.Owner = newOwner
		changed = true
		return true
	})
	if !ok {
		// Re-asserting the current owner succeeds without a write.
		return !changed && oldOwner == newOwner
	}

	t.plugins.EmitOwnerChanged(ctx, accountID, oldOwner, newOwner)
	return true
}
