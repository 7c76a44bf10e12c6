package treasury

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/types"
)

// listPageSize bounds a single ListAccounts call during enumeration.
const listPageSize = 500

// ──────────────────────────────────────────────────
// Account store
// ──────────────────────────────────────────────────

// CreateAccount creates a personal account owned by id and seeds a zero
// balance in the default currency. A non-empty scope.World binds the
// account to that world. It returns false when id already exists, so
// repeated calls never create a second account.
func (t *Treasury) CreateAccount(ctx context.Context, caller string, accountID uuid.UUID, name string, scope Scope) bool {
	if scope.World != "" && !t.caps.WorldScopes {
		return false
	}
	return t.createAccount(ctx, caller, &account.Account{
		ID:    accountID,
		Name:  name,
		Kind:  account.KindPersonal,
		World: scope.World,
		Owner: accountID,
	})
}

// CreateSharedAccount creates an account owned by owner. The owner holds
// every permission implicitly.
func (t *Treasury) CreateSharedAccount(ctx context.Context, caller string, accountID uuid.UUID, name string, owner uuid.UUID) bool {
	if !t.caps.SharedAccounts || owner == uuid.Nil {
		return false
	}
	return t.createAccount(ctx, caller, &account.Account{
		ID:    accountID,
		Name:  name,
		Kind:  account.KindShared,
		Owner: owner,
	})
}

// createAccount persists a and its zero balance under the exclusive
// lifecycle lock of a.ID.
func (t *Treasury) createAccount(ctx context.Context, caller string, a *account.Account) bool {
	if a.ID == uuid.Nil {
		t.logger.Debug("treasury: create account refused",
			"caller", caller,
			"kind", a.Kind,
			"error", ErrInvalidAccount,
		)
		return false
	}
	if a.Members == nil {
		a.Members = make(map[uuid.UUID]account.PermissionSet)
	}
	a.Entity = types.NewEntity()

	seed := account.BalanceKey{AccountID: a.ID, Currency: t.currencies.Default()}
	if a.Kind == account.KindBank {
		seed.Currency = a.Currency
	}

	unlock := t.locks.lifecycle.Lock(a.ID)
	err := t.store.CreateAccount(ctx, a)
	if err == nil {
		// A missing seed row still reads as zero; the account exists either way.
		if seedErr := t.store.SetBalance(ctx, seed, decimal.Zero); seedErr != nil {
			t.logger.Warn("treasury: seed balance failed",
				"caller", caller,
				"account", a.ID,
				"error", seedErr,
			)
		}
	}
	unlock()

	if err != nil {
		if !errors.Is(err, ErrAlreadyExists) {
			t.logger.Error("treasury: create account failed",
				"caller", caller,
				"account", a.ID,
				"kind", a.Kind,
				"error", err,
			)
		}
		return false
	}

	t.logger.Debug("treasury: account created",
		"caller", caller,
		"account", a.ID,
		"kind", a.Kind,
		"world", a.World,
	)
	t.plugins.EmitAccountCreated(ctx, a.Clone())
	return true
}

// HasAccount reports whether id exists and is visible in scope.World.
func (t *Treasury) HasAccount(ctx context.Context, accountID uuid.UUID, scope Scope) bool {
	if scope.World != "" && !t.caps.WorldScopes {
		return false
	}
	unlock := t.locks.lifecycle.RLock(accountID)
	defer unlock()

	a, err := t.store.GetAccount(ctx, accountID)
	return err == nil && a.VisibleIn(scope.World)
}

// Account returns a snapshot of the account for tooling. The snapshot is a
// copy; mutating it has no effect on the ledger.
func (t *Treasury) Account(ctx context.Context, accountID uuid.UUID) (*account.Account, error) {
	unlock := t.locks.lifecycle.RLock(accountID)
	defer unlock()

	return t.store.GetAccount(ctx, accountID)
}

// RenameAccount changes the display name of id. Balances, ownership and
// membership are untouched.
func (t *Treasury) RenameAccount(ctx context.Context, caller string, accountID uuid.UUID, name string) bool {
	return t.rename(ctx, caller, accountID, name, false)
}

func (t *Treasury) rename(ctx context.Context, caller string, accountID uuid.UUID, name string, bankOnly bool) bool {
	var oldName string
	updated, ok := t.mutateRecord(ctx, caller, "rename", accountID, func(a *account.Account) bool {
		if bankOnly && a.Kind != account.KindBank {
			return false
		}
		oldName = a.Name
		a.Name = name
		return true
	})
	if !ok {
		return false
	}

	t.plugins.EmitAccountRenamed(ctx, updated, oldName)
	return true
}

// AccountName returns the last known name of id.
func (t *Treasury) AccountName(ctx context.Context, accountID uuid.UUID) (string, bool) {
	a, err := t.Account(ctx, accountID)
	if err != nil {
		return "", false
	}
	return a.Name, true
}

// UUIDNameMap returns the last known name of every account, banks and
// zero-balance accounts included.
func (t *Treasury) UUIDNameMap(ctx context.Context, caller string) map[uuid.UUID]string {
	return t.nameMap(ctx, caller, "")
}

func (t *Treasury) nameMap(ctx context.Context, caller string, kind account.Kind) map[uuid.UUID]string {
	accounts, err := t.listAll(ctx, kind)
	if err != nil {
		t.logger.Error("treasury: enumerate accounts failed",
			"caller", caller,
			"kind", kind,
			"error", err,
		)
	}

	names := make(map[uuid.UUID]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.Name
	}
	return names
}

// listAll pages through every account of kind ("" for all kinds).
func (t *Treasury) listAll(ctx context.Context, kind account.Kind) ([]*account.Account, error) {
	return listAccounts(ctx, t.store, kind)
}

func listAccounts(ctx context.Context, s account.Store, kind account.Kind) ([]*account.Account, error) {
	var all []*account.Account
	after := uuid.Nil
	for {
		page, err := s.ListAccounts(ctx, account.ListOpts{Kind: kind, After: after, Limit: listPageSize})
		if err != nil {
			return all, err
		}
		all = append(all, page...)
		if len(page) < listPageSize {
			return all, nil
		}
		after = page[len(page)-1].ID
	}
}

// mutateRecord loads id, applies fn and stores the result while holding the
// shared lifecycle lock and the exclusive record lock of the account. fn
// returns false to abort without writing. The updated snapshot is returned
// for hook emission after the locks are released.
func (t *Treasury) mutateRecord(
	ctx context.Context,
	caller, op string,
	accountID uuid.UUID,
	fn func(a *account.Account) bool,
) (*account.Account, bool) {
	unlockLifecycle := t.locks.lifecycle.RLock(accountID)
	defer unlockLifecycle()
	unlockRecord := t.locks.record.Lock(accountID)
	defer unlockRecord()

	a, err := t.store.GetAccount(ctx, accountID)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			t.logger.Error("treasury: load account failed",
				"caller", caller,
				"op", op,
				"account", accountID,
				"error", err,
			)
		}
		return nil, false
	}
	if a.Members == nil {
		a.Members = make(map[uuid.UUID]account.PermissionSet)
	}

	if !fn(a) {
		return nil, false
	}

	a.Touch()
	if err := t.store.UpdateAccount(ctx, a); err != nil {
		t.logger.Error("treasury: update account failed",
			"caller", caller,
			"op", op,
			"account", accountID,
			"error", err,
		)
		return nil, false
	}

	t.logger.Debug("treasury: account updated",
		"caller", caller,
		"op", op,
		"account", accountID,
	)
	return a.Clone(), true
}
