package treasury

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/transaction"
)

// ──────────────────────────────────────────────────
// Transaction engine
// ──────────────────────────────────────────────────

// Balance returns the balance of id under scope. A balance that was never
// recorded reads as zero; so does any call that cannot be answered (unknown
// account or currency, unsupported scope, denied actor).
func (t *Treasury) Balance(ctx context.Context, caller string, accountID uuid.UUID, scope Scope) decimal.Decimal {
	bal, err := t.balance(ctx, accountID, scope)
	if err != nil {
		t.logger.Debug("treasury: balance unavailable",
			"caller", caller,
			"account", accountID,
			"world", scope.World,
			"currency", scope.Currency,
			"error", err,
		)
		return decimal.Zero
	}
	return bal
}

// Has reports whether the balance of id under scope is at least amount.
// Negative amounts are a caller error and always report false.
func (t *Treasury) Has(ctx context.Context, caller string, accountID uuid.UUID, amount decimal.Decimal, scope Scope) bool {
	if amount.IsNegative() {
		t.logger.Debug("treasury: has with negative amount",
			"caller", caller,
			"account", accountID,
			"amount", amount,
		)
		return false
	}
	bal, err := t.balance(ctx, accountID, scope)
	if err != nil {
		return false
	}
	return bal.GreaterThanOrEqual(amount)
}

func (t *Treasury) balance(ctx context.Context, accountID uuid.UUID, scope Scope) (decimal.Decimal, error) {
	s, err := t.resolve(scope)
	if err != nil {
		return decimal.Zero, err
	}

	unlock := t.locks.lifecycle.RLock(accountID)
	defer unlock()

	if _, err := t.load(ctx, accountID, s, account.PermBalance); err != nil {
		return decimal.Zero, err
	}
	return t.store.GetBalance(ctx, balanceKey(accountID, s))
}

// Withdraw atomically checks that the balance covers amount and decrements
// it. Insufficient funds yield FAILURE without touching the balance.
func (t *Treasury) Withdraw(ctx context.Context, caller string, accountID uuid.UUID, amount decimal.Decimal, scope Scope) transaction.Response {
	return t.apply(ctx, transaction.OpWithdraw, caller, accountID, amount, scope)
}

// Deposit atomically increments the balance of id by amount.
func (t *Treasury) Deposit(ctx context.Context, caller string, accountID uuid.UUID, amount decimal.Decimal, scope Scope) transaction.Response {
	return t.apply(ctx, transaction.OpDeposit, caller, accountID, amount, scope)
}

func (t *Treasury) apply(
	ctx context.Context,
	op transaction.Operation,
	caller string,
	accountID uuid.UUID,
	amount decimal.Decimal,
	scope Scope,
) transaction.Response {
	resp := newResponse(id.NewTransactionID(), op, caller, accountID, amount, scope)
	resp = t.execute(ctx, resp, scope)
	t.finish(ctx, &resp)
	return resp
}

// execute runs a single-key balance mutation. Every lock is released before
// it returns.
func (t *Treasury) execute(ctx context.Context, resp transaction.Response, scope Scope) transaction.Response {
	s, err := t.resolve(scope)
	resp.Currency = s.Currency
	if err != nil {
		return reject(resp, err)
	}
	if err := checkAmount(resp.Amount); err != nil {
		return resp.Fail(err)
	}

	perm := account.PermDeposit
	if resp.Operation == transaction.OpWithdraw {
		perm = account.PermWithdraw
	}

	unlockLifecycle := t.locks.lifecycle.RLock(resp.Account)
	defer unlockLifecycle()

	if _, err := t.load(ctx, resp.Account, s, perm); err != nil {
		return reject(resp, err)
	}

	key := balanceKey(resp.Account, s)
	unlockBalance := t.locks.balances(key)
	defer unlockBalance()

	bal, err := t.store.GetBalance(ctx, key)
	if err != nil {
		return resp.Fail(t.storeFailure(resp, "get balance", err))
	}
	resp.Balance = bal

	next := bal.Add(resp.Amount)
	if resp.Operation == transaction.OpWithdraw {
		if bal.LessThan(resp.Amount) {
			return resp.Fail(fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, bal, resp.Amount))
		}
		next = bal.Sub(resp.Amount)
	}

	if err := t.store.SetBalance(ctx, key, next); err != nil {
		return resp.Fail(t.storeFailure(resp, "set balance", err))
	}
	return resp.Succeed(next)
}

// load fetches id for a balance call in scope s and authorizes s.Actor for
// perm. World-bound accounts are invisible to other worlds, and banks only
// transact their own currency.
func (t *Treasury) load(ctx context.Context, accountID uuid.UUID, s Scope, perm account.Permission) (*account.Account, error) {
	a, err := t.store.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
		}
		return nil, fmt.Errorf("%w: get account: %w", ErrTransactionFailed, err)
	}
	if !a.VisibleIn(s.World) {
		return nil, fmt.Errorf("%w: %s in world %q", ErrAccountNotFound, accountID, s.World)
	}
	if a.Kind == account.KindBank && a.Currency != "" && a.Currency != s.Currency {
		return nil, fmt.Errorf("%w: bank %s holds only %q", ErrUnsupportedScope, accountID, a.Currency)
	}
	if s.Actor != uuid.Nil && !t.permitted(a, s.Actor, perm) {
		return nil, fmt.Errorf("%w: %s lacks %q on %s", ErrPermissionDenied, s.Actor, perm, accountID)
	}
	return a, nil
}

// finish logs the outcome and hands it to plugins. Callers must not hold any
// ledger lock.
func (t *Treasury) finish(ctx context.Context, resp *transaction.Response) {
	t.logger.Debug("treasury: "+string(resp.Operation),
		"id", resp.ID.String(),
		"caller", resp.Caller,
		"account", resp.Account,
		"currency", resp.Currency,
		"world", resp.World,
		"amount", resp.Amount,
		"balance", resp.Balance,
		"type", resp.Type,
		"message", resp.Message,
	)
	t.plugins.EmitTransaction(ctx, resp)
}

func (t *Treasury) storeFailure(resp transaction.Response, op string, err error) error {
	t.logger.Error("treasury: store failure",
		"op", op,
		"id", resp.ID.String(),
		"caller", resp.Caller,
		"account", resp.Account,
		"error", err,
	)
	return fmt.Errorf("%w: %s: %w", ErrTransactionFailed, op, err)
}

func newResponse(
	txID id.ID,
	op transaction.Operation,
	caller string,
	accountID uuid.UUID,
	amount decimal.Decimal,
	scope Scope,
) transaction.Response {
	return transaction.Response{
		ID:        txID,
		Operation: op,
		Account:   accountID,
		Amount:    amount,
		Currency:  scope.Currency,
		World:     scope.World,
		Caller:    caller,
		Timestamp: time.Now().UTC(),
	}
}

// reject maps err to NOT_IMPLEMENTED for unsupported scopes and FAILURE for
// everything else.
func reject(resp transaction.Response, err error) transaction.Response {
	if IsUnsupported(err) {
		return resp.Unsupported(err)
	}
	return resp.Fail(err)
}

func checkAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ValidationError{Field: "amount", Message: "must not be negative, got " + amount.String(), Err: ErrNegativeAmount}
	}
	return nil
}

func balanceKey(accountID uuid.UUID, s Scope) account.BalanceKey {
	return account.BalanceKey{AccountID: accountID, Currency: s.Currency, World: s.World}
}
