package treasury

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/transaction"
)

// Transfer moves amount from one account to another under the same scope as
// a single atomic step. scope.Actor needs the withdraw permission on from;
// depositing into to needs no permission. The response reports the balance
// of from.
//
// Two transfers over the same pair in opposite directions cannot deadlock:
// lifecycle locks are taken in account id order and balance locks in key
// order, whatever the call order.
func (t *Treasury) Transfer(
	ctx context.Context,
	caller string,
	from, to uuid.UUID,
	amount decimal.Decimal,
	scope Scope,
) transaction.Response {
	resp := newResponse(id.NewTransferID(), transaction.OpTransfer, caller, from, amount, scope)
	resp.Counterparty = to
	resp = t.transfer(ctx, resp, scope)
	t.finish(ctx, &resp)
	return resp
}

func (t *Treasury) transfer(ctx context.Context, resp transaction.Response, scope Scope) transaction.Response {
	s, err := t.resolve(scope)
	resp.Currency = s.Currency
	if err != nil {
		return reject(resp, err)
	}
	if err := checkAmount(resp.Amount); err != nil {
		return resp.Fail(err)
	}
	from, to := resp.Account, resp.Counterparty
	if from == to {
		return resp.Fail(ErrSelfTransfer)
	}

	unlockAccounts := t.locks.sharedAccounts(from, to)
	defer unlockAccounts()

	if _, err := t.load(ctx, from, s, account.PermWithdraw); err != nil {
		return reject(resp, err)
	}
	if _, err := t.load(ctx, to, s.As(uuid.Nil), account.PermDeposit); err != nil {
		return reject(resp, err)
	}

	fromKey, toKey := balanceKey(from, s), balanceKey(to, s)
	unlockBalances := t.locks.balances(fromKey, toKey)
	defer unlockBalances()

	fromBal, err := t.store.GetBalance(ctx, fromKey)
	if err != nil {
		return resp.Fail(t.storeFailure(resp, "get balance", err))
	}
	resp.Balance = fromBal
	if fromBal.LessThan(resp.Amount) {
		return resp.Fail(fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, fromBal, resp.Amount))
	}
	toBal, err := t.store.GetBalance(ctx, toKey)
	if err != nil {
		return resp.Fail(t.storeFailure(resp, "get balance", err))
	}

	next := fromBal.Sub(resp.Amount)
	if err := t.store.SetBalance(ctx, fromKey, next); err != nil {
		return resp.Fail(t.storeFailure(resp, "debit", err))
	}
	if err := t.store.SetBalance(ctx, toKey, toBal.Add(resp.Amount)); err != nil {
		// Restore the debit so the pair stays consistent.
		if rbErr := t.store.SetBalance(ctx, fromKey, fromBal); rbErr != nil {
			t.logger.Error("treasury: transfer rollback failed",
				"id", resp.ID.String(),
				"account", from,
				"balance", fromBal,
				"error", rbErr,
			)
		}
		return resp.Fail(t.storeFailure(resp, "credit", err))
	}
	return resp.Succeed(next)
}
