package treasury

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/transaction"
)

// ──────────────────────────────────────────────────
// Legacy bank ledger
//
// Banks are accounts of kind bank that hold a single currency. Every bank
// operation is a thin projection over the account store, the permission
// matrix and the transaction engine; DeleteBank is the only deletion path
// the ledger exposes.
// ──────────────────────────────────────────────────

// CreateBank creates a bank in the default currency. owner may be uuid.Nil
// for a server-owned bank.
func (t *Treasury) CreateBank(ctx context.Context, caller string, bankID uuid.UUID, name string, owner uuid.UUID) bool {
	return t.CreateBankWithCurrency(ctx, caller, bankID, name, owner, "")
}

// CreateBankWithCurrency creates a bank holding code ("" for the default).
func (t *Treasury) CreateBankWithCurrency(ctx context.Context, caller string, bankID uuid.UUID, name string, owner uuid.UUID, code string) bool {
	if !t.caps.Banks {
		return false
	}
	s, err := t.resolve(Scope{Currency: code})
	if err != nil {
		t.logger.Debug("treasury: create bank rejected",
			"caller", caller,
			"bank", bankID,
			"currency", code,
			"error", err,
		)
		return false
	}
	return t.createAccount(ctx, caller, &account.Account{
		ID:       bankID,
		Name:     name,
		Kind:     account.KindBank,
		Owner:    owner,
		Currency: s.Currency,
	})
}

// DeleteBank removes the bank, its members and every balance it held.
func (t *Treasury) DeleteBank(ctx context.Context, caller string, bankID uuid.UUID) bool {
	if !t.caps.Banks {
		return false
	}

	unlock := t.locks.lifecycle.Lock(bankID)
	err := t.deleteBank(ctx, bankID)
	unlock()

	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) && !errors.Is(err, ErrNotBank) {
			t.logger.Error("treasury: delete bank failed",
				"caller", caller,
				"bank", bankID,
				"error", err,
			)
		}
		return false
	}

	t.transient.clearAccount(bankID)
	t.logger.Debug("treasury: bank deleted",
		"caller", caller,
		"bank", bankID,
	)
	t.plugins.EmitAccountDeleted(ctx, bankID)
	return true
}

func (t *Treasury) deleteBank(ctx context.Context, bankID uuid.UUID) error {
	a, err := t.store.GetAccount(ctx, bankID)
	if err != nil {
		return err
	}
	if a.Kind != account.KindBank {
		return ErrNotBank
	}
	return t.store.DeleteAccount(ctx, bankID)
}

// HasBankAccount reports whether bankID exists and is a bank.
func (t *Treasury) HasBankAccount(ctx context.Context, bankID uuid.UUID) bool {
	_, ok := t.bank(ctx, bankID)
	return ok
}

// BankAccountName returns the last known name of the bank.
func (t *Treasury) BankAccountName(ctx context.Context, bankID uuid.UUID) (string, bool) {
	b, ok := t.bank(ctx, bankID)
	if !ok {
		return "", false
	}
	return b.Name, true
}

// RenameBankAccount changes the display name of a bank.
func (t *Treasury) RenameBankAccount(ctx context.Context, caller string, bankID uuid.UUID, name string) bool {
	if !t.caps.Banks {
		return false
	}
	return t.rename(ctx, caller, bankID, name, true)
}

// BankSupportsCurrency reports whether the bank holds code.
func (t *Treasury) BankSupportsCurrency(ctx context.Context, bankID uuid.UUID, code string) bool {
	b, ok := t.bank(ctx, bankID)
	return ok && b.Currency == code
}

// BankBalance returns the balance of the bank in its currency.
func (t *Treasury) BankBalance(ctx context.Context, caller string, bankID uuid.UUID) decimal.Decimal {
	b, ok := t.bank(ctx, bankID)
	if !ok {
		return decimal.Zero
	}
	return t.Balance(ctx, caller, bankID, Scope{Currency: b.Currency})
}

// BankHas reports whether the bank holds at least amount.
func (t *Treasury) BankHas(ctx context.Context, caller string, bankID uuid.UUID, amount decimal.Decimal) bool {
	b, ok := t.bank(ctx, bankID)
	if !ok {
		return false
	}
	return t.Has(ctx, caller, bankID, amount, Scope{Currency: b.Currency})
}

// BankWithdraw withdraws amount from the bank.
func (t *Treasury) BankWithdraw(ctx context.Context, caller string, bankID uuid.UUID, amount decimal.Decimal) transaction.Response {
	return t.bankApply(ctx, transaction.OpWithdraw, caller, bankID, amount)
}

// BankDeposit deposits amount into the bank.
func (t *Treasury) BankDeposit(ctx context.Context, caller string, bankID uuid.UUID, amount decimal.Decimal) transaction.Response {
	return t.bankApply(ctx, transaction.OpDeposit, caller, bankID, amount)
}

func (t *Treasury) bankApply(
	ctx context.Context,
	op transaction.Operation,
	caller string,
	bankID uuid.UUID,
	amount decimal.Decimal,
) transaction.Response {
	if !t.caps.Banks {
		resp := newResponse(id.NewTransactionID(), op, caller, bankID, amount, Scope{})
		resp = resp.Unsupported(fmt.Errorf("%w: banks disabled", ErrUnsupportedOperation))
		t.finish(ctx, &resp)
		return resp
	}
	b, ok := t.bank(ctx, bankID)
	if !ok {
		resp := newResponse(id.NewTransactionID(), op, caller, bankID, amount, Scope{})
		resp = resp.Fail(fmt.Errorf("%w: bank %s", ErrAccountNotFound, bankID))
		t.finish(ctx, &resp)
		return resp
	}
	return t.apply(ctx, op, caller, bankID, amount, Scope{Currency: b.Currency})
}

// IsBankOwner reports whether candidate owns the bank.
func (t *Treasury) IsBankOwner(ctx context.Context, _ string, bankID, candidate uuid.UUID) bool {
	b, ok := t.bank(ctx, bankID)
	return ok && b.IsOwner(candidate)
}

// IsBankMember reports whether candidate is a member of the bank. The owner
// counts as a member.
func (t *Treasury) IsBankMember(ctx context.Context, _ string, bankID, candidate uuid.UUID) bool {
	b, ok := t.bank(ctx, bankID)
	return ok && b.IsMember(candidate)
}

// Banks returns the id of every bank.
func (t *Treasury) Banks(ctx context.Context, caller string) []uuid.UUID {
	if !t.caps.Banks {
		return nil
	}
	banks, err := t.listAll(ctx, account.KindBank)
	if err != nil {
		t.logger.Error("treasury: enumerate banks failed",
			"caller", caller,
			"error", err,
		)
	}
	ids := make([]uuid.UUID, 0, len(banks))
	for _, b := range banks {
		ids = append(ids, b.ID)
	}
	return ids
}

// BankUUIDNameMap returns the last known name of every bank.
func (t *Treasury) BankUUIDNameMap(ctx context.Context, caller string) map[uuid.UUID]string {
	if !t.caps.Banks {
		return map[uuid.UUID]string{}
	}
	return t.nameMap(ctx, caller, account.KindBank)
}

// bank loads bankID when banks are enabled and the account is a bank.
func (t *Treasury) bank(ctx context.Context, bankID uuid.UUID) (*account.Account, bool) {
	if !t.caps.Banks {
		return nil, false
	}
	a, err := t.Account(ctx, bankID)
	if err != nil || a.Kind != account.KindBank {
		return nil, false
	}
	return a, true
}
