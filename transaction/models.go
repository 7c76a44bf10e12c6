// Package transaction defines the outcome every balance-mutating ledger call
// returns. Outcomes are values, never panics or Go errors: the caller branches
// on Type and may inspect Err for the typed cause of a failure.
package transaction

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/id"
)

// Failure causes carried on Response.Err.
var (
	ErrInsufficientFunds = errors.New("treasury: insufficient funds")
	ErrNegativeAmount    = errors.New("treasury: negative amount")
	ErrPermissionDenied  = errors.New("treasury: permission denied")
)

// Type is the terminal state of a request.
type Type string

const (
	Success        Type = "SUCCESS"
	Failure        Type = "FAILURE"
	NotImplemented Type = "NOT_IMPLEMENTED"
)

type Operation string

const (
	OpDeposit  Operation = "deposit"
	OpWithdraw Operation = "withdraw"
	OpTransfer Operation = "transfer"
)

// Response is the outcome of a deposit, withdrawal or transfer.
type Response struct {
	ID           id.ID           `json:"id"`
	Operation    Operation       `json:"operation"`
	Account      uuid.UUID       `json:"account"`
	Counterparty uuid.UUID       `json:"counterparty,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	// Balance is the account balance after the call; on failure it is the
	// unchanged balance when known and zero otherwise.
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	World     string          `json:"world,omitempty"`
	Type      Type            `json:"type"`
	Message   string          `json:"message,omitempty"`
	Caller    string          `json:"caller,omitempty"`
	Timestamp time.Time       `json:"timestamp"`

	Err error `json:"-"`
}

// Succeeded reports whether the request was applied.
func (r Response) Succeeded() bool { return r.Type == Success }

// Is reports whether the failure cause matches target.
func (r Response) Is(target error) bool { return r.Err != nil && errors.Is(r.Err, target) }

// Fail turns r into a FAILURE carrying err.
func (r Response) Fail(err error) Response {
	r.Type = Failure
	r.Err = err
	r.Message = err.Error()
	return r
}

// Unsupported turns r into a NOT_IMPLEMENTED outcome carrying err.
func (r Response) Unsupported(err error) Response {
	r.Type = NotImplemented
	r.Err = err
	r.Message = err.Error()
	return r
}

// Succeed turns r into a SUCCESS with the resulting balance.
func (r Response) Succeed(balance decimal.Decimal) Response {
	r.Type = Success
	r.Balance = balance
	r.Err = nil
	r.Message = ""
	return r
}
