package treasury

import (
	"errors"
	"fmt"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/currency"
	"github.com/xraph/treasury/transaction"
)

// Sentinel errors for common failure scenarios. Leaf packages own the errors
// their stores return; they are re-exported here under their engine names.
var (
	// Account errors
	ErrAccountNotFound   = account.ErrNotFound
	ErrAlreadyExists     = account.ErrExists
	ErrInvalidAccount    = errors.New("treasury: invalid account id")
	ErrNotBank           = errors.New("treasury: account is not a bank")
	ErrOwnerNotRemovable = errors.New("treasury: owner cannot be removed, transfer ownership first")

	// Currency errors
	ErrUnknownCurrency = currency.ErrUnknown
	ErrCurrencyExists  = currency.ErrExists

	// Transaction errors
	ErrNegativeAmount    = transaction.ErrNegativeAmount
	ErrInsufficientFunds = transaction.ErrInsufficientFunds
	ErrPermissionDenied  = transaction.ErrPermissionDenied
	ErrSelfTransfer      = errors.New("treasury: cannot transfer to the same account")

	// Capability errors
	ErrUnsupportedOperation = errors.New("treasury: unsupported operation")
	ErrUnsupportedScope     = errors.New("treasury: unsupported scope")

	// Store errors
	ErrStoreNotReady     = errors.New("treasury: store not ready")
	ErrTransactionFailed = errors.New("treasury: transaction failed")
	ErrMigrationFailed   = errors.New("treasury: migration failed")
)

// ValidationError represents a validation failure with details. Err, when
// set, is the sentinel the failure matches under errors.Is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("treasury: validation failed for %s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error { return e.Err }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "treasury: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("treasury: %d errors occurred", len(e.Errors))
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrUnknownCurrency)
}

// IsUnsupported returns true if the error maps to a NOT_IMPLEMENTED outcome.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedOperation) ||
		errors.Is(err, ErrUnsupportedScope)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed)
}
