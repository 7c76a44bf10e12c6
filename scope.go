package treasury

import (
	"fmt"

	"github.com/google/uuid"
)

// Scope narrows a ledger call. The zero Scope addresses the global balance
// in the default currency on behalf of a trusted subsystem.
type Scope struct {
	// World restricts the balance to one logical partition. Empty means global.
	World string `json:"world,omitempty"`

	// Currency is the currency code. Empty means the default currency.
	Currency string `json:"currency,omitempty"`

	// Actor, when set, is authorized against the account's permissions
	// before the call is applied.
	Actor uuid.UUID `json:"actor,omitempty"`
}

// Global returns the unscoped default.
func Global() Scope { return Scope{} }

// InWorld returns a scope bound to world.
func InWorld(world string) Scope { return Scope{World: world} }

// InCurrency returns a global scope for the given currency.
func InCurrency(code string) Scope { return Scope{Currency: code} }

// WithWorld returns a copy of s bound to world.
func (s Scope) WithWorld(world string) Scope {
	s.World = world
	return s
}

// WithCurrency returns a copy of s for the given currency.
func (s Scope) WithCurrency(code string) Scope {
	s.Currency = code
	return s
}

// As returns a copy of s acting on behalf of actor.
func (s Scope) As(actor uuid.UUID) Scope {
	s.Actor = actor
	return s
}

// resolve validates s against the registry and capabilities and fills in the
// default currency. Unsupported scopes come back wrapping ErrUnsupportedScope
// so callers can retry globally.
func (t *Treasury) resolve(s Scope) (Scope, error) {
	if s.World != "" && !t.caps.WorldScopes {
		return s, fmt.Errorf("%w: world %q", ErrUnsupportedScope, s.World)
	}

	def := t.currencies.Default()
	if s.Currency == "" {
		s.Currency = def
	}
	if !t.currencies.Has(s.Currency) {
		return s, fmt.Errorf("%w: %q", ErrUnknownCurrency, s.Currency)
	}
	if s.Currency != def && !t.caps.MultiCurrency {
		return s, fmt.Errorf("%w: currency %q (multi-currency disabled)", ErrUnsupportedScope, s.Currency)
	}
	return s, nil
}
