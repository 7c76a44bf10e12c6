// Package currency holds the currency model and the in-process registry that
// answers validity, precision and display questions for the ledger.
package currency

import (
	"fmt"
	"strings"

	"github.com/xraph/treasury/types"
)

// Unbounded marks a currency whose amounts are never rounded for display.
const Unbounded = -1

type Currency struct {
	types.Entity
	Code             string `json:"code"`
	FractionalDigits int    `json:"fractional_digits"`
	Singular         string `json:"singular"`
	Plural           string `json:"plural"`

	// Default marks the currency unscoped calls use. Stores persist it so a
	// restart without configuration keeps the same default.
	Default bool `json:"default,omitempty"`
}

// Validate reports the first structural problem with c, if any.
func (c *Currency) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("currency: code is required")
	}
	if c.FractionalDigits < Unbounded {
		return fmt.Errorf("currency %q: fractional digits must be >= -1, got %d", c.Code, c.FractionalDigits)
	}
	return nil
}

// Name returns the display name for a count, falling back to the code when a
// name was never configured.
func (c *Currency) Name(singular bool) string {
	name := c.Plural
	if singular {
		name = c.Singular
	}
	if name == "" {
		return c.Code
	}
	return name
}
