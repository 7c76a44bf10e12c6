// Package types provides common types used across Treasury.
package types

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an arbitrary-precision amount tagged with the currency code it is
// denominated in. Arithmetic is exact; rounding only happens when a value is
// formatted for display.
//
// Examples:
//   - New(decimal.RequireFromString("49.5"), "coins")
//   - FromInt(100, "gems")
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// New creates a Money value.
func New(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// FromInt creates a Money value from a whole number of units.
func FromInt(units int64, currency string) Money {
	return Money{Amount: decimal.NewFromInt(units), Currency: currency}
}

// Parse creates a Money value from a decimal string such as "12.50".
func Parse(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", amount, err)
	}
	return Money{Amount: d, Currency: currency}, nil
}

// Zero returns a zero Money value in the specified currency.
func Zero(currency string) Money { return Money{Amount: decimal.Zero, Currency: currency} }

// Arithmetic operations

// Add adds two Money values. Panics if currencies don't match.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}
}

// Subtract subtracts another Money value. Panics if currencies don't match.
func (m Money) Subtract(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}
}

// Negate returns the negative of the Money value.
func (m Money) Negate() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// Equal returns true if both values have the same currency and numerically
// equal amounts ("1.50" equals "1.5").
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// LessThan returns true if this Money is less than other. Panics if currencies don't match.
func (m Money) LessThan(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount.LessThan(other.Amount)
}

// GreaterThanOrEqual returns true if this Money covers other. Panics if currencies don't match.
func (m Money) GreaterThanOrEqual(other Money) bool {
	m.assertSameCurrency(other)
	return m.Amount.GreaterThanOrEqual(other.Amount)
}

// Formatting methods

// Round returns the amount rounded to the given number of fractional digits,
// half away from zero. A negative digit count leaves the amount untouched.
func (m Money) Round(digits int) Money {
	if digits < 0 {
		return m
	}
	return Money{Amount: m.Amount.Round(int32(digits)), Currency: m.Currency}
}

// FormatMajor returns the amount with exactly digits fractional digits,
// or the exact amount when digits is negative.
func (m Money) FormatMajor(digits int) string {
	if digits < 0 {
		return m.Amount.String()
	}
	return m.Amount.StringFixed(int32(digits))
}

// String returns the exact amount followed by the currency code.
func (m Money) String() string {
	return m.Amount.String() + " " + m.Currency
}

// MarshalJSON implements json.Marshaler. Amounts are encoded as strings so
// no precision is lost in transit.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}{
		Amount:   m.Amount.String(),
		Currency: m.Currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Amount = raw.Amount
	m.Currency = raw.Currency
	return nil
}

// assertSameCurrency panics if currencies don't match.
func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

// Sum calculates the sum of multiple Money values. All must have the same currency.
func Sum(currency string, values ...Money) Money {
	result := Zero(currency)
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}
