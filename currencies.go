package treasury

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/currency"
	"github.com/xraph/treasury/types"
)

// ──────────────────────────────────────────────────
// Currency registry
// ──────────────────────────────────────────────────

// HasCurrency reports whether code is registered.
func (t *Treasury) HasCurrency(code string) bool {
	return t.currencies.Has(code)
}

// Currencies returns every registered currency code in lexical order.
func (t *Treasury) Currencies() []string {
	return t.currencies.Codes()
}

// Currency returns a copy of the currency registered under code.
func (t *Treasury) Currency(code string) (*currency.Currency, bool) {
	return t.currencies.Get(code)
}

// DefaultCurrency returns the code used by unscoped calls.
func (t *Treasury) DefaultCurrency(_ string) string {
	return t.currencies.Default()
}

// DefaultCurrencyNameSingular returns the singular display name of the
// default currency.
func (t *Treasury) DefaultCurrencyNameSingular(_ string) string {
	return t.defaultName(true)
}

// DefaultCurrencyNamePlural returns the plural display name of the default
// currency.
func (t *Treasury) DefaultCurrencyNamePlural(_ string) string {
	return t.defaultName(false)
}

func (t *Treasury) defaultName(singular bool) string {
	c, ok := t.currencies.Get(t.currencies.Default())
	if !ok {
		return ""
	}
	return c.Name(singular)
}

// FractionalDigits returns the display precision of code; an empty code
// means the default currency and an unknown code reports -1.
func (t *Treasury) FractionalDigits(_ string, code string) int {
	return t.currencies.FractionalDigits(code)
}

// Format renders amount in code (empty for the default currency) rounded to
// its fractional digits, half away from zero.
func (t *Treasury) Format(_ string, amount decimal.Decimal, code string) string {
	return t.currencies.Format(amount, code)
}

// FormatMoney renders m like Format.
func (t *Treasury) FormatMoney(caller string, m types.Money) string {
	return t.Format(caller, m.Amount, m.Currency)
}

// RegisterCurrency adds c to the registry, persists it and announces it to
// plugins. Registration is administrative and never runs on the
// transactional hot path.
func (t *Treasury) RegisterCurrency(ctx context.Context, caller string, c *currency.Currency) error {
	if !t.caps.MultiCurrency && t.currencies.Len() > 0 {
		return fmt.Errorf("%w: multi-currency disabled", ErrUnsupportedOperation)
	}
	if err := c.Validate(); err != nil {
		return ValidationError{Field: "currency", Message: err.Error()}
	}

	c.Entity = types.NewEntity()
	if err := t.currencies.Register(c); err != nil {
		return err
	}
	c, _ = t.currencies.Get(c.Code)
	if err := t.store.SaveCurrency(ctx, c); err != nil {
		t.logger.Error("treasury: persist currency failed",
			"caller", caller,
			"code", c.Code,
			"error", err,
		)
		return fmt.Errorf("%w: save currency: %w", ErrTransactionFailed, err)
	}

	t.logger.Debug("treasury: currency registered",
		"caller", caller,
		"code", c.Code,
		"fractional_digits", c.FractionalDigits,
	)
	t.plugins.EmitCurrencyRegistered(ctx, c)
	return nil
}
