package currency

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xraph/treasury/types"
)

var (
	ErrExists  = errors.New("treasury: currency already registered")
	ErrUnknown = errors.New("treasury: unknown currency")
)

// Registry is the authoritative, read-mostly set of currencies. Lookups take
// a read lock only; registration is an administrative operation.
type Registry struct {
	mu         sync.RWMutex
	currencies map[string]*Currency
	defaultCur string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{currencies: make(map[string]*Currency)}
}

// Register adds c. The first registered currency becomes the default until
// SetDefault says otherwise.
func (r *Registry) Register(c *Currency) error {
	if err := c.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.currencies[c.Code]; exists {
		return fmt.Errorf("%w: %s", ErrExists, c.Code)
	}
	cp := *c
	cp.Default = false
	r.currencies[c.Code] = &cp
	if r.defaultCur == "" {
		r.defaultCur = c.Code
	}
	return nil
}

// SetDefault selects the currency used by unscoped calls.
func (r *Registry) SetDefault(code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.currencies[code]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknown, code)
	}
	r.defaultCur = code
	return nil
}

func (r *Registry) Has(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.currencies[code]
	return ok
}

// Get returns a copy of the currency registered under code. Its Default flag
// reflects the registry's current default.
func (r *Registry) Get(code string) (*Currency, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.currencies[code]
	if !ok {
		return nil, false
	}
	cp := *c
	cp.Default = code == r.defaultCur
	return &cp, true
}

// Reset drops every currency and the default.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.currencies = make(map[string]*Currency)
	r.defaultCur = ""
}

// Codes returns every registered code in lexical order.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.currencies))
	for code := range r.currencies {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Default returns the default currency code, or "" for an empty registry.
func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultCur
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.currencies)
}

// FractionalDigits returns the display precision of code. An empty code means
// the default currency; an unknown code reports Unbounded since there is
// nothing to round against.
func (r *Registry) FractionalDigits(code string) int {
	if code == "" {
		code = r.Default()
	}
	c, ok := r.Get(code)
	if !ok {
		return Unbounded
	}
	return c.FractionalDigits
}

// Format renders amount for display as "<amount> <name>". Amounts are rounded
// half away from zero to the currency's fractional digits, which is half-up
// for every non-negative balance. The singular name is used when the rounded
// amount is exactly one.
func (r *Registry) Format(amount decimal.Decimal, code string) string {
	if code == "" {
		code = r.Default()
	}
	c, ok := r.Get(code)
	if !ok {
		return types.New(amount, code).String()
	}

	m := types.New(amount, code).Round(c.FractionalDigits)
	return m.FormatMajor(c.FractionalDigits) + " " + c.Name(m.Amount.Equal(decimal.NewFromInt(1)))
}
