package treasury

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/treasury/currency"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/store"
)

// DefaultName is the name Treasury reports when none is configured.
const DefaultName = "treasury"

// Capabilities is the fixed feature contract of a Treasury instance. Callers
// query it before invoking an operation the instance may not support;
// unsupported operations answer false or NOT_IMPLEMENTED, never panic.
type Capabilities struct {
	SharedAccounts bool `json:"shared_accounts"`
	MultiCurrency  bool `json:"multi_currency"`
	Banks          bool `json:"banks"`
	WorldScopes    bool `json:"world_scopes"`
}

// AllCapabilities enables every optional feature. It is the default.
func AllCapabilities() Capabilities {
	return Capabilities{
		SharedAccounts: true,
		MultiCurrency:  true,
		Banks:          true,
		WorldScopes:    true,
	}
}

// Presence reports whether member is currently reachable. It overrides any
// plugin.PresenceProvider when set with WithPresence.
type Presence func(ctx context.Context, member uuid.UUID) bool

// DefaultCurrency returns the currency seeded when nothing else is configured.
func DefaultCurrency() *currency.Currency {
	return &currency.Currency{
		Code:             "coins",
		FractionalDigits: 2,
		Singular:         "Coin",
		Plural:           "Coins",
	}
}

// Treasury is the ledger engine.
type Treasury struct {
	store      store.Store
	currencies *currency.Registry
	plugins    *plugin.Registry
	logger     *slog.Logger

	name      string
	caps      Capabilities
	presence  Presence
	locks     *ledgerLocks
	transient *transientGrants
	migrate   bool
	seeded    bool
	enabled   atomic.Bool
}

// New creates a new Treasury instance.
func New(s store.Store, opts ...Option) *Treasury {
	t := &Treasury{
		store:      s,
		currencies: currency.NewRegistry(),
		plugins:    plugin.NewRegistry(),
		logger:     slog.Default(),
		name:       DefaultName,
		caps:       AllCapabilities(),
		locks:      newLedgerLocks(),
		transient:  newTransientGrants(),
		migrate:    true,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.currencies.Len() == 0 {
		_ = t.currencies.Register(DefaultCurrency()) //nolint:errcheck // seed into an empty registry cannot collide
		t.seeded = true
	}

	return t
}

// Option configures a Treasury instance.
type Option func(*Treasury)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Treasury) {
		t.logger = logger
		t.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(t *Treasury) {
		_ = t.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds every plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(t *Treasury) {
		t.plugins.WithTimeout(d)
	}
}

// WithName sets the name reported by Name.
func WithName(name string) Option {
	return func(t *Treasury) {
		t.name = name
	}
}

// WithCapabilities replaces the capability set.
func WithCapabilities(caps Capabilities) Option {
	return func(t *Treasury) {
		t.caps = caps
	}
}

// WithCurrency registers an additional currency. The first registered
// currency becomes the default unless WithDefaultCurrency says otherwise.
func WithCurrency(c *currency.Currency) Option {
	return func(t *Treasury) {
		if err := t.currencies.Register(c); err != nil {
			t.logger.Warn("treasury: currency option ignored", "code", c.Code, "error", err)
		}
	}
}

// WithDefaultCurrency registers c and makes it the default currency.
func WithDefaultCurrency(c *currency.Currency) Option {
	return func(t *Treasury) {
		if !t.currencies.Has(c.Code) {
			if err := t.currencies.Register(c); err != nil {
				t.logger.Warn("treasury: default currency option ignored", "code", c.Code, "error", err)
				return
			}
		}
		_ = t.currencies.SetDefault(c.Code) //nolint:errcheck // registered above
	}
}

// WithoutMigrate skips store migration in Start, for deployments that
// manage the schema out of band.
func WithoutMigrate() Option {
	return func(t *Treasury) { t.migrate = false }
}

// WithPresence sets the reachability check used by transient grants.
func WithPresence(p Presence) Option {
	return func(t *Treasury) {
		t.presence = p
	}
}

// Start migrates the store, reconciles the currency registry with the
// persisted currency table and initializes plugins.
func (t *Treasury) Start(ctx context.Context) error {
	if t.migrate {
		if err := t.store.Migrate(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}
	}

	if err := t.syncCurrencies(ctx); err != nil {
		return err
	}

	// Initialize plugins
	t.plugins.EmitInit(ctx, t)
	t.enabled.Store(true)

	t.logger.Info("treasury started",
		"name", t.name,
		"default_currency", t.currencies.Default(),
		"currencies", t.currencies.Codes(),
		"shared_accounts", t.caps.SharedAccounts,
		"multi_currency", t.caps.MultiCurrency,
		"banks", t.caps.Banks,
		"world_scopes", t.caps.WorldScopes,
		"plugins", t.plugins.Count(),
	)

	return nil
}

// syncCurrencies loads persisted currencies into the registry and persists
// configured ones the store has not seen yet. When no currency was
// configured the store's table and its default replace the seeded one;
// otherwise the configured default wins and is written back.
func (t *Treasury) syncCurrencies(ctx context.Context) error {
	stored, err := t.store.ListCurrencies(ctx)
	if err != nil {
		return fmt.Errorf("%w: list currencies: %w", ErrStoreNotReady, err)
	}

	adopt := t.seeded && len(stored) > 0
	if adopt {
		t.currencies.Reset()
	}

	persisted := make(map[string]*currency.Currency, len(stored))
	storedDefault := ""
	for _, c := range stored {
		persisted[c.Code] = c
		if c.Default {
			storedDefault = c.Code
		}
		if t.currencies.Has(c.Code) {
			continue
		}
		if err := t.currencies.Register(c); err != nil && !errors.Is(err, currency.ErrExists) {
			t.logger.Warn("treasury: skipping stored currency", "code", c.Code, "error", err)
		}
	}
	if adopt && storedDefault != "" {
		if err := t.currencies.SetDefault(storedDefault); err != nil {
			t.logger.Warn("treasury: stored default currency unusable", "code", storedDefault, "error", err)
		}
	}
	if !adopt && storedDefault != "" && storedDefault != t.currencies.Default() {
		t.logger.Info("treasury: default currency changed",
			"previous", storedDefault,
			"current", t.currencies.Default(),
		)
	}

	var errs MultiError
	for _, code := range t.currencies.Codes() {
		c, _ := t.currencies.Get(code)
		if p, ok := persisted[code]; ok {
			if p.Default == c.Default {
				continue
			}
			// Only the flag moves; the stored row keeps its definition.
			c = p
			c.Default = !p.Default
		}
		errs.Add(t.store.SaveCurrency(ctx, c))
	}
	if errs.HasErrors() {
		return fmt.Errorf("treasury: persist currencies: %w", errs)
	}
	return nil
}

// Stop shuts down the Treasury.
func (t *Treasury) Stop() error {
	t.enabled.Store(false)

	ctx := context.Background()
	t.plugins.EmitShutdown(ctx)

	return t.store.Close()
}

// Store returns the backing store.
func (t *Treasury) Store() store.Store { return t.store }

// Plugins returns the plugin registry.
func (t *Treasury) Plugins() *plugin.Registry { return t.plugins }

// ──────────────────────────────────────────────────
// Capabilities
// ──────────────────────────────────────────────────

// Name returns the configured name of this instance.
func (t *Treasury) Name() string { return t.name }

// IsEnabled reports whether the instance is started and not stopped.
func (t *Treasury) IsEnabled() bool { return t.enabled.Load() }

// Capabilities returns the capability set.
func (t *Treasury) Capabilities() Capabilities { return t.caps }

// HasSharedAccountSupport reports whether shared accounts and membership
// mutations are available.
func (t *Treasury) HasSharedAccountSupport() bool { return t.caps.SharedAccounts }

// HasMultiCurrencySupport reports whether currencies other than the default
// can be transacted.
func (t *Treasury) HasMultiCurrencySupport() bool { return t.caps.MultiCurrency }

// HasBankSupport reports whether the legacy bank operations are available.
func (t *Treasury) HasBankSupport() bool { return t.caps.Banks }

// HasWorldScopeSupport reports whether balances can be partitioned by world.
func (t *Treasury) HasWorldScopeSupport() bool { return t.caps.WorldScopes }
