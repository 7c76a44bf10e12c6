package extension

import (
	"time"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/store"
)

// Option configures the Treasury Forge extension.
type Option func(*Extension)

// WithStore sets the store for the treasury engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithTreasuryOption passes a treasury.Option through to the underlying engine.
func WithTreasuryOption(opt treasury.Option) Option {
	return func(e *Extension) {
		e.treasuryOpts = append(e.treasuryOpts, opt)
	}
}

// WithPlugin registers a treasury plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.treasuryOpts = append(e.treasuryOpts, treasury.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithGroveDatabase sets the name of the grove.DB to resolve from the DI
// container. The extension builds the store backend (postgres/sqlite/mongo)
// from the grove driver type. Pass an empty string to use the default
// (unnamed) grove.DB.
func WithGroveDatabase(name string) Option {
	return func(e *Extension) {
		e.config.GroveDatabase = name
		e.useGrove = true
	}
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithDefaultCurrency sets the default currency code, precision and names.
func WithDefaultCurrency(code string, fractionalDigits int, singular, plural string) Option {
	return func(e *Extension) {
		e.config.DefaultCurrency = code
		e.config.FractionalDigits = fractionalDigits
		e.config.CurrencySingular = singular
		e.config.CurrencyPlural = plural
	}
}

// WithCapabilities disables the optional capabilities that caps leaves
// false.
func WithCapabilities(caps treasury.Capabilities) Option {
	return func(e *Extension) {
		e.config.DisableSharedAccounts = !caps.SharedAccounts
		e.config.DisableMultiCurrency = !caps.MultiCurrency
		e.config.DisableBanks = !caps.Banks
		e.config.DisableWorldScopes = !caps.WorldScopes
	}
}

// WithPluginTimeout bounds a single plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithCopyConcurrency bounds how many accounts CopyTo moves in parallel.
func WithCopyConcurrency(n int) Option {
	return func(e *Extension) { e.config.CopyConcurrency = n }
}
