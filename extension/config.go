package extension

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by ConfigFromEnv.
const EnvPrefix = "TREASURY_"

// Config holds the Treasury extension configuration.
// Fields can be set programmatically via Option functions, loaded from
// YAML configuration files (under "extensions.treasury" or "treasury" keys)
// or read from TREASURY_* environment variables with ConfigFromEnv.
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate" env:"DISABLE_MIGRATE"`

	// DefaultCurrency is the code used by unscoped calls (default: "coins").
	DefaultCurrency string `json:"default_currency" mapstructure:"default_currency" yaml:"default_currency" env:"DEFAULT_CURRENCY"`

	// FractionalDigits is the display precision of the default currency.
	// Only read when DefaultCurrency is set; -1 disables rounding.
	FractionalDigits int `json:"fractional_digits" mapstructure:"fractional_digits" yaml:"fractional_digits" env:"FRACTIONAL_DIGITS"`

	// CurrencySingular and CurrencyPlural name the default currency.
	CurrencySingular string `json:"currency_singular" mapstructure:"currency_singular" yaml:"currency_singular" env:"CURRENCY_SINGULAR"`
	CurrencyPlural   string `json:"currency_plural" mapstructure:"currency_plural" yaml:"currency_plural" env:"CURRENCY_PLURAL"`

	DisableSharedAccounts bool `json:"disable_shared_accounts" mapstructure:"disable_shared_accounts" yaml:"disable_shared_accounts" env:"DISABLE_SHARED_ACCOUNTS"`
	DisableMultiCurrency  bool `json:"disable_multi_currency" mapstructure:"disable_multi_currency" yaml:"disable_multi_currency" env:"DISABLE_MULTI_CURRENCY"`
	DisableBanks          bool `json:"disable_banks" mapstructure:"disable_banks" yaml:"disable_banks" env:"DISABLE_BANKS"`
	DisableWorldScopes    bool `json:"disable_world_scopes" mapstructure:"disable_world_scopes" yaml:"disable_world_scopes" env:"DISABLE_WORLD_SCOPES"`

	// PluginTimeout bounds a single plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout" env:"PLUGIN_TIMEOUT"`

	// CopyConcurrency bounds how many accounts Extension.CopyTo moves in
	// parallel (default: 8).
	CopyConcurrency int `json:"copy_concurrency" mapstructure:"copy_concurrency" yaml:"copy_concurrency" env:"COPY_CONCURRENCY"`

	// GroveDatabase is the name of a grove.DB registered in the DI container.
	// When set, the extension resolves this named database and builds the
	// matching store for its driver (postgres, sqlite or mongo). When empty
	// and WithGroveDatabase was called, the default (unnamed) DB is used.
	GroveDatabase string `json:"grove_database" mapstructure:"grove_database" yaml:"grove_database" env:"GROVE_DATABASE"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultCurrency:  "coins",
		FractionalDigits: 2,
		CurrencySingular: "Coin",
		CurrencyPlural:   "Coins",
		PluginTimeout:    5 * time.Second,
		CopyConcurrency:  8,
	}
}

// ConfigFromEnv reads a Config from TREASURY_* environment variables on top
// of DefaultConfig, e.g. TREASURY_DEFAULT_CURRENCY=gems.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("treasury: parse environment: %w", err)
	}
	return cfg, nil
}
