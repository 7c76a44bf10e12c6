// Package extension provides the Forge extension adapter for Treasury.
//
// It implements the forge.Extension interface to integrate Treasury
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions,
// via YAML configuration files under "extensions.treasury" or "treasury"
// keys, or from the environment with ConfigFromEnv.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/vessel"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/currency"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/store/memory"
	mongostore "github.com/xraph/treasury/store/mongo"
	pgstore "github.com/xraph/treasury/store/postgres"
	sqlitestore "github.com/xraph/treasury/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "treasury"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Multi-currency account ledger with shared accounts and banks"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Treasury as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config       Config
	engine       *treasury.Treasury
	store        store.Store
	treasuryOpts []treasury.Option
	useGrove     bool
}

// New creates a new Treasury Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Treasury instance.
// This is nil until Register is called.
func (e *Extension) Engine() *treasury.Treasury { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the treasury engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Resolve a grove.DB from the container when asked to.
	if e.store == nil && (e.useGrove || e.config.GroveDatabase != "") {
		db, err := e.resolveGroveDB(fapp)
		if err != nil {
			return fmt.Errorf("treasury: resolve grove database: %w", err)
		}
		s, err := storeForDB(db)
		if err != nil {
			return err
		}
		e.store = s
		e.Logger().Debug("treasury: using grove store",
			forge.F("grove_database", e.config.GroveDatabase),
			forge.F("driver", fmt.Sprintf("%T", db.Driver())),
		)
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	e.engine = treasury.New(e.store, e.buildTreasuryOpts()...)

	return vessel.Provide(fapp.Container(), func() (*treasury.Treasury, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("treasury: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("treasury: store not initialized")
	}
	return e.store.Ping(ctx)
}

// CopyTo copies every currency, account and balance of the extension's store
// into dst using the configured copy concurrency.
func (e *Extension) CopyTo(ctx context.Context, dst store.Store) (*treasury.CopyReport, error) {
	if e.store == nil {
		return nil, errors.New("treasury: store not initialized")
	}
	return treasury.CopyStore(ctx, e.store, dst, treasury.WithCopyConcurrency(e.config.CopyConcurrency))
}

// resolveGroveDB fetches the named grove.DB, or the default one when no name
// is configured.
func (e *Extension) resolveGroveDB(fapp forge.App) (*grove.DB, error) {
	if e.config.GroveDatabase != "" {
		return vessel.InjectNamed[*grove.DB](fapp.Container(), e.config.GroveDatabase)
	}
	return vessel.Inject[*grove.DB](fapp.Container())
}

// storeForDB builds the store backend matching the grove driver of db.
func storeForDB(db *grove.DB) (store.Store, error) {
	switch db.Driver().(type) {
	case *pgdriver.PgDB:
		return pgstore.New(db), nil
	case *sqlitedriver.SqliteDB:
		return sqlitestore.New(db), nil
	case *mongodriver.MongoDB:
		return mongostore.New(db), nil
	default:
		return nil, fmt.Errorf("treasury: unsupported grove driver %T", db.Driver())
	}
}

// buildTreasuryOpts constructs treasury.Option values from the resolved config.
func (e *Extension) buildTreasuryOpts() []treasury.Option {
	opts := make([]treasury.Option, 0, len(e.treasuryOpts)+4)

	opts = append(opts, treasury.WithCapabilities(treasury.Capabilities{
		SharedAccounts: !e.config.DisableSharedAccounts,
		MultiCurrency:  !e.config.DisableMultiCurrency,
		Banks:          !e.config.DisableBanks,
		WorldScopes:    !e.config.DisableWorldScopes,
	}))

	if e.config.DefaultCurrency != "" {
		opts = append(opts, treasury.WithDefaultCurrency(&currency.Currency{
			Code:             e.config.DefaultCurrency,
			FractionalDigits: e.config.FractionalDigits,
			Singular:         e.config.CurrencySingular,
			Plural:           e.config.CurrencyPlural,
		}))
	}

	if e.config.PluginTimeout > 0 {
		opts = append(opts, treasury.WithPluginTimeout(e.config.PluginTimeout))
	}

	if e.config.DisableMigrate {
		opts = append(opts, treasury.WithoutMigrate())
	}

	// Append any pass-through treasury options.
	opts = append(opts, e.treasuryOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("treasury: configuration is required but not found in config files; " +
				"ensure 'extensions.treasury' or 'treasury' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("treasury: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("grove_database", e.config.GroveDatabase),
		forge.F("default_currency", e.config.DefaultCurrency),
		forge.F("fractional_digits", e.config.FractionalDigits),
		forge.F("disable_shared_accounts", e.config.DisableSharedAccounts),
		forge.F("disable_multi_currency", e.config.DisableMultiCurrency),
		forge.F("disable_banks", e.config.DisableBanks),
		forge.F("disable_world_scopes", e.config.DisableWorldScopes),
		forge.F("plugin_timeout", e.config.PluginTimeout),
		forge.F("copy_concurrency", e.config.CopyConcurrency),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.treasury" first (namespaced pattern).
	if cm.IsSet("extensions.treasury") {
		if err := cm.Bind("extensions.treasury", &cfg); err == nil {
			e.Logger().Debug("treasury: loaded config from file",
				forge.F("key", "extensions.treasury"),
			)
			return cfg, true
		}
		e.Logger().Warn("treasury: failed to bind extensions.treasury config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "treasury" key.
	if cm.IsSet("treasury") {
		if err := cm.Bind("treasury", &cfg); err == nil {
			e.Logger().Debug("treasury: loaded config from file",
				forge.F("key", "treasury"),
			)
			return cfg, true
		}
		e.Logger().Warn("treasury: failed to bind treasury config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults. The default
// currency is filled as a whole so that an explicit zero FractionalDigits
// survives.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = defaults.DefaultCurrency
		cfg.FractionalDigits = defaults.FractionalDigits
		cfg.CurrencySingular = defaults.CurrencySingular
		cfg.CurrencyPlural = defaults.CurrencyPlural
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	if cfg.CopyConcurrency == 0 {
		cfg.CopyConcurrency = defaults.CopyConcurrency
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.DisableSharedAccounts {
		yamlConfig.DisableSharedAccounts = true
	}
	if programmaticConfig.DisableMultiCurrency {
		yamlConfig.DisableMultiCurrency = true
	}
	if programmaticConfig.DisableBanks {
		yamlConfig.DisableBanks = true
	}
	if programmaticConfig.DisableWorldScopes {
		yamlConfig.DisableWorldScopes = true
	}

	if yamlConfig.GroveDatabase == "" && programmaticConfig.GroveDatabase != "" {
		yamlConfig.GroveDatabase = programmaticConfig.GroveDatabase
	}

	// The default currency moves as one block: YAML takes precedence.
	if yamlConfig.DefaultCurrency == "" && programmaticConfig.DefaultCurrency != "" {
		yamlConfig.DefaultCurrency = programmaticConfig.DefaultCurrency
		yamlConfig.FractionalDigits = programmaticConfig.FractionalDigits
		yamlConfig.CurrencySingular = programmaticConfig.CurrencySingular
		yamlConfig.CurrencyPlural = programmaticConfig.CurrencyPlural
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.PluginTimeout == 0 && programmaticConfig.PluginTimeout != 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}
	if yamlConfig.CopyConcurrency == 0 && programmaticConfig.CopyConcurrency != 0 {
		yamlConfig.CopyConcurrency = programmaticConfig.CopyConcurrency
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
