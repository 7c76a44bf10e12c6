package extension

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/store/memory"
	sqlitestore "github.com/xraph/treasury/store/sqlite"
)

func TestMergeWithDefaults(t *testing.T) {
	got := mergeWithDefaults(Config{})
	assert.Equal(t, DefaultConfig(), got)

	got = mergeWithDefaults(Config{DefaultCurrency: "gems", FractionalDigits: 0})
	assert.Equal(t, "gems", got.DefaultCurrency)
	assert.Zero(t, got.FractionalDigits, "explicit precision is kept")
	assert.Empty(t, got.CurrencySingular)
	assert.Equal(t, 5*time.Second, got.PluginTimeout)
	assert.Equal(t, 8, got.CopyConcurrency)
}

func TestMergeConfigurations(t *testing.T) {
	yaml := Config{
		DefaultCurrency:  "gems",
		FractionalDigits: 0,
		CurrencySingular: "Gem",
		CurrencyPlural:   "Gems",
		PluginTimeout:    time.Second,
	}
	programmatic := Config{
		DefaultCurrency: "coins",
		DisableBanks:    true,
		DisableMigrate:  true,
		CopyConcurrency: 2,
		PluginTimeout:   time.Minute,
	}

	got := mergeConfigurations(yaml, programmatic)
	assert.Equal(t, "gems", got.DefaultCurrency)
	assert.Equal(t, "Gems", got.CurrencyPlural)
	assert.True(t, got.DisableBanks)
	assert.True(t, got.DisableMigrate)
	assert.False(t, got.DisableWorldScopes)
	assert.Equal(t, time.Second, got.PluginTimeout)
	assert.Equal(t, 2, got.CopyConcurrency)

	got = mergeConfigurations(Config{}, Config{DefaultCurrency: "dust", FractionalDigits: -1})
	assert.Equal(t, "dust", got.DefaultCurrency)
	assert.Equal(t, -1, got.FractionalDigits)

	got = mergeConfigurations(Config{}, Config{GroveDatabase: "ledger"})
	assert.Equal(t, "ledger", got.GroveDatabase)
	got = mergeConfigurations(Config{GroveDatabase: "primary"}, Config{GroveDatabase: "ledger"})
	assert.Equal(t, "primary", got.GroveDatabase)
}

func TestWithGroveDatabase(t *testing.T) {
	e := New(WithGroveDatabase(""))
	assert.True(t, e.useGrove, "empty name selects the default database")
	assert.Empty(t, e.config.GroveDatabase)

	e = New(WithGroveDatabase("ledger"))
	assert.True(t, e.useGrove)
	assert.Equal(t, "ledger", e.config.GroveDatabase)
}

func TestStoreForDB(t *testing.T) {
	ctx := context.Background()
	drv := sqlitedriver.New()
	require.NoError(t, drv.Open(ctx, "file:"+filepath.Join(t.TempDir(), "treasury.db")))
	db, err := grove.Open(drv)
	require.NoError(t, err)
	defer db.Close()

	s, err := storeForDB(db)
	require.NoError(t, err)
	assert.IsType(t, &sqlitestore.Store{}, s)

	tr := treasury.New(s)
	require.NoError(t, tr.Start(ctx))
	acct := uuid.New()
	assert.True(t, tr.CreateAccount(ctx, "test", acct, "alice", treasury.Global()))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TREASURY_DEFAULT_CURRENCY", "gems")
	t.Setenv("TREASURY_FRACTIONAL_DIGITS", "0")
	t.Setenv("TREASURY_DISABLE_BANKS", "true")
	t.Setenv("TREASURY_PLUGIN_TIMEOUT", "250ms")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "gems", cfg.DefaultCurrency)
	assert.Zero(t, cfg.FractionalDigits)
	assert.True(t, cfg.DisableBanks)
	assert.False(t, cfg.DisableSharedAccounts)
	assert.Equal(t, 250*time.Millisecond, cfg.PluginTimeout)
	assert.Equal(t, 8, cfg.CopyConcurrency, "unset variables keep defaults")
}

func TestConfigFromEnvRejectsMalformed(t *testing.T) {
	t.Setenv("TREASURY_COPY_CONCURRENCY", "many")

	_, err := ConfigFromEnv()
	assert.Error(t, err)
}

func TestBuildTreasuryOpts(t *testing.T) {
	e := New(
		WithConfig(mergeWithDefaults(Config{DefaultCurrency: "gems", CurrencySingular: "Gem", CurrencyPlural: "Gems"})),
		WithCapabilities(treasury.Capabilities{SharedAccounts: true, MultiCurrency: true}),
		WithTreasuryOption(treasury.WithName("economy")),
	)

	tr := treasury.New(memory.New(), e.buildTreasuryOpts()...)
	assert.Equal(t, "economy", tr.Name())
	assert.Equal(t, "gems", tr.DefaultCurrency(""))
	assert.Zero(t, tr.FractionalDigits("", ""))
	assert.Equal(t, "Gem", tr.DefaultCurrencyNameSingular(""))
	assert.True(t, tr.HasSharedAccountSupport())
	assert.False(t, tr.HasBankSupport())
	assert.False(t, tr.HasWorldScopeSupport())
}

func TestCopyTo(t *testing.T) {
	ctx := context.Background()
	src := memory.New()
	e := New(WithStore(src), WithConfig(mergeWithDefaults(Config{CopyConcurrency: 1})))
	e.engine = treasury.New(src, e.buildTreasuryOpts()...)
	require.NoError(t, e.engine.Start(ctx))

	acct := uuid.New()
	require.True(t, e.engine.CreateAccount(ctx, "test", acct, "alice", treasury.Global()))
	require.True(t, e.engine.Deposit(ctx, "test", acct, decimal.NewFromInt(12), treasury.Global()).Succeeded())

	dst := memory.New()
	report, err := e.CopyTo(ctx, dst)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Accounts)

	bal, err := dst.ListBalances(ctx, acct)
	require.NoError(t, err)
	require.Len(t, bal, 1)
	assert.True(t, bal[0].Amount.Equal(decimal.NewFromInt(12)))
}

func TestHealthWithoutStore(t *testing.T) {
	assert.Error(t, New().Health(context.Background()))
}
