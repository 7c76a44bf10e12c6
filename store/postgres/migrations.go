package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Treasury store.
var Migrations = migrate.NewGroup("treasury")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_treasury_currencies",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS treasury_currencies (
    code              TEXT PRIMARY KEY,
    fractional_digits INT NOT NULL DEFAULT 2,
    singular          TEXT NOT NULL DEFAULT '',
    plural            TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS treasury_currencies`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_treasury_accounts",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS treasury_accounts (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    kind       TEXT NOT NULL DEFAULT 'personal',
    world      TEXT NOT NULL DEFAULT '',
    owner_id   TEXT NOT NULL DEFAULT '',
    members    JSONB NOT NULL DEFAULT '{}',
    currency   TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_treasury_accounts_kind ON treasury_accounts (kind);
CREATE INDEX IF NOT EXISTS idx_treasury_accounts_owner ON treasury_accounts (owner_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS treasury_accounts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_treasury_balances",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS treasury_balances (
    account_id TEXT NOT NULL REFERENCES treasury_accounts (id) ON DELETE CASCADE,
    currency   TEXT NOT NULL,
    world      TEXT NOT NULL DEFAULT '',
    amount     NUMERIC NOT NULL DEFAULT 0 CHECK (amount >= 0),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (account_id, currency, world)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS treasury_balances`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "add_treasury_currencies_is_default",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `ALTER TABLE treasury_currencies ADD COLUMN IF NOT EXISTS is_default BOOLEAN NOT NULL DEFAULT FALSE`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `ALTER TABLE treasury_currencies DROP COLUMN IF EXISTS is_default`)
				return err
			},
		},
	)
}
