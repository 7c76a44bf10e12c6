package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	_ "github.com/xraph/grove/drivers/sqlitedriver/sqlitemigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/currency"
	treasurystore "github.com/xraph/treasury/store"
)

// compile-time interface check
var _ treasurystore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("treasury/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("treasury/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Currency Store ====================

func (s *Store) SaveCurrency(ctx context.Context, c *currency.Currency) error {
	m := toCurrencyModel(c)
	m.UpdatedAt = newSqliteTime(now())
	if m.CreatedAt.IsZero() {
		m.CreatedAt = m.UpdatedAt
	}
	_, err := s.sdb.NewInsert(m).
		OnConflict("(code) DO UPDATE").
		Set("fractional_digits = EXCLUDED.fractional_digits").
		Set("singular = EXCLUDED.singular").
		Set("plural = EXCLUDED.plural").
		Set("is_default = EXCLUDED.is_default").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/sqlite: save currency: %w", err)
	}
	return nil
}

func (s *Store) ListCurrencies(ctx context.Context) ([]*currency.Currency, error) {
	var models []currencyModel
	if err := s.sdb.NewSelect(&models).OrderExpr("code ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("treasury/sqlite: list currencies: %w", err)
	}

	result := make([]*currency.Currency, len(models))
	for i := range models {
		result[i] = fromCurrencyModel(&models[i])
	}
	return result, nil
}

// ==================== Account Store ====================

func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	m, err := toAccountModel(a)
	if err != nil {
		return fmt.Errorf("treasury/sqlite: create account: %w", err)
	}
	res, err := s.sdb.NewInsert(m).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/sqlite: create account: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("treasury/sqlite: create account: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", account.ErrExists, a.ID)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID uuid.UUID) (*account.Account, error) {
	m := new(accountModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", accountID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("treasury/sqlite: get account: %w", err)
	}
	return fromAccountModel(m)
}

func (s *Store) UpdateAccount(ctx context.Context, a *account.Account) error {
	m, err := toAccountModel(a)
	if err != nil {
		return fmt.Errorf("treasury/sqlite: update account: %w", err)
	}
	m.UpdatedAt = newSqliteTime(now())
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/sqlite: update account: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	if _, err := s.sdb.NewDelete((*balanceModel)(nil)).
		Where("account_id = ?", accountID.String()).
		Exec(ctx); err != nil {
		return fmt.Errorf("treasury/sqlite: delete balances: %w", err)
	}

	res, err := s.sdb.NewDelete((*accountModel)(nil)).
		Where("id = ?", accountID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/sqlite: delete account: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	var models []accountModel
	q := s.sdb.NewSelect(&models)

	if opts.Kind != "" {
		q = q.Where("kind = ?", string(opts.Kind))
	}
	if opts.After != uuid.Nil {
		q = q.Where("id > ?", opts.After.String())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("treasury/sqlite: list accounts: %w", err)
	}

	result := make([]*account.Account, len(models))
	for i := range models {
		a, err := fromAccountModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

// ==================== Balance Store ====================

func (s *Store) GetBalance(ctx context.Context, key account.BalanceKey) (decimal.Decimal, error) {
	m := new(balanceModel)
	err := s.sdb.NewSelect(m).
		Where("account_id = ?", key.AccountID.String()).
		Where("currency = ?", key.Currency).
		Where("world = ?", key.World).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("treasury/sqlite: get balance: %w", err)
	}
	return m.Amount, nil
}

func (s *Store) SetBalance(ctx context.Context, key account.BalanceKey, amount decimal.Decimal) error {
	if _, err := s.GetAccount(ctx, key.AccountID); err != nil {
		return err
	}

	_, err := s.sdb.NewInsert(toBalanceModel(key, amount)).
		OnConflict("(account_id, currency, world) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/sqlite: set balance: %w", err)
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context, accountID uuid.UUID) ([]*account.Balance, error) {
	var models []balanceModel
	err := s.sdb.NewSelect(&models).
		Where("account_id = ?", accountID.String()).
		OrderExpr("currency ASC, world ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("treasury/sqlite: list balances: %w", err)
	}

	result := make([]*account.Balance, len(models))
	for i := range models {
		b, err := fromBalanceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = b
	}
	return result, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
