package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	_ "github.com/xraph/grove/drivers/pgdriver/pgmigrate"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/currency"
	treasurystore "github.com/xraph/treasury/store"
)

// compile-time interface check
var _ treasurystore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("treasury/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("treasury/postgres: migration failed: %w", err)
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
	m.UpdatedAt = now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = m.UpdatedAt
	}
	_, err := s.pg.NewInsert(m).
		OnConflict("(code) DO UPDATE").
		Set("fractional_digits = EXCLUDED.fractional_digits").
		Set("singular = EXCLUDED.singular").
		Set("plural = EXCLUDED.plural").
		Set("is_default = EXCLUDED.is_default").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/postgres: save currency: %w", err)
	}
	return nil
}

func (s *Store) ListCurrencies(ctx context.Context) ([]*currency.Currency, error) {
	var models []currencyModel
	if err := s.pg.NewSelect(&models).OrderExpr("code ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("treasury/postgres: list currencies: %w", err)
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
		return fmt.Errorf("treasury/postgres: create account: %w", err)
	}
	res, err := s.pg.NewInsert(m).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/postgres: create account: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("treasury/postgres: create account: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", account.ErrExists, a.ID)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID uuid.UUID) (*account.Account, error) {
	m := new(accountModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", accountID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("treasury/postgres: get account: %w", err)
	}
	return fromAccountModel(m)
}

func (s *Store) UpdateAccount(ctx context.Context, a *account.Account) error {
	m, err := toAccountModel(a)
	if err != nil {
		return fmt.Errorf("treasury/postgres: update account: %w", err)
	}
	m.UpdatedAt = now()
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/postgres: update account: %w", err)
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
	if _, err := s.pg.NewDelete((*balanceModel)(nil)).
		Where("account_id = $1", accountID.String()).
		Exec(ctx); err != nil {
		return fmt.Errorf("treasury/postgres: delete balances: %w", err)
	}

	res, err := s.pg.NewDelete((*accountModel)(nil)).
		Where("id = $1", accountID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/postgres: delete account: %w", err)
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
	q := s.pg.NewSelect(&models)

	arg := 0
	if opts.Kind != "" {
		arg++
		q = q.Where(fmt.Sprintf("kind = $%d", arg), string(opts.Kind))
	}
	if opts.After != uuid.Nil {
		arg++
		q = q.Where(fmt.Sprintf("id > $%d", arg), opts.After.String())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("treasury/postgres: list accounts: %w", err)
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
	err := s.pg.NewSelect(m).
		Where("account_id = $1", key.AccountID.String()).
		Where("currency = $2", key.Currency).
		Where("world = $3", key.World).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("treasury/postgres: get balance: %w", err)
	}
	return m.Amount, nil
}

func (s *Store) SetBalance(ctx context.Context, key account.BalanceKey, amount decimal.Decimal) error {
	if _, err := s.GetAccount(ctx, key.AccountID); err != nil {
		return err
	}

	_, err := s.pg.NewInsert(toBalanceModel(key, amount)).
		OnConflict("(account_id, currency, world) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/postgres: set balance: %w", err)
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context, accountID uuid.UUID) ([]*account.Balance, error) {
	var models []balanceModel
	err := s.pg.NewSelect(&models).
		Where("account_id = $1", accountID.String()).
		OrderExpr("currency ASC, world ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("treasury/postgres: list balances: %w", err)
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
