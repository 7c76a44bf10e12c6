package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/currency"
	treasurystore "github.com/xraph/treasury/store"
)

// Collection name constants.
const (
	colCurrencies = "treasury_currencies"
	colAccounts   = "treasury_accounts"
	colBalances   = "treasury_balances"
)

// compile-time interface check
var _ treasurystore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all treasury collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("treasury/mongo: migrate %s indexes: %w", col, err)
		}
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

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Code}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"fractional_digits": m.FractionalDigits,
				"singular":          m.Singular,
				"plural":            m.Plural,
				"is_default":        m.IsDefault,
				"updated_at":        m.UpdatedAt,
			},
			"$setOnInsert": bson.M{"created_at": m.CreatedAt},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/mongo: save currency: %w", err)
	}
	return nil
}

func (s *Store) ListCurrencies(ctx context.Context) ([]*currency.Currency, error) {
	var models []currencyModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("treasury/mongo: list currencies: %w", err)
	}

	result := make([]*currency.Currency, len(models))
	for i := range models {
		result[i] = fromCurrencyModel(&models[i])
	}
	return result, nil
}

// ==================== Account Store ====================

func (s *Store) CreateAccount(ctx context.Context, a *account.Account) error {
	m := toAccountModel(a)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", account.ErrExists, a.ID)
		}
		return fmt.Errorf("treasury/mongo: create account: %w", err)
	}
	return nil
}

func (s *Store) GetAccount(ctx context.Context, accountID uuid.UUID) (*account.Account, error) {
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": accountID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("treasury/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) UpdateAccount(ctx context.Context, a *account.Account) error {
	m := toAccountModel(a)
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/mongo: update account: %w", err)
	}
	if res.MatchedCount() == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	if _, err := s.mdb.NewDelete((*balanceModel)(nil)).
		Filter(bson.M{"account_id": accountID.String()}).
		Exec(ctx); err != nil {
		return fmt.Errorf("treasury/mongo: delete balances: %w", err)
	}

	res, err := s.mdb.NewDelete((*accountModel)(nil)).
		Filter(bson.M{"_id": accountID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/mongo: delete account: %w", err)
	}
	if res.DeletedCount() == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	var models []accountModel

	filter := bson.M{}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	if opts.After != uuid.Nil {
		filter["_id"] = bson.M{"$gt": opts.After.String()}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("treasury/mongo: list accounts: %w", err)
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
	var m balanceModel
	err := s.mdb.NewFind(&m).
		Filter(balanceFilter(key)).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("treasury/mongo: get balance: %w", err)
	}
	b, err := fromBalanceModel(&m)
	if err != nil {
		return decimal.Zero, err
	}
	return b.Amount, nil
}

func (s *Store) SetBalance(ctx context.Context, key account.BalanceKey, amount decimal.Decimal) error {
	if _, err := s.GetAccount(ctx, key.AccountID); err != nil {
		return err
	}

	m := toBalanceModel(key, amount)
	_, err := s.mdb.NewUpdate(m).
		Filter(balanceFilter(key)).
		SetUpdate(bson.M{
			"$set": bson.M{
				"amount":     m.Amount,
				"updated_at": m.UpdatedAt,
			},
			"$setOnInsert": bson.M{"_id": m.Key},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("treasury/mongo: set balance: %w", err)
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context, accountID uuid.UUID) ([]*account.Balance, error) {
	var models []balanceModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"account_id": accountID.String()}).
		Sort(bson.D{{Key: "currency", Value: 1}, {Key: "world", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("treasury/mongo: list balances: %w", err)
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

// balanceFilter matches the single document holding key.
func balanceFilter(key account.BalanceKey) bson.M {
	return bson.M{
		"account_id": key.AccountID.String(),
		"currency":   key.Currency,
		"world":      key.World,
	}
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all treasury collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colCurrencies: {},
		colAccounts: {
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		},
		colBalances: {
			{
				Keys:    bson.D{{Key: "account_id", Value: 1}, {Key: "currency", Value: 1}, {Key: "world", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
}
