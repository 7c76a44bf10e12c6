package sqlite

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xraph/grove"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/currency"
	"github.com/xraph/treasury/types"
)

// ==================== Timestamps ====================

// timeLayouts are the formats SQLite hands back for timestamp TEXT columns:
// what sqliteTime writes and what datetime('now') defaults produce.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

// sqliteTime stores a UTC timestamp as RFC 3339 TEXT. The modernc driver
// returns TEXT columns as strings, which database/sql cannot scan into a
// time.Time.
type sqliteTime struct{ time.Time }

func newSqliteTime(t time.Time) sqliteTime { return sqliteTime{Time: t.UTC()} }

// Value implements driver.Valuer.
func (t sqliteTime) Value() (driver.Value, error) {
	return t.UTC().Format(time.RFC3339Nano), nil
}

// Scan implements sql.Scanner.
func (t *sqliteTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("scan timestamp: unsupported type %T", src)
	}
}

func (t *sqliteTime) parse(s string) error {
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("scan timestamp: unrecognized format %q", s)
}

// ==================== Currency models ====================

type currencyModel struct {
	grove.BaseModel `grove:"table:treasury_currencies"`

	Code             string     `grove:"code,pk"`
	FractionalDigits int        `grove:"fractional_digits"`
	Singular         string     `grove:"singular"`
	Plural           string     `grove:"plural"`
	IsDefault        bool       `grove:"is_default"`
	CreatedAt        sqliteTime `grove:"created_at"`
	UpdatedAt        sqliteTime `grove:"updated_at"`
}

func toCurrencyModel(c *currency.Currency) *currencyModel {
	return &currencyModel{
		Code:             c.Code,
		FractionalDigits: c.FractionalDigits,
		Singular:         c.Singular,
		Plural:           c.Plural,
		IsDefault:        c.Default,
		CreatedAt:        newSqliteTime(c.CreatedAt),
		UpdatedAt:        newSqliteTime(c.UpdatedAt),
	}
}

func fromCurrencyModel(m *currencyModel) *currency.Currency {
	return &currency.Currency{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt.Time,
			UpdatedAt: m.UpdatedAt.Time,
		},
		Code:             m.Code,
		FractionalDigits: m.FractionalDigits,
		Singular:         m.Singular,
		Plural:           m.Plural,
		Default:          m.IsDefault,
	}
}

// ==================== Account models ====================

type accountModel struct {
	grove.BaseModel `grove:"table:treasury_accounts"`

	ID        string     `grove:"id,pk"`
	Name      string     `grove:"name"`
	Kind      string     `grove:"kind"`
	World     string     `grove:"world"`
	Owner     string     `grove:"owner_id"`
	Members   string     `grove:"members"`
	Currency  string     `grove:"currency"`
	CreatedAt sqliteTime `grove:"created_at"`
	UpdatedAt sqliteTime `grove:"updated_at"`
}

func toAccountModel(a *account.Account) (*accountModel, error) {
	members, err := json.Marshal(a.Members)
	if err != nil {
		return nil, fmt.Errorf("encode members: %w", err)
	}
	owner := ""
	if a.HasOwner() {
		owner = a.Owner.String()
	}
	return &accountModel{
		ID:        a.ID.String(),
		Name:      a.Name,
		Kind:      string(a.Kind),
		World:     a.World,
		Owner:     owner,
		Members:   string(members),
		Currency:  a.Currency,
		CreatedAt: newSqliteTime(a.CreatedAt),
		UpdatedAt: newSqliteTime(a.UpdatedAt),
	}, nil
}

func fromAccountModel(m *accountModel) (*account.Account, error) {
	accountID, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse account id %q: %w", m.ID, err)
	}

	owner := uuid.Nil
	if m.Owner != "" {
		if owner, err = uuid.Parse(m.Owner); err != nil {
			return nil, fmt.Errorf("parse owner %q: %w", m.Owner, err)
		}
	}

	members := make(map[uuid.UUID]account.PermissionSet)
	if m.Members != "" && m.Members != "null" {
		if err := json.Unmarshal([]byte(m.Members), &members); err != nil {
			return nil, fmt.Errorf("decode members of %s: %w", m.ID, err)
		}
	}

	return &account.Account{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt.Time,
			UpdatedAt: m.UpdatedAt.Time,
		},
		ID:       accountID,
		Name:     m.Name,
		Kind:     account.Kind(m.Kind),
		World:    m.World,
		Owner:    owner,
		Members:  members,
		Currency: m.Currency,
	}, nil
}

// ==================== Balance models ====================

// Amounts are stored as TEXT so no precision is lost to REAL affinity.
type balanceModel struct {
	grove.BaseModel `grove:"table:treasury_balances"`

	AccountID string          `grove:"account_id,pk"`
	Currency  string          `grove:"currency,pk"`
	World     string          `grove:"world,pk"`
	Amount    decimal.Decimal `grove:"amount"`
	UpdatedAt sqliteTime      `grove:"updated_at"`
}

func toBalanceModel(key account.BalanceKey, amount decimal.Decimal) *balanceModel {
	return &balanceModel{
		AccountID: key.AccountID.String(),
		Currency:  key.Currency,
		World:     key.World,
		Amount:    amount,
		UpdatedAt: newSqliteTime(now()),
	}
}

func fromBalanceModel(m *balanceModel) (*account.Balance, error) {
	accountID, err := uuid.Parse(m.AccountID)
	if err != nil {
		return nil, fmt.Errorf("parse account id %q: %w", m.AccountID, err)
	}
	return &account.Balance{
		Key: account.BalanceKey{
			AccountID: accountID,
			Currency:  m.Currency,
			World:     m.World,
		},
		Amount:    m.Amount,
		UpdatedAt: m.UpdatedAt.Time,
	}, nil
}
