package mongo

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xraph/grove"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/currency"
	"github.com/xraph/treasury/types"
)

// ==================== Currency models ====================

type currencyModel struct {
	grove.BaseModel `grove:"table:treasury_currencies"`

	Code             string    `grove:"code,pk"           bson:"_id"`
	FractionalDigits int       `grove:"fractional_digits" bson:"fractional_digits"`
	Singular         string    `grove:"singular"          bson:"singular"`
	Plural           string    `grove:"plural"            bson:"plural"`
	IsDefault        bool      `grove:"is_default"        bson:"is_default"`
	CreatedAt        time.Time `grove:"created_at"        bson:"created_at"`
	UpdatedAt        time.Time `grove:"updated_at"        bson:"updated_at"`
}

func toCurrencyModel(c *currency.Currency) *currencyModel {
	return &currencyModel{
		Code:             c.Code,
		FractionalDigits: c.FractionalDigits,
		Singular:         c.Singular,
		Plural:           c.Plural,
		IsDefault:        c.Default,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func fromCurrencyModel(m *currencyModel) *currency.Currency {
	return &currency.Currency{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
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

	ID        string              `grove:"id,pk"      bson:"_id"`
	Name      string              `grove:"name"       bson:"name"`
	Kind      string              `grove:"kind"       bson:"kind"`
	World     string              `grove:"world"      bson:"world"`
	Owner     string              `grove:"owner_id"   bson:"owner_id"`
	Members   map[string][]string `grove:"members"    bson:"members"`
	Currency  string              `grove:"currency"   bson:"currency"`
	CreatedAt time.Time           `grove:"created_at" bson:"created_at"`
	UpdatedAt time.Time           `grove:"updated_at" bson:"updated_at"`
}

func toAccountModel(a *account.Account) *accountModel {
	members := make(map[string][]string, len(a.Members))
	for m, perms := range a.Members {
		tags := make([]string, 0, len(perms))
		for _, p := range perms.Slice() {
			tags = append(tags, string(p))
		}
		members[m.String()] = tags
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
		Members:   members,
		Currency:  a.Currency,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
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

	members := make(map[uuid.UUID]account.PermissionSet, len(m.Members))
	for raw, tags := range m.Members {
		memberID, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse member %q of %s: %w", raw, m.ID, err)
		}
		perms := account.NewPermissionSet()
		for _, tag := range tags {
			perms.Add(account.Permission(tag))
		}
		members[memberID] = perms
	}

	return &account.Account{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
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

// balanceModel keys documents by BalanceKey.String and is looked up by its
// (account_id, currency, world) fields. Amounts are kept as decimal strings;
// BSON doubles would lose precision.
type balanceModel struct {
	grove.BaseModel `grove:"table:treasury_balances"`

	Key       string    `grove:"key,pk"     bson:"_id"`
	AccountID string    `grove:"account_id" bson:"account_id"`
	Currency  string    `grove:"currency"   bson:"currency"`
	World     string    `grove:"world"      bson:"world"`
	Amount    string    `grove:"amount"     bson:"amount"`
	UpdatedAt time.Time `grove:"updated_at" bson:"updated_at"`
}

func toBalanceModel(key account.BalanceKey, amount decimal.Decimal) *balanceModel {
	return &balanceModel{
		Key:       key.String(),
		AccountID: key.AccountID.String(),
		Currency:  key.Currency,
		World:     key.World,
		Amount:    amount.String(),
		UpdatedAt: now(),
	}
}

func fromBalanceModel(m *balanceModel) (*account.Balance, error) {
	accountID, err := uuid.Parse(m.AccountID)
	if err != nil {
		return nil, fmt.Errorf("parse account id %q: %w", m.AccountID, err)
	}
	amount, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q of %s: %w", m.Amount, m.Key, err)
	}
	return &account.Balance{
		Key: account.BalanceKey{
			AccountID: accountID,
			Currency:  m.Currency,
			World:     m.World,
		},
		Amount:    amount,
		UpdatedAt: m.UpdatedAt,
	}, nil
}
