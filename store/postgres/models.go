package postgres

import (
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

// ==================== Currency models ====================

type currencyModel struct {
	grove.BaseModel `grove:"table:treasury_currencies"`

	Code             string    `grove:"code,pk"`
	FractionalDigits int       `grove:"fractional_digits"`
	Singular         string    `grove:"singular"`
	Plural           string    `grove:"plural"`
	IsDefault        bool      `grove:"is_default"`
	CreatedAt        time.Time `grove:"created_at"`
	UpdatedAt        time.Time `grove:"updated_at"`
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

	ID        string          `grove:"id,pk"`
	Name      string          `grove:"name"`
	Kind      string          `grove:"kind"`
	World     string          `grove:"world"`
	Owner     string          `grove:"owner_id"`
	Members   json.RawMessage `grove:"members,type:jsonb"`
	Currency  string          `grove:"currency"`
	CreatedAt time.Time       `grove:"created_at"`
	UpdatedAt time.Time       `grove:"updated_at"`
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
		Members:   members,
		Currency:  a.Currency,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
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
	if len(m.Members) > 0 && string(m.Members) != "null" {
		if err := json.Unmarshal(m.Members, &members); err != nil {
			return nil, fmt.Errorf("decode members of %s: %w", m.ID, err)
		}
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

type balanceModel struct {
	grove.BaseModel `grove:"table:treasury_balances"`

	AccountID string          `grove:"account_id,pk"`
	Currency  string          `grove:"currency,pk"`
	World     string          `grove:"world,pk"`
	Amount    decimal.Decimal `grove:"amount,type:numeric"`
	UpdatedAt time.Time       `grove:"updated_at"`
}

func toBalanceModel(key account.BalanceKey, amount decimal.Decimal) *balanceModel {
	return &balanceModel{
		AccountID: key.AccountID.String(),
		Currency:  key.Currency,
		World:     key.World,
		Amount:    amount,
		UpdatedAt: now(),
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
		UpdatedAt: m.UpdatedAt,
	}, nil
}
