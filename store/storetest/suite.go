// Package storetest is a conformance suite every Store backend runs from its
// own tests.
package storetest

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/currency"
	"github.com/xraph/treasury/store"
	"github.com/xraph/treasury/types"
)

// Suite exercises the store.Store contract against a fresh backend per test.
type Suite struct {
	suite.Suite

	// NewStore returns an empty, migrated store.
	NewStore func() store.Store

	Store store.Store
	ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.Store = s.NewStore()
	s.Require().NoError(s.Store.Migrate(s.ctx))
}

func (s *Suite) TearDownTest() {
	s.Require().NoError(s.Store.Close())
}

func (s *Suite) newAccount(kind account.Kind) *account.Account {
	id := uuid.New()
	return &account.Account{
		Entity: types.NewEntity(),
		ID:     id,
		Name:   "acct-" + id.String()[:8],
		Kind:   kind,
		Owner:  id,
	}
}

func (s *Suite) TestCurrencies() {
	s.Require().NoError(s.Store.SaveCurrency(s.ctx, &currency.Currency{Code: "gems", FractionalDigits: 0, Singular: "Gem", Plural: "Gems"}))
	s.Require().NoError(s.Store.SaveCurrency(s.ctx, &currency.Currency{Code: "coins", FractionalDigits: 2, Default: true}))

	s.Run("save overwrites", func() {
		s.Require().NoError(s.Store.SaveCurrency(s.ctx, &currency.Currency{Code: "coins", FractionalDigits: 3, Singular: "Coin", Default: true}))
	})

	got, err := s.Store.ListCurrencies(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("coins", got[0].Code)
	s.Equal(3, got[0].FractionalDigits)
	s.Equal("Coin", got[0].Singular)
	s.True(got[0].Default)
	s.Equal("gems", got[1].Code)
	s.Equal("Gems", got[1].Plural)
	s.False(got[1].Default)
	s.False(got[0].CreatedAt.IsZero(), "timestamps survive the round trip")

	s.Run("default moves", func() {
		coins, gems := *got[0], *got[1]
		coins.Default, gems.Default = false, true
		s.Require().NoError(s.Store.SaveCurrency(s.ctx, &coins))
		s.Require().NoError(s.Store.SaveCurrency(s.ctx, &gems))

		again, err := s.Store.ListCurrencies(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(again, 2)
		s.False(again[0].Default)
		s.True(again[1].Default)
	})
}

func (s *Suite) TestAccountLifecycle() {
	member := uuid.New()
	a := s.newAccount(account.KindShared)
	a.World = "nether"
	a.Members = map[uuid.UUID]account.PermissionSet{
		member: account.NewPermissionSet(account.PermDeposit, account.PermBalance),
	}

	s.Require().NoError(s.Store.CreateAccount(s.ctx, a))

	s.Run("duplicate create", func() {
		err := s.Store.CreateAccount(s.ctx, a)
		s.True(errors.Is(err, account.ErrExists), "got %v", err)
	})

	s.Run("get returns stored fields", func() {
		got, err := s.Store.GetAccount(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(a.Name, got.Name)
		s.Equal(account.KindShared, got.Kind)
		s.Equal("nether", got.World)
		s.Equal(a.Owner, got.Owner)
		s.True(got.HasPermission(member, account.PermDeposit))
		s.False(got.HasPermission(member, account.PermWithdraw))
	})

	s.Run("update", func() {
		got, err := s.Store.GetAccount(s.ctx, a.ID)
		s.Require().NoError(err)
		got.Name = "renamed"
		got.Members[member].Add(account.PermWithdraw)
		s.Require().NoError(s.Store.UpdateAccount(s.ctx, got))

		again, err := s.Store.GetAccount(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal("renamed", again.Name)
		s.True(again.HasPermission(member, account.PermWithdraw))
	})

	s.Run("missing account", func() {
		_, err := s.Store.GetAccount(s.ctx, uuid.New())
		s.True(errors.Is(err, account.ErrNotFound), "got %v", err)

		err = s.Store.UpdateAccount(s.ctx, s.newAccount(account.KindPersonal))
		s.True(errors.Is(err, account.ErrNotFound), "got %v", err)
	})
}

func (s *Suite) TestReturnedAccountsAreCopies() {
	member := uuid.New()
	a := s.newAccount(account.KindShared)
	a.Members = map[uuid.UUID]account.PermissionSet{member: account.NewPermissionSet()}
	s.Require().NoError(s.Store.CreateAccount(s.ctx, a))

	got, err := s.Store.GetAccount(s.ctx, a.ID)
	s.Require().NoError(err)
	got.Members[member].Add(account.PermAdminister)
	got.Name = "mutated"

	again, err := s.Store.GetAccount(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.Name, again.Name)
	s.False(again.HasPermission(member, account.PermAdminister))
}

func (s *Suite) TestListAccounts() {
	for range 3 {
		s.Require().NoError(s.Store.CreateAccount(s.ctx, s.newAccount(account.KindPersonal)))
	}
	bank := s.newAccount(account.KindBank)
	bank.Currency = "coins"
	s.Require().NoError(s.Store.CreateAccount(s.ctx, bank))

	all, err := s.Store.ListAccounts(s.ctx, account.ListOpts{})
	s.Require().NoError(err)
	s.Len(all, 4)

	banks, err := s.Store.ListAccounts(s.ctx, account.ListOpts{Kind: account.KindBank})
	s.Require().NoError(err)
	s.Require().Len(banks, 1)
	s.Equal(bank.ID, banks[0].ID)
	s.Equal("coins", banks[0].Currency)

	page, err := s.Store.ListAccounts(s.ctx, account.ListOpts{Limit: 2, Offset: 1})
	s.Require().NoError(err)
	s.Len(page, 2)

	s.Run("ordered by id", func() {
		for i := 1; i < len(all); i++ {
			s.Negative(account.CompareIDs(all[i-1].ID, all[i].ID))
		}
	})

	s.Run("after resumes past an id", func() {
		first, err := s.Store.ListAccounts(s.ctx, account.ListOpts{Limit: 2})
		s.Require().NoError(err)
		s.Require().Len(first, 2)

		rest, err := s.Store.ListAccounts(s.ctx, account.ListOpts{After: first[1].ID})
		s.Require().NoError(err)
		s.Require().Len(rest, 2)
		s.Equal(all[2].ID, rest[0].ID)
		s.Equal(all[3].ID, rest[1].ID)

		s.Require().NoError(s.Store.DeleteAccount(s.ctx, first[0].ID))
		rest, err = s.Store.ListAccounts(s.ctx, account.ListOpts{After: first[1].ID})
		s.Require().NoError(err)
		s.Len(rest, 2, "a delete before the cursor does not shift the page")

		none, err := s.Store.ListAccounts(s.ctx, account.ListOpts{After: all[3].ID})
		s.Require().NoError(err)
		s.Empty(none)
	})
}

func (s *Suite) TestBalances() {
	a := s.newAccount(account.KindPersonal)
	s.Require().NoError(s.Store.CreateAccount(s.ctx, a))

	global := account.BalanceKey{AccountID: a.ID, Currency: "coins"}
	nether := account.BalanceKey{AccountID: a.ID, Currency: "coins", World: "nether"}

	s.Run("missing balance is zero", func() {
		got, err := s.Store.GetBalance(s.ctx, global)
		s.Require().NoError(err)
		s.True(got.IsZero())
	})

	s.Require().NoError(s.Store.SetBalance(s.ctx, global, decimal.RequireFromString("10.25")))
	s.Require().NoError(s.Store.SetBalance(s.ctx, nether, decimal.RequireFromString("0.000000001")))
	s.Require().NoError(s.Store.SetBalance(s.ctx, global, decimal.RequireFromString("12.5")))

	s.Run("exact decimal round trip", func() {
		got, err := s.Store.GetBalance(s.ctx, global)
		s.Require().NoError(err)
		s.True(got.Equal(decimal.RequireFromString("12.5")), "got %s", got)

		got, err = s.Store.GetBalance(s.ctx, nether)
		s.Require().NoError(err)
		s.True(got.Equal(decimal.RequireFromString("0.000000001")), "got %s", got)
	})

	s.Run("list", func() {
		got, err := s.Store.ListBalances(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal(global, got[0].Key)
		s.Equal(nether, got[1].Key)
	})

	s.Run("separator characters do not collide", func() {
		left := account.BalanceKey{AccountID: a.ID, Currency: "a", World: "b/c"}
		right := account.BalanceKey{AccountID: a.ID, Currency: "a/b", World: "c"}
		s.Require().NoError(s.Store.SetBalance(s.ctx, left, decimal.NewFromInt(1)))
		s.Require().NoError(s.Store.SetBalance(s.ctx, right, decimal.NewFromInt(2)))

		got, err := s.Store.GetBalance(s.ctx, left)
		s.Require().NoError(err)
		s.True(got.Equal(decimal.NewFromInt(1)), "got %s", got)
		got, err = s.Store.GetBalance(s.ctx, right)
		s.Require().NoError(err)
		s.True(got.Equal(decimal.NewFromInt(2)), "got %s", got)

		all, err := s.Store.ListBalances(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Len(all, 4)
	})

	s.Run("unknown account", func() {
		err := s.Store.SetBalance(s.ctx, account.BalanceKey{AccountID: uuid.New(), Currency: "coins"}, decimal.NewFromInt(1))
		s.True(errors.Is(err, account.ErrNotFound), "got %v", err)
	})
}

func (s *Suite) TestDeleteAccountDropsBalances() {
	a := s.newAccount(account.KindBank)
	s.Require().NoError(s.Store.CreateAccount(s.ctx, a))
	key := account.BalanceKey{AccountID: a.ID, Currency: "coins"}
	s.Require().NoError(s.Store.SetBalance(s.ctx, key, decimal.NewFromInt(50)))

	s.Require().NoError(s.Store.DeleteAccount(s.ctx, a.ID))

	_, err := s.Store.GetAccount(s.ctx, a.ID)
	s.True(errors.Is(err, account.ErrNotFound), "got %v", err)

	balances, err := s.Store.ListBalances(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Empty(balances)

	err = s.Store.DeleteAccount(s.ctx, a.ID)
	s.True(errors.Is(err, account.ErrNotFound), "got %v", err)
}

func (s *Suite) TestPing() {
	s.NoError(s.Store.Ping(s.ctx))
}
