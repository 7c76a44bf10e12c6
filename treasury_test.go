package treasury_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/currency"
	"github.com/xraph/treasury/store/memory"
	"github.com/xraph/treasury/transaction"
)

const caller = "test"

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func debugLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type TreasurySuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
	t     *treasury.Treasury
}

func TestTreasurySuite(t *testing.T) {
	suite.Run(t, new(TreasurySuite))
}

func (s *TreasurySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.t = s.start(s.store)
}

func (s *TreasurySuite) TearDownTest() {
	s.Require().NoError(s.t.Stop())
}

func (s *TreasurySuite) start(st *memory.Store, opts ...treasury.Option) *treasury.Treasury {
	opts = append([]treasury.Option{
		treasury.WithCurrency(treasury.DefaultCurrency()),
		treasury.WithCurrency(&currency.Currency{Code: "gems", FractionalDigits: 0, Singular: "Gem", Plural: "Gems"}),
	}, opts...)
	tr := treasury.New(st, opts...)
	s.Require().NoError(tr.Start(s.ctx))
	return tr
}

// funded creates a personal account holding amount in the default currency.
func (s *TreasurySuite) funded(amount int64) uuid.UUID {
	id := uuid.New()
	s.Require().True(s.t.CreateAccount(s.ctx, caller, id, "acct", treasury.Global()))
	if amount > 0 {
		s.Require().True(s.t.Deposit(s.ctx, caller, id, dec(amount), treasury.Global()).Succeeded())
	}
	return id
}

// ──────────────────────────────────────────────────
// Accounts
// ──────────────────────────────────────────────────

func (s *TreasurySuite) TestCreateAccountIsIdempotent() {
	id := uuid.New()
	s.True(s.t.CreateAccount(s.ctx, caller, id, "Alice", treasury.Global()))
	s.True(s.t.Deposit(s.ctx, caller, id, dec(7), treasury.Global()).Succeeded())

	s.False(s.t.CreateAccount(s.ctx, caller, id, "Mallory", treasury.Global()))

	name, ok := s.t.AccountName(s.ctx, id)
	s.True(ok)
	s.Equal("Alice", name)
	s.True(s.t.Balance(s.ctx, caller, id, treasury.Global()).Equal(dec(7)))
	s.Len(s.t.UUIDNameMap(s.ctx, caller), 1)
}

func (s *TreasurySuite) TestCreateAccountSeedsZeroBalance() {
	id := s.funded(0)

	balances, err := s.store.ListBalances(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(balances, 1)
	s.Equal("coins", balances[0].Key.Currency)
	s.True(balances[0].Amount.IsZero())
}

func (s *TreasurySuite) TestNilAccountIDRejected() {
	var logs bytes.Buffer
	tr := s.start(memory.New(), treasury.WithLogger(debugLogger(&logs)))
	defer tr.Stop()

	s.False(tr.CreateAccount(s.ctx, caller, uuid.Nil, "nobody", treasury.Global()))
	s.Contains(logs.String(), treasury.ErrInvalidAccount.Error())
}

func (s *TreasurySuite) TestOwnerRemovalReportsReason() {
	var logs bytes.Buffer
	tr := s.start(memory.New(), treasury.WithLogger(debugLogger(&logs)))
	defer tr.Stop()

	owner, id := uuid.New(), uuid.New()
	s.Require().True(tr.CreateSharedAccount(s.ctx, caller, id, "vault", owner))
	s.False(tr.RemoveAccountMember(s.ctx, caller, id, owner))
	s.Contains(logs.String(), treasury.ErrOwnerNotRemovable.Error())
	s.True(tr.IsAccountOwner(s.ctx, caller, id, owner))
}

func (s *TreasurySuite) TestRenameKeepsBalanceAndMembers() {
	owner, member := uuid.New(), uuid.New()
	id := uuid.New()
	s.Require().True(s.t.CreateSharedAccount(s.ctx, caller, id, "Alice", owner))
	s.Require().True(s.t.AddAccountMember(s.ctx, caller, id, member, account.PermDeposit))
	s.Require().True(s.t.Deposit(s.ctx, caller, id, dec(30), treasury.Global()).Succeeded())

	s.True(s.t.RenameAccount(s.ctx, caller, id, "Bob"))

	name, _ := s.t.AccountName(s.ctx, id)
	s.Equal("Bob", name)
	s.True(s.t.Balance(s.ctx, caller, id, treasury.Global()).Equal(dec(30)))
	s.True(s.t.HasAccountPermission(s.ctx, caller, id, member, account.PermDeposit))
	s.True(s.t.IsAccountOwner(s.ctx, caller, id, owner))

	s.False(s.t.RenameAccount(s.ctx, caller, uuid.New(), "Ghost"))
}

func (s *TreasurySuite) TestUUIDNameMapIncludesEveryKind() {
	personal := s.funded(0)
	shared := uuid.New()
	bank := uuid.New()
	s.Require().True(s.t.CreateSharedAccount(s.ctx, caller, shared, "shared", uuid.New()))
	s.Require().True(s.t.CreateBank(s.ctx, caller, bank, "bank", uuid.New()))

	names := s.t.UUIDNameMap(s.ctx, caller)
	s.Len(names, 3)
	s.Contains(names, personal)
	s.Contains(names, shared)
	s.Equal("bank", names[bank])
}

func (s *TreasurySuite) TestWorldBoundAccounts() {
	id := uuid.New()
	s.Require().True(s.t.CreateAccount(s.ctx, caller, id, "nether", treasury.InWorld("nether")))

	s.True(s.t.HasAccount(s.ctx, id, treasury.InWorld("nether")))
	s.True(s.t.HasAccount(s.ctx, id, treasury.Global()))
	s.False(s.t.HasAccount(s.ctx, id, treasury.InWorld("overworld")))

	resp := s.t.Deposit(s.ctx, caller, id, dec(5), treasury.InWorld("overworld"))
	s.Equal(transaction.Failure, resp.Type)
	s.True(resp.Is(treasury.ErrAccountNotFound))

	s.True(s.t.Deposit(s.ctx, caller, id, dec(5), treasury.InWorld("nether")).Succeeded())
	s.True(s.t.Balance(s.ctx, caller, id, treasury.InWorld("nether")).Equal(dec(5)))
	s.True(s.t.Balance(s.ctx, caller, id, treasury.Global()).IsZero(), "world balances are partitioned")
}

// ──────────────────────────────────────────────────
// Transactions
// ──────────────────────────────────────────────────

func (s *TreasurySuite) TestWithdrawThenDepositRoundTrips() {
	for _, amount := range []string{"0", "0.01", "12.5", "100"} {
		s.Run(amount, func() {
			id := s.funded(100)
			a := decimal.RequireFromString(amount)

			w := s.t.Withdraw(s.ctx, caller, id, a, treasury.Global())
			s.Require().True(w.Succeeded(), w.Message)
			s.True(w.Balance.Equal(dec(100).Sub(a)))

			d := s.t.Deposit(s.ctx, caller, id, a, treasury.Global())
			s.Require().True(d.Succeeded(), d.Message)
			s.True(s.t.Balance(s.ctx, caller, id, treasury.Global()).Equal(dec(100)))
		})
	}
}

func (s *TreasurySuite) TestHasMatchesBalance() {
	id := s.funded(50)

	tests := []struct {
		amount string
		want   bool
	}{
		{"0", true},
		{"49.99", true},
		{"50", true},
		{"50.01", false},
		{"-1", false},
	}
	for _, tt := range tests {
		got := s.t.Has(s.ctx, caller, id, decimal.RequireFromString(tt.amount), treasury.Global())
		s.Equal(tt.want, got, "Has(%s)", tt.amount)
	}
	s.False(s.t.Has(s.ctx, caller, uuid.New(), dec(0), treasury.Global()), "unknown account")
}

func (s *TreasurySuite) TestWithdrawInsufficientFundsLeavesBalance() {
	id := s.funded(10)

	resp := s.t.Withdraw(s.ctx, caller, id, dec(11), treasury.Global())
	s.Equal(transaction.Failure, resp.Type)
	s.True(resp.Is(treasury.ErrInsufficientFunds))
	s.True(resp.Balance.Equal(dec(10)), "failure reports the unchanged balance")
	s.True(s.t.Balance(s.ctx, caller, id, treasury.Global()).Equal(dec(10)))
}

func (s *TreasurySuite) TestOutcomeClassification() {
	id := s.funded(10)

	tests := []struct {
		name  string
		run   func() transaction.Response
		want  transaction.Type
		cause error
	}{
		{
			name: "negative deposit",
			run: func() transaction.Response {
				return s.t.Deposit(s.ctx, caller, id, dec(-1), treasury.Global())
			},
			want:  transaction.Failure,
			cause: treasury.ErrNegativeAmount,
		},
		{
			name: "negative withdraw",
			run: func() transaction.Response {
				return s.t.Withdraw(s.ctx, caller, id, dec(-1), treasury.Global())
			},
			want:  transaction.Failure,
			cause: treasury.ErrNegativeAmount,
		},
		{
			name: "unknown currency",
			run: func() transaction.Response {
				return s.t.Deposit(s.ctx, caller, id, dec(1), treasury.InCurrency("doubloons"))
			},
			want:  transaction.Failure,
			cause: treasury.ErrUnknownCurrency,
		},
		{
			name: "unknown account",
			run: func() transaction.Response {
				return s.t.Deposit(s.ctx, caller, uuid.New(), dec(1), treasury.Global())
			},
			want:  transaction.Failure,
			cause: treasury.ErrAccountNotFound,
		},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp := tt.run()
			s.Equal(tt.want, resp.Type)
			s.True(resp.Is(tt.cause), "cause: %v", resp.Err)
			s.NotEmpty(resp.Message)
		})
	}
	s.True(s.t.Balance(s.ctx, caller, id, treasury.Global()).Equal(dec(10)))
}

func (s *TreasurySuite) TestResponseCarriesRequest() {
	id := s.funded(0)

	resp := s.t.Deposit(s.ctx, "shop", id, decimal.RequireFromString("2.5"), treasury.InCurrency("gems"))
	s.Require().True(resp.Succeeded())
	s.Equal("shop", resp.Caller)
	s.Equal(id, resp.Account)
	s.Equal("gems", resp.Currency)
	s.Equal(transaction.OpDeposit, resp.Operation)
	s.Equal("txn", string(resp.ID.Prefix()))
	s.True(resp.Amount.Equal(decimal.RequireFromString("2.5")))
	s.False(resp.Timestamp.IsZero())
}

func (s *TreasurySuite) TestCurrenciesAreSeparateBalances() {
	id := s.funded(10)
	s.Require().True(s.t.Deposit(s.ctx, caller, id, dec(3), treasury.InCurrency("gems")).Succeeded())

	s.True(s.t.Balance(s.ctx, caller, id, treasury.Global()).Equal(dec(10)))
	s.True(s.t.Balance(s.ctx, caller, id, treasury.InCurrency("gems")).Equal(dec(3)))
}

func (s *TreasurySuite) TestConcurrentWithdrawalsNeverOverdraw() {
	id := s.funded(100)

	var wg sync.WaitGroup
	results := make([]transaction.Response, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.t.Withdraw(s.ctx, caller, id, dec(60), treasury.Global())
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Succeeded() {
			succeeded++
			s.True(r.Balance.Equal(dec(40)))
		} else {
			s.True(r.Is(treasury.ErrInsufficientFunds))
		}
	}
	s.Equal(1, succeeded)
	s.True(s.t.Balance(s.ctx, caller, id, treasury.Global()).Equal(dec(40)))
}

func (s *TreasurySuite) TestConcurrentDepositsAreNotLost() {
	id := s.funded(0)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.t.Deposit(s.ctx, caller, id, dec(2), treasury.Global())
		}()
	}
	wg.Wait()

	s.True(s.t.Balance(s.ctx, caller, id, treasury.Global()).Equal(dec(100)))
}

// ──────────────────────────────────────────────────
// Transfers
// ──────────────────────────────────────────────────

func (s *TreasurySuite) TestTransfer() {
	from, to := s.funded(50), s.funded(5)

	resp := s.t.Transfer(s.ctx, caller, from, to, dec(20), treasury.Global())
	s.Require().True(resp.Succeeded(), resp.Message)
	s.Equal("xfer", string(resp.ID.Prefix()))
	s.Equal(to, resp.Counterparty)
	s.True(resp.Balance.Equal(dec(30)))
	s.True(s.t.Balance(s.ctx, caller, to, treasury.Global()).Equal(dec(25)))

	resp = s.t.Transfer(s.ctx, caller, from, to, dec(31), treasury.Global())
	s.True(resp.Is(treasury.ErrInsufficientFunds))
	s.True(s.t.Balance(s.ctx, caller, from, treasury.Global()).Equal(dec(30)))
	s.True(s.t.Balance(s.ctx, caller, to, treasury.Global()).Equal(dec(25)))

	s.True(s.t.Transfer(s.ctx, caller, from, from, dec(1), treasury.Global()).Is(treasury.ErrSelfTransfer))
	s.True(s.t.Transfer(s.ctx, caller, from, uuid.New(), dec(1), treasury.Global()).Is(treasury.ErrAccountNotFound))
}

func (s *TreasurySuite) TestOppositeTransfersDoNotDeadlock() {
	a, b := s.funded(1000), s.funded(1000)

	var wg sync.WaitGroup
	for i := range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				s.t.Transfer(s.ctx, caller, a, b, dec(3), treasury.Global())
			} else {
				s.t.Transfer(s.ctx, caller, b, a, dec(3), treasury.Global())
			}
		}()
	}
	wg.Wait()

	total := s.t.Balance(s.ctx, caller, a, treasury.Global()).Add(s.t.Balance(s.ctx, caller, b, treasury.Global()))
	s.True(total.Equal(dec(2000)), "transfers conserve funds, got %s", total)
}

// ──────────────────────────────────────────────────
// Permissions
// ──────────────────────────────────────────────────

func (s *TreasurySuite) TestMemberPermissions() {
	id, owner, member := uuid.New(), uuid.New(), uuid.New()
	s.Require().True(s.t.CreateSharedAccount(s.ctx, caller, id, "vault", owner))

	s.True(s.t.AddAccountMember(s.ctx, caller, id, member, account.PermDeposit))
	s.False(s.t.AddAccountMember(s.ctx, caller, id, member, account.PermWithdraw), "already a member")
	s.False(s.t.AddAccountMember(s.ctx, caller, id, owner), "owner is implicit")
	s.False(s.t.AddAccountMember(s.ctx, caller, uuid.New(), member), "unknown account")

	s.True(s.t.HasAccountPermission(s.ctx, caller, id, member, account.PermDeposit))
	s.False(s.t.HasAccountPermission(s.ctx, caller, id, member, account.PermWithdraw))
	s.True(s.t.HasAccountPermission(s.ctx, caller, id, owner, account.PermWithdraw))
	s.True(s.t.IsAccountMember(s.ctx, caller, id, owner))
	s.True(s.t.IsAccountMember(s.ctx, caller, id, member))

	s.True(s.t.UpdateAccountPermission(s.ctx, caller, id, member, account.PermWithdraw, true))
	s.True(s.t.HasAccountPermission(s.ctx, caller, id, member, account.PermWithdraw))
	s.True(s.t.UpdateAccountPermission(s.ctx, caller, id, member, account.PermDeposit, false))
	s.False(s.t.HasAccountPermission(s.ctx, caller, id, member, account.PermDeposit))
	s.False(s.t.UpdateAccountPermission(s.ctx, caller, id, uuid.New(), account.PermDeposit, true), "non-member")

	s.False(s.t.RemoveAccountMember(s.ctx, caller, id, owner), "owner cannot be removed")
	s.True(s.t.RemoveAccountMember(s.ctx, caller, id, member))
	s.False(s.t.IsAccountMember(s.ctx, caller, id, member))
	s.False(s.t.HasAccountPermission(s.ctx, caller, id, member, account.PermWithdraw))
}

func (s *TreasurySuite) TestActorAuthorization() {
	id, owner, member := uuid.New(), uuid.New(), uuid.New()
	s.Require().True(s.t.CreateSharedAccount(s.ctx, caller, id, "vault", owner))
	s.Require().True(s.t.AddAccountMember(s.ctx, caller, id, member, account.PermDeposit))

	as := treasury.Global().As(member)
	s.True(s.t.Deposit(s.ctx, caller, id, dec(10), as).Succeeded())

	resp := s.t.Withdraw(s.ctx, caller, id, dec(1), as)
	s.Equal(transaction.Failure, resp.Type)
	s.True(resp.Is(treasury.ErrPermissionDenied))
	s.True(s.t.Balance(s.ctx, caller, id, as).IsZero(), "balance is hidden without the balance permission")
	s.True(s.t.Balance(s.ctx, caller, id, treasury.Global()).Equal(dec(10)))

	stranger := treasury.Global().As(uuid.New())
	s.True(s.t.Deposit(s.ctx, caller, id, dec(1), stranger).Is(treasury.ErrPermissionDenied))

	self := s.funded(5)
	s.True(s.t.Withdraw(s.ctx, caller, self, dec(5), treasury.Global().As(self)).Succeeded(), "personal accounts own themselves")
}

func (s *TreasurySuite) TestSetOwnerDemotesPreviousOwner() {
	id, oldOwner, newOwner := uuid.New(), uuid.New(), uuid.New()
	s.Require().True(s.t.CreateSharedAccount(s.ctx, caller, id, "vault", oldOwner))
	s.Require().True(s.t.AddAccountMember(s.ctx, caller, id, newOwner, account.PermBalance))

	s.True(s.t.SetOwner(s.ctx, caller, id, newOwner))
	s.True(s.t.IsAccountOwner(s.ctx, caller, id, newOwner))
	s.False(s.t.IsAccountOwner(s.ctx, caller, id, oldOwner))
	s.True(s.t.IsAccountMember(s.ctx, caller, id, oldOwner))
	for _, p := range account.AllPermissions {
		s.False(s.t.HasAccountPermission(s.ctx, caller, id, oldOwner, p), "demoted owner keeps %s", p)
		s.True(s.t.HasAccountPermission(s.ctx, caller, id, newOwner, p))
	}

	snapshot, err := s.t.Account(s.ctx, id)
	s.Require().NoError(err)
	s.NotContains(snapshot.Members, newOwner)

	s.True(s.t.SetOwner(s.ctx, caller, id, newOwner), "re-asserting the owner")
	s.False(s.t.SetOwner(s.ctx, caller, uuid.New(), newOwner), "unknown account")
	s.False(s.t.SetOwner(s.ctx, caller, id, uuid.Nil))
}

func (s *TreasurySuite) TestAccountSnapshotIsACopy() {
	id, owner := uuid.New(), uuid.New()
	s.Require().True(s.t.CreateSharedAccount(s.ctx, caller, id, "vault", owner))

	snapshot, err := s.t.Account(s.ctx, id)
	s.Require().NoError(err)
	snapshot.Members[uuid.New()] = account.NewPermissionSet(account.PermAdminister)
	snapshot.Name = "tampered"

	fresh, err := s.t.Account(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("vault", fresh.Name)
	s.Empty(fresh.Members)
}

// ──────────────────────────────────────────────────
// Transient permissions
// ──────────────────────────────────────────────────

func (s *TreasurySuite) TestTransientPermissions() {
	online := map[uuid.UUID]bool{}
	var mu sync.Mutex
	presence := func(_ context.Context, m uuid.UUID) bool {
		mu.Lock()
		defer mu.Unlock()
		return online[m]
	}
	tr := s.start(memory.New(), treasury.WithPresence(presence))
	defer tr.Stop()

	id, owner, member := uuid.New(), uuid.New(), uuid.New()
	s.Require().True(tr.CreateSharedAccount(s.ctx, caller, id, "vault", owner))

	ok, err := tr.AddTransientPermission(s.ctx, caller, id, member, account.PermWithdraw)
	s.False(ok)
	s.ErrorIs(err, treasury.ErrUnsupportedOperation, "offline member")

	mu.Lock()
	online[member] = true
	mu.Unlock()

	ok, err = tr.AddTransientPermission(s.ctx, caller, id, member, account.PermWithdraw)
	s.NoError(err)
	s.True(ok)
	s.True(tr.HasAccountPermission(s.ctx, caller, id, member, account.PermWithdraw))
	s.False(tr.IsAccountMember(s.ctx, caller, id, member), "transient grants do not confer membership")

	ok, err = tr.AddTransientPermission(s.ctx, caller, uuid.New(), member, account.PermWithdraw)
	s.NoError(err)
	s.False(ok, "unknown account")

	ok, err = tr.RemoveTransientPermission(s.ctx, caller, id, member, account.PermWithdraw)
	s.NoError(err)
	s.True(ok)
	s.False(tr.HasAccountPermission(s.ctx, caller, id, member, account.PermWithdraw))

	_, _ = tr.AddTransientPermission(s.ctx, caller, id, member, account.PermDeposit)
	_, _ = tr.AddTransientPermission(s.ctx, caller, id, member, account.PermBalance)
	s.Equal(2, tr.ClearTransientPermissions(member))
	s.False(tr.HasAccountPermission(s.ctx, caller, id, member, account.PermDeposit))
}

// ──────────────────────────────────────────────────
// Banks
// ──────────────────────────────────────────────────

func (s *TreasurySuite) TestBankLifecycle() {
	bank, owner, member := uuid.New(), uuid.New(), uuid.New()
	s.Require().True(s.t.CreateBankWithCurrency(s.ctx, caller, bank, "Gem Bank", owner, "gems"))
	s.False(s.t.CreateBank(s.ctx, caller, bank, "again", owner))
	s.Require().True(s.t.AddAccountMember(s.ctx, caller, bank, member))

	s.True(s.t.HasBankAccount(s.ctx, bank))
	s.True(s.t.BankSupportsCurrency(s.ctx, bank, "gems"))
	s.False(s.t.BankSupportsCurrency(s.ctx, bank, "coins"))
	s.True(s.t.IsBankOwner(s.ctx, caller, bank, owner))
	s.True(s.t.IsBankMember(s.ctx, caller, bank, member))
	s.Equal([]uuid.UUID{bank}, s.t.Banks(s.ctx, caller))

	s.True(s.t.BankDeposit(s.ctx, caller, bank, dec(40)).Succeeded())
	s.True(s.t.BankHas(s.ctx, caller, bank, dec(40)))
	s.True(s.t.BankWithdraw(s.ctx, caller, bank, dec(41)).Is(treasury.ErrInsufficientFunds))
	s.True(s.t.BankWithdraw(s.ctx, caller, bank, dec(15)).Succeeded())
	s.True(s.t.BankBalance(s.ctx, caller, bank).Equal(dec(25)))

	resp := s.t.Deposit(s.ctx, caller, bank, dec(1), treasury.Global())
	s.Equal(transaction.NotImplemented, resp.Type, "banks hold a single currency")

	s.True(s.t.RenameBankAccount(s.ctx, caller, bank, "Vault"))
	name, ok := s.t.BankAccountName(s.ctx, bank)
	s.True(ok)
	s.Equal("Vault", name)
	s.Equal("Vault", s.t.BankUUIDNameMap(s.ctx, caller)[bank])

	s.True(s.t.DeleteBank(s.ctx, caller, bank))
	s.False(s.t.HasBankAccount(s.ctx, bank))
	s.False(s.t.HasAccount(s.ctx, bank, treasury.Global()))
	s.True(s.t.BankBalance(s.ctx, caller, bank).IsZero())
	s.False(s.t.DeleteBank(s.ctx, caller, bank))

	balances, err := s.store.ListBalances(s.ctx, bank)
	s.Require().NoError(err)
	s.Empty(balances, "balances are unrecoverable after delete")

	// Recreating the id starts from nothing.
	s.Require().True(s.t.CreateBank(s.ctx, caller, bank, "Reborn", owner))
	s.True(s.t.BankBalance(s.ctx, caller, bank).IsZero())
	s.False(s.t.IsBankMember(s.ctx, caller, bank, member))
}

func (s *TreasurySuite) TestBankOperationsRejectPersonalAccounts() {
	id := s.funded(10)

	s.False(s.t.HasBankAccount(s.ctx, id))
	s.False(s.t.DeleteBank(s.ctx, caller, id))
	s.False(s.t.RenameBankAccount(s.ctx, caller, id, "bank?"))
	s.True(s.t.BankWithdraw(s.ctx, caller, id, dec(1)).Is(treasury.ErrAccountNotFound))
	s.True(s.t.HasAccount(s.ctx, id, treasury.Global()), "personal accounts are never deleted")
}

// ──────────────────────────────────────────────────
// Capabilities
// ──────────────────────────────────────────────────

func (s *TreasurySuite) TestDisabledCapabilities() {
	tr := s.start(memory.New(), treasury.WithCapabilities(treasury.Capabilities{}))
	defer tr.Stop()

	s.False(tr.HasSharedAccountSupport())
	s.False(tr.HasMultiCurrencySupport())
	s.False(tr.HasBankSupport())
	s.False(tr.HasWorldScopeSupport())
	s.True(tr.IsEnabled())

	id := uuid.New()
	s.True(tr.CreateAccount(s.ctx, caller, id, "solo", treasury.Global()))
	s.False(tr.CreateAccount(s.ctx, caller, uuid.New(), "world", treasury.InWorld("nether")))
	s.False(tr.CreateSharedAccount(s.ctx, caller, uuid.New(), "shared", uuid.New()))
	s.False(tr.CreateBank(s.ctx, caller, uuid.New(), "bank", uuid.New()))
	s.False(tr.AddAccountMember(s.ctx, caller, id, uuid.New()))

	world := tr.Deposit(s.ctx, caller, id, dec(1), treasury.InWorld("nether"))
	s.Equal(transaction.NotImplemented, world.Type)
	s.True(world.Is(treasury.ErrUnsupportedScope))

	gems := tr.Deposit(s.ctx, caller, id, dec(1), treasury.InCurrency("gems"))
	s.Equal(transaction.NotImplemented, gems.Type)

	unknown := tr.Deposit(s.ctx, caller, id, dec(1), treasury.InCurrency("doubloons"))
	s.Equal(transaction.Failure, unknown.Type, "unknown currency is a validation failure")

	s.Equal(transaction.NotImplemented, tr.BankDeposit(s.ctx, caller, uuid.New(), dec(1)).Type)
	s.True(tr.Deposit(s.ctx, caller, id, dec(1), treasury.Global()).Succeeded())
}

// ──────────────────────────────────────────────────
// Currencies
// ──────────────────────────────────────────────────

func (s *TreasurySuite) TestCurrencyQueries() {
	s.Equal("coins", s.t.DefaultCurrency(caller))
	s.Equal([]string{"coins", "gems"}, s.t.Currencies())
	s.True(s.t.HasCurrency("gems"))
	s.Equal(2, s.t.FractionalDigits(caller, ""))
	s.Equal(0, s.t.FractionalDigits(caller, "gems"))
	s.Equal(-1, s.t.FractionalDigits(caller, "doubloons"))
	s.Equal("Coin", s.t.DefaultCurrencyNameSingular(caller))
	s.Equal("Coins", s.t.DefaultCurrencyNamePlural(caller))
	s.Equal("1.00 Coin", s.t.Format(caller, decimal.RequireFromString("0.999"), ""))
	s.Equal("3 Gems", s.t.Format(caller, decimal.RequireFromString("2.5"), "gems"))
}

func (s *TreasurySuite) TestRegisterCurrencyPersists() {
	dust := &currency.Currency{Code: "dust", FractionalDigits: currency.Unbounded}
	s.Require().NoError(s.t.RegisterCurrency(s.ctx, caller, dust))
	s.ErrorIs(s.t.RegisterCurrency(s.ctx, caller, dust), treasury.ErrCurrencyExists)
	s.Error(s.t.RegisterCurrency(s.ctx, caller, &currency.Currency{Code: " "}))

	// A fresh engine over the same store learns the currency at Start.
	restarted := treasury.New(s.store)
	s.Require().NoError(restarted.Start(s.ctx))
	s.True(restarted.HasCurrency("dust"))
	s.True(restarted.HasCurrency("gems"))
	s.Equal("coins", restarted.DefaultCurrency(caller))
}

func (s *TreasurySuite) TestUnconfiguredRestartKeepsStoredDefault() {
	st := memory.New()
	first := treasury.New(st,
		treasury.WithCurrency(&currency.Currency{Code: "gems", Singular: "Gem", Plural: "Gems"}),
		treasury.WithCurrency(treasury.DefaultCurrency()),
	)
	s.Require().NoError(first.Start(s.ctx))
	s.Equal("gems", first.DefaultCurrency(caller))

	restarted := treasury.New(st)
	s.Require().NoError(restarted.Start(s.ctx))
	s.Equal("gems", restarted.DefaultCurrency(caller))
	s.Equal("Gem", restarted.DefaultCurrencyNameSingular(caller))
	s.Equal([]string{"coins", "gems"}, restarted.Currencies())
	s.Zero(restarted.FractionalDigits(caller, ""), "gems precision, not the seeded coins")
}

func (s *TreasurySuite) TestConfiguredDefaultIsPersisted() {
	st := memory.New()
	first := treasury.New(st,
		treasury.WithCurrency(treasury.DefaultCurrency()),
		treasury.WithCurrency(&currency.Currency{Code: "gems", Singular: "Gem", Plural: "Gems"}),
	)
	s.Require().NoError(first.Start(s.ctx))

	switched := treasury.New(st,
		treasury.WithDefaultCurrency(&currency.Currency{Code: "gems", Singular: "Gem", Plural: "Gems"}),
	)
	s.Require().NoError(switched.Start(s.ctx))
	s.Equal("gems", switched.DefaultCurrency(caller))

	stored, err := st.ListCurrencies(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(stored, 2)
	s.Equal("coins", stored[0].Code)
	s.False(stored[0].Default)
	s.Equal("gems", stored[1].Code)
	s.True(stored[1].Default)

	restarted := treasury.New(st)
	s.Require().NoError(restarted.Start(s.ctx))
	s.Equal("gems", restarted.DefaultCurrency(caller))
}

func (s *TreasurySuite) TestEmptyStoreGetsSeededDefault() {
	st := memory.New()
	tr := treasury.New(st)
	s.Require().NoError(tr.Start(s.ctx))
	s.Equal("coins", tr.DefaultCurrency(caller))

	stored, err := st.ListCurrencies(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(stored, 1)
	s.True(stored[0].Default)
}
