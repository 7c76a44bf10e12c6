package treasury_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/store/memory"
	"github.com/xraph/treasury/transaction"
)

// refundPlugin records every event and, on the first successful withdrawal,
// deposits a refund back into the same account from inside the hook.
type refundPlugin struct {
	tr *treasury.Treasury

	mu       sync.Mutex
	events   []string
	outcomes []transaction.Type
	refunded bool
}

var (
	_ plugin.OnAccountCreated = (*refundPlugin)(nil)
	_ plugin.OnMemberAdded    = (*refundPlugin)(nil)
	_ plugin.OnOwnerChanged   = (*refundPlugin)(nil)
	_ plugin.OnTransaction    = (*refundPlugin)(nil)
	_ plugin.OnAccountDeleted = (*refundPlugin)(nil)
)

func (p *refundPlugin) Name() string { return "refund" }

func (p *refundPlugin) record(event string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *refundPlugin) OnAccountCreated(_ context.Context, _ *account.Account) error {
	p.record("account_created")
	return nil
}

func (p *refundPlugin) OnMemberAdded(_ context.Context, _, _ uuid.UUID, _ account.PermissionSet) error {
	p.record("member_added")
	return nil
}

func (p *refundPlugin) OnOwnerChanged(_ context.Context, _, _, _ uuid.UUID) error {
	p.record("owner_changed")
	return nil
}

func (p *refundPlugin) OnAccountDeleted(_ context.Context, _ uuid.UUID) error {
	p.record("account_deleted")
	return nil
}

func (p *refundPlugin) OnTransaction(ctx context.Context, r *transaction.Response) error {
	p.mu.Lock()
	p.events = append(p.events, string(r.Operation))
	p.outcomes = append(p.outcomes, r.Type)
	refund := r.Operation == transaction.OpWithdraw && r.Succeeded() && !p.refunded
	if refund {
		p.refunded = true
	}
	p.mu.Unlock()

	if refund {
		// Re-entering the ledger from a hook must not deadlock.
		p.tr.Deposit(ctx, "refund", r.Account, r.Amount, treasury.InCurrency(r.Currency))
	}
	return nil
}

func (p *refundPlugin) snapshot() ([]string, []transaction.Type) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...), append([]transaction.Type(nil), p.outcomes...)
}

func TestPluginsObserveEvents(t *testing.T) {
	ctx := context.Background()
	p := &refundPlugin{}
	tr := treasury.New(memory.New(),
		treasury.WithPlugin(p),
		treasury.WithPluginTimeout(2*time.Second),
	)
	p.tr = tr
	require.NoError(t, tr.Start(ctx))
	defer tr.Stop()

	vault, owner, member := uuid.New(), uuid.New(), uuid.New()
	require.True(t, tr.CreateSharedAccount(ctx, "test", vault, "vault", owner))
	require.True(t, tr.AddAccountMember(ctx, "test", vault, member))
	require.True(t, tr.SetOwner(ctx, "test", vault, member))

	require.True(t, tr.Deposit(ctx, "test", vault, decimal.NewFromInt(10), treasury.Global()).Succeeded())
	resp := tr.Withdraw(ctx, "test", vault, decimal.NewFromInt(4), treasury.Global())
	require.True(t, resp.Succeeded())
	assert.True(t, resp.Balance.Equal(decimal.NewFromInt(6)))

	tr.Withdraw(ctx, "test", vault, decimal.NewFromInt(100), treasury.Global())

	assert.True(t, tr.Balance(ctx, "test", vault, treasury.Global()).Equal(decimal.NewFromInt(10)), "refund applied")

	events, outcomes := p.snapshot()
	assert.Equal(t, []string{
		"account_created",
		"member_added",
		"owner_changed",
		"deposit",
		"withdraw",
		"deposit",
		"withdraw",
	}, events)
	assert.Equal(t, []transaction.Type{
		transaction.Success,
		transaction.Success,
		transaction.Success,
		transaction.Failure,
	}, outcomes)
}

// tamperPlugin rewrites every response it observes.
type tamperPlugin struct{}

func (tamperPlugin) Name() string { return "tamper" }

func (tamperPlugin) OnTransaction(_ context.Context, r *transaction.Response) error {
	r.Type = transaction.Failure
	r.Amount = decimal.NewFromInt(-1)
	r.Message = "tampered"
	return nil
}

func TestPluginsCannotAlterResponses(t *testing.T) {
	ctx := context.Background()
	rec := &refundPlugin{refunded: true}
	tr := treasury.New(memory.New(),
		treasury.WithPlugin(tamperPlugin{}),
		treasury.WithPlugin(rec),
	)
	require.NoError(t, tr.Start(ctx))
	defer tr.Stop()

	acct := uuid.New()
	require.True(t, tr.CreateAccount(ctx, "test", acct, "alice", treasury.Global()))
	resp := tr.Deposit(ctx, "test", acct, decimal.NewFromInt(5), treasury.Global())

	assert.True(t, resp.Succeeded())
	assert.True(t, resp.Amount.Equal(decimal.NewFromInt(5)))
	assert.Empty(t, resp.Message)

	_, outcomes := rec.snapshot()
	assert.Equal(t, []transaction.Type{transaction.Success}, outcomes, "later plugins see the original outcome")
}
