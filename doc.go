// Package treasury provides a transactional, multi-currency account ledger
// shared by many independent and mutually distrusting calling subsystems.
//
// Treasury is designed as a library, not a service. Import it directly into
// your Go application. It provides:
//
//   - Personal and shared accounts with per-member permission sets
//   - Arbitrary-precision balances keyed by account, currency and world
//   - Linearizable withdraw/deposit per balance key with no global lock
//   - Deadlock-free transfers between accounts
//   - An exception-free outcome protocol (SUCCESS, FAILURE, NOT_IMPLEMENTED)
//   - A legacy bank projection, the only place accounts can be deleted
//   - Pluggable stores (memory, SQLite, PostgreSQL, MongoDB via grove)
//   - Plugin hooks for audit trails and Prometheus metrics
//
// # Quick Start
//
// Create a treasury instance with your preferred store:
//
//	import (
//	    "github.com/xraph/treasury"
//	    "github.com/xraph/treasury/store/memory"
//	)
//
//	t := treasury.New(memory.New())
//	if err := t.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer t.Stop()
//
// # Accounts and balances
//
// Every call names the caller for attribution and takes an explicit scope.
// The zero Scope means the global balance in the default currency:
//
//	alice := uuid.New()
//	t.CreateAccount(ctx, "shop", alice, "Alice", treasury.Global())
//
//	resp := t.Deposit(ctx, "shop", alice, decimal.NewFromInt(100), treasury.Global())
//	if !resp.Succeeded() {
//	    log.Printf("deposit %s: %v", resp.Type, resp.Err)
//	}
//
//	resp = t.Withdraw(ctx, "shop", alice, decimal.NewFromInt(60), treasury.InCurrency("gems"))
//	switch resp.Type {
//	case treasury.NotImplemented:
//	    // Retry in the default currency or the global scope.
//	case treasury.Failure:
//	    if resp.Is(treasury.ErrInsufficientFunds) { ... }
//	}
//
// # Shared accounts
//
// The owner of a shared account holds every permission; members hold only
// what was granted to them:
//
//	t.CreateSharedAccount(ctx, "guilds", guild, "Guild vault", leader)
//	t.AddAccountMember(ctx, "guilds", guild, member, treasury.PermDeposit)
//	t.Withdraw(ctx, "guilds", guild, amount, treasury.Global().As(member)) // FAILURE: permission denied
//
// # Capabilities
//
// A Treasury can be configured without shared accounts, extra currencies,
// banks or world scopes. Callers query HasSharedAccountSupport,
// HasMultiCurrencySupport, HasBankSupport and HasWorldScopeSupport before
// relying on them; unsupported calls answer false or NOT_IMPLEMENTED.
//
// # TypeID
//
// Records Treasury mints itself use TypeID identifiers:
//
//	txn_01h2xcejqtf2nbrexx3vqjhp41   // Deposit or withdrawal
//	xfer_01h2xcejqtf2nbrexx3vqjhp41  // Transfer
//	copy_01h455vb4pex5vsknk084sn02q  // Store copy run
//
// Accounts are addressed by the UUIDs of the host runtime.
package treasury
