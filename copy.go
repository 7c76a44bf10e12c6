package treasury

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/store"
)

// DefaultCopyConcurrency bounds how many accounts CopyStore moves at once.
const DefaultCopyConcurrency = 8

// CopyReport summarizes a CopyStore run.
type CopyReport struct {
	ID         id.CopyRunID  `json:"id"`
	Currencies int           `json:"currencies"`
	Accounts   int           `json:"accounts"`
	Balances   int           `json:"balances"`
	Replaced   int           `json:"replaced"`
	StartedAt  time.Time     `json:"started_at"`
	Elapsed    time.Duration `json:"elapsed"`
}

type copyConfig struct {
	concurrency int
	logger      *slog.Logger
}

// CopyOption configures CopyStore.
type CopyOption func(*copyConfig)

// WithCopyConcurrency bounds how many accounts are copied in parallel.
func WithCopyConcurrency(n int) CopyOption {
	return func(c *copyConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithCopyLogger sets the logger for the copy run.
func WithCopyLogger(logger *slog.Logger) CopyOption {
	return func(c *copyConfig) { c.logger = logger }
}

// CopyStore copies every currency, account and balance from src into dst,
// for example to move a ledger to a different backend. Accounts already in
// dst are replaced along with their balances. Neither store is locked: run it while no Treasury is
// serving src.
func CopyStore(ctx context.Context, src, dst store.Store, opts ...CopyOption) (*CopyReport, error) {
	cfg := copyConfig{concurrency: DefaultCopyConcurrency, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	report := &CopyReport{ID: id.NewCopyRunID(), StartedAt: time.Now().UTC()}
	log := cfg.logger.With("copy_run", report.ID.String())

	if err := dst.Migrate(ctx); err != nil {
		return report, fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}

	currencies, err := src.ListCurrencies(ctx)
	if err != nil {
		return report, fmt.Errorf("treasury: copy: list currencies: %w", err)
	}
	for _, c := range currencies {
		if err := dst.SaveCurrency(ctx, c); err != nil {
			return report, fmt.Errorf("treasury: copy: save currency %s: %w", c.Code, err)
		}
		report.Currencies++
	}

	accounts, err := listAccounts(ctx, src, "")
	if err != nil {
		return report, fmt.Errorf("treasury: copy: list accounts: %w", err)
	}

	var balances, replaced atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)

	for _, a := range accounts {
		g.Go(func() error {
			n, existed, err := copyAccount(gctx, src, dst, a)
			if err != nil {
				return fmt.Errorf("treasury: copy account %s: %w", a.ID, err)
			}
			balances.Add(int64(n))
			if existed {
				replaced.Add(1)
			}
			return nil
		})
	}

	err = g.Wait()
	report.Accounts = len(accounts)
	report.Balances = int(balances.Load())
	report.Replaced = int(replaced.Load())
	report.Elapsed = time.Since(report.StartedAt)
	if err != nil {
		log.Error("treasury: copy failed", "error", err)
		return report, err
	}

	log.Info("treasury: copy finished",
		"currencies", report.Currencies,
		"accounts", report.Accounts,
		"balances", report.Balances,
		"replaced", report.Replaced,
		"elapsed", report.Elapsed,
	)
	return report, nil
}

// copyAccount writes a and its balances into dst. An account already in dst
// is deleted first so balance keys that src no longer holds do not survive.
func copyAccount(ctx context.Context, src, dst store.Store, a *account.Account) (int, bool, error) {
	existed := false
	if err := dst.CreateAccount(ctx, a); err != nil {
		if !errors.Is(err, ErrAlreadyExists) {
			return 0, false, err
		}
		existed = true
		if err := dst.DeleteAccount(ctx, a.ID); err != nil {
			return 0, true, err
		}
		if err := dst.CreateAccount(ctx, a); err != nil {
			return 0, true, err
		}
	}

	balances, err := src.ListBalances(ctx, a.ID)
	if err != nil {
		return 0, existed, err
	}
	for _, b := range balances {
		if err := dst.SetBalance(ctx, b.Key, b.Amount); err != nil {
			return 0, existed, err
		}
	}
	return len(balances), existed, nil
}
