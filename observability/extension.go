// Package observability provides a metrics extension for Treasury that records
// account, membership and transaction event counts via a MetricFactory.
package observability

import (
	"context"

	"github.com/google/uuid"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/currency"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/transaction"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnAccountCreated     = (*MetricsExtension)(nil)
	_ plugin.OnAccountRenamed     = (*MetricsExtension)(nil)
	_ plugin.OnAccountDeleted     = (*MetricsExtension)(nil)
	_ plugin.OnMemberAdded        = (*MetricsExtension)(nil)
	_ plugin.OnMemberRemoved      = (*MetricsExtension)(nil)
	_ plugin.OnPermissionUpdated  = (*MetricsExtension)(nil)
	_ plugin.OnOwnerChanged       = (*MetricsExtension)(nil)
	_ plugin.OnTransaction        = (*MetricsExtension)(nil)
	_ plugin.OnCurrencyRegistered = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide ledger metrics.
// Register it as a Treasury plugin to automatically track ledger activity.
type MetricsExtension struct {
	factory MetricFactory

	// Account metrics
	AccountCreated Counter
	SharedCreated  Counter
	BankCreated    Counter
	AccountRenamed Counter
	BankDeleted    Counter

	// Membership metrics
	MemberAdded       Counter
	MemberRemoved     Counter
	PermissionGranted Counter
	PermissionRevoked Counter
	OwnerChanged      Counter

	// Transaction metrics
	Deposits            Counter
	Withdrawals         Counter
	Transfers           Counter
	TransactionFailed   Counter
	TransactionRejected Counter
	InsufficientFunds   Counter
	PermissionDenied    Counter
	TransactionAmount   Histogram

	// Currency metrics
	CurrencyRegistered Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions, or NewPrometheusFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Account metrics
		AccountCreated: factory.Counter("treasury.account.created"),
		SharedCreated:  factory.Counter("treasury.account.shared.created"),
		BankCreated:    factory.Counter("treasury.bank.created"),
		AccountRenamed: factory.Counter("treasury.account.renamed"),
		BankDeleted:    factory.Counter("treasury.bank.deleted"),

		// Membership metrics
		MemberAdded:       factory.Counter("treasury.member.added"),
		MemberRemoved:     factory.Counter("treasury.member.removed"),
		PermissionGranted: factory.Counter("treasury.permission.granted"),
		PermissionRevoked: factory.Counter("treasury.permission.revoked"),
		OwnerChanged:      factory.Counter("treasury.owner.changed"),

		// Transaction metrics
		Deposits:            factory.Counter("treasury.transaction.deposits"),
		Withdrawals:         factory.Counter("treasury.transaction.withdrawals"),
		Transfers:           factory.Counter("treasury.transaction.transfers"),
		TransactionFailed:   factory.Counter("treasury.transaction.failed"),
		TransactionRejected: factory.Counter("treasury.transaction.not_implemented"),
		InsufficientFunds:   factory.Counter("treasury.transaction.insufficient_funds"),
		PermissionDenied:    factory.Counter("treasury.transaction.permission_denied"),
		TransactionAmount:   factory.Histogram("treasury.transaction.amount"),

		// Currency metrics
		CurrencyRegistered: factory.Counter("treasury.currency.registered"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Account lifecycle hooks
// ──────────────────────────────────────────────────

// OnAccountCreated implements plugin.OnAccountCreated.
func (m *MetricsExtension) OnAccountCreated(_ context.Context, a *account.Account) error {
	switch a.Kind {
	case account.KindBank:
		m.BankCreated.Inc()
	case account.KindShared:
		m.SharedCreated.Inc()
	default:
		m.AccountCreated.Inc()
	}
	return nil
}

// OnAccountRenamed implements plugin.OnAccountRenamed.
func (m *MetricsExtension) OnAccountRenamed(_ context.Context, _ *account.Account, _ string) error {
	m.AccountRenamed.Inc()
	return nil
}

// OnAccountDeleted implements plugin.OnAccountDeleted.
func (m *MetricsExtension) OnAccountDeleted(_ context.Context, _ uuid.UUID) error {
	m.BankDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Membership hooks
// ──────────────────────────────────────────────────

// OnMemberAdded implements plugin.OnMemberAdded.
func (m *MetricsExtension) OnMemberAdded(_ context.Context, _, _ uuid.UUID, _ account.PermissionSet) error {
	m.MemberAdded.Inc()
	return nil
}

// OnMemberRemoved implements plugin.OnMemberRemoved.
func (m *MetricsExtension) OnMemberRemoved(_ context.Context, _, _ uuid.UUID) error {
	m.MemberRemoved.Inc()
	return nil
}

// OnPermissionUpdated implements plugin.OnPermissionUpdated.
func (m *MetricsExtension) OnPermissionUpdated(_ context.Context, _, _ uuid.UUID, _ account.Permission, value bool) error {
	if value {
		m.PermissionGranted.Inc()
	} else {
		m.PermissionRevoked.Inc()
	}
	return nil
}

// OnOwnerChanged implements plugin.OnOwnerChanged.
func (m *MetricsExtension) OnOwnerChanged(_ context.Context, _, _, _ uuid.UUID) error {
	m.OwnerChanged.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Transaction hooks
// ──────────────────────────────────────────────────

// OnTransaction implements plugin.OnTransaction. Only applied requests count
// towards the per-operation counters and the amount histogram.
func (m *MetricsExtension) OnTransaction(_ context.Context, r *transaction.Response) error {
	switch r.Type {
	case transaction.Failure:
		m.TransactionFailed.Inc()
		switch {
		case r.Is(transaction.ErrInsufficientFunds):
			m.InsufficientFunds.Inc()
		case r.Is(transaction.ErrPermissionDenied):
			m.PermissionDenied.Inc()
		}
		return nil
	case transaction.NotImplemented:
		m.TransactionRejected.Inc()
		return nil
	}

	switch r.Operation {
	case transaction.OpDeposit:
		m.Deposits.Inc()
	case transaction.OpWithdraw:
		m.Withdrawals.Inc()
	case transaction.OpTransfer:
		m.Transfers.Inc()
	}
	m.TransactionAmount.Observe(r.Amount.InexactFloat64())
	return nil
}

// ──────────────────────────────────────────────────
// Currency hooks
// ──────────────────────────────────────────────────

// OnCurrencyRegistered implements plugin.OnCurrencyRegistered.
func (m *MetricsExtension) OnCurrencyRegistered(_ context.Context, _ *currency.Currency) error {
	m.CurrencyRegistered.Inc()
	return nil
}
