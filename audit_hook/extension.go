// Package audithook bridges Treasury account, membership and transaction
// events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import any
// audit backend directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/currency"
	"github.com/xraph/treasury/plugin"
	"github.com/xraph/treasury/transaction"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnAccountCreated     = (*Extension)(nil)
	_ plugin.OnAccountRenamed     = (*Extension)(nil)
	_ plugin.OnAccountDeleted     = (*Extension)(nil)
	_ plugin.OnMemberAdded        = (*Extension)(nil)
	_ plugin.OnMemberRemoved      = (*Extension)(nil)
	_ plugin.OnPermissionUpdated  = (*Extension)(nil)
	_ plugin.OnOwnerChanged       = (*Extension)(nil)
	_ plugin.OnTransaction        = (*Extension)(nil)
	_ plugin.OnCurrencyRegistered = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a backend-neutral audit record.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Treasury events to an audit trail backend.
type Extension struct {
	recorder     Recorder
	enabled      map[string]bool // nil = all enabled
	failuresOnly bool
	logger       *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Account lifecycle hooks
// ──────────────────────────────────────────────────

// OnAccountCreated implements plugin.OnAccountCreated.
func (e *Extension) OnAccountCreated(ctx context.Context, a *account.Account) error {
	return e.record(ctx, ActionAccountCreated, SeverityInfo, OutcomeSuccess,
		resourceFor(a), a.ID.String(), CategoryAccount, nil,
		"name", a.Name,
		"kind", string(a.Kind),
		"world", a.World,
		"owner", a.Owner.String(),
	)
}

// OnAccountRenamed implements plugin.OnAccountRenamed.
func (e *Extension) OnAccountRenamed(ctx context.Context, a *account.Account, oldName string) error {
	return e.record(ctx, ActionAccountRenamed, SeverityInfo, OutcomeSuccess,
		resourceFor(a), a.ID.String(), CategoryAccount, nil,
		"old_name", oldName,
		"new_name", a.Name,
	)
}

// OnAccountDeleted implements plugin.OnAccountDeleted. Only banks can be
// deleted, and deletion destroys balances, so it is recorded as a warning.
func (e *Extension) OnAccountDeleted(ctx context.Context, accountID uuid.UUID) error {
	return e.record(ctx, ActionAccountDeleted, SeverityWarning, OutcomeSuccess,
		ResourceBank, accountID.String(), CategoryAccount, nil,
	)
}

// ──────────────────────────────────────────────────
// Membership hooks
// ──────────────────────────────────────────────────

// OnMemberAdded implements plugin.OnMemberAdded.
func (e *Extension) OnMemberAdded(ctx context.Context, accountID, member uuid.UUID, perms account.PermissionSet) error {
	return e.record(ctx, ActionMemberAdded, SeverityInfo, OutcomeSuccess,
		ResourceMember, accountID.String(), CategoryAccess, nil,
		"member", member.String(),
		"permissions", perms.Slice(),
	)
}

// OnMemberRemoved implements plugin.OnMemberRemoved.
func (e *Extension) OnMemberRemoved(ctx context.Context, accountID, member uuid.UUID) error {
	return e.record(ctx, ActionMemberRemoved, SeverityInfo, OutcomeSuccess,
		ResourceMember, accountID.String(), CategoryAccess, nil,
		"member", member.String(),
	)
}

// OnPermissionUpdated implements plugin.OnPermissionUpdated.
func (e *Extension) OnPermissionUpdated(ctx context.Context, accountID, member uuid.UUID, perm account.Permission, value bool) error {
	action := ActionPermissionRevoked
	if value {
		action = ActionPermissionGranted
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceMember, accountID.String(), CategoryAccess, nil,
		"member", member.String(),
		"permission", string(perm),
	)
}

// OnOwnerChanged implements plugin.OnOwnerChanged.
func (e *Extension) OnOwnerChanged(ctx context.Context, accountID, oldOwner, newOwner uuid.UUID) error {
	return e.record(ctx, ActionOwnerChanged, SeverityWarning, OutcomeSuccess,
		ResourceAccount, accountID.String(), CategoryAccess, nil,
		"old_owner", oldOwner.String(),
		"new_owner", newOwner.String(),
	)
}

// ──────────────────────────────────────────────────
// Transaction hooks
// ──────────────────────────────────────────────────

// OnTransaction implements plugin.OnTransaction.
func (e *Extension) OnTransaction(ctx context.Context, r *transaction.Response) error {
	if e.failuresOnly && r.Succeeded() {
		return nil
	}

	var action string
	switch r.Operation {
	case transaction.OpDeposit:
		action = ActionDeposit
	case transaction.OpWithdraw:
		action = ActionWithdraw
	default:
		action = ActionTransfer
	}

	severity, outcome := SeverityInfo, OutcomeSuccess
	switch r.Type {
	case transaction.Failure:
		severity, outcome = SeverityWarning, OutcomeFailure
	case transaction.NotImplemented:
		outcome = OutcomeUnsupported
	}

	kv := []any{
		"transaction_id", r.ID.String(),
		"amount", r.Amount.String(),
		"balance", r.Balance.String(),
		"currency", r.Currency,
		"world", r.World,
		"caller", r.Caller,
	}
	if r.Counterparty != uuid.Nil {
		kv = append(kv, "counterparty", r.Counterparty.String())
	}

	return e.record(ctx, action, severity, outcome,
		ResourceTransaction, r.Account.String(), CategoryLedger, r.Err,
		kv...,
	)
}

// ──────────────────────────────────────────────────
// Currency hooks
// ──────────────────────────────────────────────────

// OnCurrencyRegistered implements plugin.OnCurrencyRegistered.
func (e *Extension) OnCurrencyRegistered(ctx context.Context, c *currency.Currency) error {
	return e.record(ctx, ActionCurrencyRegistered, SeverityInfo, OutcomeSuccess,
		ResourceCurrency, c.Code, CategoryAdmin, nil,
		"fractional_digits", c.FractionalDigits,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func resourceFor(a *account.Account) string {
	if a.Kind == account.KindBank {
		return ResourceBank
	}
	return ResourceAccount
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
