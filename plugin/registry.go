package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/currency"
	"github.com/xraph/treasury/transaction"
)

// DefaultTimeout bounds a single hook invocation.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit               []OnInit
	onShutdown           []OnShutdown
	onAccountCreated     []OnAccountCreated
	onAccountRenamed     []OnAccountRenamed
	onAccountDeleted     []OnAccountDeleted
	onMemberAdded        []OnMemberAdded
	onMemberRemoved      []OnMemberRemoved
	onPermissionUpdated  []OnPermissionUpdated
	onOwnerChanged       []OnOwnerChanged
	onTransaction        []OnTransaction
	onCurrencyRegistered []OnCurrencyRegistered
	presenceProviders    []PresenceProvider
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout bounds each hook call. Non-positive values keep the default.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnAccountCreated); ok {
		r.onAccountCreated = append(r.onAccountCreated, v)
	}
	if v, ok := p.(OnAccountRenamed); ok {
		r.onAccountRenamed = append(r.onAccountRenamed, v)
	}
	if v, ok := p.(OnAccountDeleted); ok {
		r.onAccountDeleted = append(r.onAccountDeleted, v)
	}
	if v, ok := p.(OnMemberAdded); ok {
		r.onMemberAdded = append(r.onMemberAdded, v)
	}
	if v, ok := p.(OnMemberRemoved); ok {
		r.onMemberRemoved = append(r.onMemberRemoved, v)
	}
	if v, ok := p.(OnPermissionUpdated); ok {
		r.onPermissionUpdated = append(r.onPermissionUpdated, v)
	}
	if v, ok := p.(OnOwnerChanged); ok {
		r.onOwnerChanged = append(r.onOwnerChanged, v)
	}
	if v, ok := p.(OnTransaction); ok {
		r.onTransaction = append(r.onTransaction, v)
	}
	if v, ok := p.(OnCurrencyRegistered); ok {
		r.onCurrencyRegistered = append(r.onCurrencyRegistered, v)
	}
	if v, ok := p.(PresenceProvider); ok {
		r.presenceProviders = append(r.presenceProviders, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeFor[OnInit]()},
	{"OnShutdown", reflect.TypeFor[OnShutdown]()},
	{"OnAccountCreated", reflect.TypeFor[OnAccountCreated]()},
	{"OnAccountRenamed", reflect.TypeFor[OnAccountRenamed]()},
	{"OnAccountDeleted", reflect.TypeFor[OnAccountDeleted]()},
	{"OnMemberAdded", reflect.TypeFor[OnMemberAdded]()},
	{"OnMemberRemoved", reflect.TypeFor[OnMemberRemoved]()},
	{"OnPermissionUpdated", reflect.TypeFor[OnPermissionUpdated]()},
	{"OnOwnerChanged", reflect.TypeFor[OnOwnerChanged]()},
	{"OnTransaction", reflect.TypeFor[OnTransaction]()},
	{"OnCurrencyRegistered", reflect.TypeFor[OnCurrencyRegistered]()},
	{"PresenceProvider", reflect.TypeFor[PresenceProvider]()},
}

// implementedInterfaces returns the hook interfaces p implements.
func implementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			interfaces = append(interfaces, h.name)
		}
	}
	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// PresenceProviders returns all registered presence providers.
func (r *Registry) PresenceProviders() []PresenceProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]PresenceProvider, len(r.presenceProviders))
	copy(result, r.presenceProviders)
	return result
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, t any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInit", p.Name(), func() error { return p.OnInit(ctx, t) })
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnShutdown", p.Name(), func() error { return p.OnShutdown(ctx) })
	}
}

// EmitAccountCreated emits an account created event.
func (r *Registry) EmitAccountCreated(ctx context.Context, a *account.Account) {
	r.mu.RLock()
	plugins := r.onAccountCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnAccountCreated", p.Name(), func() error { return p.OnAccountCreated(ctx, a) })
	}
}

// EmitAccountRenamed emits an account renamed event.
func (r *Registry) EmitAccountRenamed(ctx context.Context, a *account.Account, oldName string) {
	r.mu.RLock()
	plugins := r.onAccountRenamed
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnAccountRenamed", p.Name(), func() error { return p.OnAccountRenamed(ctx, a, oldName) })
	}
}

// EmitAccountDeleted emits an account deleted event.
func (r *Registry) EmitAccountDeleted(ctx context.Context, accountID uuid.UUID) {
	r.mu.RLock()
	plugins := r.onAccountDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnAccountDeleted", p.Name(), func() error { return p.OnAccountDeleted(ctx, accountID) })
	}
}

// EmitMemberAdded emits a member added event.
func (r *Registry) EmitMemberAdded(ctx context.Context, accountID, member uuid.UUID, perms account.PermissionSet) {
	r.mu.RLock()
	plugins := r.onMemberAdded
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnMemberAdded", p.Name(), func() error {
			return p.OnMemberAdded(ctx, accountID, member, perms.Clone())
		})
	}
}

// EmitMemberRemoved emits a member removed event.
func (r *Registry) EmitMemberRemoved(ctx context.Context, accountID, member uuid.UUID) {
	r.mu.RLock()
	plugins := r.onMemberRemoved
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnMemberRemoved", p.Name(), func() error { return p.OnMemberRemoved(ctx, accountID, member) })
	}
}

// EmitPermissionUpdated emits a permission updated event.
func (r *Registry) EmitPermissionUpdated(ctx context.Context, accountID, member uuid.UUID, perm account.Permission, value bool) {
	r.mu.RLock()
	plugins := r.onPermissionUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnPermissionUpdated", p.Name(), func() error {
			return p.OnPermissionUpdated(ctx, accountID, member, perm, value)
		})
	}
}

// EmitOwnerChanged emits an owner changed event.
func (r *Registry) EmitOwnerChanged(ctx context.Context, accountID, oldOwner, newOwner uuid.UUID) {
	r.mu.RLock()
	plugins := r.onOwnerChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnOwnerChanged", p.Name(), func() error {
			return p.OnOwnerChanged(ctx, accountID, oldOwner, newOwner)
		})
	}
}

// EmitTransaction emits a transaction outcome. Every plugin gets its own
// copy of resp.
func (r *Registry) EmitTransaction(ctx context.Context, resp *transaction.Response) {
	r.mu.RLock()
	plugins := r.onTransaction
	r.mu.RUnlock()

	for _, p := range plugins {
		cp := *resp
		r.dispatch(ctx, "OnTransaction", p.Name(), func() error { return p.OnTransaction(ctx, &cp) })
	}
}

// EmitCurrencyRegistered emits a currency registered event.
func (r *Registry) EmitCurrencyRegistered(ctx context.Context, c *currency.Currency) {
	r.mu.RLock()
	plugins := r.onCurrencyRegistered
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnCurrencyRegistered", p.Name(), func() error { return p.OnCurrencyRegistered(ctx, c) })
	}
}

// dispatch runs one hook and logs its failure. Hook errors never reach the
// ledger caller.
func (r *Registry) dispatch(ctx context.Context, hook, pluginName string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
