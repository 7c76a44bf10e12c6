package plugin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/treasury/account"
	"github.com/xraph/treasury/transaction"
)

type recordingPlugin struct {
	mu     sync.Mutex
	name   string
	events []string
	err    error
}

func (p *recordingPlugin) Name() string { return p.name }

func (p *recordingPlugin) record(ev string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPlugin) OnAccountCreated(_ context.Context, _ *account.Account) error {
	return p.record("created")
}

func (p *recordingPlugin) OnTransaction(_ context.Context, r *transaction.Response) error {
	return p.record("txn:" + string(r.Type))
}

func (p *recordingPlugin) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

type slowPlugin struct{}

func (slowPlugin) Name() string { return "slow" }

func (slowPlugin) OnAccountDeleted(context.Context, uuid.UUID) error {
	time.Sleep(200 * time.Millisecond)
	return nil
}

type presence struct{ online bool }

func (presence) Name() string                             { return "presence" }
func (p presence) Online(context.Context, uuid.UUID) bool { return p.online }

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&recordingPlugin{name: "audit"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&recordingPlugin{name: "audit"}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if r.Count() != 1 {
		t.Errorf("Count: got %d", r.Count())
	}
	if r.Get("audit") == nil || r.Get("missing") != nil {
		t.Error("Get returned the wrong plugin")
	}
}

func TestEmitDispatchesByInterface(t *testing.T) {
	r := NewRegistry()
	p := &recordingPlugin{name: "rec"}
	if err := r.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}

	ctx := context.Background()
	r.EmitAccountCreated(ctx, &account.Account{ID: uuid.New()})
	r.EmitTransaction(ctx, &transaction.Response{Type: transaction.Success})
	r.EmitMemberRemoved(ctx, uuid.New(), uuid.New())

	got := p.Events()
	want := []string{"created", "txn:SUCCESS"}
	if len(got) != len(want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestHookErrorsAreSwallowed(t *testing.T) {
	r := NewRegistry()
	p := &recordingPlugin{name: "failing", err: errors.New("boom")}
	_ = r.Register(p)

	r.EmitAccountCreated(context.Background(), &account.Account{})
	if len(p.Events()) != 1 {
		t.Error("failing hook was not called")
	}
}

func TestCallWithTimeout(t *testing.T) {
	r := NewRegistry().WithTimeout(20 * time.Millisecond)
	_ = r.Register(slowPlugin{})

	start := time.Now()
	r.EmitAccountDeleted(context.Background(), uuid.New())
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("slow hook blocked emission for %s", elapsed)
	}

	err := r.callWithTimeout(context.Background(), "slow", func() error {
		time.Sleep(100 * time.Millisecond)
		return nil
	})
	if err == nil {
		t.Error("expected timeout error")
	}
}

func TestPresenceProviders(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(presence{online: true})
	_ = r.Register(&recordingPlugin{name: "rec"})

	providers := r.PresenceProviders()
	if len(providers) != 1 {
		t.Fatalf("PresenceProviders: got %d", len(providers))
	}
	if !providers[0].Online(context.Background(), uuid.New()) {
		t.Error("provider answer lost")
	}
}

func TestImplementedInterfaces(t *testing.T) {
	got := implementedInterfaces(&recordingPlugin{name: "rec"})
	if len(got) != 2 || got[0] != "OnAccountCreated" || got[1] != "OnTransaction" {
		t.Errorf("implementedInterfaces: got %v", got)
	}
}
