package treasury

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/xraph/treasury/account"
)

// keyedLock is a refcounted table of RWMutexes. Entries exist only while a
// goroutine holds or waits for them, so the table never grows with the
// number of accounts.
type keyedLock[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*refLock
}

type refLock struct {
	mu   sync.RWMutex
	refs int
}

func newKeyedLock[K comparable]() *keyedLock[K] {
	return &keyedLock[K]{locks: make(map[K]*refLock)}
}

func (t *keyedLock[K]) acquire(k K) *refLock {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.locks[k]
	if !ok {
		l = &refLock{}
		t.locks[k] = l
	}
	l.refs++
	return l
}

func (t *keyedLock[K]) release(k K, l *refLock) {
	t.mu.Lock()
	defer t.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(t.locks, k)
	}
}

// Lock takes k exclusively and returns the matching unlock.
func (t *keyedLock[K]) Lock(k K) func() {
	l := t.acquire(k)
	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		t.release(k, l)
	}
}

// RLock takes k shared and returns the matching unlock.
func (t *keyedLock[K]) RLock(k K) func() {
	l := t.acquire(k)
	l.mu.RLock()
	return func() {
		l.mu.RUnlock()
		t.release(k, l)
	}
}

// size reports how many keys are currently held or awaited.
func (t *keyedLock[K]) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}

// ledgerLocks groups the three lock tables of the engine:
//
//   - lifecycle: shared by every operation on an account, exclusive for
//     create and delete.
//   - record: serializes renames and membership changes per account.
//   - balance: serializes check-then-mutate per (account, currency, world).
//
// Multi-key callers acquire lifecycle locks ordered by account id and balance
// locks ordered by BalanceKey.Less.
type ledgerLocks struct {
	lifecycle *keyedLock[uuid.UUID]
	record    *keyedLock[uuid.UUID]
	balance   *keyedLock[account.BalanceKey]
}

func newLedgerLocks() *ledgerLocks {
	return &ledgerLocks{
		lifecycle: newKeyedLock[uuid.UUID](),
		record:    newKeyedLock[uuid.UUID](),
		balance:   newKeyedLock[account.BalanceKey](),
	}
}

// sharedAccounts read-locks the lifecycle of every distinct id in a fixed
// order.
func (l *ledgerLocks) sharedAccounts(ids ...uuid.UUID) func() {
	ordered := slices.Clone(ids)
	slices.SortFunc(ordered, account.CompareIDs)
	ordered = slices.Compact(ordered)

	unlocks := make([]func(), 0, len(ordered))
	for _, id := range ordered {
		unlocks = append(unlocks, l.lifecycle.RLock(id))
	}
	return releaseAll(unlocks)
}

// balances write-locks every distinct key in a fixed order.
func (l *ledgerLocks) balances(keys ...account.BalanceKey) func() {
	ordered := slices.Clone(keys)
	slices.SortFunc(ordered, func(a, b account.BalanceKey) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	ordered = slices.Compact(ordered)

	unlocks := make([]func(), 0, len(ordered))
	for _, k := range ordered {
		unlocks = append(unlocks, l.balance.Lock(k))
	}
	return releaseAll(unlocks)
}

func releaseAll(unlocks []func()) func() {
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}
