package account

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestOwnerHoldsEveryPermission(t *testing.T) {
	owner := uuid.New()
	a := &Account{ID: uuid.New(), Owner: owner}

	for _, p := range append(AllPermissions, Permission("future_capability")) {
		if !a.HasPermission(owner, p) {
			t.Errorf("owner should hold %q", p)
		}
	}
	if !a.IsMember(owner) {
		t.Error("owner should count as a member")
	}
}

func TestMemberPermissions(t *testing.T) {
	member := uuid.New()
	a := &Account{
		ID:      uuid.New(),
		Members: map[uuid.UUID]PermissionSet{member: NewPermissionSet(PermDeposit)},
	}

	tests := []struct {
		perm Permission
		want bool
	}{
		{PermDeposit, true},
		{PermWithdraw, false},
		{PermBalance, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.perm), func(t *testing.T) {
			if got := a.HasPermission(member, tt.perm); got != tt.want {
				t.Errorf("HasPermission(%q): got %v, want %v", tt.perm, got, tt.want)
			}
		})
	}

	if a.HasPermission(uuid.New(), PermDeposit) {
		t.Error("stranger should hold nothing")
	}
	if a.IsOwner(uuid.Nil) {
		t.Error("nil identity is never an owner")
	}
}

func TestCloneIsDeep(t *testing.T) {
	member := uuid.New()
	a := &Account{
		ID:      uuid.New(),
		Members: map[uuid.UUID]PermissionSet{member: NewPermissionSet(PermBalance)},
	}

	cp := a.Clone()
	cp.Members[member].Add(PermWithdraw)
	cp.Members[uuid.New()] = NewPermissionSet()

	if a.HasPermission(member, PermWithdraw) {
		t.Error("clone shares a permission set with the original")
	}
	if len(a.Members) != 1 {
		t.Errorf("clone shares the member map: %d members", len(a.Members))
	}
}

func TestVisibleIn(t *testing.T) {
	global := &Account{}
	nether := &Account{World: "nether"}

	tests := []struct {
		name  string
		a     *Account
		world string
		want  bool
	}{
		{"global from global", global, "", true},
		{"global from world", global, "overworld", true},
		{"bound from global", nether, "", true},
		{"bound from own world", nether, "nether", true},
		{"bound from other world", nether, "overworld", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.VisibleIn(tt.world); got != tt.want {
				t.Errorf("VisibleIn(%q): got %v, want %v", tt.world, got, tt.want)
			}
		})
	}
}

func TestPermissionSetJSON(t *testing.T) {
	s := NewPermissionSet(PermWithdraw, PermBalance, PermDeposit)

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `["balance","deposit","withdraw"]` {
		t.Errorf("Marshal: got %s", data)
	}

	var back PermissionSet
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(back) != 3 || !back.Has(PermWithdraw) {
		t.Errorf("Unmarshal: got %v", back.Slice())
	}
}

func TestPermissionSetSet(t *testing.T) {
	s := NewPermissionSet()
	s.Set(PermAdminister, true)
	if !s.Has(PermAdminister) {
		t.Fatal("Set(true) did not grant")
	}
	s.Set(PermAdminister, false)
	if s.Has(PermAdminister) {
		t.Fatal("Set(false) did not revoke")
	}

	var nilSet PermissionSet
	if nilSet.Has(PermBalance) {
		t.Error("nil set should hold nothing")
	}
}

func TestBalanceKeyOrdering(t *testing.T) {
	lo := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	hi := uuid.MustParse("ffffffff-0000-0000-0000-000000000000")

	tests := []struct {
		name string
		a, b BalanceKey
		want bool
	}{
		{"account first", BalanceKey{AccountID: lo, Currency: "z"}, BalanceKey{AccountID: hi, Currency: "a"}, true},
		{"then currency", BalanceKey{AccountID: lo, Currency: "a"}, BalanceKey{AccountID: lo, Currency: "b"}, true},
		{"then world", BalanceKey{AccountID: lo, Currency: "a", World: "b"}, BalanceKey{AccountID: lo, Currency: "a", World: "a"}, false},
		{"equal", BalanceKey{AccountID: lo}, BalanceKey{AccountID: lo}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Less(tt.b); got != tt.want {
				t.Errorf("Less: got %v, want %v", got, tt.want)
			}
		})
	}

	if CompareIDs(lo, hi) >= 0 || CompareIDs(hi, lo) <= 0 || CompareIDs(lo, lo) != 0 {
		t.Error("CompareIDs is not a total order")
	}
}

func TestBalanceKeyStringIsUnambiguous(t *testing.T) {
	id := uuid.New()
	keys := []BalanceKey{
		{AccountID: id, Currency: "a", World: "b/c"},
		{AccountID: id, Currency: "a/b", World: "c"},
		{AccountID: id, Currency: "a\"/\"b", World: ""},
		{AccountID: id, Currency: "a", World: "\"/\"b"},
	}
	seen := make(map[string]BalanceKey, len(keys))
	for _, k := range keys {
		s := k.String()
		if prev, dup := seen[s]; dup {
			t.Fatalf("%+v and %+v both render as %s", prev, k, s)
		}
		seen[s] = k
	}
}
