package account

import (
	"encoding/json"
	"sort"
)

// Permission is one capability flag a member may hold on an account. The set
// is open: tags not listed here are stored and compared like any other.
type Permission string

const (
	PermBalance           Permission = "balance"
	PermDeposit           Permission = "deposit"
	PermWithdraw          Permission = "withdraw"
	PermManageMembers     Permission = "manage_members"
	PermTransferOwnership Permission = "transfer_ownership"
	PermAdminister        Permission = "administer"
)

// AllPermissions lists the built-in capabilities.
var AllPermissions = []Permission{
	PermBalance,
	PermDeposit,
	PermWithdraw,
	PermManageMembers,
	PermTransferOwnership,
	PermAdminister,
}

// PermissionSet holds independent capability grants for one member.
type PermissionSet map[Permission]struct{}

// NewPermissionSet returns a set holding perms.
func NewPermissionSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has is safe on a nil set.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

func (s PermissionSet) Add(p Permission)    { s[p] = struct{}{} }
func (s PermissionSet) Remove(p Permission) { delete(s, p) }

// Set grants p when value is true and revokes it otherwise.
func (s PermissionSet) Set(p Permission, value bool) {
	if value {
		s.Add(p)
		return
	}
	s.Remove(p)
}

func (s PermissionSet) Clone() PermissionSet {
	cp := make(PermissionSet, len(s))
	for p := range s {
		cp[p] = struct{}{}
	}
	return cp
}

// Slice returns the grants in lexical order.
func (s PermissionSet) Slice() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Slice())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var perms []Permission
	if err := json.Unmarshal(data, &perms); err != nil {
		return err
	}
	*s = NewPermissionSet(perms...)
	return nil
}
