// Package id defines TypeID-based identity types for Treasury records.
//
// Accounts are addressed by the caller-supplied UUIDs of the host runtime;
// everything Treasury mints itself (transaction receipts, transfers, store
// copy runs) uses a single ID struct with a prefix that identifies the record
// type. IDs are K-sortable (UUIDv7-based), globally unique, and URL-safe in
// the format "prefix_suffix".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the record type encoded in a TypeID.
type Prefix string

// Prefix constants for all Treasury record types.
const (
	PrefixTransaction Prefix = "txn"  // Deposit or withdrawal receipt
	PrefixTransfer    Prefix = "xfer" // Two-account transfer
	PrefixCopyRun     Prefix = "copy" // Bulk store-to-store copy
)

// ID is the identifier type for Treasury-minted records.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "txn_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// TransactionID identifies a single deposit or withdrawal (prefix: "txn").
type TransactionID = ID

// TransferID identifies a two-account transfer (prefix: "xfer").
type TransferID = ID

// CopyRunID identifies one bulk copy between stores (prefix: "copy").
type CopyRunID = ID

// NewTransactionID generates a new unique transaction ID.
func NewTransactionID() ID { return New(PrefixTransaction) }

// NewTransferID generates a new unique transfer ID.
func NewTransferID() ID { return New(PrefixTransfer) }

// NewCopyRunID generates a new unique copy run ID.
func NewCopyRunID() ID { return New(PrefixCopyRun) }

// ParseTransactionID parses a string and validates the "txn" prefix.
func ParseTransactionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixTransaction) }

// ParseTransferID parses a string and validates the "xfer" prefix.
func ParseTransferID(s string) (ID, error) { return ParseWithPrefix(s, PrefixTransfer) }

// ParseCopyRunID parses a string and validates the "copy" prefix.
func ParseCopyRunID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCopyRun) }

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer. A valid ID is stored in its string form and
// the zero ID as NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
