package treasury

import "github.com/xraph/treasury/id"

// ID is the identifier type for every record Treasury mints itself.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
