package audithook

// Action constants for audit events.
const (
	// Account actions
	ActionAccountCreated = "account.created"
	ActionAccountRenamed = "account.renamed"
	ActionAccountDeleted = "account.deleted"

	// Membership actions
	ActionMemberAdded       = "member.added"
	ActionMemberRemoved     = "member.removed"
	ActionPermissionGranted = "permission.granted"
	ActionPermissionRevoked = "permission.revoked"
	ActionOwnerChanged      = "owner.changed"

	// Transaction actions
	ActionDeposit  = "transaction.deposit"
	ActionWithdraw = "transaction.withdraw"
	ActionTransfer = "transaction.transfer"

	// Currency actions
	ActionCurrencyRegistered = "currency.registered"
)

// Resource constants for audit events.
const (
	ResourceAccount     = "account"
	ResourceBank        = "bank"
	ResourceMember      = "member"
	ResourceTransaction = "transaction"
	ResourceCurrency    = "currency"
)

// Category constants for audit events.
const (
	CategoryAccount = "account"
	CategoryAccess  = "access"
	CategoryLedger  = "ledger"
	CategoryAdmin   = "admin"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeUnsupported = "unsupported"
)
