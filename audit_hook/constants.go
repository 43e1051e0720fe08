package audithook

// Action constants for audit events.
const (
	// Stream actions
	ActionStreamCreated  = "stream.created"
	ActionStreamCanceled = "stream.canceled"

	// Withdrawal actions
	ActionWithdrawal         = "withdrawal.completed"
	ActionDailyLimitExceeded = "withdrawal.daily_limit_exceeded"

	// Guard actions
	ActionReentrancyBlocked = "guard.reentrancy_blocked"
	ActionTransferFailed    = "transfer.failed"
)

// Resource constants for audit events.
const (
	ResourceStream     = "stream"
	ResourceWithdrawal = "withdrawal"
	ResourceTransfer   = "transfer"
)

// Category constants for audit events.
const (
	CategoryEscrow = "escrow"
	CategoryPayout = "payout"
	CategoryGuard  = "guard"
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
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
