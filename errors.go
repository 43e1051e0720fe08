package streampay

import (
	"errors"

	"github.com/xraph/streampay/token"
	"github.com/xraph/streampay/types"
)

// Sentinel errors for the closed failure taxonomy of the ledger. Every
// mutating operation either succeeds completely or returns one of these
// (or a wrapped transfer failure) with stored state unchanged.
var (
	// ErrStreamNotFound means the stream id is not in the ledger.
	ErrStreamNotFound = errors.New("streampay: stream not found")

	// ErrUnauthorized means the caller is not the identity the
	// attempted operation requires (recipient for withdraw, owner for
	// cancel).
	ErrUnauthorized = errors.New("streampay: unauthorized")

	// ErrStreamNotActive means the operation requires an active stream
	// and the stream has been canceled.
	ErrStreamNotActive = errors.New("streampay: stream not active")

	// ErrStreamNotStarted means a withdrawal was attempted before the
	// stream's start time.
	ErrStreamNotStarted = errors.New("streampay: stream not started")

	// ErrNothingToWithdraw means the computed claimable amount is zero.
	ErrNothingToWithdraw = errors.New("streampay: nothing to withdraw")

	// ErrDailyLimitExceeded means the stream's withdrawal count for the
	// current day index has reached its cap.
	ErrDailyLimitExceeded = errors.New("streampay: daily withdrawal limit exceeded")

	// ErrInvalidParameter means creation-time validation failed,
	// including the exact total == rate * duration check.
	ErrInvalidParameter = errors.New("streampay: invalid parameter")

	// ErrReentrant means the same operation was re-entered on the same
	// stream before the original invocation returned.
	ErrReentrant = errors.New("streampay: reentrant call")

	// Store errors
	ErrStoreClosed = errors.New("streampay: store is closed")
)

// Transfer collaborator failures propagate verbatim; these aliases let
// callers match them without importing the token package.
var (
	ErrInsufficientFunds = token.ErrInsufficientFunds
	ErrTransferFailed    = token.ErrTransferFailed
)

// ErrOverflow is the arithmetic failure sentinel from the types package.
var ErrOverflow = types.ErrOverflow

// IsNotFound returns true if the error is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStreamNotFound)
}

// IsAuthorizationError returns true if the error is an identity or
// lifecycle authorization failure.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrStreamNotActive) ||
		errors.Is(err, ErrStreamNotStarted)
}

// IsTransferError returns true if the error came from the token
// transfer collaborator.
func IsTransferError(err error) bool {
	return errors.Is(err, token.ErrInsufficientFunds) ||
		errors.Is(err, token.ErrTransferFailed)
}

// IsRetryable returns true if the operation may succeed if retried
// later with no state change in between (time passing or the day index
// advancing is enough).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrNothingToWithdraw) ||
		errors.Is(err, ErrDailyLimitExceeded) ||
		errors.Is(err, ErrStreamNotStarted) ||
		errors.Is(err, ErrReentrant)
}
