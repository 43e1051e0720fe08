// Package token defines the asset-transfer capability the streampay
// ledger consumes. The ledger never moves value itself; it asks a
// Service to pull deposits into escrow and push payouts back out, and
// treats any failure as an abort of the enclosing ledger operation.
//
// Modeling the collaborator as a two-method capability keeps the ledger
// decoupled from any particular token implementation and testable with
// a fake (see token/memory).
package token

import (
	"context"
	"errors"

	"github.com/xraph/streampay/types"
)

// Sentinel errors for transfer failures.
var (
	// ErrInsufficientFunds means the source account lacks the balance
	// or allowance to cover the transfer.
	ErrInsufficientFunds = errors.New("token: insufficient balance or allowance")

	// ErrTransferFailed is a generic outbound transfer failure.
	ErrTransferFailed = errors.New("token: transfer failed")
)

// Service moves asset value between external accounts and ledger
// escrow. Implementations are untrusted from the ledger's point of
// view: they may fail, and they may attempt to call back into the
// ledger before returning.
type Service interface {
	// Pull moves amount of asset from the given account into escrow.
	Pull(ctx context.Context, asset, from string, amount types.Amount) error

	// Push pays out amount of asset from escrow to the given account.
	Push(ctx context.Context, asset, to string, amount types.Amount) error
}
