// Package plugin provides an extensible plugin system for the
// streampay ledger. Plugins hook into stream lifecycle events — this is
// the notification surface off-chain observers (indexers, monitors,
// audit trails) consume.
package plugin

import (
	"context"

	"github.com/xraph/streampay/stream"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, ledger any) error
}

// OnShutdown is called when the ledger is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Stream lifecycle hooks
// ──────────────────────────────────────────────────

// OnStreamCreated is called after a stream is created and its deposit
// escrowed.
type OnStreamCreated interface {
	Plugin
	OnStreamCreated(ctx context.Context, ev stream.CreationEvent) error
}

// OnWithdrawal is called after a successful withdrawal payout.
type OnWithdrawal interface {
	Plugin
	OnWithdrawal(ctx context.Context, ev stream.WithdrawalEvent) error
}

// OnStreamCanceled is called after a stream is canceled and any refund
// returned to the owner.
type OnStreamCanceled interface {
	Plugin
	OnStreamCanceled(ctx context.Context, ev stream.CancellationEvent) error
}

// ──────────────────────────────────────────────────
// Rejection hooks
// ──────────────────────────────────────────────────

// OnDailyLimitExceeded is called when a withdrawal is rejected because
// the stream's daily cap is exhausted.
type OnDailyLimitExceeded interface {
	Plugin
	OnDailyLimitExceeded(ctx context.Context, streamID, day uint64, limit uint32) error
}

// OnReentrancyBlocked is called when a re-entrant operation attempt is
// rejected by the entry guard.
type OnReentrancyBlocked interface {
	Plugin
	OnReentrancyBlocked(ctx context.Context, streamID uint64, op string) error
}

// OnTransferFailed is called when the token collaborator rejects a
// transfer and the enclosing operation is rolled back.
type OnTransferFailed interface {
	Plugin
	OnTransferFailed(ctx context.Context, streamID uint64, op string, err error) error
}
