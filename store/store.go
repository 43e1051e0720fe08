// Package store defines the unified storage interface for the
// streampay ledger: stream records plus the per-(stream, day)
// withdrawal counters, with migration and lifecycle hooks.
package store

import (
	"context"

	"github.com/xraph/streampay/stream"
)

// Store is the unified storage interface backing a ledger. With a
// single entity family there are no method-name conflicts, so the
// per-concern contracts from the stream package are embedded directly.
//
// The ledger grows monotonically: committed streams and counters are
// never deleted. The Delete/Decrement methods exist only as
// compensation hooks for the engine's all-or-nothing operation
// semantics and are always invoked under the engine's per-entry guard.
type Store interface {
	stream.Store
	stream.CounterStore

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
