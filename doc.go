// Package streampay provides an escrow-backed payment streaming ledger for Go
// applications.
//
// Streampay is designed as a library, not a service. Import it directly into
// your Go application and wire it to your own value-transfer layer. It
// provides:
//
//   - Linearly accruing payment streams over a fixed window
//   - Exact 128-bit integer accounting with overflow-checked arithmetic
//   - Per-stream daily withdrawal-count caps
//   - Owner cancellation with an automatic refund of the never-accrued slice
//   - All-or-nothing operations with per-stream re-entrancy protection
//   - Pluggable persistence (memory, SQLite, Postgres, MongoDB)
//   - Lifecycle plugins for observability and audit trails
//
// # Quick Start
//
// Create a ledger instance with your preferred store and a token transfer
// collaborator:
//
//	import (
//	    "github.com/xraph/streampay"
//	    "github.com/xraph/streampay/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create ledger
//	l := streampay.New(store, tokenService)
//
//	// Start the ledger (runs migrations, initializes plugins)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// A stream locks a lump-sum deposit in escrow and releases it to the
// recipient at a constant per-second rate over the stream's window:
//
//	id, err := l.CreateStream(ctx, "alice", streampay.CreateStreamParams{
//	    Recipient:            "bob",
//	    Asset:                "usdc",
//	    TotalAmount:          streampay.NewAmount(2_592_000_000),
//	    RatePerSecond:        streampay.NewAmount(1000),
//	    Duration:             30 * 24 * time.Hour,
//	    MaxWithdrawalsPerDay: 3,
//	})
//
// The deposit must equal RatePerSecond times Duration exactly; the ledger
// rejects anything else rather than rounding.
//
// The recipient withdraws whatever has accrued so far, up to the daily
// withdrawal-count cap:
//
//	paid, err := l.Withdraw(ctx, "bob", id)
//
// The owner can cancel at any time. Accrual freezes at that instant, the
// never-accrued remainder is refunded to the owner, and the recipient can
// still withdraw the frozen accrued-but-unwithdrawn slice:
//
//	refund, err := l.CancelStream(ctx, "alice", id)
//
// # Value Movement
//
// The ledger never holds funds itself. All value moves through the
// token.Service interface injected at construction; token/memory provides an
// in-process implementation for tests and examples.
package streampay
