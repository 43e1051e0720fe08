// Package stream defines the stream record, its lifecycle events, and
// the persistence contracts for the streampay ledger.
package stream

import (
	"time"

	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/types"
)

// SecondsPerDay is the length of one withdrawal-cap bucket.
const SecondsPerDay = 86400

// Stream is a time-bounded, escrowed, linearly-accruing payment
// commitment from an owner to a recipient. TotalAmount, StartAt, EndAt
// and MaxWithdrawalsPerDay are immutable after creation; Withdrawn only
// ever grows; Active only ever transitions true to false, via
// cancellation.
type Stream struct {
	types.Entity
	ID                   uint64       `json:"id"`
	Owner                string       `json:"owner"`
	Recipient            string       `json:"recipient"`
	Asset                string       `json:"asset"`
	TotalAmount          types.Amount `json:"total_amount"`
	Withdrawn            types.Amount `json:"withdrawn"`
	StartAt              time.Time    `json:"start_at"`
	EndAt                time.Time    `json:"end_at"`
	MaxWithdrawalsPerDay uint32       `json:"max_withdrawals_per_day"`
	Active               bool         `json:"active"`
	CanceledAt           *time.Time   `json:"canceled_at,omitempty"`
}

// DurationSeconds returns the streaming window length in whole seconds.
func (s *Stream) DurationSeconds() uint64 {
	return uint64(s.EndAt.Unix() - s.StartAt.Unix())
}

// RatePerSecond returns the derived streaming rate. This is floor
// division of TotalAmount by the duration; creation validates that the
// division is exact, so the floor only matters if records are imported
// from elsewhere.
func (s *Stream) RatePerSecond() types.Amount {
	return s.TotalAmount.Div(s.DurationSeconds())
}

// Remaining returns the escrowed value not yet withdrawn.
func (s *Stream) Remaining() types.Amount {
	return s.TotalAmount.Sub(s.Withdrawn)
}

// Clone returns a deep copy of the stream. Stores hand out clones so
// callers cannot mutate ledger state behind the engine's back.
func (s *Stream) Clone() *Stream {
	c := *s
	if s.CanceledAt != nil {
		t := *s.CanceledAt
		c.CanceledAt = &t
	}
	return &c
}

// Stats is the aggregate accounting view of a stream at a point in
// time. Withdrawn + Claimable + Remaining always equals Total for a
// live stream; after cancellation Remaining is zero (it was refunded).
type Stats struct {
	StreamID  uint64       `json:"stream_id"`
	Total     types.Amount `json:"total"`
	Withdrawn types.Amount `json:"withdrawn"`
	Claimable types.Amount `json:"claimable"`
	Remaining types.Amount `json:"remaining"`
}

// ──────────────────────────────────────────────────
// Lifecycle events
// ──────────────────────────────────────────────────

// CreationEvent is emitted after a stream is created and its deposit
// pulled into escrow.
type CreationEvent struct {
	EventID              id.ID        `json:"event_id"`
	StreamID             uint64       `json:"stream_id"`
	Owner                string       `json:"owner"`
	Recipient            string       `json:"recipient"`
	Asset                string       `json:"asset"`
	TotalAmount          types.Amount `json:"total_amount"`
	RatePerSecond        types.Amount `json:"rate_per_second"`
	StartAt              time.Time    `json:"start_at"`
	EndAt                time.Time    `json:"end_at"`
	MaxWithdrawalsPerDay uint32       `json:"max_withdrawals_per_day"`
}

// WithdrawalEvent is emitted after a successful withdrawal.
type WithdrawalEvent struct {
	EventID         id.ID        `json:"event_id"`
	StreamID        uint64       `json:"stream_id"`
	Recipient       string       `json:"recipient"`
	Asset           string       `json:"asset"`
	Amount          types.Amount `json:"amount"`
	Day             uint64       `json:"day"`
	WithdrawalsUsed uint32       `json:"withdrawals_used"`
	At              time.Time    `json:"at"`
}

// CancellationEvent is emitted after a stream is canceled. Claimable is
// the accrued-but-unwithdrawn slice frozen at cancellation time, which
// remains withdrawable by the recipient.
type CancellationEvent struct {
	EventID   id.ID        `json:"event_id"`
	StreamID  uint64       `json:"stream_id"`
	Owner     string       `json:"owner"`
	Recipient string       `json:"recipient"`
	Asset     string       `json:"asset"`
	Refund    types.Amount `json:"refund"`
	Claimable types.Amount `json:"claimable"`
	Withdrawn types.Amount `json:"withdrawn"`
	At        time.Time    `json:"at"`
}
