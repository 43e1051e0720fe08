// Package accrual implements the pure accounting math of the streampay
// ledger: how much of a stream's escrow has vested at a given time, how
// much of that is still claimable, and which daily withdrawal bucket a
// moment falls into.
//
// Every function here is a total, deterministic function of a stream
// snapshot and a clock reading, with no hidden state. That keeps the
// math independently testable and lets off-chain consumers mirror it
// exactly.
package accrual

import (
	"time"

	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/types"
)

// Accrued returns the portion of the stream's total that has vested at
// now: elapsed seconds times the per-second rate, zero before the
// stream starts, capped at the full total once the stream has ended.
// Cancellation freezes accrual at the cancellation instant.
func Accrued(s *stream.Stream, now time.Time) types.Amount {
	at := clamp(s, now)
	if at.Before(s.StartAt) {
		return types.Zero
	}

	elapsed := uint64(at.Unix() - s.StartAt.Unix())
	accrued := s.RatePerSecond().Mul(elapsed)
	return accrued.Min(s.TotalAmount)
}

// Claimable returns the accrued value not yet withdrawn, floored at
// zero. It is computed fresh from the snapshot on every call — never
// cached.
func Claimable(s *stream.Stream, now time.Time) types.Amount {
	return Accrued(s, now).SubFloor(s.Withdrawn)
}

// DayIndex returns the zero-based count of 86,400-second periods
// elapsed since the stream's start, or 0 before the start.
func DayIndex(s *stream.Stream, now time.Time) uint64 {
	if now.Before(s.StartAt) {
		return 0
	}
	return uint64(now.Unix()-s.StartAt.Unix()) / stream.SecondsPerDay
}

// clamp bounds now to the stream's accrual window: never past EndAt,
// and never past the cancellation instant.
func clamp(s *stream.Stream, now time.Time) time.Time {
	if s.CanceledAt != nil && now.After(*s.CanceledAt) {
		now = *s.CanceledAt
	}
	if now.After(s.EndAt) {
		now = s.EndAt
	}
	return now
}
