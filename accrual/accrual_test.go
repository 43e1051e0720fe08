package accrual_test

import (
	"testing"
	"time"

	"github.com/xraph/streampay/accrual"
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/types"
)

// thirtyDayStream returns a 30-day stream at 1157 units/second starting
// at the given instant: total 2,998,944,000 = 1157 * 2,592,000.
func thirtyDayStream(start time.Time) *stream.Stream {
	return &stream.Stream{
		ID:                   0,
		Owner:                "alice",
		Recipient:            "bob",
		Asset:                "usdx",
		TotalAmount:          types.NewAmount(2998944000),
		StartAt:              start,
		EndAt:                start.Add(2592000 * time.Second),
		MaxWithdrawalsPerDay: 3,
		Active:               true,
	}
}

func TestAccrued(t *testing.T) {
	start := time.Unix(1_700_000_000, 0).UTC()
	s := thirtyDayStream(start)

	tests := []struct {
		name string
		at   time.Time
		want types.Amount
	}{
		{"BeforeStart", start.Add(-time.Hour), types.Zero},
		{"AtStart", start, types.Zero},
		{"OneSecond", start.Add(time.Second), types.NewAmount(1157)},
		{"SevenDays", start.Add(7 * 24 * time.Hour), types.NewAmount(699753600)},
		{"AtEnd", s.EndAt, types.NewAmount(2998944000)},
		{"PastEnd", s.EndAt.Add(365 * 24 * time.Hour), types.NewAmount(2998944000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := accrual.Accrued(s, tt.at); !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClaimableSubtractsWithdrawn(t *testing.T) {
	start := time.Unix(1_700_000_000, 0).UTC()
	s := thirtyDayStream(start)
	s.Withdrawn = types.NewAmount(699753600) // everything up to day 7

	at := start.Add(7 * 24 * time.Hour)
	if got := accrual.Claimable(s, at); !got.IsZero() {
		t.Errorf("claimable after full withdrawal: got %v, want 0", got)
	}

	// One more second accrues exactly one rate tick.
	if got := accrual.Claimable(s, at.Add(time.Second)); !got.Equal(types.NewAmount(1157)) {
		t.Errorf("got %v, want 1157", got)
	}
}

func TestClaimableFloorsAtZero(t *testing.T) {
	start := time.Unix(1_700_000_000, 0).UTC()
	s := thirtyDayStream(start)
	s.Withdrawn = s.TotalAmount

	if got := accrual.Claimable(s, start.Add(time.Hour)); !got.IsZero() {
		t.Errorf("got %v, want 0", got)
	}
}

func TestAccrualFreezesAtCancellation(t *testing.T) {
	start := time.Unix(1_700_000_000, 0).UTC()
	s := thirtyDayStream(start)

	canceledAt := start.Add(10 * 24 * time.Hour)
	s.Active = false
	s.CanceledAt = &canceledAt

	frozen := types.NewAmount(1157 * 10 * 86400)

	if got := accrual.Accrued(s, canceledAt); !got.Equal(frozen) {
		t.Errorf("at cancellation: got %v, want %v", got, frozen)
	}
	if got := accrual.Accrued(s, canceledAt.Add(90*24*time.Hour)); !got.Equal(frozen) {
		t.Errorf("long after cancellation: got %v, want %v", got, frozen)
	}
}

func TestAccruedMonotonic(t *testing.T) {
	start := time.Unix(1_700_000_000, 0).UTC()
	s := thirtyDayStream(start)

	prev := types.Zero
	for _, offset := range []time.Duration{
		-time.Hour, 0, time.Second, time.Minute, time.Hour,
		24 * time.Hour, 7 * 24 * time.Hour, 29 * 24 * time.Hour,
		30 * 24 * time.Hour, 31 * 24 * time.Hour,
	} {
		got := accrual.Accrued(s, start.Add(offset))
		if got.LessThan(prev) {
			t.Fatalf("accrual decreased at offset %v: %v < %v", offset, got, prev)
		}
		prev = got
	}
}

func TestDayIndex(t *testing.T) {
	start := time.Unix(1_700_000_000, 0).UTC()
	s := thirtyDayStream(start)

	tests := []struct {
		name string
		at   time.Time
		want uint64
	}{
		{"BeforeStart", start.Add(-time.Minute), 0},
		{"AtStart", start, 0},
		{"LastSecondOfDayZero", start.Add(86399 * time.Second), 0},
		{"FirstSecondOfDayOne", start.Add(86400 * time.Second), 1},
		{"DaySeven", start.Add(7 * 24 * time.Hour), 7},
		{"PastEnd", start.Add(45 * 24 * time.Hour), 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := accrual.DayIndex(s, tt.at); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConservation(t *testing.T) {
	start := time.Unix(1_700_000_000, 0).UTC()
	s := thirtyDayStream(start)
	s.Withdrawn = types.NewAmount(1157 * 86400) // one day already paid out

	for _, offset := range []time.Duration{
		2 * 24 * time.Hour, 15 * 24 * time.Hour, 30 * 24 * time.Hour,
	} {
		at := start.Add(offset)
		claimable := accrual.Claimable(s, at)
		unaccrued := s.TotalAmount.Sub(accrual.Accrued(s, at))

		sum := s.Withdrawn.Add(claimable).Add(unaccrued)
		if !sum.Equal(s.TotalAmount) {
			t.Errorf("at %v: withdrawn+claimable+unaccrued = %v, want %v", offset, sum, s.TotalAmount)
		}
	}
}
