package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	streampay "github.com/xraph/streampay"
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/types"
)

func testStream() *stream.Stream {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return &stream.Stream{
		Entity:               types.NewEntity(),
		Owner:                "alice",
		Recipient:            "bob",
		Asset:                "usdc",
		TotalAmount:          types.NewAmount(2_998_944_000),
		Withdrawn:            types.Zero,
		StartAt:              start,
		EndAt:                start.Add(30 * 24 * time.Hour),
		MaxWithdrawalsPerDay: 3,
		Active:               true,
	}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	s := New()

	for want := uint64(0); want < 5; want++ {
		st := testStream()
		if err := s.Create(ctx, st); err != nil {
			t.Fatal(err)
		}
		if st.ID != want {
			t.Fatalf("id = %d, want %d", st.ID, want)
		}
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Fatalf("count = %d, want 5", n)
	}
}

func TestDeleteReclaimsNewestIDOnly(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, b := testStream(), testStream()
	_ = s.Create(ctx, a)
	_ = s.Create(ctx, b)

	// Deleting the newest hands its id back.
	if err := s.Delete(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	c := testStream()
	_ = s.Create(ctx, c)
	if c.ID != 1 {
		t.Fatalf("id = %d, want reclaimed 1", c.ID)
	}

	// Deleting an older stream must not disturb the sequence.
	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	d := testStream()
	_ = s.Create(ctx, d)
	if d.ID != 2 {
		t.Fatalf("id = %d, want 2", d.ID)
	}

	if err := s.Delete(ctx, 42); !errors.Is(err, streampay.ErrStreamNotFound) {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestGetReturnsClone(t *testing.T) {
	ctx := context.Background()
	s := New()

	st := testStream()
	_ = s.Create(ctx, st)

	got, err := s.Get(ctx, st.ID)
	if err != nil {
		t.Fatal(err)
	}

	// Mutating the returned copy must not leak into the store.
	got.Withdrawn = types.NewAmount(999)
	got.Active = false

	again, _ := s.Get(ctx, st.ID)
	if !again.Withdrawn.IsZero() || !again.Active {
		t.Fatal("store state mutated through returned copy")
	}

	if _, err := s.Get(ctx, 42); !errors.Is(err, streampay.ErrStreamNotFound) {
		t.Fatalf("get missing: %v", err)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := New()

	st := testStream()
	_ = s.Create(ctx, st)

	st.Withdrawn = types.NewAmount(4_165_200)
	if err := s.Update(ctx, st); err != nil {
		t.Fatal(err)
	}

	got, _ := s.Get(ctx, st.ID)
	if !got.Withdrawn.Equal(st.Withdrawn) {
		t.Fatalf("withdrawn = %s", got.Withdrawn)
	}

	missing := testStream()
	missing.ID = 42
	if err := s.Update(ctx, missing); !errors.Is(err, streampay.ErrStreamNotFound) {
		t.Fatalf("update missing: %v", err)
	}
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	s := New()

	a := testStream()
	_ = s.Create(ctx, a)

	b := testStream()
	b.Owner = "carol"
	b.Recipient = "dave"
	_ = s.Create(ctx, b)

	c := testStream()
	c.Active = false
	_ = s.Create(ctx, c)

	tests := []struct {
		name string
		opts stream.ListOpts
		want []uint64
	}{
		{"All", stream.ListOpts{}, []uint64{0, 1, 2}},
		{"Owner", stream.ListOpts{Owner: "carol"}, []uint64{1}},
		{"Recipient", stream.ListOpts{Recipient: "bob"}, []uint64{0, 2}},
		{"ActiveOnly", stream.ListOpts{ActiveOnly: true}, []uint64{0, 1}},
		{"Limit", stream.ListOpts{Limit: 2}, []uint64{0, 1}},
		{"Offset", stream.ListOpts{Offset: 2}, []uint64{2}},
		{"LimitOffset", stream.ListOpts{Limit: 1, Offset: 1}, []uint64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Fatalf("ids[%d] = %d, want %d", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestWithdrawalCounters(t *testing.T) {
	ctx := context.Background()
	s := New()

	used, err := s.WithdrawalsUsed(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if used != 0 {
		t.Fatalf("fresh counter = %d", used)
	}

	for want := uint32(1); want <= 3; want++ {
		got, err := s.IncrementWithdrawals(ctx, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("increment = %d, want %d", got, want)
		}
	}

	// Buckets are independent per (stream, day).
	if used, _ := s.WithdrawalsUsed(ctx, 0, 1); used != 0 {
		t.Fatalf("day 1 = %d", used)
	}
	if used, _ := s.WithdrawalsUsed(ctx, 1, 0); used != 0 {
		t.Fatalf("stream 1 = %d", used)
	}

	if err := s.DecrementWithdrawals(ctx, 0, 0); err != nil {
		t.Fatal(err)
	}
	if used, _ := s.WithdrawalsUsed(ctx, 0, 0); used != 2 {
		t.Fatalf("after decrement = %d", used)
	}

	// Decrementing an untouched bucket is a no-op.
	if err := s.DecrementWithdrawals(ctx, 9, 9); err != nil {
		t.Fatal(err)
	}
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	s := New()

	st := testStream()
	if err := s.Create(ctx, st); err != nil {
		t.Fatal(err)
	}

	if err := s.Ping(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Ping(ctx); !errors.Is(err, streampay.ErrStoreClosed) {
		t.Fatalf("ping after close: %v", err)
	}
	if err := s.Create(ctx, testStream()); !errors.Is(err, streampay.ErrStoreClosed) {
		t.Fatalf("create after close: %v", err)
	}
	if err := s.Update(ctx, st); !errors.Is(err, streampay.ErrStoreClosed) {
		t.Fatalf("update after close: %v", err)
	}
	if err := s.Delete(ctx, st.ID); !errors.Is(err, streampay.ErrStoreClosed) {
		t.Fatalf("delete after close: %v", err)
	}
}
