package stream

import "context"

// Store is the persistence contract for stream records.
//
// Create assigns the next dense sequential id to the stream. Delete
// exists solely so a failed deposit pull can unwind a just-created
// record; committed streams are never deleted.
type Store interface {
	Create(ctx context.Context, s *Stream) error
	Get(ctx context.Context, streamID uint64) (*Stream, error)
	Update(ctx context.Context, s *Stream) error
	Delete(ctx context.Context, streamID uint64) error
	Count(ctx context.Context) (uint64, error)
	List(ctx context.Context, opts ListOpts) ([]*Stream, error)
}

// CounterStore is the persistence contract for the per-(stream, day)
// withdrawal counters backing the daily cap. Decrement exists solely so
// a failed payout can unwind its increment.
type CounterStore interface {
	WithdrawalsUsed(ctx context.Context, streamID, day uint64) (uint32, error)
	IncrementWithdrawals(ctx context.Context, streamID, day uint64) (uint32, error)
	DecrementWithdrawals(ctx context.Context, streamID, day uint64) error
}

// ListOpts filters and paginates stream listings.
type ListOpts struct {
	Owner      string
	Recipient  string
	ActiveOnly bool
	Limit      int
	Offset     int
}
