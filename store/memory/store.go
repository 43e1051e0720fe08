// Package memory provides an in-process Store implementation used in
// tests and single-process deployments.
package memory

import (
	"context"
	"sync"

	streampay "github.com/xraph/streampay"
	"github.com/xraph/streampay/stream"
	streamstore "github.com/xraph/streampay/store"
)

// compile-time interface check
var _ streamstore.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	// Stream storage; ids are dense so a slice-like map keyed by id
	// with a nextID counter keeps allocation trivially sequential.
	streams map[uint64]*stream.Stream
	nextID  uint64

	// Withdrawal counters keyed by (stream id, day index).
	counters map[counterKey]uint32

	closed bool
}

type counterKey struct {
	streamID uint64
	day      uint64
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		streams:  make(map[uint64]*stream.Stream),
		counters: make(map[counterKey]uint32),
	}
}

// ==================== Stream store ====================

func (s *Store) Create(_ context.Context, st *stream.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return streampay.ErrStoreClosed
	}

	st.ID = s.nextID
	s.nextID++
	s.streams[st.ID] = st.Clone()
	return nil
}

func (s *Store) Get(_ context.Context, streamID uint64) (*stream.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.streams[streamID]
	if !ok {
		return nil, streampay.ErrStreamNotFound
	}
	return st.Clone(), nil
}

func (s *Store) Update(_ context.Context, st *stream.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return streampay.ErrStoreClosed
	}
	if _, ok := s.streams[st.ID]; !ok {
		return streampay.ErrStreamNotFound
	}
	s.streams[st.ID] = st.Clone()
	return nil
}

// Delete unwinds a just-created stream after a failed deposit pull. If
// the deleted stream was the newest allocation its id is reclaimed, so
// committed ids stay dense and sequential.
func (s *Store) Delete(_ context.Context, streamID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return streampay.ErrStoreClosed
	}
	if _, ok := s.streams[streamID]; !ok {
		return streampay.ErrStreamNotFound
	}
	delete(s.streams, streamID)
	if streamID == s.nextID-1 {
		s.nextID--
	}
	return nil
}

func (s *Store) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return uint64(len(s.streams)), nil
}

func (s *Store) List(_ context.Context, opts stream.ListOpts) ([]*stream.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*stream.Stream, 0)
	for id := uint64(0); id < s.nextID; id++ {
		st, ok := s.streams[id]
		if !ok {
			continue
		}
		if opts.Owner != "" && st.Owner != opts.Owner {
			continue
		}
		if opts.Recipient != "" && st.Recipient != opts.Recipient {
			continue
		}
		if opts.ActiveOnly && !st.Active {
			continue
		}
		result = append(result, st.Clone())
	}

	// Apply limit/offset
	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// ==================== Counter store ====================

func (s *Store) WithdrawalsUsed(_ context.Context, streamID, day uint64) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.counters[counterKey{streamID, day}], nil
}

func (s *Store) IncrementWithdrawals(_ context.Context, streamID, day uint64) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := counterKey{streamID, day}
	s.counters[key]++
	return s.counters[key], nil
}

// DecrementWithdrawals unwinds one increment. A zero counter is left
// alone: the engine only unwinds what it just incremented.
func (s *Store) DecrementWithdrawals(_ context.Context, streamID, day uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := counterKey{streamID, day}
	if s.counters[key] > 0 {
		s.counters[key]--
	}
	return nil
}

// ==================== Core ====================

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return streampay.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
