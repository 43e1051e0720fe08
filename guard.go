package streampay

import "sync"

// Operation names used in guard keys, logs and plugin events.
const (
	opCreate   = "create"
	opWithdraw = "withdraw"
	opCancel   = "cancel"
)

// entryGuard blocks re-entrant invocation of the same logical operation
// on the same stream entry. The token collaborator runs untrusted code
// while a ledger operation holds uncommitted invariants, so each
// operation sets its in-progress flag before any external call and
// clears it when it returns; a second invocation of the same (stream,
// operation) pair in that window fails with ErrReentrant. Different
// operations on the same stream may interleave — the strict
// effects-before-interactions ordering guarantees they observe
// committed state.
type entryGuard struct {
	mu       sync.Mutex
	inFlight map[guardKey]struct{}
}

type guardKey struct {
	streamID uint64
	op       string
}

func newEntryGuard() *entryGuard {
	return &entryGuard{inFlight: make(map[guardKey]struct{})}
}

// acquire marks (streamID, op) as in progress. Returns false if the
// pair is already in flight.
func (g *entryGuard) acquire(streamID uint64, op string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := guardKey{streamID, op}
	if _, busy := g.inFlight[key]; busy {
		return false
	}
	g.inFlight[key] = struct{}{}
	return true
}

// release clears the in-progress flag set by acquire.
func (g *entryGuard) release(streamID uint64, op string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.inFlight, guardKey{streamID, op})
}
