package streampay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/streampay/accrual"
	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/plugin"
	"github.com/xraph/streampay/store"
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/token"
	"github.com/xraph/streampay/types"
)

// Ledger is the stream accounting engine. It owns the durable record of
// every stream and every day's withdrawal counter, and is the single
// source of truth for balances. Value only moves through the injected
// token.Service, and every mutating operation is all-or-nothing:
// effects are committed before the external transfer, and a failed
// transfer unwinds them before the error is returned.
type Ledger struct {
	store   store.Store
	token   token.Service
	plugins *plugin.Registry
	logger  *slog.Logger
	clock   func() time.Time
	guard   *entryGuard
}

// New creates a new Ledger instance backed by the given store and token
// transfer collaborator.
func New(s store.Store, t token.Service, opts ...Option) *Ledger {
	l := &Ledger{
		store:   s,
		token:   t,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		clock:   time.Now,
		guard:   newEntryGuard(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithClock sets the time source. Tests inject a fake clock so accrual
// is deterministic.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		l.clock = clock
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		if err := l.plugins.Register(p); err != nil {
			l.logger.Error("failed to register plugin",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// Start migrates the store and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("streampay ledger started",
		"plugins", l.plugins.Count(),
	)

	return nil
}

// Stop shuts down the Ledger.
func (l *Ledger) Stop() error {
	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// now returns the current ledger time at whole-second granularity.
func (l *Ledger) now() time.Time {
	return time.Unix(l.clock().Unix(), 0).UTC()
}

// ──────────────────────────────────────────────────
// Stream creation
// ──────────────────────────────────────────────────

// CreateStreamParams carries the caller-supplied parameters of a new
// stream. TotalAmount must equal RatePerSecond times Duration exactly;
// the ledger rejects anything else rather than rounding.
type CreateStreamParams struct {
	Recipient            string
	Asset                string
	TotalAmount          types.Amount
	RatePerSecond        types.Amount
	Duration             time.Duration
	MaxWithdrawalsPerDay uint32
}

// CreateStream validates the parameters, stores a new stream record,
// and pulls the deposit from the caller into escrow. Creation is
// all-or-nothing: if the deposit pull fails the stored record is
// unwound and the stream never becomes observable.
//
// Creation takes no entry guard: every call operates on a freshly
// allocated id, so there is no same-entry invocation to exclude. A
// re-entrant create from the collaborator simply allocates the next id
// and escrows its own deposit.
func (l *Ledger) CreateStream(ctx context.Context, caller string, p CreateStreamParams) (uint64, error) {
	if err := validateCreate(caller, p); err != nil {
		return 0, err
	}

	now := l.now()
	s := &stream.Stream{
		Entity:               types.NewEntity(),
		Owner:                caller,
		Recipient:            p.Recipient,
		Asset:                p.Asset,
		TotalAmount:          p.TotalAmount,
		Withdrawn:            types.Zero,
		StartAt:              now,
		EndAt:                now.Add(p.Duration),
		MaxWithdrawalsPerDay: p.MaxWithdrawalsPerDay,
		Active:               true,
	}

	// The record must be durable before the deposit is attempted, so a
	// re-entrant call from the collaborator observes a consistent entry.
	if err := l.store.Create(ctx, s); err != nil {
		return 0, err
	}

	if err := l.token.Pull(ctx, s.Asset, caller, s.TotalAmount); err != nil {
		if delErr := l.store.Delete(ctx, s.ID); delErr != nil {
			l.logger.Error("failed to unwind stream after deposit failure",
				"stream_id", s.ID,
				"error", delErr,
			)
		}
		l.plugins.EmitTransferFailed(ctx, s.ID, opCreate, err)
		return 0, fmt.Errorf("streampay: deposit pull: %w", err)
	}

	ev := stream.CreationEvent{
		EventID:              id.NewCreationID(),
		StreamID:             s.ID,
		Owner:                s.Owner,
		Recipient:            s.Recipient,
		Asset:                s.Asset,
		TotalAmount:          s.TotalAmount,
		RatePerSecond:        p.RatePerSecond,
		StartAt:              s.StartAt,
		EndAt:                s.EndAt,
		MaxWithdrawalsPerDay: s.MaxWithdrawalsPerDay,
	}
	l.plugins.EmitStreamCreated(ctx, ev)

	l.logger.Info("stream created",
		"stream_id", s.ID,
		"owner", s.Owner,
		"recipient", s.Recipient,
		"asset", s.Asset,
		"total", s.TotalAmount.String(),
		"rate", p.RatePerSecond.String(),
		"end_at", s.EndAt,
	)

	return s.ID, nil
}

func validateCreate(caller string, p CreateStreamParams) error {
	switch {
	case caller == "":
		return fmt.Errorf("%w: caller identity required", ErrInvalidParameter)
	case p.Recipient == "":
		return fmt.Errorf("%w: recipient required", ErrInvalidParameter)
	case p.Asset == "":
		return fmt.Errorf("%w: asset required", ErrInvalidParameter)
	case p.TotalAmount.IsZero():
		return fmt.Errorf("%w: total amount must be positive", ErrInvalidParameter)
	case p.RatePerSecond.IsZero():
		return fmt.Errorf("%w: rate per second must be positive", ErrInvalidParameter)
	case p.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive", ErrInvalidParameter)
	case p.Duration%time.Second != 0:
		return fmt.Errorf("%w: duration must be whole seconds", ErrInvalidParameter)
	case p.MaxWithdrawalsPerDay == 0:
		return fmt.Errorf("%w: max withdrawals per day must be at least 1", ErrInvalidParameter)
	}

	// The deposit must be the exact product of rate and duration. The
	// checked multiplication also bounds duration: a product that
	// overflows 128 bits is rejected rather than wrapped.
	seconds := uint64(p.Duration / time.Second)
	product, err := p.RatePerSecond.MulChecked(seconds)
	if err != nil {
		return fmt.Errorf("%w: rate * duration overflows: %v", ErrInvalidParameter, err)
	}
	if !product.Equal(p.TotalAmount) {
		return fmt.Errorf("%w: total %s != rate %s * duration %ds",
			ErrInvalidParameter, p.TotalAmount, p.RatePerSecond, seconds)
	}

	return nil
}

// ──────────────────────────────────────────────────
// Withdrawal
// ──────────────────────────────────────────────────

// Withdraw pays the stream's current claimable amount to its recipient,
// subject to the daily withdrawal-count cap. Only the recipient may
// withdraw. A canceled stream's accrued-but-unwithdrawn balance remains
// withdrawable: cancellation freezes accrual, not claims, so this
// method gates on claimable value rather than the Active flag.
func (l *Ledger) Withdraw(ctx context.Context, caller string, streamID uint64) (types.Amount, error) {
	if !l.guard.acquire(streamID, opWithdraw) {
		l.plugins.EmitReentrancyBlocked(ctx, streamID, opWithdraw)
		return types.Zero, ErrReentrant
	}
	defer l.guard.release(streamID, opWithdraw)

	s, err := l.store.Get(ctx, streamID)
	if err != nil {
		return types.Zero, err
	}
	if caller != s.Recipient {
		return types.Zero, ErrUnauthorized
	}

	now := l.now()
	if now.Before(s.StartAt) {
		return types.Zero, ErrStreamNotStarted
	}

	amount := accrual.Claimable(s, now)
	if amount.IsZero() {
		return types.Zero, ErrNothingToWithdraw
	}

	day := accrual.DayIndex(s, now)
	used, err := l.store.WithdrawalsUsed(ctx, streamID, day)
	if err != nil {
		return types.Zero, err
	}
	if used >= s.MaxWithdrawalsPerDay {
		l.plugins.EmitDailyLimitExceeded(ctx, streamID, day, s.MaxWithdrawalsPerDay)
		return types.Zero, ErrDailyLimitExceeded
	}

	// Effects before interactions: commit the balance and counter
	// updates, then pay out. A re-entrant call through the collaborator
	// sees zero claimable and an already-consumed day slot.
	s.Withdrawn = s.Withdrawn.Add(amount)
	s.Touch()
	if err := l.store.Update(ctx, s); err != nil {
		return types.Zero, err
	}

	usedNow, err := l.store.IncrementWithdrawals(ctx, streamID, day)
	if err != nil {
		l.unwindWithdrawal(ctx, streamID, amount, day, false)
		return types.Zero, err
	}

	if err := l.token.Push(ctx, s.Asset, s.Recipient, amount); err != nil {
		l.unwindWithdrawal(ctx, streamID, amount, day, true)
		l.plugins.EmitTransferFailed(ctx, streamID, opWithdraw, err)
		return types.Zero, fmt.Errorf("streampay: withdrawal payout: %w", err)
	}

	ev := stream.WithdrawalEvent{
		EventID:         id.NewWithdrawalID(),
		StreamID:        streamID,
		Recipient:       s.Recipient,
		Asset:           s.Asset,
		Amount:          amount,
		Day:             day,
		WithdrawalsUsed: usedNow,
		At:              now,
	}
	l.plugins.EmitWithdrawal(ctx, ev)

	l.logger.Info("withdrawal",
		"stream_id", streamID,
		"recipient", s.Recipient,
		"amount", amount.String(),
		"day", day,
		"withdrawals_used", usedNow,
	)

	return amount, nil
}

// unwindWithdrawal rolls back the committed effects of a withdrawal
// whose payout failed. The entry guard only excludes same-operation
// reentry, so the collaborator may have committed a cancellation on
// this stream during the payout call. The record is re-read and only
// the withdrawn balance is compensated; any interleaved mutation stays
// intact.
func (l *Ledger) unwindWithdrawal(ctx context.Context, streamID uint64, amount types.Amount, day uint64, counterBumped bool) {
	fresh, err := l.store.Get(ctx, streamID)
	if err != nil {
		l.logger.Error("failed to unwind withdrawn balance",
			"stream_id", streamID,
			"error", err,
		)
	} else {
		fresh.Withdrawn = fresh.Withdrawn.Sub(amount)
		fresh.Touch()
		if err := l.store.Update(ctx, fresh); err != nil {
			l.logger.Error("failed to unwind withdrawn balance",
				"stream_id", streamID,
				"error", err,
			)
		}
	}
	if counterBumped {
		if err := l.store.DecrementWithdrawals(ctx, streamID, day); err != nil {
			l.logger.Error("failed to unwind day counter",
				"stream_id", streamID,
				"day", day,
				"error", err,
			)
		}
	}
}

// ──────────────────────────────────────────────────
// Cancellation
// ──────────────────────────────────────────────────

// CancelStream deactivates the stream and refunds the never-accrued
// remainder to the owner. Only the owner may cancel, and only once.
// Accrual freezes at the cancellation instant; the accrued-but-
// unwithdrawn slice stays in escrow and remains withdrawable by the
// recipient. Returns the refunded amount.
func (l *Ledger) CancelStream(ctx context.Context, caller string, streamID uint64) (types.Amount, error) {
	if !l.guard.acquire(streamID, opCancel) {
		l.plugins.EmitReentrancyBlocked(ctx, streamID, opCancel)
		return types.Zero, ErrReentrant
	}
	defer l.guard.release(streamID, opCancel)

	s, err := l.store.Get(ctx, streamID)
	if err != nil {
		return types.Zero, err
	}
	if caller != s.Owner {
		return types.Zero, ErrUnauthorized
	}
	if !s.Active {
		return types.Zero, ErrStreamNotActive
	}

	now := l.now()
	claimable := accrual.Claimable(s, now)
	refund := s.TotalAmount.Sub(s.Withdrawn).Sub(claimable)

	// Deactivate before the refund transfer so a re-entrant cancel
	// fails on the Active check.
	canceledAt := now
	s.Active = false
	s.CanceledAt = &canceledAt
	s.Touch()
	if err := l.store.Update(ctx, s); err != nil {
		return types.Zero, err
	}

	if refund.IsPositive() {
		if err := l.token.Push(ctx, s.Asset, s.Owner, refund); err != nil {
			l.unwindCancellation(ctx, streamID)
			l.plugins.EmitTransferFailed(ctx, streamID, opCancel, err)
			return types.Zero, fmt.Errorf("streampay: cancellation refund: %w", err)
		}
	}

	ev := stream.CancellationEvent{
		EventID:   id.NewCancellationID(),
		StreamID:  streamID,
		Owner:     s.Owner,
		Recipient: s.Recipient,
		Asset:     s.Asset,
		Refund:    refund,
		Claimable: claimable,
		Withdrawn: s.Withdrawn,
		At:        now,
	}
	l.plugins.EmitStreamCanceled(ctx, ev)

	l.logger.Info("stream canceled",
		"stream_id", streamID,
		"owner", s.Owner,
		"refund", refund.String(),
		"claimable_frozen", claimable.String(),
	)

	return refund, nil
}

// unwindCancellation reactivates a stream whose refund transfer failed.
// The collaborator may have withdrawn the frozen claimable slice during
// the refund call, so the record is re-read and only the Active flag
// and cancellation timestamp are restored; a committed withdrawal keeps
// its balance and counter effects.
func (l *Ledger) unwindCancellation(ctx context.Context, streamID uint64) {
	fresh, err := l.store.Get(ctx, streamID)
	if err != nil {
		l.logger.Error("failed to unwind cancellation",
			"stream_id", streamID,
			"error", err,
		)
		return
	}
	fresh.Active = true
	fresh.CanceledAt = nil
	fresh.Touch()
	if err := l.store.Update(ctx, fresh); err != nil {
		l.logger.Error("failed to unwind cancellation",
			"stream_id", streamID,
			"error", err,
		)
	}
}

// ──────────────────────────────────────────────────
// Read accessors
// ──────────────────────────────────────────────────

// GetStream retrieves a stream by id.
func (l *Ledger) GetStream(ctx context.Context, streamID uint64) (*stream.Stream, error) {
	return l.store.Get(ctx, streamID)
}

// StreamCount returns the total number of streams ever created.
func (l *Ledger) StreamCount(ctx context.Context) (uint64, error) {
	return l.store.Count(ctx)
}

// ListStreams lists streams matching the given filter.
func (l *Ledger) ListStreams(ctx context.Context, opts stream.ListOpts) ([]*stream.Stream, error) {
	return l.store.List(ctx, opts)
}

// Claimable returns the amount a withdrawal would currently pay out.
// Computed fresh from the stored snapshot and the current time.
func (l *Ledger) Claimable(ctx context.Context, streamID uint64) (types.Amount, error) {
	s, err := l.store.Get(ctx, streamID)
	if err != nil {
		return types.Zero, err
	}
	return accrual.Claimable(s, l.now()), nil
}

// CurrentDay returns the stream's day index at the current time.
func (l *Ledger) CurrentDay(ctx context.Context, streamID uint64) (uint64, error) {
	s, err := l.store.Get(ctx, streamID)
	if err != nil {
		return 0, err
	}
	return accrual.DayIndex(s, l.now()), nil
}

// WithdrawalsUsed returns the number of withdrawals consumed for the
// given (stream, day index) bucket.
func (l *Ledger) WithdrawalsUsed(ctx context.Context, streamID, day uint64) (uint32, error) {
	if _, err := l.store.Get(ctx, streamID); err != nil {
		return 0, err
	}
	return l.store.WithdrawalsUsed(ctx, streamID, day)
}

// RatePerSecond returns the stream's derived per-second rate
// (floor division of total by duration).
func (l *Ledger) RatePerSecond(ctx context.Context, streamID uint64) (types.Amount, error) {
	s, err := l.store.Get(ctx, streamID)
	if err != nil {
		return types.Zero, err
	}
	return s.RatePerSecond(), nil
}

// Stats returns the aggregate accounting view of a stream at the
// current time.
func (l *Ledger) Stats(ctx context.Context, streamID uint64) (*stream.Stats, error) {
	s, err := l.store.Get(ctx, streamID)
	if err != nil {
		return nil, err
	}

	now := l.now()
	claimable := accrual.Claimable(s, now)
	remaining := s.TotalAmount.Sub(s.Withdrawn).Sub(claimable)
	if s.CanceledAt != nil {
		// The never-accrued remainder was refunded at cancellation.
		remaining = types.Zero
	}

	return &stream.Stats{
		StreamID:  streamID,
		Total:     s.TotalAmount,
		Withdrawn: s.Withdrawn,
		Claimable: claimable,
		Remaining: remaining,
	}, nil
}
