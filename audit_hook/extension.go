// Package audithook bridges streampay lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit system. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xraph/streampay/plugin"
	"github.com/xraph/streampay/stream"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnStreamCreated      = (*Extension)(nil)
	_ plugin.OnWithdrawal         = (*Extension)(nil)
	_ plugin.OnStreamCanceled     = (*Extension)(nil)
	_ plugin.OnDailyLimitExceeded = (*Extension)(nil)
	_ plugin.OnReentrancyBlocked  = (*Extension)(nil)
	_ plugin.OnTransferFailed     = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so that the audit_hook package does not import a
// concrete audit module — callers inject the concrete recorder at wiring
// time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges streampay lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Stream lifecycle hooks
// ──────────────────────────────────────────────────

// OnStreamCreated implements plugin.OnStreamCreated.
func (e *Extension) OnStreamCreated(ctx context.Context, ev stream.CreationEvent) error {
	return e.record(ctx, ActionStreamCreated, SeverityInfo, OutcomeSuccess,
		ResourceStream, streamRef(ev.StreamID), CategoryEscrow, nil,
		"event_id", ev.EventID.String(),
		"owner", ev.Owner,
		"recipient", ev.Recipient,
		"asset", ev.Asset,
		"total_amount", ev.TotalAmount.String(),
		"rate_per_second", ev.RatePerSecond.String(),
		"end_at", ev.EndAt,
	)
}

// OnStreamCanceled implements plugin.OnStreamCanceled.
func (e *Extension) OnStreamCanceled(ctx context.Context, ev stream.CancellationEvent) error {
	return e.record(ctx, ActionStreamCanceled, SeverityInfo, OutcomeSuccess,
		ResourceStream, streamRef(ev.StreamID), CategoryEscrow, nil,
		"event_id", ev.EventID.String(),
		"owner", ev.Owner,
		"refund", ev.Refund.String(),
		"claimable_frozen", ev.Claimable.String(),
		"withdrawn", ev.Withdrawn.String(),
	)
}

// ──────────────────────────────────────────────────
// Withdrawal hooks
// ──────────────────────────────────────────────────

// OnWithdrawal implements plugin.OnWithdrawal.
func (e *Extension) OnWithdrawal(ctx context.Context, ev stream.WithdrawalEvent) error {
	return e.record(ctx, ActionWithdrawal, SeverityInfo, OutcomeSuccess,
		ResourceWithdrawal, streamRef(ev.StreamID), CategoryPayout, nil,
		"event_id", ev.EventID.String(),
		"recipient", ev.Recipient,
		"amount", ev.Amount.String(),
		"day", ev.Day,
		"withdrawals_used", ev.WithdrawalsUsed,
	)
}

// OnDailyLimitExceeded implements plugin.OnDailyLimitExceeded.
func (e *Extension) OnDailyLimitExceeded(ctx context.Context, streamID, day uint64, limit uint32) error {
	return e.record(ctx, ActionDailyLimitExceeded, SeverityWarning, OutcomeFailure,
		ResourceWithdrawal, streamRef(streamID), CategoryPayout, nil,
		"day", day,
		"limit", limit,
	)
}

// ──────────────────────────────────────────────────
// Guard hooks
// ──────────────────────────────────────────────────

// OnReentrancyBlocked implements plugin.OnReentrancyBlocked.
func (e *Extension) OnReentrancyBlocked(ctx context.Context, streamID uint64, op string) error {
	return e.record(ctx, ActionReentrancyBlocked, SeverityWarning, OutcomeFailure,
		ResourceStream, streamRef(streamID), CategoryGuard, nil,
		"operation", op,
	)
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (e *Extension) OnTransferFailed(ctx context.Context, streamID uint64, op string, err error) error {
	return e.record(ctx, ActionTransferFailed, SeverityError, OutcomeFailure,
		ResourceTransfer, streamRef(streamID), CategoryPayout, err,
		"operation", op,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func streamRef(streamID uint64) string {
	return strconv.FormatUint(streamID, 10)
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
