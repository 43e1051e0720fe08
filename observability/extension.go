// Package observability provides a metrics extension for streampay that
// records lifecycle event counts via a pluggable MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/streampay/plugin"
	"github.com/xraph/streampay/stream"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnStreamCreated      = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawal         = (*MetricsExtension)(nil)
	_ plugin.OnStreamCanceled     = (*MetricsExtension)(nil)
	_ plugin.OnDailyLimitExceeded = (*MetricsExtension)(nil)
	_ plugin.OnReentrancyBlocked  = (*MetricsExtension)(nil)
	_ plugin.OnTransferFailed     = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a streampay plugin to automatically track stream metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Stream lifecycle metrics
	StreamsCreated  Counter
	Withdrawals     Counter
	Cancellations   Counter
	DepositSeconds  Histogram
	WithdrawalsUsed Histogram

	// Guard metrics
	DailyLimitHits     Counter
	ReentrancyBlocked  Counter
	TransferFailures   Counter
	CreateTransferFail Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Stream lifecycle metrics
		StreamsCreated:  factory.Counter("streampay.stream.created"),
		Withdrawals:     factory.Counter("streampay.withdrawal.completed"),
		Cancellations:   factory.Counter("streampay.stream.canceled"),
		DepositSeconds:  factory.Histogram("streampay.stream.duration_seconds"),
		WithdrawalsUsed: factory.Histogram("streampay.withdrawal.day_slot"),

		// Guard metrics
		DailyLimitHits:     factory.Counter("streampay.withdrawal.daily_limit_hits"),
		ReentrancyBlocked:  factory.Counter("streampay.guard.reentrancy_blocked"),
		TransferFailures:   factory.Counter("streampay.transfer.failures"),
		CreateTransferFail: factory.Counter("streampay.transfer.deposit_failures"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Stream lifecycle hooks
// ──────────────────────────────────────────────────

// OnStreamCreated implements plugin.OnStreamCreated.
func (m *MetricsExtension) OnStreamCreated(_ context.Context, ev stream.CreationEvent) error {
	m.StreamsCreated.Inc()
	m.DepositSeconds.Observe(float64(ev.EndAt.Unix() - ev.StartAt.Unix()))
	return nil
}

// OnWithdrawal implements plugin.OnWithdrawal.
func (m *MetricsExtension) OnWithdrawal(_ context.Context, ev stream.WithdrawalEvent) error {
	m.Withdrawals.Inc()
	m.WithdrawalsUsed.Observe(float64(ev.WithdrawalsUsed))
	return nil
}

// OnStreamCanceled implements plugin.OnStreamCanceled.
func (m *MetricsExtension) OnStreamCanceled(_ context.Context, _ stream.CancellationEvent) error {
	m.Cancellations.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Guard hooks
// ──────────────────────────────────────────────────

// OnDailyLimitExceeded implements plugin.OnDailyLimitExceeded.
func (m *MetricsExtension) OnDailyLimitExceeded(_ context.Context, _, _ uint64, _ uint32) error {
	m.DailyLimitHits.Inc()
	return nil
}

// OnReentrancyBlocked implements plugin.OnReentrancyBlocked.
func (m *MetricsExtension) OnReentrancyBlocked(_ context.Context, _ uint64, _ string) error {
	m.ReentrancyBlocked.Inc()
	return nil
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (m *MetricsExtension) OnTransferFailed(_ context.Context, _ uint64, op string, _ error) error {
	m.TransferFailures.Inc()
	if op == "create" {
		m.CreateTransferFail.Inc()
	}
	return nil
}
