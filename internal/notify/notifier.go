// Package notify delivers allocation outcomes to interested channels.
// Message formatting and transport live outside the core; the slog notifier
// here is the default sink.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Allocation is the payload handed to notifiers after a successful
// allocation.
type Allocation struct {
	DealID         string
	AdviserID      string
	AdviserEmail   string
	ServicePackage string
	EarliestWeek   time.Time
	DecidedAt      time.Time
}

// Notifier receives allocation outcomes. Failures are logged by the caller
// and never abort the allocation.
type Notifier interface {
	NotifyAllocation(ctx context.Context, a Allocation) error
}

// SlogNotifier writes allocation notifications to a structured logger.
type SlogNotifier struct {
	logger *slog.Logger
}

func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogNotifier{logger: logger}
}

func (n *SlogNotifier) NotifyAllocation(ctx context.Context, a Allocation) error {
	n.logger.InfoContext(ctx, "deal_allocated",
		"deal_id", a.DealID,
		"adviser_email", a.AdviserEmail,
		"service_package", a.ServicePackage,
		"earliest_week", a.EarliestWeek.Format("2006-01-02"),
	)
	return nil
}

// NoopNotifier discards all notifications. Useful for tests.
type NoopNotifier struct{}

func (NoopNotifier) NotifyAllocation(context.Context, Allocation) error { return nil }
