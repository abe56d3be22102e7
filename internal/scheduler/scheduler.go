package scheduler

import (
	"context"
	"log/slog"
	"time"

	"ticket_exporter/internal/domain"
)

// Exporter runs one bounded export pass. Completed reports whether the
// window is fully drained and finalized.
type Exporter interface {
	Export(ctx context.Context, month string) (*domain.ExportStats, error)
}

// Scheduler is the external driver for the bounded work-unit design: each
// tick re-invokes one export pass, resuming from the committed checkpoint,
// until the window completes. A crashed or failed pass is simply retried on
// the next tick. A completed window is never re-invoked: finalization clears
// the checkpoint, so another pass would reseed and re-export from scratch.
type Scheduler struct {
	exporter Exporter
	month    string
	interval time.Duration
	logger   *slog.Logger

	// lastCompleted is the window id of the most recent completed pass.
	// For the default (empty) month it gates re-invocation until the
	// previous-month target rolls over.
	lastCompleted string
}

func NewScheduler(exporter Exporter, month string, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		exporter: exporter,
		month:    month,
		interval: interval,
		logger:   logger,
	}
}

// Start runs passes until the context is canceled or, for an explicitly
// configured month, until that month's export completes.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval, "month", s.month)

	if done := s.runPass(ctx); done && s.month != "" {
		s.logger.Info("configured export complete, scheduler idle")
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if s.exported(time.Now()) {
				continue
			}
			if done := s.runPass(ctx); done && s.month != "" {
				s.logger.Info("configured export complete, scheduler idle")
				return nil
			}
		}
	}
}

// runPass executes one bounded pass and reports completion. Errors are
// logged, not propagated; the checkpoint discipline makes retrying safe.
func (s *Scheduler) runPass(ctx context.Context) bool {
	passCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	stats, err := s.exporter.Export(passCtx, s.month)
	if err != nil {
		s.logger.Error("export pass failed", "error", err)
		return false
	}
	if stats.Completed {
		s.lastCompleted = stats.WindowID
	}
	return stats.Completed
}

// exported reports whether the default-month target window has already been
// completed by this process. Ticks resume once the calendar rolls the
// previous month forward.
func (s *Scheduler) exported(now time.Time) bool {
	return s.month == "" && s.lastCompleted != "" && s.lastCompleted == domain.PreviousMonth(now)
}
