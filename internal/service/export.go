package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"ticket_exporter/internal/config"
	"ticket_exporter/internal/domain"
)

// ExportService drives one window's export: seed or resume the checkpoint,
// fetch pages, filter to the window, enrich, persist, advance the
// checkpoint, and finalize once the window is drained. A single invocation
// processes at most MaxPagesPerRun pages; the caller re-invokes until
// Completed. At most one instance may advance a given window at a time.
type ExportService struct {
	source      Source
	enricher    Enricher
	checkpoints CheckpointStore
	staging     StagingStore
	audit       AuditLog
	tx          TransactionManager
	publisher   Publisher
	reports     ReportStore
	notifier    Notifier
	recipients  []string
	logger      *slog.Logger
	cfg         config.ExportConfig
}

func NewExportService(
	source Source,
	enricher Enricher,
	checkpoints CheckpointStore,
	staging StagingStore,
	audit AuditLog,
	tx TransactionManager,
	publisher Publisher,
	reports ReportStore,
	notifier Notifier,
	recipients []string,
	logger *slog.Logger,
	cfg config.ExportConfig,
) *ExportService {
	return &ExportService{
		source:      source,
		enricher:    enricher,
		checkpoints: checkpoints,
		staging:     staging,
		audit:       audit,
		tx:          tx,
		publisher:   publisher,
		reports:     reports,
		notifier:    notifier,
		recipients:  recipients,
		logger:      logger.With("source", source.ID()),
		cfg:         cfg,
	}
}

// Export runs one bounded pass for the given month ("" selects the previous
// calendar month). Safe to re-invoke: it resumes from the committed
// checkpoint, and a checkpoint already past the window end skips straight to
// finalization retry.
func (s *ExportService) Export(ctx context.Context, month string) (*domain.ExportStats, error) {
	startTime := time.Now()

	window, err := domain.WindowFor(month, time.Now())
	if err != nil {
		return nil, err
	}

	logger := s.logger.With("window", window.ID)
	stats := &domain.ExportStats{WindowID: window.ID}

	cursor, err := s.seed(ctx, window, logger)
	if err != nil {
		s.recordFailure(ctx, window.ID, window.Start.Unix(), stats, err)
		return stats, err
	}

	windowEnd := window.End.Unix()
	done := cursor >= windowEnd

	for page := 0; !done && page < s.cfg.MaxPagesPerRun; page++ {
		var advanced int64
		advanced, done, err = s.syncPage(ctx, window, cursor, stats)
		if err != nil {
			s.recordFailure(ctx, window.ID, cursor, stats, err)
			return stats, err
		}
		cursor = advanced
	}

	if done {
		url, err := s.finalize(ctx, window, stats)
		if err != nil {
			s.recordFailure(ctx, window.ID, cursor, stats, err)
			return stats, err
		}
		stats.ReportURL = url
		stats.Completed = true
	}

	stats.Duration = time.Since(startTime)

	logger.Info("export pass finished",
		"pages", stats.Pages,
		"fetched", stats.Fetched,
		"saved", stats.Saved,
		"skipped", stats.Skipped,
		"degraded", stats.Degraded,
		"completed", stats.Completed,
		"duration", stats.Duration,
	)

	return stats, nil
}

// seed determines the starting cursor. An absent checkpoint means a fresh
// run: stale staging rows and audit entries for the window are purged before
// the cursor is seeded to the window start.
func (s *ExportService) seed(ctx context.Context, window domain.Window, logger *slog.Logger) (int64, error) {
	cp, err := s.checkpoints.Get(ctx, window.ID)
	if err != nil {
		return 0, fmt.Errorf("read checkpoint: %w", err)
	}

	if cp != nil {
		logger.Info("resuming from checkpoint", "cursor", cp.Cursor)
		return cp.Cursor, nil
	}

	cursor := window.Start.Unix()
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.staging.Reset(txCtx, window.ID); err != nil {
			return fmt.Errorf("reset staging rows: %w", err)
		}
		if err := s.audit.Reset(txCtx, window.ID); err != nil {
			return fmt.Errorf("reset audit log: %w", err)
		}
		if err := s.checkpoints.Set(txCtx, window.ID, cursor); err != nil {
			return fmt.Errorf("seed checkpoint: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info("seeded fresh window", "cursor", cursor)
	return cursor, nil
}

// syncPage consumes one feed page: filter, enrich, and commit rows,
// checkpoint and audit entry in a single transaction. A page with zero
// admitted records still advances the checkpoint.
func (s *ExportService) syncPage(ctx context.Context, window domain.Window, cursor int64, stats *domain.ExportStats) (int64, bool, error) {
	page, err := s.source.FetchPage(ctx, cursor)
	if err != nil {
		return cursor, false, fmt.Errorf("fetch page: %w", err)
	}

	stats.Pages++
	stats.Fetched += len(page.Tickets)

	admitted := make([]domain.Ticket, 0, len(page.Tickets))
	for _, t := range page.Tickets {
		if window.Contains(t.CreatedAt) {
			admitted = append(admitted, t)
		}
	}
	stats.Skipped += len(page.Tickets) - len(admitted)

	rows, err := s.enricher.EnrichPage(ctx, admitted)
	if err != nil {
		return cursor, false, fmt.Errorf("enrich page: %w", err)
	}

	var degraded []int64
	var lastID int64
	for _, row := range rows {
		if row.Degraded {
			degraded = append(degraded, row.TicketID)
		}
		lastID = row.TicketID
	}
	stats.Degraded += len(degraded)

	// The feed contract guarantees EndCursor >= cursor; never move backwards
	// even if the upstream misbehaves.
	newCursor := page.EndCursor
	if newCursor < cursor {
		newCursor = cursor
	}

	var saved int
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		n, err := s.staging.Append(txCtx, window.ID, rows)
		if err != nil {
			return fmt.Errorf("append staging rows: %w", err)
		}
		saved = n

		if err := s.checkpoints.Set(txCtx, window.ID, newCursor); err != nil {
			return fmt.Errorf("advance checkpoint: %w", err)
		}

		entry := domain.AuditEntry{
			LoggedAt:       time.Now().UTC(),
			WindowID:       window.ID,
			Cursor:         newCursor,
			RecordsFetched: stats.Fetched,
			RecordsSaved:   stats.Saved + n,
			LastRecordID:   lastID,
			Status:         iterationStatus(degraded),
		}
		if err := s.audit.Append(txCtx, entry); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return cursor, false, err
	}
	stats.Saved += saved

	s.publish(ctx, domain.ExportEvent{
		Type:         domain.EventPageSynced,
		WindowID:     window.ID,
		Cursor:       newCursor,
		RecordsSaved: saved,
		Timestamp:    time.Now().UTC(),
	})

	done := page.EndOfStream || newCursor >= window.End.Unix()
	return newCursor, done, nil
}

// publish is best-effort; a broken broker never fails an export pass.
func (s *ExportService) publish(ctx context.Context, event domain.ExportEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish export event failed",
			"type", event.Type,
			"window", event.WindowID,
			"error", err,
		)
	}
}

// recordFailure appends a single ERROR audit entry for a failed invocation.
// Best-effort: the original error is what the caller sees.
func (s *ExportService) recordFailure(ctx context.Context, windowID string, cursor int64, stats *domain.ExportStats, cause error) {
	entry := domain.AuditEntry{
		LoggedAt:       time.Now().UTC(),
		WindowID:       windowID,
		Cursor:         cursor,
		RecordsFetched: stats.Fetched,
		RecordsSaved:   stats.Saved,
		Status:         "ERROR: " + cause.Error(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("append failure audit entry failed", "window", windowID, "error", err)
	}
}

func iterationStatus(degraded []int64) string {
	if len(degraded) == 0 {
		return domain.StatusOK
	}
	ids := make([]string, len(degraded))
	for i, id := range degraded {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return domain.StatusOK + " (degraded: " + strings.Join(ids, ",") + ")"
}
