package service

import (
	"context"
	"fmt"
	"time"

	"ticket_exporter/internal/domain"
	"ticket_exporter/internal/report"
)

// finalize materializes the staged rows into the report artifact, shares it,
// notifies recipients, and only then tears down the resume state. Every step
// before the teardown leaves the checkpoint intact on failure, so a re-run
// retries finalization instead of re-fetching the window. The artifact name
// is deterministic per window and grants/emails are at-least-once across
// retries.
func (s *ExportService) finalize(ctx context.Context, window domain.Window, stats *domain.ExportStats) (string, error) {
	logger := s.logger.With("window", window.ID)

	rows, err := s.staging.List(ctx, window.ID)
	if err != nil {
		return "", &domain.FinalizationError{Step: "load staging rows", Err: err}
	}

	name := report.Filename(window.ID)
	content, err := report.Build(rows)
	if err != nil {
		return "", &domain.FinalizationError{Step: "render report", Err: err}
	}

	url, err := s.reports.Create(ctx, name, content)
	if err != nil {
		return "", &domain.FinalizationError{Step: "create artifact", Err: err}
	}
	logger.Info("report artifact created", "name", name, "rows", len(rows))

	for _, recipient := range s.recipients {
		if err := s.reports.Share(ctx, name, recipient); err != nil {
			return "", &domain.FinalizationError{
				Step: "share artifact",
				Err:  fmt.Errorf("recipient %s: %w", recipient, err),
			}
		}
	}

	if len(s.recipients) > 0 {
		if err := s.notifier.SendReport(ctx, s.recipients, window.ID, url); err != nil {
			return "", &domain.FinalizationError{Step: "send notification", Err: err}
		}
	}

	// Teardown is atomic: staging clear, checkpoint clear and the final
	// audit entry commit together.
	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.staging.Reset(txCtx, window.ID); err != nil {
			return fmt.Errorf("clear staging rows: %w", err)
		}
		if err := s.checkpoints.Clear(txCtx, window.ID); err != nil {
			return fmt.Errorf("clear checkpoint: %w", err)
		}
		entry := domain.AuditEntry{
			LoggedAt:       time.Now().UTC(),
			WindowID:       window.ID,
			Cursor:         window.End.Unix(),
			RecordsFetched: stats.Fetched,
			RecordsSaved:   len(rows),
			Status:         domain.StatusComplete,
		}
		return s.audit.Append(txCtx, entry)
	})
	if err != nil {
		return "", &domain.FinalizationError{Step: "clear export state", Err: err}
	}

	s.publish(ctx, domain.ExportEvent{
		Type:         domain.EventExportCompleted,
		WindowID:     window.ID,
		Cursor:       window.End.Unix(),
		RecordsSaved: len(rows),
		ReportURL:    url,
		Timestamp:    time.Now().UTC(),
	})

	logger.Info("export finalized", "report_url", url, "recipients", len(s.recipients))
	return url, nil
}
