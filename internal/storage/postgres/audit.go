package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"ticket_exporter/internal/domain"
)

// AuditLogStore appends one progress record per controller iteration.
// Entries are never mutated; only a fresh-run reseed removes them.
type AuditLogStore struct {
	db *sqlx.DB
}

func NewAuditLogStore(db *sqlx.DB) *AuditLogStore {
	return &AuditLogStore{db: db}
}

func (s *AuditLogStore) Append(ctx context.Context, entry domain.AuditEntry) error {
	query := `
		INSERT INTO export_audit_log
			(logged_at, window_id, cursor, records_fetched, records_saved, last_record_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := executor(ctx, s.db).ExecContext(ctx, query,
		entry.LoggedAt,
		entry.WindowID,
		entry.Cursor,
		entry.RecordsFetched,
		entry.RecordsSaved,
		entry.LastRecordID,
		entry.Status,
	)
	return err
}

// Latest returns the most recent entry for the window, or nil when the
// window has no history.
func (s *AuditLogStore) Latest(ctx context.Context, windowID string) (*domain.AuditEntry, error) {
	query := `
		SELECT id, logged_at, window_id, cursor, records_fetched, records_saved, last_record_id, status
		FROM export_audit_log
		WHERE window_id = $1
		ORDER BY id DESC
		LIMIT 1`

	var entry domain.AuditEntry
	err := sqlx.GetContext(ctx, executor(ctx, s.db), &entry, query, windowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *AuditLogStore) Reset(ctx context.Context, windowID string) error {
	_, err := executor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM export_audit_log WHERE window_id = $1", windowID)
	return err
}
