package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"ticket_exporter/internal/domain"
)

// CheckpointStore persists the export cursor, always keyed by window id.
// Every read hits the database; nothing is cached.
type CheckpointStore struct {
	db *sqlx.DB
}

func NewCheckpointStore(db *sqlx.DB) *CheckpointStore {
	return &CheckpointStore{db: db}
}

// Get returns the committed checkpoint for the window, or nil when none
// exists (fresh run).
func (s *CheckpointStore) Get(ctx context.Context, windowID string) (*domain.Checkpoint, error) {
	query := `
		SELECT id, window_id, cursor, updated_at
		FROM export_checkpoints
		WHERE window_id = $1`

	var cp domain.Checkpoint
	err := sqlx.GetContext(ctx, executor(ctx, s.db), &cp, query, windowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// Set durably writes the cursor for the window, replacing any prior value.
// Writing the same value twice is a no-op.
func (s *CheckpointStore) Set(ctx context.Context, windowID string, cursor int64) error {
	query := `
		INSERT INTO export_checkpoints (window_id, cursor, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (window_id) DO UPDATE SET
			cursor = EXCLUDED.cursor,
			updated_at = NOW()`

	_, err := executor(ctx, s.db).ExecContext(ctx, query, windowID, cursor)
	return err
}

// Clear removes the checkpoint. Used only after successful finalization or
// an explicit reset.
func (s *CheckpointStore) Clear(ctx context.Context, windowID string) error {
	_, err := executor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM export_checkpoints WHERE window_id = $1", windowID)
	return err
}
