package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"ticket_exporter/internal/domain"
)

// StagingStore accumulates enriched rows for a window until finalization.
// Rows are keyed (window_id, ticket_id) so a re-fetched page cannot
// double-append.
type StagingStore struct {
	db *sqlx.DB
}

func NewStagingStore(db *sqlx.DB) *StagingStore {
	return &StagingStore{db: db}
}

// Append inserts the rows in arrival order and returns how many were
// actually new. Conflicting ticket ids are silently absorbed.
func (s *StagingStore) Append(ctx context.Context, windowID string, rows []domain.TicketRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO staging_rows
		(window_id, ticket_id, created_at, requester_email, channel, subject, body_digest)
		VALUES `)

	args := make([]interface{}, 0, len(rows)*7)
	args = append(args, windowID)

	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("($1")
		for j := 0; j < 6; j++ {
			sb.WriteString(", $")
			sb.WriteString(strconv.Itoa(i*6 + j + 2))
		}
		sb.WriteString(")")
		args = append(args,
			row.TicketID,
			row.CreatedAt,
			row.RequesterEmail,
			row.Channel,
			row.Subject,
			row.BodyDigest,
		)
	}
	sb.WriteString(" ON CONFLICT (window_id, ticket_id) DO NOTHING")

	res, err := executor(ctx, s.db).ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, err
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(inserted), nil
}

// List returns all staged rows for the window ordered by ticket creation
// time, ticket id breaking ties. Report readers rely on this ordering.
func (s *StagingStore) List(ctx context.Context, windowID string) ([]domain.TicketRow, error) {
	query := `
		SELECT ticket_id, created_at, requester_email, channel, subject, body_digest
		FROM staging_rows
		WHERE window_id = $1
		ORDER BY created_at, ticket_id`

	var rows []domain.TicketRow
	err := sqlx.SelectContext(ctx, executor(ctx, s.db), &rows, query, windowID)
	return rows, err
}

// Count returns the number of staged rows for the window.
func (s *StagingStore) Count(ctx context.Context, windowID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, executor(ctx, s.db), &n,
		"SELECT COUNT(*) FROM staging_rows WHERE window_id = $1", windowID)
	return n, err
}

// Reset drops every staged row for the window. Called on fresh-run reseed
// and after successful finalization.
func (s *StagingStore) Reset(ctx context.Context, windowID string) error {
	_, err := executor(ctx, s.db).ExecContext(ctx,
		"DELETE FROM staging_rows WHERE window_id = $1", windowID)
	return err
}
