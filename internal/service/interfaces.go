package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"ticket_exporter/internal/domain"
)

// Source is the paginated, time-ordered upstream feed.
type Source interface {
	ID() string
	FetchPage(ctx context.Context, cursor int64) (*domain.Page, error)
}

// Enricher denormalizes a page of admitted tickets into export rows,
// preserving ticket order.
type Enricher interface {
	EnrichPage(ctx context.Context, tickets []domain.Ticket) ([]domain.TicketRow, error)
}

// CheckpointStore persists the per-window cursor. Get returns nil on a
// fresh window.
type CheckpointStore interface {
	Get(ctx context.Context, windowID string) (*domain.Checkpoint, error)
	Set(ctx context.Context, windowID string, cursor int64) error
	Clear(ctx context.Context, windowID string) error
}

// StagingStore accumulates enriched rows until finalization.
type StagingStore interface {
	Append(ctx context.Context, windowID string, rows []domain.TicketRow) (int, error)
	List(ctx context.Context, windowID string) ([]domain.TicketRow, error)
	Reset(ctx context.Context, windowID string) error
}

// AuditLog records one progress entry per controller iteration.
type AuditLog interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
	Latest(ctx context.Context, windowID string) (*domain.AuditEntry, error)
	Reset(ctx context.Context, windowID string) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Publisher emits export lifecycle events for downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event domain.ExportEvent) error
	Close() error
}

// ReportStore materializes and shares the finished report artifact.
type ReportStore interface {
	Create(ctx context.Context, name string, content []byte) (string, error)
	Share(ctx context.Context, name, email string) error
}

// Notifier sends the completion email.
type Notifier interface {
	SendReport(ctx context.Context, recipients []string, windowID, reportURL string) error
}
