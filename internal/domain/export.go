package domain

import "time"

// Audit entry statuses. Iteration failures are recorded as "ERROR: <message>".
const (
	StatusOK       = "OK"
	StatusComplete = "Export Complete"
)

// Export event types published for downstream consumers.
const (
	EventPageSynced      = "page_synced"
	EventExportCompleted = "export_completed"
)

// Checkpoint marks how far an export has progressed through the upstream
// feed: all records at feed positions <= Cursor have been considered for the
// window. Always scoped by WindowID; never compared across windows.
type Checkpoint struct {
	ID        int64     `db:"id"`
	WindowID  string    `db:"window_id"`
	Cursor    int64     `db:"cursor"`
	UpdatedAt time.Time `db:"updated_at"`
}

// AuditEntry is one append-only progress record per controller iteration.
type AuditEntry struct {
	ID             int64     `db:"id"`
	LoggedAt       time.Time `db:"logged_at"`
	WindowID       string    `db:"window_id"`
	Cursor         int64     `db:"cursor"`
	RecordsFetched int       `db:"records_fetched"`
	RecordsSaved   int       `db:"records_saved"`
	LastRecordID   int64     `db:"last_record_id"`
	Status         string    `db:"status"`
}

// ExportStats summarizes a single controller invocation.
type ExportStats struct {
	WindowID  string
	Pages     int
	Fetched   int
	Saved     int
	Skipped   int
	Degraded  int
	Completed bool
	ReportURL string
	Duration  time.Duration
}

// ExportEvent is the message published after each persisted page and on
// completion.
type ExportEvent struct {
	Type         string    `json:"type"`
	WindowID     string    `json:"window_id"`
	Cursor       int64     `json:"cursor"`
	RecordsSaved int       `json:"records_saved"`
	ReportURL    string    `json:"report_url,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
