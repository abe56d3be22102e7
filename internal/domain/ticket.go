package domain

import "time"

// Ticket is a raw record from the helpdesk incremental feed. Owned by the
// upstream; read-only to this system.
type Ticket struct {
	ID          int64
	CreatedAt   time.Time
	RequesterID int64
	Channel     string
	Subject     string
	Status      string
}

// User is a helpdesk identity resolved for a ticket requester.
type User struct {
	ID    int64
	Name  string
	Email string
}

// Comment is a single ticket comment. Only public comments end up in the
// export.
type Comment struct {
	ID        int64
	AuthorID  int64
	Public    bool
	Body      string
	CreatedAt time.Time
}

// Page is one slice of the incremental feed. Tickets are in ascending feed
// order; EndCursor is the feed position to resume from and is never smaller
// than the cursor the page was fetched with.
type Page struct {
	Tickets     []Ticket
	EndCursor   int64
	EndOfStream bool
	NextPage    string
}

// TicketRow is one denormalized staging row, created once per in-window
// ticket and never updated in place.
type TicketRow struct {
	TicketID       int64     `db:"ticket_id"`
	CreatedAt      time.Time `db:"created_at"`
	RequesterEmail string    `db:"requester_email"`
	Channel        string    `db:"channel"`
	Subject        string    `db:"subject"`
	BodyDigest     string    `db:"body_digest"`

	// Degraded marks rows whose enrichment fell back to placeholders.
	// Not persisted; surfaced through the audit trail instead.
	Degraded bool `db:"-"`
}
