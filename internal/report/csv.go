// Package report materializes a completed window's staging rows into a
// shared CSV artifact.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"ticket_exporter/internal/domain"
)

// Header is the first row of every report.
var Header = []string{"Ticket ID", "Created At", "Requester Email", "Channel", "Subject", "Comments"}

// Filename returns the deterministic artifact name for a window, so a
// finalization retry overwrites rather than duplicates.
func Filename(windowID string) string {
	return fmt.Sprintf("ticket-export-%s.csv", windowID)
}

// Build renders the header plus one line per staging row, in the order
// given.
func Build(rows []domain.TicketRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			strconv.FormatInt(row.TicketID, 10),
			row.CreatedAt.UTC().Format(time.RFC3339),
			row.RequesterEmail,
			row.Channel,
			row.Subject,
			row.BodyDigest,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row.TicketID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
