package domain

import (
	"fmt"
	"time"
)

// Window is the half-open calendar-month interval an export run targets:
// Start inclusive, End exclusive. Immutable once computed for a run.
type Window struct {
	ID    string
	Start time.Time
	End   time.Time
}

// WindowFor computes the export window for a month identifier in the form
// "YYYY-MM". An empty identifier selects the calendar month before now,
// computed in UTC. Both bounds are at second resolution.
func WindowFor(month string, now time.Time) (Window, error) {
	if month == "" {
		month = PreviousMonth(now)
	}

	start, err := time.ParseInLocation("2006-01", month, time.UTC)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}

	return Window{
		ID:    month,
		Start: start,
		End:   start.AddDate(0, 1, 0),
	}, nil
}

// PreviousMonth returns the "YYYY-MM" identifier of the calendar month
// before now, in UTC.
func PreviousMonth(now time.Time) string {
	first := time.Date(now.UTC().Year(), now.UTC().Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -1, 0).Format("2006-01")
}

// Contains reports whether t falls inside the window. Start is inclusive,
// End exclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
