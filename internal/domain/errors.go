package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidMonth reports a malformed export month identifier. Fatal and
// surfaced before any state is touched.
var ErrInvalidMonth = errors.New("invalid export month, want YYYY-MM")

// UpstreamError carries a non-success helpdesk response verbatim. The source
// never retries; the scheduler re-invokes and resumes from the committed
// checkpoint.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Body)
}

// FinalizationError marks a failed finalization step. The checkpoint stays
// intact so a re-run retries finalization instead of re-fetching the window.
type FinalizationError struct {
	Step string
	Err  error
}

func (e *FinalizationError) Error() string {
	return fmt.Sprintf("finalize %s: %v", e.Step, e.Err)
}

func (e *FinalizationError) Unwrap() error { return e.Err }
