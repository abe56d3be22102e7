// Package email sends the export completion notification through a
// pluggable provider.
package email

import "context"

// Provider is the transport behind the sender.
type Provider interface {
	// Send delivers one email to every address in to.
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}
