package email

import (
	"context"
	"fmt"
	"html"
	"log/slog"
)

// Sender builds and sends the completion notification.
type Sender struct {
	provider Provider
	logger   *slog.Logger
}

func NewSender(provider Provider, logger *slog.Logger) *Sender {
	return &Sender{
		provider: provider,
		logger:   logger,
	}
}

// SendReport sends one email to the configured recipient list pointing at
// the finished report artifact.
func (s *Sender) SendReport(ctx context.Context, recipients []string, windowID, reportURL string) error {
	if len(recipients) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Ticket export %s is ready", windowID)
	body := reportBody(windowID, reportURL)

	s.logger.Info("sending completion email",
		"window", windowID,
		"recipients", len(recipients),
	)

	return s.provider.Send(ctx, recipients, subject, body)
}

func reportBody(windowID, reportURL string) string {
	u := html.EscapeString(reportURL)
	return fmt.Sprintf(
		`<p>The support ticket export for <b>%s</b> has completed.</p>`+
			`<p>The report is available at <a href="%s">%s</a>.</p>`+
			`<p>You have been granted read access with this address.</p>`,
		html.EscapeString(windowID), u, u,
	)
}
