package email

import (
	"context"
	"log/slog"
)

// MockProvider logs instead of sending. Used in local development and when
// no mail credential is configured.
type MockProvider struct {
	logger *slog.Logger
}

func NewMockProvider(logger *slog.Logger) *MockProvider {
	return &MockProvider{logger: logger}
}

func (m *MockProvider) Send(_ context.Context, to []string, subject, htmlBody string) error {
	m.logger.Info("MOCK EMAIL",
		"to", to,
		"subject", subject,
		"body_length", len(htmlBody),
	)
	return nil
}
