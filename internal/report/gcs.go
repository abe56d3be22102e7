package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"github.com/codeGROOVE-dev/retry"
)

// GCSStore keeps finished report artifacts in a Cloud Storage bucket and
// grants per-recipient read access through object ACLs.
type GCSStore struct {
	client *storage.Client
	bucket string
	logger *slog.Logger
}

func NewGCSStore(client *storage.Client, bucket string, logger *slog.Logger) *GCSStore {
	return &GCSStore{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

// Create writes the artifact and returns its canonical URL. Overwrites any
// prior object of the same name, which is what makes finalization retries
// idempotent.
func (s *GCSStore) Create(ctx context.Context, name string, content []byte) (string, error) {
	err := retry.Do(
		func() error {
			w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
			w.ContentType = "text/csv"
			if _, writeErr := w.Write(content); writeErr != nil {
				if closeErr := w.Close(); closeErr != nil {
					s.logger.Warn("close writer after failed write", "error", closeErr)
				}
				return fmt.Errorf("write artifact: %w", writeErr)
			}
			if closeErr := w.Close(); closeErr != nil {
				return fmt.Errorf("close artifact writer: %w", closeErr)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn("artifact write failed, retrying",
				"attempt", n+1,
				"name", name,
				"error", err,
			)
		}),
	)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, name)
	s.logger.Info("artifact written", "name", name, "bytes", len(content), "url", url)
	return url, nil
}

// Share grants read access on the artifact to one recipient. Granting an
// already-granted recipient again is a no-op on the ACL.
func (s *GCSStore) Share(ctx context.Context, name, email string) error {
	entity := storage.ACLEntity("user-" + email)

	return retry.Do(
		func() error {
			acl := s.client.Bucket(s.bucket).Object(name).ACL()
			if err := acl.Set(ctx, entity, storage.RoleReader); err != nil {
				return fmt.Errorf("grant reader to %s: %w", email, err)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn("acl grant failed, retrying",
				"attempt", n+1,
				"name", name,
				"error", err,
			)
		}),
	)
}
