package helpdesk

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket_exporter/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(baseURL string) *Client {
	return New(Config{
		BaseURL:  baseURL,
		Email:    "exporter@example.com",
		APIToken: "supersecret",
		Timeout:  5 * time.Second,
	}, testLogger())
}

func TestFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, incrementalPath, r.URL.Path)
		assert.Equal(t, "1764547200", r.URL.Query().Get("start_time"))

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "exporter@example.com/token", user)
		assert.Equal(t, "supersecret", pass)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"tickets": [
				{"id": 101, "created_at": "2025-12-01T00:00:05Z", "requester_id": 7, "subject": "Login broken", "status": "open", "via": {"channel": "web"}},
				{"id": 102, "created_at": "2025-12-02T10:30:00Z", "requester_id": 8, "subject": "Refund", "status": "solved", "via": {"channel": "email"}}
			],
			"end_time": 1764671400,
			"end_of_stream": false,
			"next_page": "https://example.zendesk.com/api/v2/incremental/tickets.json?start_time=1764671400"
		}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	page, err := client.FetchPage(context.Background(), 1764547200)
	require.NoError(t, err)

	assert.Equal(t, int64(1764671400), page.EndCursor)
	assert.False(t, page.EndOfStream)
	assert.NotEmpty(t, page.NextPage)

	require.Len(t, page.Tickets, 2)
	assert.Equal(t, int64(101), page.Tickets[0].ID)
	assert.Equal(t, int64(7), page.Tickets[0].RequesterID)
	assert.Equal(t, "web", page.Tickets[0].Channel)
	assert.Equal(t, "Login broken", page.Tickets[0].Subject)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 5, 0, time.UTC), page.Tickets[0].CreatedAt.UTC())
	assert.Equal(t, "email", page.Tickets[1].Channel)
}

func TestFetchPage_SkipsUnparseableCreatedAt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"tickets": [
				{"id": 1, "created_at": "not-a-date", "requester_id": 7},
				{"id": 2, "created_at": "2025-12-03T00:00:00Z", "requester_id": 7}
			],
			"end_time": 10,
			"end_of_stream": true
		}`))
	}))
	defer srv.Close()

	page, err := newTestClient(srv.URL).FetchPage(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, page.Tickets, 1)
	assert.Equal(t, int64(2), page.Tickets[0].ID)
}

func TestFetchPage_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchPage(context.Background(), 0)
	require.Error(t, err)

	var upstreamErr *domain.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, http.StatusTooManyRequests, upstreamErr.Status)
	assert.Contains(t, upstreamErr.Body, "rate limited")
}

func TestGetUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/users/7.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"user": {"id": 7, "name": "Ada", "email": "ada@example.com"}}`))
	}))
	defer srv.Close()

	user, err := newTestClient(srv.URL).GetUser(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestListComments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/tickets/101/comments.json", r.URL.Path)
		_, _ = w.Write([]byte(`{"comments": [
			{"id": 1, "author_id": 7, "public": true, "body": "It is broken", "created_at": "2025-12-01T00:01:00Z"},
			{"id": 2, "author_id": 9, "public": false, "body": "internal note", "created_at": "2025-12-01T00:02:00Z"}
		]}`))
	}))
	defer srv.Close()

	comments, err := newTestClient(srv.URL).ListComments(context.Background(), 101)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.True(t, comments[0].Public)
	assert.False(t, comments[1].Public)
	assert.Equal(t, int64(9), comments[1].AuthorID)
}
