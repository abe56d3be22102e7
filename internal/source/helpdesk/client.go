package helpdesk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"ticket_exporter/internal/domain"
)

const (
	SourceID = "zendesk"

	incrementalPath = "/api/v2/incremental/tickets.json"

	// Error bodies are truncated before being carried in UpstreamError.
	maxErrorBody = 4096
)

// Config holds helpdesk client configuration.
type Config struct {
	BaseURL  string
	Email    string
	APIToken string
	Timeout  time.Duration
}

// Client talks to the helpdesk REST API: the incremental ticket feed plus
// the per-record user and comment lookups. It performs no retries; retry
// policy belongs to whoever drives the export.
type Client struct {
	httpClient *http.Client
	baseURL    string
	email      string
	apiToken   string
	logger     *slog.Logger
}

// New creates a new helpdesk client.
func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  cfg.BaseURL,
		email:    cfg.Email,
		apiToken: cfg.APIToken,
		logger:   logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (c *Client) ID() string {
	return SourceID
}

// FetchPage fetches one slice of the incremental feed starting at cursor.
func (c *Client) FetchPage(ctx context.Context, cursor int64) (*domain.Page, error) {
	url := fmt.Sprintf("%s%s?start_time=%d", c.baseURL, incrementalPath, cursor)

	var resp incrementalResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}

	page := &domain.Page{
		Tickets:     c.transform(resp.Tickets),
		EndCursor:   resp.EndTime,
		EndOfStream: resp.EndOfStream,
		NextPage:    resp.NextPage,
	}

	c.logger.Debug("fetched page",
		"cursor", cursor,
		"tickets", len(page.Tickets),
		"end_cursor", page.EndCursor,
		"end_of_stream", page.EndOfStream,
	)

	return page, nil
}

// GetUser resolves a helpdesk identity by id.
func (c *Client) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	url := fmt.Sprintf("%s/api/v2/users/%d.json", c.baseURL, id)

	var resp userResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}

	return &domain.User{
		ID:    resp.User.ID,
		Name:  resp.User.Name,
		Email: resp.User.Email,
	}, nil
}

// ListComments returns all comments for a ticket in upstream order.
func (c *Client) ListComments(ctx context.Context, ticketID int64) ([]domain.Comment, error) {
	url := fmt.Sprintf("%s/api/v2/tickets/%d/comments.json", c.baseURL, ticketID)

	var resp commentsResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}

	comments := make([]domain.Comment, 0, len(resp.Comments))
	for _, cm := range resp.Comments {
		createdAt, _ := time.Parse(time.RFC3339, cm.CreatedAt)
		comments = append(comments, domain.Comment{
			ID:        cm.ID,
			AuthorID:  cm.AuthorID,
			Public:    cm.Public,
			Body:      cm.Body,
			CreatedAt: createdAt,
		})
	}

	return comments, nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "TicketExporter/1.0")
	req.SetBasicAuth(c.email+"/token", c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) transform(tickets []apiTicket) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(tickets))

	for _, t := range tickets {
		createdAt, err := time.Parse(time.RFC3339, t.CreatedAt)
		if err != nil {
			c.logger.Warn("failed to parse created_at",
				"ticket_id", t.ID,
				"created_at", t.CreatedAt,
			)
			continue
		}

		ticket := domain.Ticket{
			ID:          t.ID,
			CreatedAt:   createdAt,
			RequesterID: t.RequesterID,
			Subject:     t.Subject,
			Status:      t.Status,
		}
		if t.Via != nil {
			ticket.Channel = t.Via.Channel
		}

		out = append(out, ticket)
	}

	return out
}
