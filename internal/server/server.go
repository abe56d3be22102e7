// Package server exposes the HTTP trigger surface for the exporter.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ticket_exporter/internal/domain"
)

// Exporter runs one bounded export pass for a month identifier.
type Exporter interface {
	Export(ctx context.Context, month string) (*domain.ExportStats, error)
}

// AuditReader serves the latest progress entry for a window.
type AuditReader interface {
	Latest(ctx context.Context, windowID string) (*domain.AuditEntry, error)
}

type Config struct {
	Port int
}

// Server handles export trigger and status requests.
type Server struct {
	exporter Exporter
	audit    AuditReader
	logger   *slog.Logger
	server   *http.Server
}

// ExportResponse is the trigger response body. Handled failures come back
// with HTTP 200 and a non-empty Error; only panics produce a 500.
type ExportResponse struct {
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Completed bool   `json:"completed"`
	ReportURL string `json:"report_url,omitempty"`
	Error     string `json:"error,omitempty"`
}

func NewServer(cfg Config, exporter Exporter, audit AuditReader, logger *slog.Logger) *Server {
	s := &Server{
		exporter: exporter,
		audit:    audit,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/export", s.handleExport)
	mux.HandleFunc("/status", s.handleStatus)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.recoverer(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute, // export passes are slow
	}

	return s
}

func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleExport triggers one export pass. The optional month parameter
// defaults to the previous calendar month.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	month := r.URL.Query().Get("month")

	stats, err := s.exporter.Export(r.Context(), month)

	resp := ExportResponse{}
	if stats != nil {
		resp.Processed = stats.Saved
		resp.Total = stats.Fetched
		resp.Completed = stats.Completed
		resp.ReportURL = stats.ReportURL
	}
	if err != nil {
		s.logger.Error("export failed", "month", month, "error", err)
		resp.Error = err.Error()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	window, err := domain.WindowFor(r.URL.Query().Get("month"), time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := s.audit.Latest(r.Context(), window.ID)
	if err != nil {
		http.Error(w, fmt.Sprintf("read audit log: %v", err), http.StatusInternalServerError)
		return
	}
	if entry == nil {
		http.Error(w, "no export history for window "+window.ID, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"window_id":       entry.WindowID,
		"logged_at":       entry.LoggedAt.UTC().Format(time.RFC3339),
		"cursor":          entry.Cursor,
		"records_fetched": entry.RecordsFetched,
		"records_saved":   entry.RecordsSaved,
		"last_record_id":  entry.LastRecordID,
		"status":          entry.Status,
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic in handler", "path", r.URL.Path, "panic", rec)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
