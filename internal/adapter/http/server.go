// Package http exposes the service's operational endpoints plus read-only
// access to the latest assessment document.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/flight-triage/internal/report"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
// The pipeline is ready once it has completed at least one run.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// ReportSource hands out the most recent finished document.
type ReportSource interface {
	Latest() (report.Document, bool)
}

// Server exposes health, readiness, metrics, and report HTTP endpoints.
type Server struct {
	httpServer *http.Server
	reports    ReportSource
	logger     *slog.Logger
}

// NewServer wires the route table. reports may be nil in one-shot mode; the
// report endpoints then answer 404.
func NewServer(addr string, ready ReadinessChecker, reports ReportSource, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		reports: reports,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("GET /api/report/markdown", s.handleReportMarkdown)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	doc, ok := s.latest()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report available yet"})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleReportMarkdown(w http.ResponseWriter, _ *http.Request) {
	doc, ok := s.latest()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report available yet"})
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report.Markdown(doc)))
}

func (s *Server) latest() (report.Document, bool) {
	if s.reports == nil {
		return report.Document{}, false
	}
	return s.reports.Latest()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
