package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flight-triage/internal/report"
)

type stubReadiness struct {
	err error
}

func (s stubReadiness) CheckReadiness(context.Context) error { return s.err }

type stubReports struct {
	doc report.Document
	ok  bool
}

func (s stubReports) Latest() (report.Document, bool) { return s.doc, s.ok }

func newTestServer(ready ReadinessChecker, reports ReportSource) *Server {
	return NewServer(":0", ready, reports, slog.New(slog.DiscardHandler))
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(stubReadiness{}, nil)

	rec := get(t, s, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		s := newTestServer(stubReadiness{}, nil)

		rec := get(t, s, "/readyz")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
	})

	t.Run("not ready", func(t *testing.T) {
		s := newTestServer(stubReadiness{err: errors.New("no completed run")}, nil)

		rec := get(t, s, "/readyz")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "no completed run")
	})
}

func TestReportEndpoints(t *testing.T) {
	doc := report.Document{
		RunID:      "run-1",
		TargetDate: "2026-09-05",
		Sites: []report.SiteReport{
			{ID: "lenggries", Name: "Lenggries", Status: "great", Score: 7},
		},
	}

	t.Run("json", func(t *testing.T) {
		s := newTestServer(stubReadiness{}, stubReports{doc: doc, ok: true})

		rec := get(t, s, "/api/report")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), `"run_id":"run-1"`)
		assert.Contains(t, rec.Body.String(), `"id":"lenggries"`)
	})

	t.Run("markdown", func(t *testing.T) {
		s := newTestServer(stubReadiness{}, stubReports{doc: doc, ok: true})

		rec := get(t, s, "/api/report/markdown")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Body.String(), "# ✈️ Flight Triage — 2026-09-05")
	})

	t.Run("no report yet", func(t *testing.T) {
		s := newTestServer(stubReadiness{}, stubReports{})

		rec := get(t, s, "/api/report")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("nil source", func(t *testing.T) {
		s := newTestServer(stubReadiness{}, nil)

		rec := get(t, s, "/api/report/markdown")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(stubReadiness{}, nil)

	rec := get(t, s, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
}
