package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/salvage/internal/core/domain"
	"github.com/vietddude/salvage/internal/infra/storage/memory"
	"github.com/vietddude/salvage/internal/recovery"
)

// ============================================================================
// Helpers
// ============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, checks map[string]Checker) *Server {
	t.Helper()

	cache := memory.NewSnapshotRepo()
	store := memory.NewSnapshotRepo()

	state := &domain.BatchState{
		BatchID:       "batch-1",
		SessionID:     "sess-1",
		Status:        domain.BatchStatusReady,
		ResumeCount:   4,
		LastValidated: time.Unix(1700000000, 0).UTC(),
	}
	if err := store.Save(context.Background(), domain.NewSnapshot(state, "user-1")); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	coord := recovery.New(cache, store, nil, recovery.Config{
		Timeout:                   2 * time.Second,
		EnableProgressiveRecovery: true,
		EnableConflictResolution:  true,
	}, discardLogger())

	return NewServer(coord, 0, checks, discardLogger())
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

// ============================================================================
// Recovery endpoints
// ============================================================================

func TestServer_Recover(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodPost, "/batches/batch-1/recover", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res domain.RecoveryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Status != domain.RecoveryStatusSuccess {
		t.Errorf("expected success, got %s (%s)", res.Status, res.ErrorDetails)
	}
	if res.Metadata.Source != domain.SourceDatabase {
		t.Errorf("expected database source, got %s", res.Metadata.Source)
	}
	if res.RestoredState == nil || res.RestoredState.BatchID != "batch-1" {
		t.Error("expected restored state for batch-1")
	}
}

func TestServer_Recover_BadBody(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodPost, "/batches/batch-1/recover", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestServer_Recover_OptionsForwarded(t *testing.T) {
	s := newTestServer(t, nil)

	// A timeout below the safety floor forces an immediate timeout result,
	// proving the body reached the coordinator.
	rec := doRequest(s, http.MethodPost, "/batches/batch-1/recover", `{"timeout_ms": 10}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var res domain.RecoveryResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Status != domain.RecoveryStatusTimeout {
		t.Errorf("expected timeout, got %s", res.Status)
	}
}

func TestServer_Progressive(t *testing.T) {
	s := newTestServer(t, nil)

	// No remote API is wired, so every component fails but the endpoint
	// still reports per-component outcomes.
	rec := doRequest(s, http.MethodPost, "/batches/batch-1/recover/progressive", `{"components": ["resumes"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res domain.ProgressiveResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Failed) != 1 || res.Failed[0] != domain.ComponentResumes {
		t.Errorf("expected resumes to fail without a remote, got %v", res.Failed)
	}
}

// ============================================================================
// Bookkeeping endpoints
// ============================================================================

func TestServer_ActiveEmpty(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodGet, "/recoveries", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var res struct {
		Active []string `json:"active"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(res.Active) != 0 {
		t.Errorf("expected no active recoveries, got %v", res.Active)
	}
}

func TestServer_CancelNotFound(t *testing.T) {
	s := newTestServer(t, nil)

	rec := doRequest(s, http.MethodDelete, "/recoveries/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

// ============================================================================
// Health
// ============================================================================

type stubChecker struct{ err error }

func (c stubChecker) Health(ctx context.Context) error { return c.err }

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, map[string]Checker{
		"database": stubChecker{},
		"cache":    stubChecker{},
	})

	rec := doRequest(s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestServer_HealthDegraded(t *testing.T) {
	s := newTestServer(t, map[string]Checker{
		"database": stubChecker{},
		"cache":    stubChecker{err: errors.New("connection refused")},
	})

	rec := doRequest(s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var res struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Status != "unhealthy" {
		t.Errorf("expected unhealthy, got %s", res.Status)
	}
	if res.Checks["cache"] != "connection refused" {
		t.Errorf("expected the failing check's error, got %q", res.Checks["cache"])
	}
}
