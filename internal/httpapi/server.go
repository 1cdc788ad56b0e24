package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vietddude/salvage/internal/core/domain"
	"github.com/vietddude/salvage/internal/recovery"
)

// Checker reports the health of one dependency.
type Checker interface {
	Health(ctx context.Context) error
}

// Server exposes recovery operations, health and metrics over HTTP.
type Server struct {
	coord  *recovery.Coordinator
	checks map[string]Checker
	logger *slog.Logger
	server *http.Server
}

// NewServer creates the HTTP surface.
func NewServer(
	coord *recovery.Coordinator,
	port int,
	checks map[string]Checker,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		coord:  coord,
		checks: checks,
		logger: logger,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}

	mux.HandleFunc("POST /batches/{id}/recover", s.handleRecover)
	mux.HandleFunc("POST /batches/{id}/recover/progressive", s.handleProgressive)
	mux.HandleFunc("GET /recoveries", s.handleActive)
	mux.HandleFunc("DELETE /recoveries/{id}", s.handleCancel)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// recoverRequest is the request body for both recovery endpoints. The
// timeout is carried in milliseconds on the wire.
type recoverRequest struct {
	SessionID          string                 `json:"session_id"`
	UserID             string                 `json:"user_id"`
	TimeoutMS          int64                  `json:"timeout_ms"`
	PreferredSource    domain.RecoverySource  `json:"preferred_source"`
	AllowPartial       bool                   `json:"allow_partial"`
	ConflictResolution recovery.ConflictMode  `json:"conflict_resolution"`
	Components         []domain.Component     `json:"components"`
}

func (r recoverRequest) options() recovery.Options {
	opts := recovery.Options{
		SessionID:          r.SessionID,
		UserID:             r.UserID,
		PreferredSource:    r.PreferredSource,
		AllowPartial:       r.AllowPartial,
		ConflictResolution: r.ConflictResolution,
	}
	if r.TimeoutMS > 0 {
		opts.Timeout = time.Duration(r.TimeoutMS) * time.Millisecond
	}
	return opts
}

func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("id")

	var req recoverRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// The coordinator always returns a value; outcome is in the body.
	res := s.coord.Recover(r.Context(), batchID, req.options())
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProgressive(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("id")

	var req recoverRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res := s.coord.ProgressiveRecover(r.Context(), batchID, req.Components, req.options())
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"active": s.coord.Active()})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("id")
	cancelled := s.coord.Cancel(batchID)

	status := http.StatusOK
	if !cancelled {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]any{"cancelled": cancelled})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	healthy := true
	checks := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check.Health(ctx); err != nil {
			healthy = false
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	overall := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}
	writeJSON(w, status, map[string]any{"status": overall, "checks": checks})
}

func decodeBody(r *http.Request, out any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
