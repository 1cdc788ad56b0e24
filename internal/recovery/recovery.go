package recovery

import (
	"context"
	"time"

	"github.com/vietddude/salvage/internal/core/domain"
)

// DefaultTimeout bounds a recovery attempt when neither the caller nor the
// configuration sets one.
const DefaultTimeout = 30 * time.Second

// minTimeout is the safety floor: a configured timeout below it is treated
// as a demand for an immediate timeout result, no source is attempted.
const minTimeout = 100 * time.Millisecond

// RemoteAPI is the server-of-record collaborator consulted during recovery.
type RemoteAPI interface {
	// ValidateBatch fetches the server-side state of a batch
	ValidateBatch(ctx context.Context, batchID, sessionID, userID string) (*domain.BatchState, error)

	// ListResumes fetches the batch's constituent items
	ListResumes(ctx context.Context, batchID, sessionID string) ([]domain.Resume, error)

	// FetchAnalysis fetches computed results scoped to the batch
	FetchAnalysis(ctx context.Context, batchID string) ([]domain.AnalysisResult, error)

	// ValidateMetadata fetches the batch's validation descriptor
	ValidateMetadata(ctx context.Context, batchID, sessionID, userID string) (map[string]any, error)
}

// Config holds recovery settings. RetryAttempts and RetryDelay govern the
// remote collaborator, not the coordinator itself.
type Config struct {
	Timeout                   time.Duration
	RetryAttempts             int
	RetryDelay                time.Duration
	EnableProgressiveRecovery bool
	EnableConflictResolution  bool
}

// ConflictMode selects how a detected conflict is handled.
type ConflictMode string

const (
	// ConflictAuto merges field-by-field using the fixed resolution rules.
	ConflictAuto ConflictMode = "auto"

	// ConflictManual surfaces the conflict to the caller unmerged.
	ConflictManual ConflictMode = "manual"
)

// Options are per-call recovery options.
type Options struct {
	// Timeout overrides the configured recovery timeout when non-zero.
	Timeout time.Duration `json:"timeout,omitempty"`

	// SessionID and UserID enable server recovery when either is set.
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`

	// PreferredSource flips the source order when set to SourceServer.
	PreferredSource domain.RecoverySource `json:"preferred_source,omitempty"`

	// AllowPartial accepts a semantically degraded state as a partial result.
	AllowPartial bool `json:"allow_partial,omitempty"`

	// ConflictResolution defaults to ConflictAuto.
	ConflictResolution ConflictMode `json:"conflict_resolution,omitempty"`
}
