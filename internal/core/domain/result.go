package domain

import "time"

// RecoveryStatus classifies the outcome of one recovery attempt.
type RecoveryStatus string

const (
	RecoveryStatusSuccess  RecoveryStatus = "success"
	RecoveryStatusFailed   RecoveryStatus = "failed"
	RecoveryStatusPartial  RecoveryStatus = "partial"
	RecoveryStatusTimeout  RecoveryStatus = "timeout"
	RecoveryStatusConflict RecoveryStatus = "conflict"
)

// RecoverySource names the store that satisfied (or failed) a recovery.
type RecoverySource string

const (
	SourceCache    RecoverySource = "cache"
	SourceDatabase RecoverySource = "database"
	SourceServer   RecoverySource = "server"
	SourceMerged   RecoverySource = "merged"
)

// AllSources lists every source consulted by the recovery pipeline, in
// priority order.
var AllSources = []RecoverySource{SourceCache, SourceDatabase, SourceServer}

// RecoveryMetadata records how an attempt was satisfied.
type RecoveryMetadata struct {
	AttemptID string         `json:"attempt_id"`
	Source    RecoverySource `json:"source,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
}

// RecoveryResult is the immutable outcome of one recovery attempt. It is
// never mutated after construction; concurrent callers joining the same
// attempt share a single value.
type RecoveryResult struct {
	Status         RecoveryStatus   `json:"status"`
	RestoredState  *BatchState      `json:"restored_state,omitempty"`
	PartialData    *BatchState      `json:"partial_data,omitempty"`
	Metadata       RecoveryMetadata `json:"metadata"`
	RecoveredItems []string         `json:"recovered_items"`
	FailedItems    []string         `json:"failed_items"`
	Warnings       []string         `json:"warnings,omitempty"`
	Conflict       *ConflictInfo    `json:"conflict,omitempty"`
	ErrorDetails   string           `json:"error_details,omitempty"`
}

// Component names a recoverable sub-resource of a batch.
type Component string

const (
	ComponentResumes  Component = "resumes"
	ComponentAnalysis Component = "analysis"
	ComponentMetadata Component = "metadata"
)

// DefaultComponents is the set recovered when the caller names none.
var DefaultComponents = []Component{ComponentResumes, ComponentAnalysis, ComponentMetadata}

// ProgressiveResult is the outcome of per-component recovery. A failed
// component never removes another component's recovered data.
type ProgressiveResult struct {
	Recovered map[Component]any `json:"recovered"`
	Failed    []Component       `json:"failed"`
	Warnings  []string          `json:"warnings,omitempty"`
}
