package recovery

import (
	"fmt"

	"github.com/vietddude/salvage/internal/core/domain"
	"github.com/vietddude/salvage/internal/metrics"
)

// comparableFields is the explicit, versioned list of fields that
// participate in conflict detection. A field added to BatchState must be
// registered here or it will not be compared.
var comparableFields = []struct {
	Name  string
	Equal func(a, b *domain.BatchState) bool
}{
	{"status", func(a, b *domain.BatchState) bool { return a.Status == b.Status }},
	{"sessionId", func(a, b *domain.BatchState) bool { return a.SessionID == b.SessionID }},
	{"resumeCount", func(a, b *domain.BatchState) bool { return a.ResumeCount == b.ResumeCount }},
	{"lastValidated", func(a, b *domain.BatchState) bool { return a.LastValidated.Equal(b.LastValidated) }},
	{"error", func(a, b *domain.BatchState) bool { return a.Error.Equal(b.Error) }},
	{"isOwner", func(a, b *domain.BatchState) bool { return a.IsOwner == b.IsOwner }},
	{"locked", func(a, b *domain.BatchState) bool { return a.Locked == b.Locked }},
}

// DetectConflicts compares two states field by field and returns the
// disagreement, or nil when the states agree on every comparable field.
// A ConflictInfo always carries the four fixed resolution options.
func DetectConflicts(existing, incoming *domain.BatchState) *domain.ConflictInfo {
	if existing == nil || incoming == nil {
		return nil
	}

	var fields []string
	for _, f := range comparableFields {
		if !f.Equal(existing, incoming) {
			fields = append(fields, f.Name)
		}
	}
	if len(fields) == 0 {
		return nil
	}

	return &domain.ConflictInfo{
		Local:             existing,
		Remote:            incoming,
		ConflictFields:    fields,
		ResolutionOptions: domain.ResolutionOptions,
	}
}

// AutoResolve merges a conflict field by field, starting from a copy of
// the local state:
//
//   - resumeCount, lastValidated: the remote value wins (more recent wins)
//   - status: "ready" wins when the remote reports it
//   - error: a non-nil local error is never discarded
//   - anything else: the local value is kept
func AutoResolve(info *domain.ConflictInfo) *domain.BatchState {
	merged := info.Local.Clone()

	for _, field := range info.ConflictFields {
		switch field {
		case "resumeCount":
			merged.ResumeCount = info.Remote.ResumeCount
		case "lastValidated":
			merged.LastValidated = info.Remote.LastValidated
		case "status":
			if info.Remote.Status == domain.BatchStatusReady {
				merged.Status = info.Remote.Status
			}
		case "error":
			if merged.Error == nil && info.Remote.Error != nil {
				errCopy := *info.Remote.Error
				merged.Error = &errCopy
			}
		}
	}

	return merged
}

// resolveConflict turns a detected conflict into a result, merging under
// auto mode and surfacing the conflict unmerged under manual mode.
func (c *Coordinator) resolveConflict(
	batchID string,
	info *domain.ConflictInfo,
	opts Options,
) *domain.RecoveryResult {
	if opts.ConflictResolution == ConflictManual {
		c.logger.Info("conflict requires manual resolution",
			"batch_id", batchID, "fields", info.ConflictFields)
		return &domain.RecoveryResult{
			Status:         domain.RecoveryStatusConflict,
			Conflict:       info,
			RecoveredItems: []string{},
			FailedItems:    []string{},
			Warnings:       []string{"Conflicting batch state requires manual resolution"},
		}
	}

	merged := AutoResolve(info)
	metrics.ConflictsResolved.Inc()
	c.logger.Info("conflict resolved automatically",
		"batch_id", batchID, "fields", info.ConflictFields)

	return &domain.RecoveryResult{
		Status:         domain.RecoveryStatusSuccess,
		RestoredState:  merged,
		Metadata:       domain.RecoveryMetadata{Source: domain.SourceMerged},
		RecoveredItems: []string{batchID},
		FailedItems:    []string{},
		Warnings: []string{
			fmt.Sprintf("Resolved %d conflicting fields automatically", len(info.ConflictFields)),
		},
	}
}
