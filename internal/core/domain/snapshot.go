package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"
)

// SnapshotSchemaVersion is the version written by the current snapshot
// producers. Readers reject snapshots from a newer schema.
const SnapshotSchemaVersion = 1

var (
	// ErrSnapshotVersion is returned for snapshots written by a newer schema.
	ErrSnapshotVersion = errors.New("unsupported snapshot schema version")

	// ErrSnapshotChecksum is returned when integrity verification fails.
	ErrSnapshotChecksum = errors.New("snapshot checksum mismatch")

	// ErrSnapshotEmpty is returned for an envelope with no wrapped state.
	ErrSnapshotEmpty = errors.New("snapshot has no state")
)

type SyncStatus string

const (
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusPending SyncStatus = "pending"
	SyncStatusDirty   SyncStatus = "dirty"
)

// PersistedSnapshot is the versioned envelope stores persist around a
// BatchState.
type PersistedSnapshot struct {
	SchemaVersion int         `json:"schema_version"`
	CapturedAt    time.Time   `json:"captured_at"`
	BatchID       string      `json:"batch_id"`
	SessionID     string      `json:"session_id"`
	UserID        string      `json:"user_id"`
	Checksum      string      `json:"checksum,omitempty"`
	SyncStatus    SyncStatus  `json:"sync_status"`
	State         *BatchState `json:"state"`
}

// NewSnapshot wraps a state in a current-version envelope with checksum.
func NewSnapshot(state *BatchState, userID string) *PersistedSnapshot {
	snap := &PersistedSnapshot{
		SchemaVersion: SnapshotSchemaVersion,
		CapturedAt:    time.Now().UTC(),
		BatchID:       state.BatchID,
		SessionID:     state.SessionID,
		UserID:        userID,
		SyncStatus:    SyncStatusPending,
		State:         state,
	}
	snap.Checksum = ChecksumState(state)
	return snap
}

// ChecksumState computes the integrity checksum over the JSON form of a state.
func ChecksumState(state *BatchState) string {
	data, err := json.Marshal(state)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Validate checks the envelope before its state is trusted. A checksum is
// only verified when the producer recorded one.
func (s *PersistedSnapshot) Validate() error {
	if s.State == nil {
		return ErrSnapshotEmpty
	}
	if s.SchemaVersion > SnapshotSchemaVersion {
		return ErrSnapshotVersion
	}
	if s.Checksum != "" && s.Checksum != ChecksumState(s.State) {
		return ErrSnapshotChecksum
	}
	return nil
}
