package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/salvage/internal/core/domain"
)

// SnapshotRepo implements storage.SnapshotRepository using PostgreSQL.
type SnapshotRepo struct {
	db *DB
}

// NewSnapshotRepo creates a new PostgreSQL snapshot repository.
func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

type snapshotRow struct {
	BatchID       string         `db:"batch_id"`
	SessionID     string         `db:"session_id"`
	UserID        string         `db:"user_id"`
	SchemaVersion int            `db:"schema_version"`
	Checksum      sql.NullString `db:"checksum"`
	SyncStatus    string         `db:"sync_status"`
	CapturedAt    time.Time      `db:"captured_at"`
	State         []byte         `db:"state"`
}

// Restore retrieves the snapshot for a batch, (nil, nil) when absent.
func (r *SnapshotRepo) Restore(ctx context.Context, batchID string) (*domain.PersistedSnapshot, error) {
	var row snapshotRow
	err := r.db.GetContext(ctx, &row,
		`SELECT batch_id, session_id, user_id, schema_version, checksum,
		        sync_status, captured_at, state
		 FROM batch_snapshots WHERE batch_id = $1`, batchID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var state domain.BatchState
	if err := json.Unmarshal(row.State, &state); err != nil {
		return nil, fmt.Errorf("corrupt snapshot state: %w", err)
	}

	return &domain.PersistedSnapshot{
		SchemaVersion: row.SchemaVersion,
		CapturedAt:    row.CapturedAt,
		BatchID:       row.BatchID,
		SessionID:     row.SessionID,
		UserID:        row.UserID,
		Checksum:      row.Checksum.String,
		SyncStatus:    domain.SyncStatus(row.SyncStatus),
		State:         &state,
	}, nil
}

// Save upserts a snapshot.
func (r *SnapshotRepo) Save(ctx context.Context, snap *domain.PersistedSnapshot) error {
	state, err := json.Marshal(snap.State)
	if err != nil {
		return fmt.Errorf("marshal snapshot state: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO batch_snapshots
		    (batch_id, session_id, user_id, schema_version, checksum,
		     sync_status, captured_at, state)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)
		 ON CONFLICT (batch_id) DO UPDATE SET
		    session_id = EXCLUDED.session_id,
		    user_id = EXCLUDED.user_id,
		    schema_version = EXCLUDED.schema_version,
		    checksum = EXCLUDED.checksum,
		    sync_status = EXCLUDED.sync_status,
		    captured_at = EXCLUDED.captured_at,
		    state = EXCLUDED.state`,
		snap.BatchID, snap.SessionID, snap.UserID, snap.SchemaVersion,
		snap.Checksum, string(snap.SyncStatus), snap.CapturedAt, state)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot for a batch.
func (r *SnapshotRepo) Delete(ctx context.Context, batchID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM batch_snapshots WHERE batch_id = $1`, batchID)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
