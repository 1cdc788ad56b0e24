package recovery

import (
	"context"
	"log/slog"

	"github.com/vietddude/salvage/internal/core/domain"
	"github.com/vietddude/salvage/internal/infra/storage"
)

// StorageStrategy recovers state from the local snapshot chain: the fast
// cache first, then the durable store. A failed or corrupt source never
// aborts the chain, it falls through to the next one.
type StorageStrategy struct {
	Cache  storage.SnapshotRepository // optional
	Store  storage.SnapshotRepository
	Logger *slog.Logger
}

// Recover returns the first valid unwrapped state and the source that held
// it, or (nil, "") when no local source has a usable snapshot.
func (s *StorageStrategy) Recover(
	ctx context.Context,
	batchID string,
) (*domain.BatchState, domain.RecoverySource) {
	sources := []struct {
		name domain.RecoverySource
		repo storage.SnapshotRepository
	}{
		{domain.SourceCache, s.Cache},
		{domain.SourceDatabase, s.Store},
	}

	for _, src := range sources {
		if src.repo == nil {
			continue
		}

		snap, err := src.repo.Restore(ctx, batchID)
		if err != nil {
			s.Logger.Warn("Storage recovery failed",
				"batch_id", batchID, "source", src.name, "error", err)
			continue
		}
		if snap == nil {
			continue
		}

		if err := snap.Validate(); err != nil {
			s.Logger.Warn("Storage recovery failed",
				"batch_id", batchID, "source", src.name, "error", err)
			continue
		}

		return snap.State, src.name
	}

	return nil, ""
}

// ServerStrategy recovers state from the remote server of record.
type ServerStrategy struct {
	Remote RemoteAPI
	Logger *slog.Logger
}

// Recover returns the server-side state, or nil on any non-success
// response.
func (s *ServerStrategy) Recover(
	ctx context.Context,
	batchID, sessionID, userID string,
) *domain.BatchState {
	if s.Remote == nil {
		return nil
	}

	state, err := s.Remote.ValidateBatch(ctx, batchID, sessionID, userID)
	if err != nil {
		s.Logger.Warn("Server recovery failed", "batch_id", batchID, "error", err)
		return nil
	}
	return state
}
