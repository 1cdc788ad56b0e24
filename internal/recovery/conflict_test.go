package recovery

import (
	"context"
	"testing"
	"time"

	"github.com/vietddude/salvage/internal/core/domain"
)

// =============================================================================
// Detection
// =============================================================================

func TestDetectConflicts_Fields(t *testing.T) {
	local := readyState("batch-1", 3)
	remote := readyState("batch-1", 5)
	remote.LastValidated = local.LastValidated.Add(time.Hour)

	info := DetectConflicts(local, remote)
	if info == nil {
		t.Fatal("expected a conflict")
	}

	want := []string{"resumeCount", "lastValidated"}
	if len(info.ConflictFields) != len(want) {
		t.Fatalf("expected fields %v, got %v", want, info.ConflictFields)
	}
	for i, name := range want {
		if info.ConflictFields[i] != name {
			t.Errorf("expected field %s at %d, got %s", name, i, info.ConflictFields[i])
		}
	}

	if len(info.ResolutionOptions) != 4 {
		t.Errorf("expected 4 resolution options, got %v", info.ResolutionOptions)
	}
	if info.Local != local || info.Remote != remote {
		t.Error("conflict must carry both states")
	}
}

func TestDetectConflicts_Identical(t *testing.T) {
	local := readyState("batch-1", 3)
	remote := readyState("batch-1", 3)

	if info := DetectConflicts(local, remote); info != nil {
		t.Errorf("identical states must yield nil, got %+v", info)
	}
}

func TestDetectConflicts_Nil(t *testing.T) {
	if DetectConflicts(nil, readyState("batch-1", 1)) != nil {
		t.Error("nil existing state must yield nil")
	}
	if DetectConflicts(readyState("batch-1", 1), nil) != nil {
		t.Error("nil incoming state must yield nil")
	}
}

// =============================================================================
// Auto-resolution rules
// =============================================================================

func TestAutoResolve_RemoteWinsForCounters(t *testing.T) {
	local := readyState("batch-1", 3)
	remote := readyState("batch-1", 5)
	remote.LastValidated = local.LastValidated.Add(time.Hour)

	merged := AutoResolve(DetectConflicts(local, remote))
	if merged.ResumeCount != 5 {
		t.Errorf("expected remote resume count 5, got %d", merged.ResumeCount)
	}
	if !merged.LastValidated.Equal(remote.LastValidated) {
		t.Errorf("expected remote timestamp, got %v", merged.LastValidated)
	}
}

func TestAutoResolve_ReadyStatusWins(t *testing.T) {
	local := readyState("batch-1", 3)
	local.Status = domain.BatchStatusError
	remote := readyState("batch-1", 3)

	merged := AutoResolve(DetectConflicts(local, remote))
	if merged.Status != domain.BatchStatusReady {
		t.Errorf("expected status ready, got %s", merged.Status)
	}
}

func TestAutoResolve_NonReadyRemoteStatusIgnored(t *testing.T) {
	local := readyState("batch-1", 3)
	local.Status = domain.BatchStatusPending
	remote := readyState("batch-1", 3)
	remote.Status = domain.BatchStatusProcessing

	merged := AutoResolve(DetectConflicts(local, remote))
	if merged.Status != domain.BatchStatusPending {
		t.Errorf("expected local status kept, got %s", merged.Status)
	}
}

func TestAutoResolve_LocalErrorKept(t *testing.T) {
	local := readyState("batch-1", 3)
	local.Error = &domain.BatchError{Code: "E42", Message: "upload failed"}
	remote := readyState("batch-1", 3)

	merged := AutoResolve(DetectConflicts(local, remote))
	if merged.Error == nil || merged.Error.Code != "E42" {
		t.Errorf("local error evidence must not be discarded, got %+v", merged.Error)
	}
}

func TestAutoResolve_UnruledFieldKeepsLocal(t *testing.T) {
	local := readyState("batch-1", 3)
	local.Locked = true
	remote := readyState("batch-1", 3)

	merged := AutoResolve(DetectConflicts(local, remote))
	if !merged.Locked {
		t.Error("fields without an explicit rule must keep the local value")
	}
}

// =============================================================================
// Coordinator conflict handling
// =============================================================================

func conflictFixture() (*mockRepo, *mockRemote) {
	local := readyState("batch-1", 3)
	local.Status = domain.BatchStatusError
	remote := readyState("batch-1", 5)
	return &mockRepo{snap: domain.NewSnapshot(local, "user-1")}, &mockRemote{state: remote}
}

func TestRecover_ConflictAuto(t *testing.T) {
	store, remote := conflictFixture()
	coord := New(nil, store, remote, testConfig(), discardLogger())

	res := coord.Recover(context.Background(), "batch-1", Options{SessionID: "sess-1"})
	if res.Status != domain.RecoveryStatusSuccess {
		t.Fatalf("expected success, got %s", res.Status)
	}
	if res.Metadata.Source != domain.SourceMerged {
		t.Errorf("expected source merged, got %s", res.Metadata.Source)
	}
	if res.RestoredState.ResumeCount != 5 {
		t.Errorf("expected merged resume count 5, got %d", res.RestoredState.ResumeCount)
	}
	if res.RestoredState.Status != domain.BatchStatusReady {
		t.Errorf("expected merged status ready, got %s", res.RestoredState.Status)
	}
}

func TestRecover_ConflictManual(t *testing.T) {
	store, remote := conflictFixture()
	coord := New(nil, store, remote, testConfig(), discardLogger())

	res := coord.Recover(context.Background(), "batch-1", Options{
		SessionID:          "sess-1",
		ConflictResolution: ConflictManual,
	})
	if res.Status != domain.RecoveryStatusConflict {
		t.Fatalf("expected conflict, got %s", res.Status)
	}
	if res.Conflict == nil || len(res.Conflict.ConflictFields) == 0 {
		t.Fatal("manual mode must attach the conflict payload")
	}
	if res.RestoredState != nil {
		t.Error("manual mode must not merge")
	}
}

func TestRecover_ConflictDetectionDisabled(t *testing.T) {
	store, remote := conflictFixture()
	cfg := testConfig()
	cfg.EnableConflictResolution = false
	coord := New(nil, store, remote, cfg, discardLogger())

	res := coord.Recover(context.Background(), "batch-1", Options{SessionID: "sess-1"})
	if res.Status != domain.RecoveryStatusSuccess {
		t.Fatalf("expected success, got %s", res.Status)
	}
	if res.Metadata.Source != domain.SourceDatabase {
		t.Errorf("expected local result without cross-check, got %s", res.Metadata.Source)
	}
	if remote.validateCalls != 0 {
		t.Errorf("server should not be consulted with detection disabled, got %d calls", remote.validateCalls)
	}
}

func TestRecover_AgreeingSourcesNoConflict(t *testing.T) {
	state := readyState("batch-1", 3)
	store := &mockRepo{snap: domain.NewSnapshot(state, "user-1")}
	remote := &mockRemote{state: readyState("batch-1", 3)}
	coord := New(nil, store, remote, testConfig(), discardLogger())

	res := coord.Recover(context.Background(), "batch-1", Options{SessionID: "sess-1"})
	if res.Status != domain.RecoveryStatusSuccess {
		t.Fatalf("expected success, got %s", res.Status)
	}
	if res.Conflict != nil {
		t.Error("agreeing sources must not produce a conflict")
	}
	if res.Metadata.Source != domain.SourceDatabase {
		t.Errorf("expected local source, got %s", res.Metadata.Source)
	}
}
