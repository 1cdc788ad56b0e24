package recovery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vietddude/salvage/internal/core/domain"
)

func TestProgressive_Isolation(t *testing.T) {
	remote := &mockRemote{
		resumes:     []domain.Resume{{ID: "r1", BatchID: "batch-1"}},
		analysisErr: errors.New("http 500"),
		metadata:    map[string]any{"valid": true},
	}
	coord := New(nil, &mockRepo{}, remote, testConfig(), discardLogger())

	res := coord.ProgressiveRecover(context.Background(), "batch-1", nil, Options{SessionID: "sess-1"})

	if _, ok := res.Recovered[domain.ComponentResumes]; !ok {
		t.Error("resumes must survive an analysis failure")
	}
	if _, ok := res.Recovered[domain.ComponentMetadata]; !ok {
		t.Error("metadata must survive an analysis failure")
	}
	if len(res.Failed) != 1 || res.Failed[0] != domain.ComponentAnalysis {
		t.Errorf("expected only analysis to fail, got %v", res.Failed)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "analysis") {
		t.Errorf("expected an analysis warning, got %v", res.Warnings)
	}
}

func TestProgressive_EmptyResumesIsRecovered(t *testing.T) {
	remote := &mockRemote{resumes: []domain.Resume{}}
	coord := New(nil, &mockRepo{}, remote, testConfig(), discardLogger())

	res := coord.ProgressiveRecover(context.Background(), "batch-1",
		[]domain.Component{domain.ComponentResumes}, Options{})

	data, ok := res.Recovered[domain.ComponentResumes]
	if !ok {
		t.Fatal("an empty resume list is still recovered data")
	}
	if resumes := data.([]domain.Resume); len(resumes) != 0 {
		t.Errorf("expected empty list, got %v", resumes)
	}
}

func TestProgressive_EmptyAnalysisIsFailure(t *testing.T) {
	remote := &mockRemote{analysis: []domain.AnalysisResult{}}
	coord := New(nil, &mockRepo{}, remote, testConfig(), discardLogger())

	res := coord.ProgressiveRecover(context.Background(), "batch-1",
		[]domain.Component{domain.ComponentAnalysis}, Options{})

	if _, ok := res.Recovered[domain.ComponentAnalysis]; ok {
		t.Error("an empty analysis result set is not recovered data")
	}
	if len(res.Failed) != 1 || res.Failed[0] != domain.ComponentAnalysis {
		t.Errorf("expected analysis in failed, got %v", res.Failed)
	}
}

func TestProgressive_DefaultComponents(t *testing.T) {
	remote := &mockRemote{
		resumes:  []domain.Resume{},
		analysis: []domain.AnalysisResult{{ResumeID: "r1", Score: 0.8}},
		metadata: map[string]any{"valid": true},
	}
	coord := New(nil, &mockRepo{}, remote, testConfig(), discardLogger())

	res := coord.ProgressiveRecover(context.Background(), "batch-1", nil, Options{})

	if len(res.Recovered) != 3 {
		t.Errorf("expected all default components recovered, got %v", res.Recovered)
	}
	if len(res.Failed) != 0 {
		t.Errorf("expected no failures, got %v", res.Failed)
	}
}

func TestProgressive_UnknownComponent(t *testing.T) {
	coord := New(nil, &mockRepo{}, &mockRemote{}, testConfig(), discardLogger())

	res := coord.ProgressiveRecover(context.Background(), "batch-1",
		[]domain.Component{"wallets"}, Options{})

	if len(res.Failed) != 1 || res.Failed[0] != domain.Component("wallets") {
		t.Errorf("expected unknown component to fail, got %v", res.Failed)
	}
}

func TestProgressive_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.EnableProgressiveRecovery = false
	remote := &mockRemote{resumes: []domain.Resume{}}
	coord := New(nil, &mockRepo{}, remote, cfg, discardLogger())

	res := coord.ProgressiveRecover(context.Background(), "batch-1", nil, Options{})

	if len(res.Recovered) != 0 || len(res.Failed) != 0 {
		t.Errorf("disabled orchestrator must not attempt components, got %+v", res)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected a disabled warning, got %v", res.Warnings)
	}
}
