package recovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietddude/salvage/internal/core/domain"
	"github.com/vietddude/salvage/internal/metrics"
)

// ErrNoAnalysisData marks an analysis fetch that parsed but held no
// results. For the analysis component an empty list is not recovered data.
var ErrNoAnalysisData = errors.New("no analysis results available")

// ProgressiveRecover recovers the named sub-resources of a batch one at a
// time. Each component is attempted in isolation: a failure is recorded
// in Failed with a warning and the remaining components still run. It is
// an independent entry point, usable as a fallback after whole-state
// recovery fails.
func (c *Coordinator) ProgressiveRecover(
	ctx context.Context,
	batchID string,
	components []domain.Component,
	opts Options,
) *domain.ProgressiveResult {
	res := &domain.ProgressiveResult{
		Recovered: make(map[domain.Component]any),
		Failed:    []domain.Component{},
		Warnings:  []string{},
	}

	if !c.cfg.EnableProgressiveRecovery {
		res.Warnings = append(res.Warnings, "Progressive recovery is disabled")
		return res
	}

	if len(components) == 0 {
		components = domain.DefaultComponents
	}

	for _, comp := range components {
		data, err := c.recoverComponent(ctx, batchID, comp, opts)
		if err != nil {
			c.logger.Warn("component recovery failed",
				"batch_id", batchID, "component", comp, "error", err)
			res.Failed = append(res.Failed, comp)
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("Failed to recover %s: %v", comp, err))
			metrics.ComponentRecoveries.WithLabelValues(string(comp), "failed").Inc()
			continue
		}
		res.Recovered[comp] = data
		metrics.ComponentRecoveries.WithLabelValues(string(comp), "recovered").Inc()
	}

	return res
}

func (c *Coordinator) recoverComponent(
	ctx context.Context,
	batchID string,
	comp domain.Component,
	opts Options,
) (any, error) {
	if c.server.Remote == nil {
		return nil, errors.New("no remote API configured")
	}

	switch comp {
	case domain.ComponentResumes:
		resumes, err := c.server.Remote.ListResumes(ctx, batchID, opts.SessionID)
		if err != nil {
			return nil, err
		}
		if resumes == nil {
			resumes = []domain.Resume{}
		}
		// An empty list is a valid answer here: the batch may hold no items.
		return resumes, nil

	case domain.ComponentAnalysis:
		results, err := c.server.Remote.FetchAnalysis(ctx, batchID)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, ErrNoAnalysisData
		}
		return results, nil

	case domain.ComponentMetadata:
		meta, err := c.server.Remote.ValidateMetadata(ctx, batchID, opts.SessionID, opts.UserID)
		if err != nil {
			return nil, err
		}
		return meta, nil

	default:
		return nil, fmt.Errorf("unknown component %q", comp)
	}
}
