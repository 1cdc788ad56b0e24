package recovery

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vietddude/salvage/internal/core/domain"
	"github.com/vietddude/salvage/internal/infra/storage"
	"github.com/vietddude/salvage/internal/metrics"
)

const warnTimeoutExceeded = "Recovery timeout exceeded"

// Coordinator reconstructs the best available view of a batch's state from
// the local snapshot chain and the remote server of record. It guarantees
// at most one in-flight recovery per batch: concurrent callers join the
// pending attempt and observe the identical result.
//
// Public operations never return an error. Every failure is folded into
// the RecoveryResult so callers always receive a value.
type Coordinator struct {
	local  *StorageStrategy
	server *ServerStrategy
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	inflight map[string]*operation
}

// operation is one pending recovery shared by all callers for a batch.
// result is written exactly once, before done is closed.
type operation struct {
	done   chan struct{}
	result *domain.RecoveryResult
}

// New creates a recovery coordinator. The cache repository may be nil; the
// durable store and the remote API may each be nil when that source is not
// deployed, the pipeline simply skips them.
func New(
	cache storage.SnapshotRepository,
	store storage.SnapshotRepository,
	remote RemoteAPI,
	cfg Config,
	logger *slog.Logger,
) *Coordinator {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		local:    &StorageStrategy{Cache: cache, Store: store, Logger: logger},
		server:   &ServerStrategy{Remote: remote, Logger: logger},
		cfg:      cfg,
		logger:   logger,
		inflight: make(map[string]*operation),
	}
}

// Recover reconstructs the state of a batch, racing the source pipeline
// against the configured timeout. If a recovery for the batch is already
// in flight the call joins it instead of starting a second attempt.
func (c *Coordinator) Recover(
	ctx context.Context,
	batchID string,
	opts Options,
) *domain.RecoveryResult {
	c.mu.Lock()
	if op, ok := c.inflight[batchID]; ok {
		c.mu.Unlock()
		c.logger.Info("joining in-flight recovery", "batch_id", batchID)
		metrics.DedupJoins.Inc()
		select {
		case <-op.done:
			return op.result
		case <-ctx.Done():
			return &domain.RecoveryResult{
				Status:         domain.RecoveryStatusFailed,
				RecoveredItems: []string{},
				FailedItems:    []string{},
				Warnings:       []string{"Recovery abandoned by caller"},
				ErrorDetails:   ctx.Err().Error(),
			}
		}
	}
	op := &operation{done: make(chan struct{})}
	c.inflight[batchID] = op
	c.mu.Unlock()

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = c.cfg.Timeout
	}

	start := time.Now()
	attemptID := uuid.New().String()

	// A timeout below the safety floor demands an immediate timeout result.
	if timeout < minTimeout {
		res := timeoutResult(attemptID, start)
		c.settle(batchID, op, res)
		return res
	}

	pctx, abandon := context.WithCancel(ctx)
	defer abandon()

	resCh := make(chan *domain.RecoveryResult, 1)
	go func() {
		resCh <- c.performRecovery(pctx, batchID, opts)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var res *domain.RecoveryResult
	select {
	case r := <-resCh:
		res = r
	case <-timer.C:
		// The pipeline keeps running until pctx is cancelled; underlying
		// I/O already issued is abandoned, not stopped.
		res = timeoutResult(attemptID, start)
	case <-ctx.Done():
		res = &domain.RecoveryResult{
			Status:         domain.RecoveryStatusFailed,
			RecoveredItems: []string{},
			FailedItems:    []string{},
			Warnings:       []string{"Recovery abandoned by caller"},
			ErrorDetails:   ctx.Err().Error(),
		}
	}

	res.Metadata.AttemptID = attemptID
	res.Metadata.StartedAt = start
	res.Metadata.Duration = time.Since(start)
	c.settle(batchID, op, res)
	return res
}

// Cancel removes the in-flight entry for a batch and reports whether one
// existed. Cancellation is advisory: callers already awaiting the attempt
// still receive its eventual result, and source I/O is not aborted.
func (c *Coordinator) Cancel(batchID string) bool {
	c.mu.Lock()
	_, ok := c.inflight[batchID]
	if ok {
		delete(c.inflight, batchID)
	}
	c.mu.Unlock()

	if ok {
		c.logger.Info("recovery cancelled", "batch_id", batchID)
		metrics.Cancellations.Inc()
	}
	return ok
}

// Active returns the batch IDs with a recovery currently in flight.
func (c *Coordinator) Active() []string {
	c.mu.Lock()
	ids := make([]string, 0, len(c.inflight))
	for id := range c.inflight {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	sort.Strings(ids)
	return ids
}

// settle publishes the result and unconditionally removes the in-flight
// entry. The entry may already be gone after an advisory Cancel; a newer
// operation for the same batch is left untouched.
func (c *Coordinator) settle(batchID string, op *operation, res *domain.RecoveryResult) {
	c.mu.Lock()
	if cur, ok := c.inflight[batchID]; ok && cur == op {
		delete(c.inflight, batchID)
	}
	c.mu.Unlock()

	op.result = res
	close(op.done)

	metrics.RecoveryAttempts.WithLabelValues(
		string(res.Status), string(res.Metadata.Source),
	).Inc()
	metrics.RecoveryDuration.Observe(res.Metadata.Duration.Seconds())
}

// performRecovery runs the source pipeline once: local chain, then server,
// with conflict detection taking precedence over first-success whenever
// both sources were consulted and disagree.
func (c *Coordinator) performRecovery(
	ctx context.Context,
	batchID string,
	opts Options,
) *domain.RecoveryResult {
	hasSession := opts.SessionID != "" || opts.UserID != ""

	var (
		local, remote *domain.BatchState
		localSrc      domain.RecoverySource
		serverTried   bool
	)

	tryServer := func() {
		if serverTried || !hasSession {
			return
		}
		serverTried = true
		remote = c.server.Recover(ctx, batchID, opts.SessionID, opts.UserID)
	}

	if opts.PreferredSource == domain.SourceServer {
		tryServer()
		if remote == nil {
			local, localSrc = c.local.Recover(ctx, batchID)
		}
	} else {
		local, localSrc = c.local.Recover(ctx, batchID)
		if local == nil {
			tryServer()
		}
	}

	// Cross-check the server even after a local hit so divergence is caught
	// rather than silently shadowed by the stale copy.
	if local != nil && hasSession && c.cfg.EnableConflictResolution {
		tryServer()
		if remote != nil {
			if info := DetectConflicts(local, remote); info != nil {
				metrics.ConflictsDetected.Inc()
				return c.resolveConflict(batchID, info, opts)
			}
		}
	}

	state, source := local, localSrc
	if state == nil {
		state, source = remote, domain.SourceServer
	}

	if state == nil {
		failed := make([]string, 0, len(domain.AllSources))
		for _, s := range domain.AllSources {
			failed = append(failed, string(s))
		}
		return &domain.RecoveryResult{
			Status:         domain.RecoveryStatusFailed,
			RecoveredItems: []string{},
			FailedItems:    failed,
			ErrorDetails:   "no recoverable state found in any source",
		}
	}

	if opts.AllowPartial && state.ResumeCount == 0 {
		return &domain.RecoveryResult{
			Status:         domain.RecoveryStatusPartial,
			PartialData:    state,
			Metadata:       domain.RecoveryMetadata{Source: source},
			RecoveredItems: []string{batchID},
			FailedItems:    []string{},
			Warnings:       []string{"Recovered state has no items"},
		}
	}

	return &domain.RecoveryResult{
		Status:         domain.RecoveryStatusSuccess,
		RestoredState:  state,
		Metadata:       domain.RecoveryMetadata{Source: source},
		RecoveredItems: []string{batchID},
		FailedItems:    []string{},
	}
}

func timeoutResult(attemptID string, start time.Time) *domain.RecoveryResult {
	return &domain.RecoveryResult{
		Status: domain.RecoveryStatusTimeout,
		Metadata: domain.RecoveryMetadata{
			AttemptID: attemptID,
			StartedAt: start,
			Duration:  time.Since(start),
		},
		RecoveredItems: []string{},
		FailedItems:    []string{},
		Warnings:       []string{warnTimeoutExceeded},
	}
}
