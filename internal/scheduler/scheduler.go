// Package scheduler owns batch runs: it fans part requests out to a
// bounded worker pool, tracks per-part state, and serves read snapshots.
// Callers never touch scheduler-owned state directly.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/partscout/partscout/internal/cache"
	"github.com/partscout/partscout/internal/domain"
	"github.com/partscout/partscout/internal/fetch"
	"github.com/partscout/partscout/internal/logger"
	"github.com/partscout/partscout/internal/pipeline"
	"github.com/partscout/partscout/internal/relevance"
	"github.com/partscout/partscout/internal/retry"
)

var (
	ErrEmptyBatch    = errors.New("batch has no parts")
	ErrBatchNotFound = errors.New("batch not found")
	ErrPartNotFound  = errors.New("part not found in batch")
	ErrNoResult      = errors.New("part has no offer set")
)

// Config tunes batch execution.
type Config struct {
	// MaxWorkers bounds how many parts are processed concurrently.
	MaxWorkers int
	// PaceDelay is the minimum spacing between fetch calls per worker.
	PaceDelay time.Duration
	// BatchTimeout bounds a whole batch run. Zero means no timeout.
	BatchTimeout time.Duration
	// CacheTTL bounds how long fetched payloads stay valid.
	CacheTTL time.Duration
	// Retry is the per-fetch retry policy.
	Retry retry.Policy
	// Filter configures relevance filtering.
	Filter relevance.Options
}

func (c Config) withDefaults() Config {
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 3
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 24 * time.Hour
	}
	return c
}

// BatchOptions overrides the configured execution settings for a single
// batch. Zero fields keep the scheduler's configured value.
type BatchOptions struct {
	MaxWorkers   int
	CandidateCap int
	MinScore     float64
	CacheTTL     time.Duration
	BatchTimeout time.Duration
}

// withOverrides folds per-batch overrides into a copy of the config.
func (c Config) withOverrides(opts BatchOptions) Config {
	if opts.MaxWorkers > 0 {
		c.MaxWorkers = opts.MaxWorkers
	}
	if opts.CandidateCap > 0 {
		c.Filter.CandidateCap = opts.CandidateCap
	}
	if opts.MinScore > 0 {
		c.Filter.MinScore = opts.MinScore
	}
	if opts.CacheTTL > 0 {
		c.CacheTTL = opts.CacheTTL
	}
	if opts.BatchTimeout > 0 {
		c.BatchTimeout = opts.BatchTimeout
	}
	return c
}

// Scheduler runs batches of part requests through the fetch pipeline.
type Scheduler struct {
	client fetch.Client
	store  *cache.Store
	filter *relevance.Filter
	log    logger.Interface
	cfg    Config

	mu      sync.Mutex
	batches map[string]*batchRun
}

type batchRun struct {
	id        string
	cfg       Config
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}

	mu        sync.Mutex
	parts     []*partRun
	byID      map[string]*partRun
	durations []time.Duration
}

type partRun struct {
	part domain.PartRequest
	pipe *pipeline.Pipeline

	// Guarded by the owning batchRun's mu.
	result      *domain.OfferSet
	forcedState domain.PipelineState
	forcedWhy   string
}

// New creates a scheduler. The cache store is shared across batches so
// repeated queries within the TTL never refetch.
func New(client fetch.Client, store *cache.Store, log logger.Interface, cfg Config) *Scheduler {
	if log == nil {
		log = logger.NewNoOp()
	}
	cfg = cfg.withDefaults()
	return &Scheduler{
		client:  client,
		store:   store,
		filter:  relevance.NewFilter(nil, cfg.Filter),
		log:     log.WithComponent("scheduler"),
		cfg:     cfg,
		batches: make(map[string]*batchRun),
	}
}

// Submit validates the parts, starts a batch run in the background, and
// returns its initial snapshot. Options override the configured limits
// for this batch only.
func (s *Scheduler) Submit(parts []domain.PartRequest, opts BatchOptions) (domain.BatchSnapshot, error) {
	if len(parts) == 0 {
		return domain.BatchSnapshot{}, ErrEmptyBatch
	}

	normalized := make([]domain.PartRequest, 0, len(parts))
	for _, part := range parts {
		p, err := part.Normalize()
		if err != nil {
			return domain.BatchSnapshot{}, err
		}
		normalized = append(normalized, p)
	}

	cfg := s.cfg.withOverrides(opts)
	filter := s.filter
	if opts.CandidateCap > 0 || opts.MinScore > 0 {
		filter = relevance.NewFilter(nil, cfg.Filter)
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if cfg.BatchTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.BatchTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	b := &batchRun{
		id:        uuid.New().String(),
		cfg:       cfg,
		startedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan struct{}),
		byID:      make(map[string]*partRun, len(normalized)),
	}
	popts := pipeline.Options{
		CacheTTL:  cfg.CacheTTL,
		Retry:     cfg.Retry,
		PaceDelay: cfg.PaceDelay,
	}
	for _, part := range normalized {
		pr := &partRun{
			part: part,
			pipe: pipeline.New(part, s.client, s.store, filter, s.log, popts),
		}
		b.parts = append(b.parts, pr)
		b.byID[part.ID] = pr
	}

	s.mu.Lock()
	s.batches[b.id] = b
	s.mu.Unlock()

	s.log.Info("batch submitted", "batch_id", b.id, "parts", len(b.parts))
	go s.run(ctx, b)

	return s.snapshot(b), nil
}

// run dispatches the batch's parts to a bounded pool and closes done
// when the last worker finishes.
func (s *Scheduler) run(ctx context.Context, b *batchRun) {
	defer b.cancel()
	defer close(b.done)

	sem := make(chan struct{}, b.cfg.MaxWorkers)
	var wg sync.WaitGroup

dispatch:
	for _, pr := range b.parts {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(pr *partRun) {
			defer wg.Done()
			defer func() { <-sem }()
			s.runPart(ctx, b, pr)
		}(pr)
	}
	wg.Wait()

	// Parts never dispatched because the batch ended early.
	reason := domain.ReasonCancelled
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = domain.ReasonTimeout
	}
	b.mu.Lock()
	for _, pr := range b.parts {
		if state, _ := pr.status(); !state.Terminal() {
			pr.forcedState = domain.StateFailed
			pr.forcedWhy = reason
		}
	}
	b.mu.Unlock()

	snap := s.snapshot(b)
	s.log.Info("batch finished",
		"batch_id", b.id,
		"completed", snap.Completed,
		"failed", snap.Failed,
	)
}

func (s *Scheduler) runPart(ctx context.Context, b *batchRun, pr *partRun) {
	start := time.Now()
	set, err := pr.pipe.Run(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.durations = append(b.durations, time.Since(start))
	if err != nil {
		return
	}
	pr.result = set
}

// status returns the part's effective state. A forced state set by the
// scheduler (batch cancel or timeout before dispatch) wins over the
// pipeline's own, which would otherwise stay PENDING forever.
func (pr *partRun) status() (domain.PipelineState, string) {
	if pr.forcedState == domain.StateFailed {
		return pr.forcedState, pr.forcedWhy
	}
	return pr.pipe.State()
}

// Status returns a read snapshot of the batch.
func (s *Scheduler) Status(batchID string) (domain.BatchSnapshot, error) {
	b, err := s.batch(batchID)
	if err != nil {
		return domain.BatchSnapshot{}, err
	}
	return s.snapshot(b), nil
}

// OfferSet returns a copy of one part's result together with its status.
// A part that is not DONE yet has no offer set.
func (s *Scheduler) OfferSet(batchID, partID string) (*domain.OfferSet, domain.PartStatus, error) {
	b, err := s.batch(batchID)
	if err != nil {
		return nil, domain.PartStatus{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	pr, ok := b.byID[partID]
	if !ok {
		return nil, domain.PartStatus{}, ErrPartNotFound
	}

	state, reason := pr.status()
	status := domain.PartStatus{Part: pr.part, State: state, FailureReason: reason}
	if pr.result == nil {
		return nil, status, ErrNoResult
	}

	set := &domain.OfferSet{
		PartID:            pr.result.PartID,
		Offers:            append([]domain.NormalizedOffer(nil), pr.result.Offers...),
		Stats:             pr.result.Stats,
		SkippedCandidates: append([]domain.SkippedCandidate(nil), pr.result.SkippedCandidates...),
	}
	return set, status, nil
}

// Cancel stops a running batch. In-flight parts fail with the cancelled
// reason; finished parts keep their results.
func (s *Scheduler) Cancel(batchID string) error {
	b, err := s.batch(batchID)
	if err != nil {
		return err
	}
	b.cancel()
	s.log.Info("batch cancelled", "batch_id", b.id)
	return nil
}

// Clear cancels the batch if still running and removes it from the
// scheduler. Its final snapshot is returned.
func (s *Scheduler) Clear(batchID string) (domain.BatchSnapshot, error) {
	b, err := s.batch(batchID)
	if err != nil {
		return domain.BatchSnapshot{}, err
	}
	b.cancel()

	s.mu.Lock()
	delete(s.batches, batchID)
	s.mu.Unlock()

	return s.snapshot(b), nil
}

// Wait blocks until the batch reaches a terminal state or ctx expires,
// then returns the final snapshot.
func (s *Scheduler) Wait(ctx context.Context, batchID string) (domain.BatchSnapshot, error) {
	b, err := s.batch(batchID)
	if err != nil {
		return domain.BatchSnapshot{}, err
	}

	select {
	case <-ctx.Done():
		return s.snapshot(b), ctx.Err()
	case <-b.done:
		return s.snapshot(b), nil
	}
}

func (s *Scheduler) batch(batchID string) (*batchRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[batchID]
	if !ok {
		return nil, ErrBatchNotFound
	}
	return b, nil
}

// snapshot builds a point-in-time copy of the batch. Progress is the
// fraction of terminal parts; ETA extrapolates the mean completion time
// over the remaining parts, spread across the worker pool.
func (s *Scheduler) snapshot(b *batchRun) domain.BatchSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := domain.BatchSnapshot{
		BatchID:   b.id,
		Total:     len(b.parts),
		Parts:     make([]domain.PartStatus, 0, len(b.parts)),
		StartedAt: b.startedAt,
	}

	for _, pr := range b.parts {
		state, reason := pr.status()
		snap.Parts = append(snap.Parts, domain.PartStatus{
			Part:          pr.part,
			State:         state,
			FailureReason: reason,
		})
		switch state {
		case domain.StateDone:
			snap.Completed++
		case domain.StateFailed:
			snap.Failed++
		}
	}

	terminal := snap.Completed + snap.Failed
	if snap.Total > 0 {
		snap.Progress = float64(terminal) / float64(snap.Total) * 100
	}
	snap.Done = terminal == snap.Total
	snap.ETA = estimateETA(b.durations, snap.Total-terminal, b.cfg.MaxWorkers)
	return snap
}

func estimateETA(durations []time.Duration, remaining, workers int) time.Duration {
	if remaining <= 0 || len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	mean := total / time.Duration(len(durations))
	if workers < 1 {
		workers = 1
	}
	waves := (remaining + workers - 1) / workers
	return mean * time.Duration(waves)
}
