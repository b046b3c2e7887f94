// Package pipeline drives one part request through the two-stage fetch:
// SEARCH → FILTER → DRILL-DOWN → NORMALIZE → DEDUPE → AGGREGATE. Each
// instance is single-threaded; its network-bound steps are the suspension
// points where cancellation is observed.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/partscout/partscout/internal/cache"
	"github.com/partscout/partscout/internal/dedup"
	"github.com/partscout/partscout/internal/domain"
	"github.com/partscout/partscout/internal/fetch"
	"github.com/partscout/partscout/internal/logger"
	"github.com/partscout/partscout/internal/relevance"
	"github.com/partscout/partscout/internal/retry"
)

// ErrInvalidTransition is returned on a backward state transition. It
// indicates a pipeline bug, not a data problem.
var ErrInvalidTransition = errors.New("invalid pipeline state transition")

// Options configures a pipeline run.
type Options struct {
	// CacheTTL bounds how long fetched payloads stay valid.
	CacheTTL time.Duration
	// Retry is the policy for transient fetch failures.
	Retry retry.Policy
	// PaceDelay is the minimum spacing between fetch collaborator calls
	// issued by this pipeline.
	PaceDelay time.Duration
}

// Pipeline is the per-part state machine.
type Pipeline struct {
	part   domain.PartRequest
	client fetch.Client
	store  *cache.Store
	filter *relevance.Filter
	log    logger.Interface
	opts   Options

	mu     sync.Mutex
	state  domain.PipelineState
	reason string
}

// New creates a pipeline for one part.
func New(
	part domain.PartRequest,
	client fetch.Client,
	store *cache.Store,
	filter *relevance.Filter,
	log logger.Interface,
	opts Options,
) *Pipeline {
	if log == nil {
		log = logger.NewNoOp()
	}
	if filter == nil {
		filter = relevance.NewFilter(nil, relevance.Options{})
	}
	return &Pipeline{
		part:   part,
		client: client,
		store:  store,
		filter: filter,
		log:    log.With("part_id", part.ID),
		opts:   opts,
		state:  domain.StatePending,
	}
}

// State returns the current state and, for failed pipelines, the reason.
func (p *Pipeline) State() (domain.PipelineState, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.reason
}

// advance moves the state machine forward. Transitions are strictly
// forward; anything else is a bug.
func (p *Pipeline) advance(next domain.PipelineState) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if next <= p.state || p.state.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.state, next)
	}
	p.state = next
	return nil
}

// fail transitions to FAILED with a recorded reason. FAILED is terminal
// and reachable from any non-terminal state.
func (p *Pipeline) fail(reason string, err error) error {
	p.mu.Lock()
	if !p.state.Terminal() {
		p.state = domain.StateFailed
		p.reason = reason
	}
	p.mu.Unlock()

	p.log.Warn("pipeline failed", "reason", reason, "error", err.Error())
	if err != nil {
		return fmt.Errorf("%s: %w", reason, err)
	}
	return errors.New(reason)
}

// Run executes the pipeline to a terminal state. It returns the frozen
// offer set on success; a part with no relevant matches completes
// successfully with an empty set.
func (p *Pipeline) Run(ctx context.Context) (*domain.OfferSet, error) {
	if err := p.advance(domain.StateSearching); err != nil {
		return nil, err
	}

	candidates, err := p.search(ctx)
	if err != nil {
		return nil, p.fail(failureReason(ctx, err, domain.ReasonSearchUnavailable), err)
	}

	if err = p.advance(domain.StateFiltering); err != nil {
		return nil, err
	}
	ranked := p.filter.Apply(p.part, candidates)
	p.log.Debug("candidates filtered",
		"raw", len(candidates),
		"ranked", len(ranked),
	)

	if err = p.advance(domain.StateDrilling); err != nil {
		return nil, err
	}
	raws, skipped, err := p.drillDown(ctx, ranked)
	if err != nil {
		return nil, p.fail(failureReason(ctx, err, "drill_down_aborted"), err)
	}

	if err = p.advance(domain.StateNormalizing); err != nil {
		return nil, err
	}
	normalized := normalizeOffers(raws)

	if err = p.advance(domain.StateAggregating); err != nil {
		return nil, err
	}
	offers := dedup.Offers(normalized)
	set := &domain.OfferSet{
		PartID:            p.part.ID,
		Offers:            offers,
		Stats:             domain.ComputeStats(offers),
		SkippedCandidates: skipped,
	}

	if err = p.advance(domain.StateDone); err != nil {
		return nil, err
	}
	p.log.Info("pipeline done",
		"offers", len(set.Offers),
		"skipped_candidates", len(set.SkippedCandidates),
	)
	return set, nil
}

// search runs the cache-guarded, retried search stage.
func (p *Pipeline) search(ctx context.Context) ([]domain.SearchCandidate, error) {
	key := cache.NewKey(cache.StageSearch, p.part.Keywords)

	payload, err := p.store.GetOrFetch(ctx, key, p.opts.CacheTTL, func(fctx context.Context) ([]byte, error) {
		if paceErr := p.pace(fctx); paceErr != nil {
			return nil, paceErr
		}

		var candidates []domain.SearchCandidate
		retryErr := retry.Do(fctx, p.retryPolicy(), func(rctx context.Context) error {
			var searchErr error
			candidates, searchErr = p.client.Search(rctx, p.part.Keywords)
			return searchErr
		})
		if retryErr != nil {
			return nil, retryErr
		}
		return json.Marshal(candidates)
	})
	if err != nil {
		return nil, err
	}

	var candidates []domain.SearchCandidate
	if err := json.Unmarshal(payload, &candidates); err != nil {
		// Corrupted cached payload: evict and fall back to a direct
		// fetch instead of failing the part.
		p.store.Delete(key)
		p.log.Warn("corrupt cached search payload evicted", "error", err.Error())
		return p.directSearch(ctx)
	}
	return candidates, nil
}

// directSearch bypasses the cache after a corrupt payload.
func (p *Pipeline) directSearch(ctx context.Context) ([]domain.SearchCandidate, error) {
	var candidates []domain.SearchCandidate
	err := retry.Do(ctx, p.retryPolicy(), func(rctx context.Context) error {
		var searchErr error
		candidates, searchErr = p.client.Search(rctx, p.part.Keywords)
		return searchErr
	})
	return candidates, err
}

// drillDown fetches seller offers for every ranked candidate. Permanent
// per-candidate failures are recorded and skipped, never fatal to the
// part; cancellation aborts the whole run.
func (p *Pipeline) drillDown(ctx context.Context, ranked []domain.RankedCandidate) ([]domain.RawOffer, []domain.SkippedCandidate, error) {
	var (
		raws    []domain.RawOffer
		skipped []domain.SkippedCandidate
	)

	for _, candidate := range ranked {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		offers, err := p.drillOne(ctx, candidate.ProductRef)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			skipped = append(skipped, domain.SkippedCandidate{
				ProductRef: candidate.ProductRef,
				Reason:     err.Error(),
			})
			p.log.Warn("candidate skipped",
				"product_ref", candidate.ProductRef,
				"error", err.Error(),
			)
			continue
		}
		raws = append(raws, offers...)
	}

	return raws, skipped, nil
}

// drillOne runs one cache-guarded, retried drill-down call.
func (p *Pipeline) drillOne(ctx context.Context, productRef string) ([]domain.RawOffer, error) {
	key := cache.NewKey(cache.StageProduct, productRef)

	payload, err := p.store.GetOrFetch(ctx, key, p.opts.CacheTTL, func(fctx context.Context) ([]byte, error) {
		if paceErr := p.pace(fctx); paceErr != nil {
			return nil, paceErr
		}

		var offers []domain.RawOffer
		retryErr := retry.Do(fctx, p.retryPolicy(), func(rctx context.Context) error {
			var drillErr error
			offers, drillErr = p.client.DrillDown(rctx, productRef)
			return drillErr
		})
		if retryErr != nil {
			return nil, retryErr
		}
		return json.Marshal(offers)
	})
	if err != nil {
		return nil, err
	}

	var offers []domain.RawOffer
	if err := json.Unmarshal(payload, &offers); err != nil {
		p.store.Delete(key)
		return nil, fetch.Permanent("drill_down", fmt.Errorf("corrupt cached payload: %w", err))
	}
	return offers, nil
}

// retryPolicy applies the transient/permanent taxonomy to the configured
// policy.
func (p *Pipeline) retryPolicy() retry.Policy {
	policy := p.opts.Retry
	policy.IsRetryable = fetch.IsTransient
	return policy
}

// pace enforces the minimum spacing before a collaborator call.
func (p *Pipeline) pace(ctx context.Context) error {
	if p.opts.PaceDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(p.opts.PaceDelay):
		return nil
	}
}

// failureReason maps an error to the recorded failure label, preferring
// cancellation and timeout over the stage default.
func failureReason(ctx context.Context, err error, stageDefault string) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domain.ReasonTimeout
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		return domain.ReasonCancelled
	default:
		return stageDefault
	}
}
