package dispatcher

import (
	"context"
	"runtime"

	"github.com/gamescrafters/tiersolve/internal/model"
	"github.com/gamescrafters/tiersolve/internal/worker"
)

// InProcessConfig configures the in-process dispatcher.
type InProcessConfig struct {
	// MaxConcurrentTiers bounds how many tiers may be mid-solve at once.
	// Default 1: the dispatcher serializes tier solves on a single pool
	// and relies entirely on the worker's own intra-tier parallelism
	// (spec.md §4.6's default in-process behavior).
	MaxConcurrentTiers int
	// SmallTierBound, if > 0, raises the concurrency limit to
	// SmallTierConcurrency for any tier whose size is <= this bound —
	// the "permissible alternative" of co-scheduling several small
	// tiers at once (spec.md §4.6).
	SmallTierBound       int
	SmallTierConcurrency int
}

// DefaultInProcessConfig serializes one tier at a time, sized for
// runtime.NumCPU() worth of intra-tier parallelism inside that one solve.
func DefaultInProcessConfig() InProcessConfig {
	return InProcessConfig{MaxConcurrentTiers: 1}
}

// InProcessDispatcher runs every tier solve in the calling process,
// through a bounded pool of in-flight tier slots (spec.md: "maintains a
// pool of worker tasks equal to the number of CPU cores; the dispatcher
// simply serializes tier solves on a single pool").
type InProcessDispatcher struct {
	w      *worker.Worker
	cfg    InProcessConfig
	sem    chan struct{}
	smSem  chan struct{} // small-tier co-scheduling slots, nil if disabled
}

// NewInProcess creates an in-process dispatcher driving w.
func NewInProcess(w *worker.Worker, cfg InProcessConfig) *InProcessDispatcher {
	if cfg.MaxConcurrentTiers <= 0 {
		cfg.MaxConcurrentTiers = 1
	}
	d := &InProcessDispatcher{
		w:   w,
		cfg: cfg,
		sem: make(chan struct{}, cfg.MaxConcurrentTiers),
	}
	if cfg.SmallTierBound > 0 {
		concurrency := cfg.SmallTierConcurrency
		if concurrency <= 0 {
			concurrency = runtime.NumCPU()
		}
		d.smSem = make(chan struct{}, concurrency)
	}
	return d
}

// Dispatch implements Dispatcher.
func (d *InProcessDispatcher) Dispatch(ctx context.Context, tier model.Tier, opts worker.Options) (worker.Outcome, error) {
	sem := d.sem
	if d.smSem != nil && d.w.Game().TierSize(tier) <= d.cfg.SmallTierBound {
		sem = d.smSem
	}

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return worker.Outcome{Tier: tier}, ctx.Err()
	}
	defer func() { <-sem }()

	return d.w.Solve(ctx, tier, opts)
}
