package manager

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gamescrafters/tiersolve/internal/catalog"
	"github.com/gamescrafters/tiersolve/internal/model"
	"github.com/gamescrafters/tiersolve/internal/worker"
	"github.com/gamescrafters/tiersolve/pkg/utils"
)

var tracer = otel.Tracer("tiersolve/manager")

// SolveResult summarizes one complete run of the solve scheduling loop.
type SolveResult struct {
	Solved      int
	Loaded      int
	Skipped     int // non-canonical tiers popped from the ready queue
	Failed      int
	FailedTiers []model.Tier
}

// completion is what a dispatched tier reports back on finishing.
type completion struct {
	tier    model.Tier
	outcome worker.Outcome
	err     error
}

// Solve discovers the DAG from the game's initial tier and solves every
// tier in it via the configured dispatcher, in leaves-to-initial order.
//
// Scheduling follows spec.md §4.5: a tier's readiness counter starts at
// its number of canonical child tiers; a tier is dispatched once its
// counter reaches zero; on a successful dispatch, every canonical parent
// tier (read off the reverse tier graph, popped since the child is now
// done) has its own counter decremented, becoming ready in turn. Ready
// tiers are dispatched concurrently — the dispatcher itself bounds actual
// parallelism — and scheduling completes when the ready queue is empty
// and nothing is in flight.
func (m *Manager) Solve(ctx context.Context, opts worker.Options) (*SolveResult, error) {
	ctx, span := tracer.Start(ctx, "manager.Solve")
	defer span.End()

	timer := utils.NewTimer("solve", utils.WithLogger(m.log))
	defer timer.PrintSummary()

	var runID uint
	if m.catalog != nil {
		g, err := m.catalog.EnsureGame(ctx, m.game.Name(), m.game.Variant())
		if err != nil {
			return nil, err
		}
		run, err := m.catalog.StartRun(ctx, g.ID, catalog.RunModeSolve, m.threads)
		if err != nil {
			return nil, err
		}
		runID = run.ID
	}

	discoverPhase := timer.Start("discover")
	disc, err := m.Discover(ctx)
	discoverPhase.Stop()
	if err != nil {
		return nil, err
	}

	schedulePhase := timer.Start("schedule")
	defer schedulePhase.Stop()

	counters := make(map[model.Tier]int, len(disc.order))
	for _, t := range disc.order {
		counters[t] = len(disc.Children(t))
	}

	var ready []model.Tier
	for _, t := range disc.order {
		if counters[t] == 0 {
			ready = append(ready, t)
		}
	}

	result := &SolveResult{}
	completedCh := make(chan completion)
	inFlight := 0

	for len(ready) > 0 || inFlight > 0 {
		for len(ready) > 0 {
			t := ready[0]
			ready = ready[1:]

			if m.game.CanonicalTier(t) != t {
				result.Skipped++
				continue
			}

			inFlight++
			go func(tier model.Tier) {
				dctx, dspan := tracer.Start(ctx, "manager.dispatchTier",
					trace.WithAttributes(attribute.Int64("tier", int64(tier))))
				outcome, err := m.dispatcher.Dispatch(dctx, tier, opts)
				if err != nil {
					dspan.RecordError(err)
				}
				dspan.End()
				completedCh <- completion{tier: tier, outcome: outcome, err: err}
			}(t)
		}

		if inFlight == 0 {
			break
		}

		c := <-completedCh
		inFlight--

		if c.err != nil {
			result.Failed++
			result.FailedTiers = append(result.FailedTiers, c.tier)
			m.log.Warn("tier %d failed to solve: %v", c.tier, c.err)
			m.recordTierStatus(ctx, runID, c.tier, disc.Size(c.tier), catalog.TierStatusFailed, 0)
			continue
		}
		if c.outcome.Loaded {
			result.Loaded++
		} else {
			result.Solved++
		}

		status := catalog.TierStatusSolved
		if c.outcome.Loaded {
			status = catalog.TierStatusLoaded
		}
		m.recordTierStatus(ctx, runID, c.tier, disc.Size(c.tier), status, c.outcome.Mismatches)
		m.archiveTier(ctx, c.tier)

		for _, p := range disc.reverse.Pop(c.tier) {
			counters[p]--
			if counters[p] == 0 {
				ready = append(ready, p)
			}
		}
	}

	span.SetAttributes(
		attribute.Int("solved", result.Solved),
		attribute.Int("loaded", result.Loaded),
		attribute.Int("failed", result.Failed),
	)

	if result.Failed == 0 {
		if err := m.dir.MarkSolved(ctx); err != nil {
			return result, err
		}
	}

	if m.catalog != nil {
		if err := m.catalog.FinishRun(ctx, runID, result.Failed == 0, result.Failed); err != nil {
			m.log.Warn("record run completion: %v", err)
		}
	}

	return result, nil
}

// recordTierStatus upserts one tier's outcome in the catalog, if one is
// configured. Catalog failures are logged, not fatal: the hot tier record
// files in internal/tierdb are the authoritative solved state.
func (m *Manager) recordTierStatus(ctx context.Context, runID uint, tier model.Tier, size int, status catalog.TierStatusValue, mismatches int) {
	if m.catalog == nil {
		return
	}
	if err := m.catalog.UpsertTierStatus(ctx, runID, uint64(tier), status, size, mismatches); err != nil {
		m.log.Warn("record tier %d status: %v", tier, err)
	}
}

// archiveTier copies a just-finished tier's record file to the configured
// archiver, if one is configured. Archival failures are logged, not
// fatal, for the same reason catalog failures are: internal/tierdb
// remains the system of record.
func (m *Manager) archiveTier(ctx context.Context, tier model.Tier) {
	if m.archiver == nil {
		return
	}
	key := fmt.Sprintf("%s/%s/%d.tier", m.game.Name(), m.game.Variant(), uint64(tier))
	if err := m.archiver.UploadFile(ctx, key, m.dir.Path(tier)); err != nil {
		m.log.Warn("archive tier %d: %v", tier, err)
	}
}
