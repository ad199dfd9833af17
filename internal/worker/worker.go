// Package worker implements the tier worker (component C4): solving one
// tier at a time by parallel backward induction, using a frontier staging
// area and atomic per-position undecided-children counters.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gamescrafters/tiersolve/internal/frontier"
	"github.com/gamescrafters/tiersolve/internal/game"
	"github.com/gamescrafters/tiersolve/internal/model"
	"github.com/gamescrafters/tiersolve/internal/reverseposition"
	"github.com/gamescrafters/tiersolve/internal/tierdb"
	tiersolveerrors "github.com/gamescrafters/tiersolve/pkg/errors"
	"github.com/gamescrafters/tiersolve/pkg/parallel"
	"github.com/gamescrafters/tiersolve/pkg/utils"
)

// Options configures a single tier solve.
type Options struct {
	// Force re-solves the tier even if a record already exists.
	Force bool
	// Reference, if non-nil, is compared against the freshly solved tier
	// once persisted (spec.md §4.4's optional verification pass).
	Reference tierdb.Directory
}

// Outcome reports what Solve actually did, mirroring the dispatcher
// contract's `(solved_or_loaded, error)` result (spec.md §4.6).
type Outcome struct {
	Tier   model.Tier
	Solved bool
	Loaded bool
	// Mismatches counts verification failures against Options.Reference;
	// always 0 when Options.Reference is nil.
	Mismatches int
}

// Worker solves tiers of one game via backward induction. A Worker is
// reused across many tier solves; all per-solve state lives in a scoped
// solveState built fresh by Solve.
type Worker struct {
	game       game.Game
	dir        tierdb.Directory
	rMax       model.Remoteness
	numThreads int
	log        utils.Logger
}

// New creates a Worker over g's tiers, persisting into dir, with the given
// thread count and remoteness ceiling.
func New(g game.Game, dir tierdb.Directory, numThreads int, rMax model.Remoteness, log utils.Logger) *Worker {
	if numThreads <= 0 {
		numThreads = 1
	}
	if log == nil {
		log = &utils.NullLogger{}
	}
	return &Worker{game: g, dir: dir, rMax: rMax, numThreads: numThreads, log: log}
}

// Game returns the game this worker solves tiers of, so a dispatcher can
// make sizing decisions (e.g. small-tier co-scheduling) without holding
// its own reference.
func (w *Worker) Game() game.Game { return w.game }

// solveState holds the scratch state for one Solve call: the combined
// child-tiers-then-T list (Step 0), the frontier (C1), the undecided
// counters, and — only when the game can't enumerate parents itself — the
// reverse position graph (C3).
type solveState struct {
	w *Worker

	tier      model.Tier
	tierSize  int
	tierIndex int // index of tier itself within tiers
	tiers     []model.Tier

	fr        *frontier.Frontier
	counters  []atomic.Int32
	revGraph  *reverseposition.Graph
	useRevGraph bool

	store tierdb.Store
}

// Solve runs Steps 0-6 of backward induction on tier, persisting the
// result via the Worker's tierdb.Directory.
func (w *Worker) Solve(ctx context.Context, tier model.Tier, opts Options) (Outcome, error) {
	if !opts.Force && w.dir.Exists(tier) {
		w.log.Debug("tier %d already solved, skipping", tier)
		return Outcome{Tier: tier, Loaded: true}, nil
	}

	st, err := w.initState(tier)
	if err != nil {
		return Outcome{Tier: tier}, err
	}

	if err := w.loadChildren(ctx, st); err != nil {
		return Outcome{Tier: tier}, err
	}

	if err := w.allocate(st); err != nil {
		return Outcome{Tier: tier}, err
	}

	if err := w.scanTier(ctx, st); err != nil {
		return Outcome{Tier: tier}, err
	}

	st.fr.AccumulateDividers()

	if err := w.propagate(ctx, st); err != nil {
		return Outcome{Tier: tier}, err
	}

	if err := w.markDraws(ctx, st); err != nil {
		return Outcome{Tier: tier}, err
	}

	if err := st.store.Flush(); err != nil {
		return Outcome{Tier: tier}, tiersolveerrors.Wrap(tiersolveerrors.CodeDBIO, "flush solved tier", err)
	}
	if err := st.store.Close(); err != nil {
		return Outcome{Tier: tier}, tiersolveerrors.Wrap(tiersolveerrors.CodeDBIO, "close solved tier", err)
	}

	outcome := Outcome{Tier: tier, Solved: true}
	if opts.Reference != nil {
		mismatches, err := w.verify(tier, opts.Reference)
		if err != nil {
			return outcome, err
		}
		outcome.Mismatches = mismatches
	}
	return outcome, nil
}

// initState runs Step 0: gather canonical child tiers (deduplicated),
// append T, and decide whether a reverse position graph is needed.
func (w *Worker) initState(tier model.Tier) (*solveState, error) {
	childTiers, err := w.game.ChildTiers(tier)
	if err != nil {
		return nil, tiersolveerrors.Wrap(tiersolveerrors.CodeGameContract, "enumerate child tiers", err)
	}

	seen := make(map[model.Tier]struct{}, len(childTiers))
	ordered := make([]model.Tier, 0, len(childTiers))
	for _, c := range childTiers {
		canon := w.game.CanonicalTier(c)
		if _, ok := seen[canon]; ok {
			continue
		}
		seen[canon] = struct{}{}
		ordered = append(ordered, canon)
	}
	ordered = append(ordered, tier)

	st := &solveState{
		w:           w,
		tier:        tier,
		tierSize:    w.game.TierSize(tier),
		tierIndex:   len(ordered) - 1,
		tiers:       ordered,
		fr:          frontier.New(w.numThreads, w.rMax),
		useRevGraph: !w.game.SupportsCanonicalParents(),
	}
	if st.useRevGraph {
		st.revGraph = reverseposition.New()
	}
	return st, nil
}

// poolConfig returns the ChunkProcessor configuration used for every
// intra-tier parallel pass: one chunk per worker thread, so that thread
// identity lines up with the frontier's per-thread buckets (spec.md §5's
// requirement that two threads never decompress, or stage into, the same
// block).
func (w *Worker) poolConfig() parallel.PoolConfig {
	return parallel.DefaultPoolConfig().WithWorkers(w.numThreads)
}

func classForValue(v model.Value) (frontier.Class, bool) {
	switch v {
	case model.Lose:
		return frontier.ClassLose, true
	case model.Win:
		return frontier.ClassWin, true
	case model.Tie:
		return frontier.ClassTie, true
	default:
		return 0, false
	}
}

// loadChildren runs Step 1: for each canonical child tier, in the fixed
// order the frontier's dividers depend on, load every already-solved
// position into the frontier.
func (w *Worker) loadChildren(ctx context.Context, st *solveState) error {
	for idx, child := range st.tiers[:st.tierIndex] {
		if err := w.loadOneChildTier(ctx, st, idx, child); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) loadOneChildTier(ctx context.Context, st *solveState, tierIndex int, child model.Tier) error {
	store, err := w.dir.Open(child)
	if err != nil {
		return tiersolveerrors.Wrap(tiersolveerrors.CodeDBIO, fmt.Sprintf("open child tier %d", child), err)
	}
	defer store.Close()

	size := store.Size()
	positions := make([]int, size)
	for i := range positions {
		positions[i] = i
	}

	cp := parallel.NewChunkProcessor[int, error](w.poolConfig())
	firstErr := cp.ProcessChunks(ctx, positions,
		func(ctx context.Context, chunk []int, workerID int) error {
			for _, p := range chunk {
				rec, err := store.Get(model.Position(p))
				if err != nil {
					return tiersolveerrors.Wrap(tiersolveerrors.CodeDBIO, "read child position", err)
				}
				class, ok := classForValue(rec.Value)
				if !ok || rec.Remoteness < 0 {
					continue
				}
				if err := st.fr.Add(class, workerID, rec.Remoteness, model.Position(p), tierIndex); err != nil {
					return tiersolveerrors.Wrap(tiersolveerrors.CodeAllocation, "stage loaded child position", err)
				}
			}
			return nil
		},
		firstNonNil,
	)
	return firstErr
}

func firstNonNil(results []error) error {
	for _, err := range results {
		if err != nil {
			return err
		}
	}
	return nil
}

// allocate runs Step 2: create T's tier record and the undecided-children
// counters.
func (w *Worker) allocate(st *solveState) error {
	store, err := w.dir.Create(st.tier, st.tierSize, w.game.DBChunkSize())
	if err != nil {
		return tiersolveerrors.Wrap(tiersolveerrors.CodeAllocation, "create tier record", err)
	}
	st.store = store
	st.counters = make([]atomic.Int32, st.tierSize)
	return nil
}

// scanTier runs Step 3: classify every position as illegal/non-canonical,
// primitive, or a count of canonical children.
func (w *Worker) scanTier(ctx context.Context, st *solveState) error {
	positions := make([]int, st.tierSize)
	for i := range positions {
		positions[i] = i
	}

	cp := parallel.NewChunkProcessor[int, error](w.poolConfig())
	firstErr := cp.ProcessChunks(ctx, positions,
		func(ctx context.Context, chunk []int, workerID int) error {
			for _, pi := range chunk {
				p := model.Position(pi)
				tp := model.TierPosition{Tier: st.tier, Position: p}

				if !w.game.IsLegal(tp) || w.game.CanonicalPosition(tp) != p {
					st.counters[pi].Store(0)
					continue
				}

				v := w.game.Primitive(tp)
				if v != model.Undecided {
					if err := st.store.Put(p, model.Record{Value: v, Remoteness: 0}); err != nil {
						return tiersolveerrors.Wrap(tiersolveerrors.CodeDBIO, "write primitive record", err)
					}
					class, ok := classForValue(v)
					if ok {
						if err := st.fr.Add(class, workerID, 0, p, st.tierIndex); err != nil {
							return tiersolveerrors.Wrap(tiersolveerrors.CodeAllocation, "stage primitive position", err)
						}
					}
					st.counters[pi].Store(0)
					continue
				}

				count, err := w.countChildren(st, tp)
				if err != nil {
					return err
				}
				if count == 0 {
					return tiersolveerrors.New(tiersolveerrors.CodeGameContract,
						fmt.Sprintf("position %s is non-primitive but reports zero children", tp))
				}
				if count > (1<<31)-1 {
					return tiersolveerrors.New(tiersolveerrors.CodeGameContract,
						fmt.Sprintf("position %s reports too many children (%d) for the counter width", tp, count))
				}
				st.counters[pi].Store(int32(count))
			}
			return nil
		},
		firstNonNil,
	)
	return firstErr
}

// countChildren counts tp's canonical children, populating the reverse
// position graph as a side effect when the game cannot enumerate parents
// itself.
func (w *Worker) countChildren(st *solveState, tp model.TierPosition) (int, error) {
	if !st.useRevGraph {
		n, err := w.game.NumberOfCanonicalChildPositions(tp)
		if err != nil {
			return 0, tiersolveerrors.Wrap(tiersolveerrors.CodeGameContract, "count canonical children", err)
		}
		if n < 0 {
			return 0, tiersolveerrors.New(tiersolveerrors.CodeGameContract, "negative child count")
		}
		return n, nil
	}

	children, err := w.game.CanonicalChildPositions(tp)
	if err != nil {
		return 0, tiersolveerrors.Wrap(tiersolveerrors.CodeGameContract, "enumerate canonical children", err)
	}
	for _, child := range children {
		st.revGraph.AddParent(child, tp.Position)
	}
	return len(children), nil
}

// propagate runs Step 4: the remoteness-by-remoteness backward-induction
// sweep, lose-then-win-then-tie within each stratum.
func (w *Worker) propagate(ctx context.Context, st *solveState) error {
	for r := model.Remoteness(0); r <= w.rMax; r++ {
		if err := w.propagateClass(ctx, st, frontier.ClassLose, r); err != nil {
			return err
		}
		if err := w.propagateClass(ctx, st, frontier.ClassWin, r); err != nil {
			return err
		}
		if err := w.propagateClass(ctx, st, frontier.ClassTie, r); err != nil {
			return err
		}
		st.fr.FreeRemoteness(r)
	}
	return nil
}

// propagateClass processes every (thread, r) bucket of the given class in
// parallel; each bucket is only ever read by the goroutine assigned to it,
// so no locking is needed beyond the atomic counter operations and the
// frontier's own internal bucket-growth mutex.
func (w *Worker) propagateClass(ctx context.Context, st *solveState, class frontier.Class, r model.Remoteness) error {
	var wg sync.WaitGroup
	errs := make([]error, w.numThreads)

	for thread := 0; thread < w.numThreads; thread++ {
		thread := thread
		wg.Add(1)
		go func() {
			defer wg.Done()
			positions := st.fr.Positions(class, thread, r)
			for idx, p := range positions {
				select {
				case <-ctx.Done():
					errs[thread] = ctx.Err()
					return
				default:
				}
				tierIdx := st.fr.OriginatingTier(class, thread, r, idx)
				if tierIdx < 0 || tierIdx >= len(st.tiers) {
					errs[thread] = tiersolveerrors.New(tiersolveerrors.CodeGameContract, "frontier entry with no originating tier")
					return
				}
				childTP := model.TierPosition{Tier: st.tiers[tierIdx], Position: p}
				if err := w.resolveParents(st, class, childTP, r, thread); err != nil {
					errs[thread] = err
					return
				}
			}
		}()
	}
	wg.Wait()
	return firstNonNil(errs)
}

// resolveParents applies the gating operation for each parent of a
// newly-resolved position childTP, per spec.md §4.4's Lose/Win/Tie rules.
func (w *Worker) resolveParents(st *solveState, class frontier.Class, childTP model.TierPosition, r model.Remoteness, thread int) error {
	parents, err := w.parentsOf(st, childTP)
	if err != nil {
		return err
	}

	next := r + 1
	if next > w.rMax {
		return tiersolveerrors.New(tiersolveerrors.CodeRemotenessOverflow,
			fmt.Sprintf("propagation from %s would exceed R_max %d", childTP, w.rMax))
	}

	for _, q := range parents {
		qi := int(q)
		if qi < 0 || qi >= len(st.counters) {
			return tiersolveerrors.New(tiersolveerrors.CodeGameContract,
				fmt.Sprintf("parent position %d of %s out of range", q, childTP))
		}

		switch class {
		case frontier.ClassLose, frontier.ClassTie:
			if st.counters[qi].Swap(0) == 0 {
				continue // already resolved by another parent
			}
			value := model.Win
			if class == frontier.ClassTie {
				value = model.Tie
			}
			if err := st.store.Put(q, model.Record{Value: value, Remoteness: next}); err != nil {
				return tiersolveerrors.Wrap(tiersolveerrors.CodeDBIO, "write resolved parent", err)
			}
			resolvedClass := frontier.ClassWin
			if class == frontier.ClassTie {
				resolvedClass = frontier.ClassTie
			}
			if err := st.fr.Add(resolvedClass, thread, next, q, st.tierIndex); err != nil {
				return tiersolveerrors.Wrap(tiersolveerrors.CodeAllocation, "stage resolved parent", err)
			}

		case frontier.ClassWin:
			reachedZero, decremented := decrementIfPositive(&st.counters[qi])
			if !decremented || !reachedZero {
				continue // already resolved, or still has undecided children
			}
			if err := st.store.Put(q, model.Record{Value: model.Lose, Remoteness: next}); err != nil {
				return tiersolveerrors.Wrap(tiersolveerrors.CodeDBIO, "write resolved parent", err)
			}
			if err := st.fr.Add(frontier.ClassLose, thread, next, q, st.tierIndex); err != nil {
				return tiersolveerrors.Wrap(tiersolveerrors.CodeAllocation, "stage resolved parent", err)
			}
		}
	}
	return nil
}

// decrementIfPositive performs the lock-free compare-and-decrement loop. It
// reports decremented=false if c was already zero (the position was
// resolved by a sibling, or never had an undecided count); otherwise it
// decrements c by one and reports whether that decrement was the one that
// brought c to zero, atomically with the decrement itself — a separate
// follow-up Load could race against a sibling's own decrement and blame
// the wrong goroutine for reaching zero.
func decrementIfPositive(c *atomic.Int32) (reachedZero bool, decremented bool) {
	for {
		old := c.Load()
		if old <= 0 {
			return false, false
		}
		if c.CompareAndSwap(old, old-1) {
			return old == 1, true
		}
	}
}

// parentsOf returns childTP's canonical parents within the solving tier,
// using the game's own enumeration when available and the reverse
// position graph otherwise. The reverse graph entry is popped, since each
// child is resolved at most once.
func (w *Worker) parentsOf(st *solveState, childTP model.TierPosition) ([]model.Position, error) {
	if !st.useRevGraph {
		if childTP.Tier == st.tier && w.game.TierType(st.tier) == model.ImmediateTransition {
			return nil, nil // no move stays within an ImmediateTransition tier
		}
		parents, err := w.game.CanonicalParentPositions(childTP, st.tier)
		if err != nil {
			return nil, tiersolveerrors.Wrap(tiersolveerrors.CodeGameContract, "enumerate canonical parents", err)
		}
		return parents, nil
	}
	return st.revGraph.Pop(childTP), nil
}

// markDraws runs Step 5: any position whose counter never reached zero has
// no forced outcome.
func (w *Worker) markDraws(ctx context.Context, st *solveState) error {
	positions := make([]int, st.tierSize)
	for i := range positions {
		positions[i] = i
	}
	cp := parallel.NewChunkProcessor[int, error](w.poolConfig())
	return cp.ProcessChunks(ctx, positions,
		func(ctx context.Context, chunk []int, workerID int) error {
			for _, pi := range chunk {
				if st.counters[pi].Load() > 0 {
					if err := st.store.Put(model.Position(pi), model.Record{Value: model.Draw, Remoteness: 0}); err != nil {
						return tiersolveerrors.Wrap(tiersolveerrors.CodeDBIO, "write draw record", err)
					}
				}
			}
			return nil
		},
		firstNonNil,
	)
}

// verify implements the optional verification pass: compare every stored
// record of the just-solved tier against a reference database.
func (w *Worker) verify(tier model.Tier, reference tierdb.Directory) (int, error) {
	mine, err := w.dir.Open(tier)
	if err != nil {
		return 0, tiersolveerrors.Wrap(tiersolveerrors.CodeDBIO, "reopen solved tier for verification", err)
	}
	defer mine.Close()

	ref, err := reference.Open(tier)
	if err != nil {
		return 0, tiersolveerrors.Wrap(tiersolveerrors.CodeDBIO, "open reference tier", err)
	}
	defer ref.Close()

	mismatches := 0
	for p := 0; p < mine.Size(); p++ {
		got, err := mine.Get(model.Position(p))
		if err != nil {
			return mismatches, tiersolveerrors.Wrap(tiersolveerrors.CodeDBIO, "read solved record", err)
		}
		want, err := ref.Get(model.Position(p))
		if err != nil {
			return mismatches, tiersolveerrors.Wrap(tiersolveerrors.CodeDBIO, "read reference record", err)
		}
		if got != want {
			mismatches++
			w.log.Warn("verification mismatch: tier=%d position=%d got=%+v want=%+v", tier, p, got, want)
		}
	}
	return mismatches, nil
}
