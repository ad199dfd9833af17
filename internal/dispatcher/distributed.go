package dispatcher

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/gamescrafters/tiersolve/internal/model"
	"github.com/gamescrafters/tiersolve/internal/worker"
	tiersolveerrors "github.com/gamescrafters/tiersolve/pkg/errors"
)

// job is one pending Dispatch call waiting for an idle worker rank.
type job struct {
	tier   model.Tier
	opts   worker.Options
	result chan rankResult
}

type rankResult struct {
	outcome worker.Outcome
	err     error
}

// RankStatus reports what one connected worker rank is doing, for
// diagnostics (spec.md §4.6: "Manager must track which tier each worker
// rank is currently solving").
type RankStatus struct {
	Rank int
	Tier model.Tier
	Busy bool
}

// DistributedDispatcher is the rank-0 (manager) side of the multi-process
// protocol: it holds one connection per worker rank and hands ready tiers
// to whichever rank next sends Check.
type DistributedDispatcher struct {
	jobs chan *job

	mu     sync.Mutex
	status []RankStatus

	closeOnce sync.Once
}

// NewDistributedDispatcher starts one goroutine per connection driving
// the manager side of the protocol against that rank, and returns a
// Dispatcher that fans ready tiers out across all of them.
func NewDistributedDispatcher(conns []io.ReadWriter) *DistributedDispatcher {
	d := &DistributedDispatcher{
		jobs:   make(chan *job, len(conns)*2+1),
		status: make([]RankStatus, len(conns)),
	}
	for i, conn := range conns {
		d.status[i] = RankStatus{Rank: i}
		go d.rankLoop(i, conn)
	}
	return d
}

// Dispatch implements Dispatcher by enqueueing tier and blocking for
// whichever rank picks it up to report back.
func (d *DistributedDispatcher) Dispatch(ctx context.Context, tier model.Tier, opts worker.Options) (worker.Outcome, error) {
	j := &job{tier: tier, opts: opts, result: make(chan rankResult, 1)}

	select {
	case d.jobs <- j:
	case <-ctx.Done():
		return worker.Outcome{Tier: tier}, ctx.Err()
	}

	select {
	case r := <-j.result:
		return r.outcome, r.err
	case <-ctx.Done():
		return worker.Outcome{Tier: tier}, ctx.Err()
	}
}

// Close stops accepting new dispatches and terminates every rank.
func (d *DistributedDispatcher) Close() {
	d.closeOnce.Do(func() { close(d.jobs) })
}

// Status returns a snapshot of every rank's current assignment.
func (d *DistributedDispatcher) Status() []RankStatus {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]RankStatus, len(d.status))
	copy(out, d.status)
	return out
}

func (d *DistributedDispatcher) setStatus(rank int, busy bool, tier model.Tier) {
	d.mu.Lock()
	d.status[rank] = RankStatus{Rank: rank, Busy: busy, Tier: tier}
	d.mu.Unlock()
}

// rankLoop implements the manager's steady state against one rank:
// "recv_any from workers; on a report, decrement in-flight...; on Check,
// either send Solve, Sleep, or Terminate based on queue/in-flight state."
func (d *DistributedDispatcher) rankLoop(rank int, conn io.ReadWriter) {
	for {
		msg, err := ReadMessage(conn)
		if err != nil {
			return
		}
		if msg.Kind != KindCheck {
			continue // any request other than Check is ignored
		}

		select {
		case j, ok := <-d.jobs:
			if !ok {
				_ = Message{Kind: KindTerminate}.WriteTo(conn)
				return
			}
			d.setStatus(rank, true, j.tier)
			kind := KindSolve
			if j.opts.Force {
				kind = KindForceSolve
			}
			if err := (Message{Kind: kind, Tier: uint64(j.tier)}).WriteTo(conn); err != nil {
				j.result <- rankResult{err: err}
				d.setStatus(rank, false, 0)
				return
			}
			report, err := ReadMessage(conn)
			d.setStatus(rank, false, 0)
			if err != nil {
				j.result <- rankResult{err: err}
				return
			}
			j.result <- decodeReport(j.tier, report)
		default:
			if err := (Message{Kind: KindSleep}).WriteTo(conn); err != nil {
				return
			}
		}
	}
}

func decodeReport(tier model.Tier, msg Message) rankResult {
	switch msg.Kind {
	case KindReportSolved:
		return rankResult{outcome: worker.Outcome{Tier: tier, Solved: true}}
	case KindReportLoaded:
		return rankResult{outcome: worker.Outcome{Tier: tier, Loaded: true}}
	case KindReportError:
		return rankResult{err: tiersolveerrors.New(tiersolveerrors.CodeDBIO, "worker reported error"), outcome: worker.Outcome{Tier: tier}}
	default:
		return rankResult{err: tiersolveerrors.New(tiersolveerrors.CodeUnknownCommand, "unexpected worker report kind"), outcome: worker.Outcome{Tier: tier}}
	}
}

// RunWorkerSide implements a rank >= 1 worker loop: send Check, receive a
// command, act, loop. Terminate (or any unrecognized command, per
// spec.md §7) ends the loop.
func RunWorkerSide(ctx context.Context, conn io.ReadWriter, w *worker.Worker, sleepInterval time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := (Message{Kind: KindCheck}).WriteTo(conn); err != nil {
			return err
		}
		cmd, err := ReadMessage(conn)
		if err != nil {
			return err
		}

		switch cmd.Kind {
		case KindSolve, KindForceSolve:
			tier := model.Tier(cmd.Tier)
			outcome, solveErr := w.Solve(ctx, tier, worker.Options{Force: cmd.Kind == KindForceSolve})
			report := reportFor(tier, outcome, solveErr)
			if err := report.WriteTo(conn); err != nil {
				return err
			}
		case KindSleep:
			select {
			case <-time.After(sleepInterval):
			case <-ctx.Done():
				return ctx.Err()
			}
		case KindTerminate:
			return nil
		default:
			// Unknown manager-to-worker command: treated as Terminate (spec.md §7).
			return nil
		}
	}
}

func reportFor(tier model.Tier, outcome worker.Outcome, err error) Message {
	if err != nil {
		return Message{Kind: KindReportError, Tier: uint64(tier), Error: int32(tiersolveerrors.ExitCode(err))}
	}
	if outcome.Loaded {
		return Message{Kind: KindReportLoaded, Tier: uint64(tier)}
	}
	return Message{Kind: KindReportSolved, Tier: uint64(tier)}
}
