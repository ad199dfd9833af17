// Package dispatcher implements component C6: the two interchangeable
// ways a tier manager hands a ready tier off to be solved — an
// in-process worker pool, or a multi-process manager/worker protocol
// over net.Conn.
package dispatcher

import (
	"context"

	"github.com/gamescrafters/tiersolve/internal/model"
	"github.com/gamescrafters/tiersolve/internal/worker"
)

// Dispatcher is the one contract the tier manager drives: hand tier off
// to be solved (or loaded, if already solved and not forced) and block
// until an outcome or error is known.
type Dispatcher interface {
	Dispatch(ctx context.Context, tier model.Tier, opts worker.Options) (worker.Outcome, error)
}
