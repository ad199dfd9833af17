// Package manager implements the tier manager (component C5): DAG
// discovery and validation, readiness-counted scheduling, and the
// analysis/consistency adjunct modes.
package manager

import (
	"github.com/gamescrafters/tiersolve/internal/blobstore"
	"github.com/gamescrafters/tiersolve/internal/catalog"
	"github.com/gamescrafters/tiersolve/internal/dispatcher"
	"github.com/gamescrafters/tiersolve/internal/game"
	"github.com/gamescrafters/tiersolve/internal/model"
	"github.com/gamescrafters/tiersolve/internal/tiergraph"
	"github.com/gamescrafters/tiersolve/internal/tierdb"
	"github.com/gamescrafters/tiersolve/pkg/utils"
)

// Manager drives discovery and scheduling for one game variant.
//
// Grounded on the teacher's internal/scheduler.Scheduler: a
// config + processor + bounded concurrency shape, generalized from
// "poll a task source, push ready tasks through a worker semaphore" to
// "pop a ready tier, dispatch it, update the DAG on completion, enqueue
// newly-ready parents."
type Manager struct {
	game       game.Game
	dispatcher dispatcher.Dispatcher
	dir        tierdb.Directory
	log        utils.Logger

	catalog  *catalog.Catalog
	threads  int
	archiver blobstore.Backend
}

// New creates a Manager over g, dispatching ready tiers via d and
// consulting dir for the solved marker and archived tier file paths.
func New(g game.Game, d dispatcher.Dispatcher, dir tierdb.Directory, log utils.Logger, opts ...Option) *Manager {
	if log == nil {
		log = &utils.NullLogger{}
	}
	m := &Manager{game: g, dispatcher: d, dir: dir, log: log}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Option configures optional Manager behavior not every caller needs.
type Option func(*Manager)

// WithCatalog records one row per (game, run) and one row per (run, tier)
// in c, via EnsureGame/StartRun/FinishRun/UpsertTierStatus, alongside
// Solve's scheduling loop. threads is recorded on the run row; it has no
// bearing on scheduling itself, which is the dispatcher's concern.
func WithCatalog(c *catalog.Catalog, threads int) Option {
	return func(m *Manager) {
		m.catalog = c
		m.threads = threads
	}
}

// WithArchiver copies each tier's record file to b once that tier's
// dispatch completes successfully, keyed "<game>/<variant>/<tier>.tier".
// internal/tierdb.Directory remains the system of record; this only
// ships a copy elsewhere.
func WithArchiver(b blobstore.Backend) Option {
	return func(m *Manager) { m.archiver = b }
}

// tierNode is one discovered tier's bookkeeping.
type tierNode struct {
	size     int
	typ      model.TierType
	children []model.Tier // deduplicated canonical child tiers, self excluded
}

// Discovery is the DAG discovery's output: per-tier metadata, the
// canonical child adjacency (forward direction), and the reverse tier
// graph (component C2) used by solve-mode scheduling.
type Discovery struct {
	nodes   map[model.Tier]*tierNode
	reverse *tiergraph.ReverseGraph
	order   []model.Tier // discovery post-order
}

// Tiers returns every discovered canonical tier, in discovery post-order.
func (d *Discovery) Tiers() []model.Tier {
	out := make([]model.Tier, len(d.order))
	copy(out, d.order)
	return out
}

// Size returns the discovered tier size, or 0 if t was never discovered.
func (d *Discovery) Size(t model.Tier) int {
	n, ok := d.nodes[t]
	if !ok {
		return 0
	}
	return n.size
}

// Children returns t's deduplicated canonical child tiers (self excluded).
func (d *Discovery) Children(t model.Tier) []model.Tier {
	n, ok := d.nodes[t]
	if !ok {
		return nil
	}
	return n.children
}
