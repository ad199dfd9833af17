package cmd

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/gamescrafters/tiersolve/internal/blobstore"
	"github.com/gamescrafters/tiersolve/internal/catalog"
	"github.com/gamescrafters/tiersolve/internal/dispatcher"
	"github.com/gamescrafters/tiersolve/internal/game"
	"github.com/gamescrafters/tiersolve/internal/manager"
	"github.com/gamescrafters/tiersolve/internal/model"
	"github.com/gamescrafters/tiersolve/internal/tierdb"
	"github.com/gamescrafters/tiersolve/internal/worker"
	tiersolveerrors "github.com/gamescrafters/tiersolve/pkg/errors"
)

// gameArgs pulls <game> [<variant>] off a command's positional args.
func gameArgs(args []string) (name, variant string) {
	name = args[0]
	if len(args) > 1 {
		variant = args[1]
	}
	return name, variant
}

// resolveGame builds the named game and the Directory its tier records
// live in, following cfg.Solve.DataPath/<game>/<variant>.
func resolveGame(name, variant string) (game.Game, tierdb.Directory, error) {
	g, err := GetRegistry().Create(name, variant)
	if err != nil {
		return nil, nil, err
	}
	dir, err := tierdb.NewFileDirectory(GetConfig().VariantDir(g.Name(), g.Variant()))
	if err != nil {
		return nil, nil, err
	}
	return g, dir, nil
}

// buildManager wires a Manager over g/dir using cfg's dispatch settings,
// plus the metadata catalog and blobstore archiver when cfg enables them.
// Only inprocess dispatch is available directly from the CLI; distributed
// mode requires running rank-0/rank-N processes against
// internal/dispatcher.RunWorkerSide directly (see DESIGN.md).
//
// The returned cleanup func must be called once the Manager is done with
// (closes the catalog's database connection, if one was opened); it is
// always non-nil and safe to call even when no catalog is configured.
func buildManager(g game.Game, dir tierdb.Directory) (*manager.Manager, func() error, error) {
	cfg := GetConfig()

	threads := cfg.Solve.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	rMax := model.Remoteness(cfg.Solve.RMax)

	w := worker.New(g, dir, threads, rMax, GetLogger())

	var d dispatcher.Dispatcher
	switch cfg.Dispatch.Mode {
	case "", "inprocess":
		d = dispatcher.NewInProcess(w, dispatcher.InProcessConfig{
			MaxConcurrentTiers:   1,
			SmallTierBound:       cfg.Dispatch.SmallTierBound,
			SmallTierConcurrency: threads,
		})
	default:
		return nil, nil, tiersolveerrors.Wrap(tiersolveerrors.CodeConfigError,
			fmt.Sprintf("dispatch mode %q is not available from the CLI; "+
				"run rank processes against internal/dispatcher.RunWorkerSide directly", cfg.Dispatch.Mode), nil)
	}

	var opts []manager.Option
	cleanup := func() error { return nil }

	if cfg.Catalog.Enabled {
		db, err := catalog.NewGormDB(cfg.Catalog)
		if err != nil {
			return nil, nil, fmt.Errorf("open catalog: %w", err)
		}
		cat := catalog.New(db)
		cleanup = cat.Close
		opts = append(opts, manager.WithCatalog(cat, threads))
	}

	if cfg.Blobstore.Enabled {
		backend, err := blobstore.New(cfg.Blobstore)
		if err != nil {
			return nil, nil, fmt.Errorf("open blobstore: %w", err)
		}
		opts = append(opts, manager.WithArchiver(backend))
	}

	return manager.New(g, d, dir, GetLogger(), opts...), cleanup, nil
}

// parseTierPosition parses "tier:position", the query command's addressing
// format for one (tier, position) pair.
func parseTierPosition(s string) (model.TierPosition, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return model.TierPosition{}, tiersolveerrors.Wrap(tiersolveerrors.CodeInvalidInput,
			fmt.Sprintf("position must be in tier:position form, got %q", s), nil)
	}
	tier, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return model.TierPosition{}, tiersolveerrors.Wrap(tiersolveerrors.CodeInvalidInput,
			"invalid tier", err)
	}
	pos, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return model.TierPosition{}, tiersolveerrors.Wrap(tiersolveerrors.CodeInvalidInput,
			"invalid position", err)
	}
	return model.TierPosition{Tier: model.Tier(tier), Position: model.Position(pos)}, nil
}
