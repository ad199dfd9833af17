// Package tierdb implements the hot per-position (tier, position) ->
// (value, remoteness) store (component C7's non-metadata half): one
// chunked, compressed record file per canonical tier, giving O(1) random
// access to any position's record.
package tierdb

import (
	"context"

	"github.com/gamescrafters/tiersolve/internal/model"
)

// DefaultChunkSize is used when a game reports 0 from Game.DBChunkSize.
const DefaultChunkSize = 4096

// Store is the tier record interface the worker drives. One Store handle
// is opened per tier being read or written; it is not itself a directory
// of tiers (see Directory for that).
type Store interface {
	// Get reads the record for position p. Returns model.Undecided if p
	// has never been written (covers both "not yet solved" and, for a
	// freshly created store, "out of range but within tier_size").
	Get(p model.Position) (model.Record, error)
	// Put writes the record for position p. Safe for concurrent callers
	// writing to distinct positions; positions are written exactly once
	// during a correct solve (spec.md §5: "written once per position").
	Put(p model.Position, rec model.Record) error
	// Flush persists in-memory chunk state to the backing file.
	Flush() error
	// Close flushes and releases the store's resources.
	Close() error
	// Size reports the tier size this store was created or opened with.
	Size() int
}

// Directory opens and creates per-tier Stores rooted at one
// <data-path>/<game>/<variant>/ directory, and tracks the "game solved"
// marker.
type Directory interface {
	// Create allocates a new tier record file of the given size,
	// truncating any existing file for that tier (used by Step 2 of
	// backward induction, and by --force re-solves).
	Create(tier model.Tier, size int, chunkSize int) (Store, error)
	// Open opens an existing tier record file read-only (used by Step 1
	// to load already-solved child tiers).
	Open(tier model.Tier) (Store, error)
	// Exists reports whether a tier record file is present, without
	// opening it.
	Exists(tier model.Tier) bool
	// MarkSolved records that every canonical tier has been solved
	// successfully (spec.md §6: "game solved" marker).
	MarkSolved(ctx context.Context) error
	// IsSolved reports whether the marker from MarkSolved is present.
	IsSolved(ctx context.Context) (bool, error)
	// Path returns the backing file path for a tier's record, for callers
	// that archive a finished tier's file elsewhere (internal/blobstore).
	Path(tier model.Tier) string
}
