// Package game defines the abstract Game API every solvable game
// implements, and a registry for looking games up by name.
package game

import (
	"context"

	"github.com/gamescrafters/tiersolve/internal/model"
)

// Game is the external contract the tier manager and tier worker drive.
// Exactly one concrete implementation exists per game; there is no
// process-wide game-selection state — callers own a Game value and thread
// it through explicitly (spec §9: context objects, not globals).
type Game interface {
	// Name identifies the game, used for data-path layout and CLI lookup.
	Name() string
	// Variant identifies the ruleset variant currently configured.
	Variant() string

	InitialTier() model.Tier
	InitialPosition() model.Position

	// TierSize returns the number of positions in T, including illegal ones.
	TierSize(t model.Tier) int

	// DoMove applies a move index (in [0, len(GenerateMoves(tp))) ) to tp.
	DoMove(tp model.TierPosition, moveIndex int) (model.TierPosition, error)
	// GenerateMoves enumerates the legal moves from tp.
	GenerateMoves(tp model.TierPosition) ([]Move, error)

	// Primitive returns the position's terminal value, or model.Undecided
	// if tp is not terminal.
	Primitive(tp model.TierPosition) model.Value
	// IsLegal reports whether tp is a reachable, legal position.
	IsLegal(tp model.TierPosition) bool

	// CanonicalPosition maps tp to its symmetry-class representative
	// within its own tier.
	CanonicalPosition(tp model.TierPosition) model.Position
	// CanonicalTier maps T to its symmetry-class representative tier.
	CanonicalTier(t model.Tier) model.Tier
	// PositionInSymmetricTier maps a position from tp's tier into the
	// equivalent position of a symmetric tier t2.
	PositionInSymmetricTier(tp model.TierPosition, t2 model.Tier) model.Position

	// ChildTiers returns every tier a move from a position in T can reach.
	// May contain duplicates; the caller canonicalizes and deduplicates.
	ChildTiers(t model.Tier) ([]model.Tier, error)

	// TierType hints whether every move from T leaves T.
	TierType(t model.Tier) model.TierType

	// SupportsCanonicalParents reports whether CanonicalParentPositions is
	// implemented. If false, the worker builds a reverse position graph
	// on the fly from CanonicalChildPositions.
	SupportsCanonicalParents() bool
	// CanonicalParentPositions enumerates tp's canonical parents within
	// parentTier. Only called when SupportsCanonicalParents is true.
	CanonicalParentPositions(tp model.TierPosition, parentTier model.Tier) ([]model.Position, error)
	// CanonicalChildPositions enumerates tp's canonical children. Always
	// implemented; used directly, or to build the reverse position graph
	// when SupportsCanonicalParents is false.
	CanonicalChildPositions(tp model.TierPosition) ([]model.TierPosition, error)
	// NumberOfCanonicalChildPositions is a cheaper count-only form of
	// CanonicalChildPositions, used in Step 3 when the reverse position
	// graph is not being built (SupportsCanonicalParents is true).
	NumberOfCanonicalChildPositions(tp model.TierPosition) (int, error)

	// DBChunkSize is the game's preferred compression chunk size for the
	// tier database, or 0 to let the worker pick a default.
	DBChunkSize() int

	// RandomLegalPosition returns a randomly sampled legal position (the
	// distribution is game-defined), used by the `getrandom` CLI command.
	RandomLegalPosition(ctx context.Context) (model.TierPosition, error)
}

// Move is an opaque, game-defined move descriptor. The manager/worker
// never interpret it beyond passing its index back to DoMove.
type Move struct {
	Index int
	Name  string
}
