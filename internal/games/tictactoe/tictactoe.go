// Package tictactoe implements standard 3x3 tic-tac-toe as a bundled
// reference game: the tier is the number of pieces on the board (0-9),
// a position is the board encoded as a base-3 number, and the dihedral
// group of the square (rotations and reflections) gives the canonical
// symmetry. It exists to exercise the full solver against a game whose
// exact answer is known: 765 canonical positions, initial value Tie.
package tictactoe

import (
	"context"
	"math/rand"

	"github.com/gamescrafters/tiersolve/internal/game"
	"github.com/gamescrafters/tiersolve/internal/model"
	tiersolveerrors "github.com/gamescrafters/tiersolve/pkg/errors"
)

const (
	cellEmpty = 0
	cellX     = 1
	cellO     = 2

	numCells = 9
	// boardSpace is 3^9: every base-3 digit string of length 9, legal or
	// not. IsLegal narrows this down to reachable boards per tier.
	boardSpace = 19683
)

// Game implements game.Game for 3x3 tic-tac-toe. It has no variants.
type Game struct {
	variant string
}

// New builds the tic-tac-toe game. variant is accepted for registry
// symmetry but ignored; there is exactly one 3x3 ruleset.
func New(variant string) (game.Game, error) {
	if variant == "" {
		variant = "3x3"
	}
	return &Game{variant: variant}, nil
}

func (g *Game) Name() string    { return "tictactoe" }
func (g *Game) Variant() string { return g.variant }

func (g *Game) InitialTier() model.Tier         { return 0 }
func (g *Game) InitialPosition() model.Position { return 0 }

func (g *Game) TierSize(t model.Tier) int { return boardSpace }

// board is a decoded 9-cell board, index = row*3+col.
type board [numCells]int

func decode(pos model.Position) board {
	var b board
	p := uint64(pos)
	for i := 0; i < numCells; i++ {
		b[i] = int(p % 3)
		p /= 3
	}
	return b
}

func (b board) encode() model.Position {
	var p uint64
	mul := uint64(1)
	for i := 0; i < numCells; i++ {
		p += uint64(b[i]) * mul
		mul *= 3
	}
	return model.Position(p)
}

func (b board) counts() (cx, co int) {
	for _, c := range b {
		switch c {
		case cellX:
			cx++
		case cellO:
			co++
		}
	}
	return
}

var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6}, // diagonals
}

func (b board) hasWin(mark int) bool {
	for _, line := range winLines {
		if b[line[0]] == mark && b[line[1]] == mark && b[line[2]] == mark {
			return true
		}
	}
	return false
}

// symmetries is the dihedral group of the square: identity, three
// rotations, and four reflections, each given as a permutation of cell
// indices such that transformed[i] = original[perm[i]].
var symmetries = [8][numCells]int{
	{0, 1, 2, 3, 4, 5, 6, 7, 8}, // identity
	{6, 3, 0, 7, 4, 1, 8, 5, 2}, // rotate 90 clockwise
	{8, 7, 6, 5, 4, 3, 2, 1, 0}, // rotate 180
	{2, 5, 8, 1, 4, 7, 0, 3, 6}, // rotate 270 clockwise
	{2, 1, 0, 5, 4, 3, 8, 7, 6}, // flip horizontal
	{6, 7, 8, 3, 4, 5, 0, 1, 2}, // flip vertical
	{0, 3, 6, 1, 4, 7, 2, 5, 8}, // flip main diagonal
	{8, 5, 2, 7, 4, 1, 6, 3, 0}, // flip anti-diagonal
}

func (b board) transform(perm [numCells]int) board {
	var out board
	for i := 0; i < numCells; i++ {
		out[i] = b[perm[i]]
	}
	return out
}

// canonicalBoard returns the lexicographically smallest encoding among b's
// 8 symmetric images.
func canonicalBoard(b board) board {
	best := b
	bestEnc := b.encode()
	for _, perm := range symmetries[1:] {
		t := b.transform(perm)
		if enc := t.encode(); enc < bestEnc {
			best, bestEnc = t, enc
		}
	}
	return best
}

func (g *Game) DoMove(tp model.TierPosition, moveIndex int) (model.TierPosition, error) {
	b := decode(tp.Position)
	mark := markToMove(int(tp.Tier))

	seen := -1
	for i := 0; i < numCells; i++ {
		if b[i] != cellEmpty {
			continue
		}
		seen++
		if seen == moveIndex {
			b[i] = mark
			return model.TierPosition{Tier: tp.Tier + 1, Position: b.encode()}, nil
		}
	}
	return model.TierPosition{}, tiersolveerrors.Wrap(tiersolveerrors.CodeInvalidInput,
		"move index out of range", nil)
}

// markToMove returns the mark the player to move at tier t will place: X
// moves first and on every even piece count, O on every odd piece count.
func markToMove(tier int) int {
	if tier%2 == 0 {
		return cellX
	}
	return cellO
}

// lastMark returns the mark placed by whoever moved into tier t, or
// cellEmpty at the root.
func lastMark(tier int) int {
	if tier == 0 {
		return cellEmpty
	}
	return markToMove(tier - 1)
}

func (g *Game) GenerateMoves(tp model.TierPosition) ([]game.Move, error) {
	b := decode(tp.Position)
	moves := make([]game.Move, 0, numCells)
	idx := 0
	for i := 0; i < numCells; i++ {
		if b[i] == cellEmpty {
			moves = append(moves, game.Move{Index: idx, Name: cellName(i)})
			idx++
		}
	}
	return moves, nil
}

func cellName(i int) string {
	names := [numCells]string{"a1", "a2", "a3", "b1", "b2", "b3", "c1", "c2", "c3"}
	return names[i]
}

func (g *Game) Primitive(tp model.TierPosition) model.Value {
	b := decode(tp.Position)
	if b.hasWin(cellX) || b.hasWin(cellO) {
		// Whoever's mark is on the board in a winning line moved last;
		// the player to move now has already lost.
		return model.Lose
	}
	cx, co := b.counts()
	if cx+co == numCells {
		return model.Tie
	}
	return model.Undecided
}

// IsLegal reports whether tp's piece counts and win state are consistent
// with some sequence of alternating legal moves, following the standard
// necessary-and-sufficient characterization for 3x3 tic-tac-toe boards:
// counts differ by 0 or 1, both sides can't have a winning line, and
// whichever side has one must be exactly one move ahead.
func (g *Game) IsLegal(tp model.TierPosition) bool {
	b := decode(tp.Position)
	for _, c := range b {
		if c != cellEmpty && c != cellX && c != cellO {
			return false
		}
	}
	cx, co := b.counts()
	if cx+co != int(tp.Tier) {
		return false
	}
	wantX := (int(tp.Tier) + 1) / 2
	wantO := int(tp.Tier) / 2
	if cx != wantX || co != wantO {
		return false
	}
	xWin, oWin := b.hasWin(cellX), b.hasWin(cellO)
	if xWin && oWin {
		return false
	}
	if xWin && cx != co+1 {
		return false
	}
	if oWin && cx != co {
		return false
	}
	return true
}

func (g *Game) CanonicalPosition(tp model.TierPosition) model.Position {
	return canonicalBoard(decode(tp.Position)).encode()
}

// CanonicalTier is the identity: tic-tac-toe's piece-count tiers have no
// symmetry among themselves, only within each tier's board space.
func (g *Game) CanonicalTier(t model.Tier) model.Tier { return t }

func (g *Game) PositionInSymmetricTier(tp model.TierPosition, t2 model.Tier) model.Position {
	return tp.Position
}

func (g *Game) ChildTiers(t model.Tier) ([]model.Tier, error) {
	if t >= numCells {
		return nil, nil
	}
	return []model.Tier{t + 1}, nil
}

func (g *Game) TierType(t model.Tier) model.TierType { return model.ImmediateTransition }

func (g *Game) SupportsCanonicalParents() bool { return true }

func (g *Game) CanonicalParentPositions(tp model.TierPosition, parentTier model.Tier) ([]model.Position, error) {
	if parentTier != tp.Tier-1 {
		return nil, tiersolveerrors.Wrap(tiersolveerrors.CodeGameContract,
			"tictactoe parent tier must be tier-1", nil)
	}
	b := decode(tp.Position)
	mark := lastMark(int(tp.Tier))

	seen := map[model.Position]struct{}{}
	var parents []model.Position
	for i := 0; i < numCells; i++ {
		if b[i] != mark {
			continue
		}
		parent := b
		parent[i] = cellEmpty
		canon := canonicalBoard(parent).encode()
		if _, ok := seen[canon]; ok {
			continue
		}
		seen[canon] = struct{}{}
		parents = append(parents, canon)
	}
	return parents, nil
}

func (g *Game) CanonicalChildPositions(tp model.TierPosition) ([]model.TierPosition, error) {
	if g.Primitive(tp) != model.Undecided {
		return nil, nil
	}
	moves, err := g.GenerateMoves(tp)
	if err != nil {
		return nil, err
	}
	seen := map[model.Position]struct{}{}
	children := make([]model.TierPosition, 0, len(moves))
	for _, mv := range moves {
		child, err := g.DoMove(tp, mv.Index)
		if err != nil {
			return nil, err
		}
		canon := canonicalBoard(decode(child.Position)).encode()
		if _, ok := seen[canon]; ok {
			continue
		}
		seen[canon] = struct{}{}
		children = append(children, model.TierPosition{Tier: child.Tier, Position: canon})
	}
	return children, nil
}

func (g *Game) NumberOfCanonicalChildPositions(tp model.TierPosition) (int, error) {
	children, err := g.CanonicalChildPositions(tp)
	if err != nil {
		return 0, err
	}
	return len(children), nil
}

func (g *Game) DBChunkSize() int { return 0 }

// RandomLegalPosition rejection-samples a legal position from a uniformly
// chosen tier.
func (g *Game) RandomLegalPosition(ctx context.Context) (model.TierPosition, error) {
	for {
		select {
		case <-ctx.Done():
			return model.TierPosition{}, ctx.Err()
		default:
		}
		tier := model.Tier(rand.Intn(numCells + 1))
		pos := model.Position(rand.Intn(boardSpace))
		tp := model.TierPosition{Tier: tier, Position: pos}
		if g.IsLegal(tp) {
			return tp, nil
		}
	}
}
