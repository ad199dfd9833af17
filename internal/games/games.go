// Package games collects the bundled reference game.Game implementations
// and registers them under their canonical names.
package games

import (
	"github.com/gamescrafters/tiersolve/internal/game"
	"github.com/gamescrafters/tiersolve/internal/games/linear"
	"github.com/gamescrafters/tiersolve/internal/games/loopy"
	"github.com/gamescrafters/tiersolve/internal/games/primitive"
	"github.com/gamescrafters/tiersolve/internal/games/tictactoe"
)

// RegisterAll installs every bundled game into r.
func RegisterAll(r *game.Registry) {
	r.Register("tictactoe", tictactoe.New)
	r.Register("primitive", primitive.New)
	r.Register("linear", linear.New)
	r.Register("loopy", loopy.New)
}
