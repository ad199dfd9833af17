// Command tiersolve exhaustively solves finite, two-player,
// perfect-information, zero-sum games via tiered backward induction.
package main

import "github.com/gamescrafters/tiersolve/cmd/tiersolve/cmd"

func main() {
	cmd.Execute()
}
