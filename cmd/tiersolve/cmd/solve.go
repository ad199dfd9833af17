package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gamescrafters/tiersolve/internal/worker"
)

var solveCmd = &cobra.Command{
	Use:   "solve <game> [<variant>]",
	Short: "Solve every tier of a game via backward induction",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	name, variant := gameArgs(args)
	log := GetLogger()

	g, dir, err := resolveGame(name, variant)
	if err != nil {
		return err
	}
	mgr, cleanup, err := buildManager(g, dir)
	if err != nil {
		return err
	}
	defer func() {
		if err := cleanup(); err != nil {
			log.Warn("close catalog: %v", err)
		}
	}()

	log.Info("solving %s (%s), force=%v", g.Name(), g.Variant(), GetConfig().Solve.Force)
	result, err := mgr.Solve(context.Background(), worker.Options{Force: GetConfig().Solve.Force})
	if err != nil {
		return fmt.Errorf("solve %s: %w", name, err)
	}

	log.Info("solved=%d loaded=%d skipped=%d failed=%d", result.Solved, result.Loaded, result.Skipped, result.Failed)
	if result.Failed > 0 {
		return fmt.Errorf("%d tiers failed to solve: %v", result.Failed, result.FailedTiers)
	}
	return nil
}
