package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <game> [<variant>]",
	Short: "Walk a game's tier DAG and report size/depth statistics",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	result, err := mgr.Analyze(context.Background())
	if err != nil {
		return fmt.Errorf("analyze %s: %w", name, err)
	}

	log.Info("=== %s (%s) ===", g.Name(), g.Variant())
	log.Info("tiers:           %d", len(result.Tiers))
	log.Info("total positions: %d", result.TotalPositions)
	log.Info("max depth:       %d", result.MaxDepth)
	if result.Skipped > 0 {
		log.Info("skipped (non-canonical): %d", result.Skipped)
	}
	for _, ts := range result.Tiers {
		log.Debug("tier %d: size=%d type=%s depth=%d parents=%d children=%d",
			ts.Tier, ts.Size, ts.Type, ts.Depth, ts.NumParents, ts.NumChildren)
	}
	return nil
}
