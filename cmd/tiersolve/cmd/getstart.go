package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gamescrafters/tiersolve/internal/model"
)

var getstartCmd = &cobra.Command{
	Use:   "getstart <game> [<variant>]",
	Short: "Print the solved record for the game's initial position",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runGetstart,
}

func init() {
	rootCmd.AddCommand(getstartCmd)
}

func runGetstart(cmd *cobra.Command, args []string) error {
	name, variant := gameArgs(args)

	g, dir, err := resolveGame(name, variant)
	if err != nil {
		return err
	}

	tp := model.TierPosition{Tier: g.InitialTier(), Position: g.InitialPosition()}
	store, err := dir.Open(tp.Tier)
	if err != nil {
		return fmt.Errorf("open tier %d: %w", tp.Tier, err)
	}
	defer store.Close()

	rec, err := store.Get(tp.Position)
	if err != nil {
		return fmt.Errorf("get initial position: %w", err)
	}

	return emitQueryResult(g.Name(), g.Variant(), tp, rec)
}
