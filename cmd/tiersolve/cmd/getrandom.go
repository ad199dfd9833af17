package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var getrandomCmd = &cobra.Command{
	Use:   "getrandom <game> [<variant>]",
	Short: "Print the solved record for a randomly sampled legal position",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runGetrandom,
}

func init() {
	rootCmd.AddCommand(getrandomCmd)
}

func runGetrandom(cmd *cobra.Command, args []string) error {
	name, variant := gameArgs(args)

	g, dir, err := resolveGame(name, variant)
	if err != nil {
		return err
	}

	tp, err := g.RandomLegalPosition(context.Background())
	if err != nil {
		return fmt.Errorf("sample random position: %w", err)
	}

	store, err := dir.Open(tp.Tier)
	if err != nil {
		return fmt.Errorf("open tier %d: %w", tp.Tier, err)
	}
	defer store.Close()

	rec, err := store.Get(tp.Position)
	if err != nil {
		return fmt.Errorf("get random position: %w", err)
	}

	return emitQueryResult(g.Name(), g.Variant(), tp, rec)
}
