package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gamescrafters/tiersolve/internal/model"
	"github.com/gamescrafters/tiersolve/pkg/writer"
)

// queryResult is the JSON shape written by -o, and the text shape printed
// to stdout otherwise.
type queryResult struct {
	Game       string `json:"game"`
	Variant    string `json:"variant"`
	Tier       uint64 `json:"tier"`
	Position   uint64 `json:"position"`
	Value      string `json:"value"`
	Remoteness int32  `json:"remoteness"`
}

var queryCmd = &cobra.Command{
	Use:   "query <game> <variant> <tier:position>",
	Short: "Look up one position's solved (value, remoteness) record",
	Args:  cobra.ExactArgs(3),
	RunE:  runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	name, variant := args[0], args[1]
	tp, err := parseTierPosition(args[2])
	if err != nil {
		return err
	}

	g, dir, err := resolveGame(name, variant)
	if err != nil {
		return err
	}

	store, err := dir.Open(tp.Tier)
	if err != nil {
		return fmt.Errorf("open tier %d: %w", tp.Tier, err)
	}
	defer store.Close()

	rec, err := store.Get(tp.Position)
	if err != nil {
		return fmt.Errorf("query %s: %w", args[2], err)
	}

	return emitQueryResult(g.Name(), g.Variant(), tp, rec)
}

func emitQueryResult(gameName, variant string, tp model.TierPosition, rec model.Record) error {
	result := queryResult{
		Game:       gameName,
		Variant:    variant,
		Tier:       uint64(tp.Tier),
		Position:   uint64(tp.Position),
		Value:      rec.Value.String(),
		Remoteness: int32(rec.Remoteness),
	}

	if outputPath == "" {
		fmt.Printf("%s (%s) %s: %s, remoteness %d\n",
			result.Game, result.Variant, tp, result.Value, result.Remoteness)
		return nil
	}

	w := writer.NewPrettyJSONWriter[queryResult]()
	return w.WriteToFile(result, filepath.Join(outputPath, "query.json"))
}
