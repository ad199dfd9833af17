package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gamescrafters/tiersolve/internal/game"
	"github.com/gamescrafters/tiersolve/internal/games"
	"github.com/gamescrafters/tiersolve/pkg/config"
	tiersolveerrors "github.com/gamescrafters/tiersolve/pkg/errors"
	"github.com/gamescrafters/tiersolve/pkg/telemetry"
	"github.com/gamescrafters/tiersolve/pkg/utils"
)

var (
	// Persistent flags.
	cfgFile    string
	dataPath   string
	outputPath string
	force      bool
	quiet      bool
	verbose    bool
	showVer    bool

	cfg      *config.Config
	log      utils.Logger
	registry *game.Registry

	shutdownTelemetry telemetry.ShutdownFunc
)

// rootCmd is the base command, grounded on the teacher's
// cmd/cli/cmd/root.go: PersistentPreRunE wires up the logger (and here,
// telemetry) before any subcommand runs.
var rootCmd = &cobra.Command{
	Use:   "tiersolve",
	Short: "Exhaustively solve finite, two-player, perfect-information games",
	Long: `tiersolve solves finite, two-player, perfect-information, zero-sum
games by tiered backward induction: it partitions the position space
into tiers, solves each tier's positions once every tier it depends on
is solved, and persists a (value, remoteness) record for every legal
position.`,
	Example: `  # Solve tic-tac-toe and store records under ./data
  tiersolve solve tictactoe 3x3

  # Inspect the initial position's solved value
  tiersolve getstart tictactoe 3x3

  # Query one specific position
  tiersolve query tictactoe 3x3 0:0`,
	SilenceUsage:      true,
	PersistentPreRunE: persistentPreRun,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownTelemetry != nil {
			return shutdownTelemetry(context.Background())
		}
		return nil
	},
}

func persistentPreRun(cmd *cobra.Command, args []string) error {
	if showVer {
		printVersion()
		os.Exit(0)
	}

	loaded, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dataPath != "" {
		loaded.Solve.DataPath = dataPath
	}
	if cmd.Flags().Changed("force") {
		loaded.Solve.Force = force
	}
	cfg = loaded

	level := utils.LevelInfo
	switch {
	case quiet:
		level = utils.LevelError
	case verbose:
		level = utils.LevelDebug
	}
	if outputPath != "" {
		if err := os.MkdirAll(outputPath, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		fileLog, err := utils.NewFileLogger(level, filepath.Join(outputPath, "tiersolve.log"))
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		log = fileLog
	} else {
		log = utils.NewDefaultLogger(level, os.Stdout)
	}

	shutdown, err := telemetry.Init(context.Background())
	if err != nil {
		log.Warn("telemetry initialization failed, continuing without tracing: %v", err)
		shutdown = func(context.Context) error { return nil }
	}
	shutdownTelemetry = shutdown

	registry = game.NewRegistry()
	games.RegisterAll(registry)

	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(tiersolveerrors.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./tiersolve.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataPath, "data-path", "", "override solve.data_path from config")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "directory for logs and query output (stdout/console if empty)")
	rootCmd.PersistentFlags().BoolVarP(&force, "force", "f", false, "re-solve tiers even if already solved")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all but error output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level output")
	rootCmd.PersistentFlags().BoolVarP(&showVer, "version", "V", false, "print version information and exit")

	rootCmd.PersistentFlags().BoolP("help", "?", false, "help for "+rootCmd.Use)
}

// GetLogger returns the process-wide logger set up by persistentPreRun.
func GetLogger() utils.Logger { return log }

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config { return cfg }

// GetRegistry returns the bundled-game registry.
func GetRegistry() *game.Registry { return registry }

func printVersion() {
	fmt.Printf("tiersolve version %s\n", Version)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Go Version: %s\n", runtime.Version())
	fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
