// Command rigforge runs the RigForge shop server and its maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HerbHall/rigforge/internal/config"
	"github.com/HerbHall/rigforge/internal/version"
)

var (
	// Global flags
	configPath string
	verbose    bool

	logger *zap.Logger
	cfg    *config.ViperConfig
)

// rootCmd serves the shop when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "rigforge",
	Short: "RigForge PC parts shop and build configurator",
	Long: `RigForge serves the product catalog, the build configurator and the
staff back office from a single binary backed by SQLite.

Running rigforge without a subcommand is the same as 'rigforge serve'.`,
	Version:           version.Short(),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: ./rigforge.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		serveCmd,
		seedCmd,
		userCmd,
		backupCmd,
		restoreCmd,
		versionCmd,
	)
}

// setup builds the logger and loads configuration for every command.
func setup(*cobra.Command, []string) error {
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
