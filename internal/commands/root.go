package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wealthtrack-dev/wealthtrack/internal/buildinfo"
	"github.com/wealthtrack-dev/wealthtrack/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var dataDir string

	rootCmd := &cobra.Command{
		Use:     "wealthtrack",
		Short:   "Broker CSV ingestion and portfolio tracking",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&dataDir, "dir", "C", ".", "data directory")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newImportCommand(&dataDir))
	rootCmd.AddCommand(newHoldingsCommand(&dataDir))
	rootCmd.AddCommand(newExportCommand(&dataDir))
	rootCmd.AddCommand(newLogCommand(&dataDir))

	return rootCmd
}

// loadConfig resolves the data directory and reads its wealthtrack.yaml.
func loadConfig(dataDir string) (string, *config.Config, error) {
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return "", nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(filepath.Join(absDir, "wealthtrack.yaml"))
	if err != nil {
		return "", nil, fmt.Errorf("loading config (run 'wealthtrack init' first?): %w", err)
	}
	return absDir, cfg, nil
}
