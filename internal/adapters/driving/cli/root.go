// Package cli wires the cobra command tree for repocensus.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/repocensus/internal/adapters/driven/config/file"
	"github.com/custodia-labs/repocensus/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Persistent flags.
var (
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "repocensus",
	Short: "Enumerate all public GitHub repositories into a CSV file",
	Long: `repocensus walks the GitHub public repository feed (GET /repositories,
ascending by id) and appends one CSV row per repository to an output file.

Interrupted runs resume: on startup the last row of an existing output file
is read back and enumeration continues after its id. Rate-limited runs can
simply be re-run once the quota window resets, or told to wait it out with
--wait-for-reset.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(
		&flagVerbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(
		&flagConfig, "config", "", "Config file path (default ~/.repocensus/config.toml)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// configPath resolves the config file location from --config or the default.
func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return file.DefaultPath()
}

// loadConfig loads the config file. A missing file yields the zero config.
func loadConfig() (file.Config, error) {
	path, err := configPath()
	if err != nil {
		// No resolvable home directory: run on flags alone.
		return file.Config{}, nil
	}
	return file.Load(path)
}
