// Package cli implements the ragsync command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragsync/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Persistent flags shared by every command.
var (
	verbose     bool
	configDir   string
	watcherPath string
)

var rootCmd = &cobra.Command{
	Use:   "ragsync",
	Short: "Keep a retrieval index in sync with your documents",
	Long: `ragsync extracts, chunks and embeds documents from local folders and
Google Drive into a store used for retrieval-augmented generation.

Run a one-off batch with "ingest", keep a source current with "watch",
or expose the pipeline to AI assistants with "serve".`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default ~/.ragsync)")
	rootCmd.PersistentFlags().StringVar(&watcherPath, "watcher", "", "Watcher config and state file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}
