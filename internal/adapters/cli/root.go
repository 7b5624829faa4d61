// Package cli implements the assetctl command line: one-shot asset
// loads, cache eviction, shader cache management, and the long-running
// serve mode that holds the pipeline open behind a PID file.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "assetctl",
		Short: "assetctl - drive the asset pipeline from the command line",
		Long: `assetctl loads assets through the asynchronous asset pipeline and
manages its on-disk shader bytecode cache.

Examples:
  assetctl load textures/grass
  assetctl gc
  assetctl cache warm shaders/pbr_forward
  assetctl cache info
  assetctl serve`,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to config file (default: search ., ./configs, /etc/assetpipe)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")

	rootCmd.AddCommand(NewLoadCommand())
	rootCmd.AddCommand(NewGCCommand())
	rootCmd.AddCommand(NewCacheCommand())
	rootCmd.AddCommand(NewServeCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
