// Package main implements the commtrace CLI: local analysis of
// communication logs and the HTTP analysis server.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath is the optional YAML config file path
	configPath string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "commtrace",
	Short: "Response and pattern analysis for communication logs",
	Long: `commtrace analyzes time-ordered two-party communication logs:
response timing, reciprocity, conversation segmentation, anomalies,
and scored patterns.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.config/commtrace/config.yaml)")
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
}
