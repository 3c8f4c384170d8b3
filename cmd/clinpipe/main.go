package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clinpipe/clinpipe/cmd/clinpipe/commands"
	"github.com/clinpipe/clinpipe/conf"
	"github.com/clinpipe/clinpipe/logger"
)

var rootCmd = &cobra.Command{
	Use:   "clinpipe",
	Short: "clinpipe - Clinical annotation pipeline engine",
	Long: `clinpipe - Reproducible annotation pipelines over clinical documents.

clinpipe composes annotation operations into validated pipelines, executes
them over documents, and records full provenance for every derived
annotation.

Available commands:
  conf     - Manage clinpipe configuration
  pipeline - Validate pipeline manifests
  prov     - Inspect and export provenance graphs
  version  - Show version information

Examples:
  clinpipe conf show                  # Show current configuration
  clinpipe pipeline validate p.yaml   # Check a manifest's wiring
  clinpipe prov export --db prov.db   # Export provenance as DOT`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := conf.Load()
		jsonOutput := false
		if err == nil {
			jsonOutput = cfg.Log.JSON
		}
		if err := logger.Initialize(jsonOutput); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(commands.ConfCmd)
	rootCmd.AddCommand(commands.PipelineCmd)
	rootCmd.AddCommand(commands.ProvCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
