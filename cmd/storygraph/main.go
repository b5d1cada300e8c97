package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/storygraph/cmd/storygraph/commands"
	"github.com/teranos/storygraph/logger"
)

var rootCmd = &cobra.Command{
	Use:   "storygraph",
	Short: "Storygraph - product knowledge graph and story generation",
	Long: `Storygraph builds a shared knowledge graph of a product from free-text
unit descriptions and generates one structured story document per
description, refining both until they are mutually consistent.

Available commands:
  generate - Run the full pipeline over a set of descriptions
  am       - Manage storygraph configuration ("I am")
  usage    - Show AI model usage and cost statistics
  version  - Show version information

Examples:
  storygraph generate descriptions/          # One story per .txt file
  storygraph generate -o out/ units.txt      # Write artifacts to out/
  storygraph am show                         # Show current configuration
  storygraph usage --days 7                  # Cost breakdown for the week`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.InitializeWithLevel(jsonLogs, logger.VerbosityToLevel(verbosity)); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit structured JSON logs instead of console output")
	rootCmd.PersistentFlags().Bool("json", false, "Output results as JSON")

	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.UsageCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
