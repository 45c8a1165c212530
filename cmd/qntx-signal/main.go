package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/qntx-signal/am"
	"github.com/teranos/qntx-signal/cmd/qntx-signal/commands"
	"github.com/teranos/qntx-signal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "qntx-signal",
	Short: "qntx-signal - Traffic-signal controller log ingestion",
	Long: `qntx-signal - Batch ingestion of traffic-signal controller logs.

Raw controller logs are laid out as input/{year}/{month}/{day}/{intersection}/.
Every file is decoded by an external tool and each intersection-day is
flushed to bit_mask.csv and raw_data.csv. Days run in parallel.

Available commands:
  run     (⨳) - Ingest one month
  am      (≡) - Manage qntx-signal configuration ("I am")
  db      (⊔) - Manage the ingest database
  version     - Show version information

Examples:
  qntx-signal run --year 2022 --month 11        # Ingest November 2022
  qntx-signal run --year 2022 --month 11 -w 8   # ... on eight workers
  qntx-signal run --dry-run                     # Show what would run
  qntx-signal am show                           # Show current configuration
  qntx-signal db stats                          # Show recent runs`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		if cfg, err := am.Load(); err == nil {
			jsonOutput = jsonOutput || cfg.Log.JSON
			if cfg.Log.Theme != "" {
				logger.SetTheme(cfg.Log.Theme)
			}
		}

		if err := logger.Initialize(jsonOutput, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json", false, "Output results and logs as JSON")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
	commands.AddGlyphAliases(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, commands.FormatError(err))
		os.Exit(commands.ExitCode(err))
	}
}
