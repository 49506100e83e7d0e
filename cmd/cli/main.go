package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var opts globalOptions

	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Ingest bank statements and inspect credit decisions",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("STATEMENT_SCORING_CONFIG"), "path to YAML config")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides config)")

	rootCmd.AddCommand(
		newUploadCommand(&opts),
		newIngestCommand(&opts),
		newAggregateCommand(&opts),
		newScoreCommand(&opts),
		newMonthlyCommand(&opts),
		newRecurringCommand(&opts),
		newLoansCommand(&opts),
		newDeleteCommand(&opts),
	)
	return rootCmd
}
