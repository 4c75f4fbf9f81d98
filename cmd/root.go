package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quizzly",
	Short: "Personality quiz generator",
	Long: "Quizzly turns a quiz name into a validated four-question personality quiz " +
		"using a language model, stores it, and scores answers.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: ./quizzly.yaml or $XDG_CONFIG_HOME/quizzly/quizzly.yaml)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides QUIZZLY_DB env var)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}
