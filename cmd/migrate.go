package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizzly/internal/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply Postgres schema migrations",
	Long: "Migrate creates or upgrades the quiz_records table in the Postgres database " +
		"named by store.postgres_dsn (or DATABASE_URL). The SQLite store migrates itself.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Store.PostgresDSN == "" {
			return errors.New("store.postgres_dsn is not set")
		}

		applied, err := postgres.Migrate(cmd.Context(), cfg.Store.PostgresDSN)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if len(applied) == 0 {
			fmt.Fprintln(w, "Schema is up to date.")
			return nil
		}
		fmt.Fprintf(w, "Applied %d migration(s): %s\n", len(applied), strings.Join(applied, ", "))
		return nil
	},
}
