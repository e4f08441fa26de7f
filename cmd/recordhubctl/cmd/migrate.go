package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"recordhub/api/internal/store"
)

var migrateDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply every *.up.sql migration not yet recorded in schema_migrations.

Examples:
  recordhubctl migrate
  recordhubctl migrate --dir ./db/migrations`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.MigrationsDir
		if migrateDir != "" {
			dir = migrateDir
		}

		db, err := store.Open(cmd.Context(), cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		if err := store.ApplyMigrations(cmd.Context(), db, dir); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied from %s\n", dir)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDir, "dir", "", "migrations directory (default from config)")
}
