// Package cmd holds the recordhubctl operator commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"recordhub/api/internal/config"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "recordhubctl",
	Short: "Operator tooling for the recordhub API",
	Long: `recordhubctl runs maintenance tasks against the recordhub database
and stats cache using the same configuration as the API server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", os.Getenv("APP_CONFIG_FILE"), "TOML config file (env overrides it)")
	rootCmd.AddCommand(migrateCmd, tokenCmd, cacheCmd)
}
