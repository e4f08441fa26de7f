package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"recordhub/api/internal/statscache"
)

var cacheTeam string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the stats cache",
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop cached stats for a team",
	Long: `Drop every cached stats entry for a team, for example after a bulk
load that bypassed the API.

Examples:
  recordhubctl cache invalidate --team 2b7e...`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cacheTeam == "" {
			return errors.New("--team is required")
		}
		if cfg.RedisURL == "" {
			return errors.New("REDIS_URL is not configured")
		}
		cache, err := statscache.NewRedisCache(cfg.RedisURL, cfg.StatsCacheTTL)
		if err != nil {
			return err
		}
		defer cache.Close()

		if err := cache.InvalidateTeam(cmd.Context(), cacheTeam); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stats cache cleared for team %s\n", cacheTeam)
		return nil
	},
}

func init() {
	cacheInvalidateCmd.Flags().StringVar(&cacheTeam, "team", "", "team id")
	cacheCmd.AddCommand(cacheInvalidateCmd)
}
