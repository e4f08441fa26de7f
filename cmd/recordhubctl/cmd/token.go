package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"recordhub/api/internal/auth"
)

var (
	tokenUser string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for local testing",
	Long: `Sign a bearer token for a user with the configured secret. Production
tokens come from the session service; this is for local development.

Examples:
  recordhubctl token --user 6f1c...
  recordhubctl token --user 6f1c... --ttl 15m`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenUser == "" {
			return errors.New("--user is required")
		}
		if tokenTTL <= 0 {
			return errors.New("--ttl must be positive")
		}
		token, err := auth.IssueToken([]byte(cfg.JWTSecret), auth.Claims{
			Sub: tokenUser,
			JTI: uuid.NewString(),
			Exp: time.Now().Add(tokenTTL).Unix(),
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id to put in the subject claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
}
