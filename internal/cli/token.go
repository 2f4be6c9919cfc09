package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lorrc/helpdesk/internal/auth"
	"github.com/lorrc/helpdesk/internal/core/domain"
)

// newTokenCommand issues access tokens for an existing identity. Sign-in is
// handled outside this service; the command covers scripts and local testing.
func newTokenCommand() *cobra.Command {
	var userID, role string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("--user must be a UUID: %w", err)
			}
			r, err := domain.ParseRole(role)
			if err != nil {
				return fmt.Errorf("--role must be one of employee, specialist, admin")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			token, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL).GenerateToken(id, r)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID the token identifies")
	cmd.Flags().StringVar(&role, "role", "", "Role carried by the token")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
