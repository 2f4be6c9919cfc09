package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lorrc/helpdesk/internal/adapters/secondary/postgres"
	"github.com/lorrc/helpdesk/internal/core/domain"
)

func newUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage directory users",
	}

	var name, email, role string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Add a user to the directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := domain.ParseRole(role)
			if err != nil {
				return fmt.Errorf("--role must be one of employee, specialist, admin")
			}
			user, err := domain.NewUser(domain.UserParams{Name: name, Email: email, Role: r})
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := openPool(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			created, err := postgres.NewUserRepository(pool).Create(cmd.Context(), user)
			if err != nil {
				return err
			}
			return renderUsers(cmd.OutOrStdout(), []*domain.User{created})
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "Display name")
	createCmd.Flags().StringVar(&email, "email", "", "Email address")
	createCmd.Flags().StringVar(&role, "role", string(domain.RoleEmployee), "employee, specialist or admin")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("email")

	var listRole string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List directory users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter *domain.Role
			if listRole != "" {
				r, err := domain.ParseRole(listRole)
				if err != nil {
					return fmt.Errorf("--role must be one of employee, specialist, admin")
				}
				filter = &r
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := openPool(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			users, err := postgres.NewUserRepository(pool).List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return renderUsers(cmd.OutOrStdout(), users)
		},
	}
	listCmd.Flags().StringVar(&listRole, "role", "", "Only list users with this role")

	userCmd.AddCommand(createCmd, listCmd)
	return userCmd
}
