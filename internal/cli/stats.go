package cli

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lorrc/helpdesk/internal/adapters/secondary/postgres"
	"github.com/lorrc/helpdesk/internal/core/domain"
	"github.com/lorrc/helpdesk/internal/core/services"
)

// operator reads with admin visibility. It never mutates.
var operator = domain.Actor{ID: uuid.Nil, Role: domain.RoleAdmin}

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show query counts and workloads across the help desk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := openPool(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			dashboards := services.NewDashboardService(
				postgres.NewQueryRepository(pool),
				postgres.NewUserRepository(pool),
				postgres.NewTransactionManager(pool),
				nil,
				nil,
			)
			dashboard, err := dashboards.Dashboard(cmd.Context(), operator)
			if err != nil {
				return err
			}
			return renderDashboard(cmd.OutOrStdout(), dashboard)
		},
	}
}
