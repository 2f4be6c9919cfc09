// Package cli implements helpdeskctl, the operator command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/lorrc/helpdesk/internal/config"
)

// Execute is the main entry point called from main.go.
func Execute(version string) {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCommand builds the helpdeskctl command tree. Configuration is read
// from the same environment as the API server.
func NewRootCommand(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "helpdeskctl",
		Short: "Operate a help-desk deployment",
		Long: `helpdeskctl manages the help-desk database and directory.
It reads DATABASE_URL, JWT_SECRET and the other server settings from the
environment or a .env file.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	root.AddCommand(
		newMigrateCommand(),
		newTokenCommand(),
		newStatsCommand(),
		newUserCommand(),
	)
	return root
}

// loadConfig loads the shared server configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// openPool connects to the configured postgres store. Commands that read or
// write persistent data refuse the in-memory driver.
func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.Store.Driver != config.StoreDriverPostgres {
		return nil, fmt.Errorf("this command needs STORE_DRIVER=postgres, got %q", cfg.Store.Driver)
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
