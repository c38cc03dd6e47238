package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unclebandit/prospecting-dashboard/internal/config"
	"github.com/unclebandit/prospecting-dashboard/internal/db"
	"github.com/unclebandit/prospecting-dashboard/internal/logging"
)

// commandContext opens the database once per invocation.
type commandContext struct {
	logLevel string

	logger  *zap.Logger
	conn    *sql.DB
	dialect db.Dialect
}

func (c *commandContext) open(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	logger, err := logging.New(c.logLevel, "console")
	if err != nil {
		return err
	}
	cfg, err := config.LoadDB()
	if err != nil {
		return err
	}
	conn, dialect, err := db.Open(ctx, *cfg, logger)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	c.logger, c.conn, c.dialect = logger, conn, dialect
	return nil
}

func (c *commandContext) close() {
	if c.conn != nil {
		c.conn.Close()
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	root := &cobra.Command{
		Use:           "seeder",
		Short:         "Operator tasks for the prospecting dashboard database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.open(cmd.Context())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			ctx.close()
		},
	}
	root.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		newMigrateCommand(ctx),
		newSeedCitiesCommand(ctx),
		newAddUserCommand(ctx),
		newUsersCommand(ctx),
		newCampaignsCommand(ctx),
	)
	return root
}
