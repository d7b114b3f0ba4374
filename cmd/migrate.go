package main

import (
	"subhunt/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCommand constructs the 'migrate' subcommand that applies database
// migrations to the latest version using goose.
func (a *app) migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrates the inventory database to the latest version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			strg, closeStrg, err := newPostgres(ctx, a.cfg)
			if err != nil {
				return a.fail(ctx, "could not connect to the inventory database", err)
			}
			defer closeStrg()

			applied, err := strg.Migrate(ctx)
			if err != nil {
				return a.fail(ctx, "could not migrate pgsql", err)
			}
			logger.Info(ctx, "database is up to date", zap.Int("applied", applied))

			return nil
		},
	}

	return cmd
}
