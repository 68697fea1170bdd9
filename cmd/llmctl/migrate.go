package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"llm-service/internal/shared/config"
	"llm-service/internal/shared/storage/db"
)

func connectCLI(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	return db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultCLIOptions()))
}

func newMigrateCmd() *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sqlDB, err := connectCLI(ctx, config.Load())
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if !statusOnly {
				if err := db.RunMigrations(ctx, sqlDB); err != nil {
					return err
				}
			}
			version, err := db.MigrationVersion(ctx, sqlDB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "only print the applied schema version")
	return cmd
}
