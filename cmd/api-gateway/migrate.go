package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/jiu-academy-api/internal/migrations"
	"github.com/noah-isme/jiu-academy-api/pkg/config"
	"github.com/noah-isme/jiu-academy-api/pkg/database"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(migrationStep("up", "Apply all pending migrations", migrations.Up))
	cmd.AddCommand(migrationStep("down", "Roll back the latest migration", migrations.Down))
	cmd.AddCommand(migrationStep("status", "Print the migration status", migrations.Status))
	return cmd
}

func migrationStep(use, short string, run func(ctx context.Context, db *sql.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			db, err := database.NewPostgres(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			return run(ctx, db.DB)
		},
	}
}
