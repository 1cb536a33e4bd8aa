package main

import (
	"context"
	"fmt"
	"time"

	"inventory-backend/internal/config"
	"inventory-backend/internal/infrastructure/database"
	"inventory-backend/pkg/logger"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded SQL migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				names, err := database.MigrationNames()
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			}
			return runMigrate(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "Only list migration files")
	return cmd
}

func runMigrate(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return withCode(exitUsage, err)
	}
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return withCode(exitUsage, err)
	}

	db := database.NewPostgresDB(dbConfig)
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.Connect(connectCtx); err != nil {
		return err
	}
	defer db.Close()

	return database.Migrate(ctx, db.Pool)
}
