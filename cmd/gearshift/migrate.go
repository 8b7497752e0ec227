package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/halverson/gearshift/internal/config"
	"github.com/halverson/gearshift/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Initialize or update the database schema to the latest version.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbPath := viper.GetString("database.path")
			if dbPath == "" {
				dbPath = config.DefaultDatabasePath
			}
			dbPath = config.ExpandPath(dbPath)

			slog.Info("Running database migrations", "database", dbPath)

			store, err := storage.NewSQLiteStorage(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			slog.Info("Database migrations completed", "version", storage.ExpectedSchemaVersion)
			return nil
		},
	}
}
