package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yukikurage/task-manager-api/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}
		defer database.Close(db)

		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		logger.Info("Migrations applied", "driver", cfg.DBDriver)
		return nil
	},
}
