package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dosada05/event-portal/config"
	"github.com/Dosada05/event-portal/db"
)

var migrateDownSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(logger *slog.Logger, conn *sql.DB) error {
			if err := db.Migrate(conn); err != nil {
				return err
			}
			logger.Info("migrations applied")
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateDownSteps <= 0 {
			return fmt.Errorf("--steps must be positive")
		}
		return withDatabase(func(logger *slog.Logger, conn *sql.DB) error {
			if err := db.MigrateDown(conn, migrateDownSteps); err != nil {
				return err
			}
			logger.Info("migrations rolled back", slog.Int("steps", migrateDownSteps))
			return nil
		})
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

func withDatabase(fn func(logger *slog.Logger, conn *sql.DB) error) error {
	logger := newLogger()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	conn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(logger, conn)
}
