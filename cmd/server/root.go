package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/yukikurage/task-manager-api/internal/config"
	"github.com/yukikurage/task-manager-api/internal/logging"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "task-manager-api",
	Short: "REST API for personal task management",
	Long: `task-manager-api serves the task REST API. Callers authenticate with a
Firebase ID token, or with the session token returned by login.

With no subcommand, runs the HTTP server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Optional YAML config file; environment variables take precedence")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig reads configuration and installs the process logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.IsProduction())
	slog.SetDefault(logger)
	return cfg, logger, nil
}
