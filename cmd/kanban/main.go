// Package main is the entry point for the kanban board server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kandev/kanban/internal/common/config"
	"github.com/kandev/kanban/internal/common/logger"
)

var (
	configPath string

	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:           "kanban",
	Short:         "Kanban board server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithPath(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		log, err = logger.NewLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger.SetDefault(log)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Directory searched first for config.yaml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
