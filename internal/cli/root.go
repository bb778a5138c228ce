// Package cli holds the mafiamadness command tree.
package cli

import (
	"io"
	"os"

	"mafiamadness/internal/config"
	"mafiamadness/internal/logging"

	"github.com/spf13/cobra"
)

// runtime is shared by the subcommands once the root command has loaded configuration.
type runtime struct {
	configPath string
	cfg        *config.Config
	logWriter  io.Writer
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rt := &runtime{}

	rootCmd := &cobra.Command{
		Use:   "mafiamadness",
		Short: "Mafia Madness game backend",
		Long: `mafiamadness serves the Mafia Madness REST API for users and games.

Settings come from config.yaml (or --config) and environment variables such as
APP_PORT, DB_DRIVER, DATABASE_DSN and JWT_SECRET.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rt.configPath)
			if err != nil {
				return err
			}
			rt.cfg = cfg
			rt.logWriter = logging.Setup(logging.Options{
				Level:      cfg.LogLevel,
				Format:     cfg.LogFormat,
				File:       cfg.LogFile,
				MaxSizeMB:  100,
				MaxBackups: 7,
				MaxAgeDays: 30,
			})
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&rt.configPath, "config", "", "Path to a config file (default: ./config.yaml if present)")

	rootCmd.AddCommand(newServeCmd(rt))
	rootCmd.AddCommand(newReconcileCmd(rt))
	rootCmd.AddCommand(newMigrateCmd(rt))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
