package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/custodia-labs/asset-sync/internal/config"
)

const configFlagName = "config"

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "asset-sync",
		Short: "Asset integration synchronization engine",
		Long: `asset-sync pulls asset records from CMDBs, asset management systems and REST APIs,
accepts webhook pushes, and reconciles them into the asset inventory.

Running without a subcommand starts the API server and the scheduler together.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cfgFile == "" {
				return nil
			}
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), modeAll)
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, configFlagName, "c", "", "path to config file (env vars take precedence)")
	_ = viper.BindPFlag(configFlagName, root.PersistentFlags().Lookup(configFlagName))
	config.Setup(viper.GetViper())

	root.AddCommand(
		newServeCmd("api", "Run the HTTP API only", modeAPI),
		newServeCmd("worker", "Run the scheduler only", modeWorker),
		newSyncCmd(),
		newMigrateCmd(),
		newTokenCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads configuration and installs the configured logger as default
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
