package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/asset-sync/internal/adapters/driven/auth"
	"github.com/custodia-labs/asset-sync/internal/adapters/driven/postgres"
	"github.com/custodia-labs/asset-sync/internal/core/domain"
	"github.com/custodia-labs/asset-sync/internal/core/services"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "sync <integration-id>",
		Short:   "Run one pull sync and print its log",
		Long:    `Run a single pull sync for an ACTIVE integration, exactly as a manual trigger would, and print the resulting sync log as JSON.`,
		Example: `asset-sync sync 3f1c2a9e-8d4b-4c1e-9a7f-0b6e2d5c4a11`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			log, syncErr := a.syncService.Sync(ctx, args[0], domain.SyncSourceManual)
			if log != nil {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(log); err != nil {
					return err
				}
			}
			return syncErr
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			db, err := postgres.Connect(ctx, postgres.Config{
				URL:            cfg.Database.URL,
				MaxOpenConns:   1,
				MaxIdleConns:   1,
				ConnectTimeout: cfg.Database.ConnectTimeout,
				Logger:         logger,
			})
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if err := db.InitSchema(ctx); err != nil {
				return fmt.Errorf("failed to initialize schema: %w", err)
			}
			logger.Info("schema is up to date")
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:     "token",
		Short:   "Issue an operator bearer token",
		Long:    `Sign a JWT for an operator identity with the configured JWT_SECRET. Admin tokens can manage integrations and trigger syncs; member tokens are read-only.`,
		Example: `asset-sync token --user ops-1 --email ops@example.com --role admin --ttl 24h`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			authService := services.NewAuthService(auth.NewAdapter(cfg.JWTSecret))
			token, err := authService.IssueToken(cmd.Context(), userID, email, domain.Role(role), ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "operator user id (required)")
	cmd.Flags().StringVar(&email, "email", "", "operator email")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleMember), "admin or member")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "asset-sync version %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built at: %s\n", date)
		},
	}
}
