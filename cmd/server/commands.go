package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/hivefund/ledger/internal/auth"
	"github.com/hivefund/ledger/internal/models"
	"github.com/hivefund/ledger/internal/scheduler"
	"github.com/hivefund/ledger/internal/storage/sqlite"
)

func newSweepCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire every match pool past its deadline, once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			sweeper, err := scheduler.NewSweeper(a.engine, cfg.Scheduler.ExpiryInterval)
			if err != nil {
				return err
			}
			n, err := sweeper.RunOnce(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d match pool(s)\n", n)
			return err
		},
	}
}

func newMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			store, err := sqlite.New(cfg.Database.Path, sqlite.WithBusyTimeout(cfg.Database.BusyTimeout))
			if err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			slog.Info("Schema up to date", "database", cfg.Database.Path)
			return store.Close()
		},
	}
}

// newTokenCmd mints a donor token signed with the configured secret, for
// development against a server with auth enabled.
func newTokenCmd(load configLoader) *cobra.Command {
	var (
		donorID string
		name    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a donor bearer token for development",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("auth.jwt_secret is not configured")
			}

			token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, ttl).Generate(&models.Donor{ID: donorID, DisplayName: name})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&donorID, "donor", "", "donor id (token subject)")
	cmd.Flags().StringVar(&name, "name", "", "donor display name")
	cmd.Flags().DurationVar(&ttl, "ttl", tokenDuration, "token lifetime")
	cmd.MarkFlagRequired("donor")
	return cmd
}
