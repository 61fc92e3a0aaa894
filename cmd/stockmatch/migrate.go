package main

import (
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/efreitasn/stockmatch/internal/store/postgres"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			pool, err := openPool(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := postgres.MigrateUp(cmd.Context(), pool)
			if err != nil {
				return err
			}
			logger.Info("migrations applied", slog.String("migrations", strings.Join(applied, ",")), slog.Int("count", len(applied)))
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			pool, err := openPool(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			reverted, err := postgres.MigrateDown(cmd.Context(), pool, steps)
			if err != nil {
				return err
			}
			logger.Info("migrations reverted", slog.String("migrations", strings.Join(reverted, ",")), slog.Int("count", len(reverted)))
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}
