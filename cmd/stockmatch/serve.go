package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/efreitasn/stockmatch/internal/config"
	"github.com/efreitasn/stockmatch/internal/engine"
	"github.com/efreitasn/stockmatch/internal/handler"
	"github.com/efreitasn/stockmatch/internal/service"
	"github.com/efreitasn/stockmatch/internal/store"
	"github.com/efreitasn/stockmatch/internal/store/memory"
	"github.com/efreitasn/stockmatch/internal/store/postgres"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func openLedger(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Ledger, error) {
	if cfg.Store == config.StoreMemory {
		return memory.New(), nil
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	applied, err := postgres.MigrateUp(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	for _, name := range applied {
		logger.Info("migration applied", slog.String("migration", name))
	}
	return postgres.New(pool), nil
}

func runServe(parent context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ledger, err := openLedger(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store, err)
	}
	defer ledger.Close()

	metrics := engine.NewMetrics("stockmatch")
	eng := engine.New(ledger, metrics, logger, cfg.LockTimeout)

	accountSvc := service.NewAccountService(ledger, ledger, cfg.DefaultCash)
	instrumentSvc := service.NewInstrumentService(ledger)
	orderSvc := service.NewOrderService(eng)
	refresher := service.NewReferencePriceRefresher(
		cfg.ReferencePriceInterval,
		cfg.ReferencePriceWindow,
		ledger,
		ledger,
		logger,
	)

	router := handler.NewRouter(accountSvc, orderSvc, instrumentSvc, ledger, metrics.Handler(), logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	refresher.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", slog.String("addr", addr), slog.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("server stopped")
	return nil
}
