package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"domainscan/internal/api"
	"domainscan/internal/api/handler/v1handler"
	"domainscan/internal/config"
	"domainscan/internal/scanner"
	"domainscan/internal/worker"
	"domainscan/pkg/logger"
	"domainscan/pkg/metrics"
	"domainscan/pkg/storage/postgres"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func setupServer(ctx context.Context, cfg *config.Config, strg *postgres.PgSQL) func(ctx context.Context) {
	server, err := api.NewServer(api.Deps{
		Deps: v1handler.Deps{
			Runs:        strg,
			Jobs:        strg,
			MaxAttempts: cfg.Worker.MaxAttempts,
		},
		Ping: strg.Ping,
	}, api.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not create webserver", zap.Error(err))
	}

	go func() {
		logger.Info(ctx, "starting webserver...", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "could not start webserver", zap.Error(err))
			}
		}
	}()

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping webserver...")
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "could not stop webserver", zap.Error(err))
		}
	}
}

func setupWorker(ctx context.Context, cfg *config.Config, strg *postgres.PgSQL) func(ctx context.Context) {
	mp, err := metrics.NewPrometheusProvider(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal(ctx, "could not create meter provider", zap.Error(err))
	}

	s, list, err := newScanner(ctx, cfg, mp, scanner.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not create scanner", zap.Error(err))
	}

	// the client is stopped gracefully on shutdown rather than by ctx
	riverClient, err := worker.Start(context.WithoutCancel(ctx),
		strg.Pool,
		worker.NewScanWorker(s, list, strg, cfg.Worker.JobTimeout),
		worker.NewOptions(cfg))
	if err != nil {
		logger.Fatal(ctx, "could not start background worker", zap.Error(err))
	}

	return func(ctx context.Context) {
		logger.Info(ctx, "stopping background worker...")
		if err := riverClient.Stop(ctx); err != nil {
			logger.Error(ctx, "could not stop background worker", zap.Error(err))
		}
		if err := mp.Shutdown(ctx); err != nil {
			logger.Warn(ctx, "could not shutdown meter provider", zap.Error(err))
		}
	}
}

// serveCommand constructs the 'serve' subcommand that runs the API server and
// the background scan worker until interrupted.
func serveCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts API server and background workers",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			strg, closeStrg := getPostgres(ctx, cfg)
			defer closeStrg()

			stopWorker := setupWorker(ctx, cfg, strg)
			stopWebserver := setupServer(ctx, cfg, strg)

			// wait for interrupt
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GracefulShutdownTimeout)
			defer cancel()

			stopWebserver(shutdownCtx)
			stopWorker(shutdownCtx)
		},
	}

	return cmd
}
