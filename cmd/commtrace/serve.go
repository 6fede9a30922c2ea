package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/commtrace/internal/analyzer"
	"github.com/fyrsmithlabs/commtrace/internal/config"
	"github.com/fyrsmithlabs/commtrace/internal/http"
	"github.com/fyrsmithlabs/commtrace/internal/logging"
	"github.com/fyrsmithlabs/commtrace/internal/orchestrator"
	"github.com/fyrsmithlabs/commtrace/internal/telemetry"
	"github.com/fyrsmithlabs/commtrace/pkg/cache"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the commtrace HTTP server",
	Long: `Run the commtrace HTTP analysis server.

Endpoints:
  POST /api/v1/analyze  run the detection pipeline over posted records
  GET  /health          health check
  GET  /metrics         Prometheus metrics`,
	RunE: runServe,
}

// runServe handles the serve command
func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Observability.EnableTelemetry,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Observability.OTLPEndpoint,
		Insecure:       true,
	})
	if err != nil {
		logger.Warn(ctx, "telemetry disabled", zap.Error(err))
	} else {
		defer tel.Shutdown(context.Background()) //nolint:errcheck
	}

	store := newCache(cfg)
	if c, ok := store.(*cache.Cache); ok {
		c.SetMetrics(cache.NewMetrics())
	}

	engine := analyzer.New(analyzerConfig(cfg), logger,
		analyzer.WithCache(store),
		analyzer.WithMetrics(analyzer.NewMetrics()),
	)
	runner := orchestrator.New(engine, logger)

	server, err := http.NewServer(runner, logger, &http.Config{
		Host:      "0.0.0.0",
		Port:      cfg.Server.Port,
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.RateBurst,
		MaxBodyMB: cfg.Server.MaxBodyMB,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info(ctx, "shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
