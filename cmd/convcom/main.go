package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/freema/convcom/api"
	"github.com/freema/convcom/internal/config"
	"github.com/freema/convcom/internal/logger"
	"github.com/freema/convcom/internal/message"
	"github.com/freema/convcom/internal/redisclient"
	"github.com/freema/convcom/internal/server"
	"github.com/freema/convcom/internal/store/redisstore"
	"github.com/freema/convcom/internal/store/sqlitestore"
	"github.com/freema/convcom/internal/tracing"
	"github.com/freema/convcom/internal/webhook"
	"github.com/freema/convcom/internal/worker"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println("convcom", version)
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CONVCOM_CONFIG"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, "service", "convcom", "version", version)
	slog.Info("starting convcom", "storage", cfg.Storage.Driver)

	shutdownTracing, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Endpoint:     cfg.Tracing.Endpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
		ServiceName:  "convcom",
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	var rdb *redisclient.Client
	if cfg.NeedsRedis() {
		rdb, err = redisclient.New(cfg.Redis.URL, cfg.Redis.Prefix)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		slog.Info("redis connected")
	}

	store, err := openStore(cfg, rdb)
	if err != nil {
		return err
	}
	defer store.Close()

	service := message.NewService(store)

	var webhookSender *webhook.Sender
	if cfg.Webhooks.HMACSecret != "" {
		webhookSender = webhook.NewSender(
			cfg.Webhooks.HMACSecret,
			cfg.Webhooks.RetryCount,
			cfg.Webhooks.RetryDelay,
		)
	}

	var pool *worker.Pool
	if cfg.Workers.Enabled {
		pool = worker.NewPool(rdb, service, webhookSender, cfg.Workers.QueueName, cfg.Workers.Concurrency, cfg.Server.MaxMessageSize)
	}

	deps := server.Deps{
		Store:   store,
		Redis:   rdb,
		Service: service,
		DocSpec: api.OpenAPISpec,
		Version: version,
	}
	if pool != nil {
		deps.Workers = pool
	}
	srv := server.New(cfg, deps)

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	if pool != nil {
		pool.Start(appCtx)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	appCancel()
	if pool != nil {
		pool.Stop()
	}

	slog.Info("shutdown complete")
	return nil
}

func openStore(cfg *config.Config, rdb *redisclient.Client) (message.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		store, err := sqlitestore.New(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		slog.Info("sqlite store opened", "path", store.Path())
		return store, nil
	default:
		return redisstore.New(rdb, time.Duration(cfg.Storage.RecordTTL)*time.Second), nil
	}
}
