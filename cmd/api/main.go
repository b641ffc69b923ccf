package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/arihant-coaching/coaching_api/internal/config"
	"github.com/arihant-coaching/coaching_api/internal/infra"
	"github.com/arihant-coaching/coaching_api/internal/logging"
	"github.com/arihant-coaching/coaching_api/internal/notification"
	"github.com/arihant-coaching/coaching_api/internal/obs"
	"github.com/arihant-coaching/coaching_api/internal/receipt"
	"github.com/arihant-coaching/coaching_api/internal/routes"
	"github.com/arihant-coaching/coaching_api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	var sink io.Writer = os.Stdout
	if cfg.LogFile != "" {
		file, err := logging.RotatingFile(cfg.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()
		sink = io.MultiWriter(os.Stdout, file)
	}
	logger := logging.NewTo(sink, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx := context.Background()

	shutdownTracer, err := obs.InitTracer(ctx, cfg.AppName, cfg.AppEnv, cfg.OTelEndpoint)
	if err != nil {
		logger.Error("init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("flush traces", "error", err)
		}
	}()

	db, err := connectPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		if cfg.AutoMigrate {
			if err := infra.Migrate(ctx, db); err != nil {
				logger.Error("apply migrations", "error", err)
				os.Exit(1)
			}
		}
	}

	cache, err := connectRedis(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if cache != nil {
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	}

	deps := routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger}

	if cfg.AMQPURL != "" {
		publisher, err := notification.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Error("connect rabbitmq", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("close rabbitmq", "error", err)
			}
		}()
		deps.Notifier = publisher
	}

	if cfg.S3Bucket != "" {
		client, err := infra.NewS3Client(ctx, infra.S3Options{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			logger.Error("configure s3", "error", err)
			os.Exit(1)
		}
		deps.ReceiptStore = receipt.NewS3Store(client, cfg.S3Bucket, "receipts")
	}

	srv, err := server.New(deps)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}

// connectPostgres returns nil without error in development when no URL is set,
// which makes the server fall back to in-memory repositories.
func connectPostgres(ctx context.Context, cfg config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" && cfg.IsDev() {
		logger.Warn("DATABASE_URL not set, using in-memory repositories")
		return nil, nil
	}
	return infra.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
}

func connectRedis(ctx context.Context, cfg config.Config, logger *slog.Logger) (*redis.Client, error) {
	if cfg.RedisURL == "" && cfg.IsDev() {
		logger.Warn("REDIS_URL not set, using in-memory otp store without idempotency")
		return nil, nil
	}
	return infra.NewRedisClient(ctx, cfg.RedisURL)
}
