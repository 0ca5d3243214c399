package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/velomart-erp/velomart-erp/internal/app"
	"github.com/velomart-erp/velomart-erp/internal/catalog"
	jobmetrics "github.com/velomart-erp/velomart-erp/internal/jobs"
	"github.com/velomart-erp/velomart-erp/internal/platform/storage"
	"github.com/velomart-erp/velomart-erp/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	aggregateCache := catalog.NewAggregateCache(redisClient, logger, cfg.AggregateCacheTTL)

	var images jobs.ImageDeleter
	if cfg.ImageStorageDir != "" {
		store, err := storage.NewLocalStore(cfg.ImageStorageDir)
		if err != nil {
			logger.Error("init image storage", slog.Any("error", err))
			os.Exit(1)
		}
		images = store
	}

	orphanTask, err := jobs.NewOrphanScanTask(time.Now().UTC())
	if err != nil {
		logger.Error("build orphan scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: &jobs.Handlers{
			Logger:  logger,
			Images:  images,
			Cache:   aggregateCache,
			Pool:    pool,
			Metrics: jobmetrics.NewMetrics(nil),
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.OrphanScanCron, Task: orphanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
