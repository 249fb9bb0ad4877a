package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tapcask-pos/tapcask/internal/app"
	"github.com/tapcask-pos/tapcask/internal/availability"
	"github.com/tapcask-pos/tapcask/internal/catalog"
	jobmetrics "github.com/tapcask-pos/tapcask/internal/jobs"
	"github.com/tapcask-pos/tapcask/internal/observability"
	"github.com/tapcask-pos/tapcask/internal/platform/cache"
	"github.com/tapcask-pos/tapcask/internal/platform/db"
	"github.com/tapcask-pos/tapcask/internal/snapshot"
	"github.com/tapcask-pos/tapcask/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	catalogRepo := catalog.NewRepository(pool)
	resultCache := availability.NewResultCache(cfg.AvailabilityCacheTTL, metrics)
	availabilityService := availability.NewService(logger, catalogRepo, resultCache, metrics, availability.ServiceConfig{
		RestockPacksTarget: cfg.RestockPacksTarget,
		SweepConcurrency:   cfg.SweepConcurrency,
	})

	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())
	snapshotBuilder := snapshot.NewBuilder(catalogRepo)
	snapshotStore := snapshot.NewStore(redisClient, cfg.SnapshotTTL)
	snapshotJob := jobs.NewSnapshotRefreshJob(snapshotBuilder, snapshotStore, logger, jobMetrics)
	sweepJob := jobs.NewCacheSweepJob(availabilityService, logger, jobMetrics)

	now := time.Now().UTC()
	snapshotTask, err := jobs.NewSnapshotRefreshTask(now)
	if err != nil {
		logger.Error("build snapshot task", slog.Any("error", err))
		os.Exit(1)
	}
	sweepTask, err := jobs.NewCacheSweepTask(now)
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSnapshotRefresh, Handler: snapshotJob.Handle},
			{Type: jobs.TaskCacheSweep, Handler: sweepJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SnapshotRefreshSpec, Task: snapshotTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.CacheSweepSpec, Task: sweepTask},
		},
	})
	if err != nil {
		logger.Error("build worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker starting")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
