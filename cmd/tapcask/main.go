package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tapcask-pos/tapcask/internal/app"
	"github.com/tapcask-pos/tapcask/internal/availability"
	"github.com/tapcask-pos/tapcask/internal/catalog"
	"github.com/tapcask-pos/tapcask/internal/forecast"
	"github.com/tapcask-pos/tapcask/internal/observability"
	"github.com/tapcask-pos/tapcask/internal/platform/cache"
	"github.com/tapcask-pos/tapcask/internal/platform/db"
	"github.com/tapcask-pos/tapcask/internal/shared"
	"github.com/tapcask-pos/tapcask/internal/snapshot"
	"github.com/tapcask-pos/tapcask/internal/stock"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
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
	if err := availabilityService.RebuildIndex(ctx); err != nil {
		logger.Error("build invalidation index", slog.Any("error", err))
		os.Exit(1)
	}

	idempotency := shared.NewIdempotencyStore(pool)
	stockRepo := stock.NewRepository(pool)
	stockService := stock.NewService(logger, stockRepo, idempotency, stock.NewRedisPublisher(redisClient), availabilityService)

	snapshotStore := snapshot.NewStore(redisClient, cfg.SnapshotTTL)

	forecastRepo := forecast.NewRepository(pool)
	forecastService := forecast.NewService(logger, forecastRepo, catalogRepo)

	listener := availability.NewListener(logger, redisClient, availabilityService)
	go func() {
		if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("stock event listener stopped", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		AvailabilityHandler: availability.NewHandler(logger, availabilityService),
		ForecastHandler:     forecast.NewHandler(logger, forecastService),
		StockHandler:        stock.NewHandler(logger, stockService),
		SnapshotHandler:     snapshot.NewHandler(logger, snapshotStore),
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
}
