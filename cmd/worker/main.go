package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	config "github.com/vetcloud/vetcare-platform/configs"
	"github.com/vetcloud/vetcare-platform/internal/application/workers"
	"github.com/vetcloud/vetcare-platform/internal/core/ports"
	"github.com/vetcloud/vetcare-platform/internal/infrastructure/cache"
	"github.com/vetcloud/vetcare-platform/internal/infrastructure/health"
	"github.com/vetcloud/vetcare-platform/internal/infrastructure/queue"
	"github.com/vetcloud/vetcare-platform/internal/infrastructure/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Setup logger
	logger := logrus.New()
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}

	logger.Info("Starting cache invalidation worker...")

	// Initialize Redis client; an unreachable server is not fatal, the cache
	// layer starts on its fallback path and recovers when Redis comes up.
	redisClient := redis.NewClient(&cfg.Redis, logger)
	defer redisClient.Close()

	// Initialize the cache layer
	cacheService, err := cache.NewService(redisClient, &cfg.Cache, logger)
	if err != nil {
		logger.Fatal("Failed to initialize cache layer:", err)
	}
	defer cacheService.Close()

	// Report dependency health once at startup
	checkers := []ports.HealthChecker{
		health.NewRedisHealthChecker(redisClient),
		health.NewCacheHealthChecker(cacheService),
	}
	checkCtx, checkCancel := context.WithTimeout(context.Background(), 5*time.Second)
	for _, checker := range checkers {
		if err := checker.Check(checkCtx); err != nil {
			logger.WithFields(logrus.Fields{"dependency": checker.Name()}).WithError(err).Warn("dependency unhealthy at startup")
		}
	}
	checkCancel()

	// Initialize the SQS queue client
	if cfg.Queue.URL == "" {
		logger.Fatal("SQS_QUEUE_URL is required")
	}
	queueClient, err := queue.NewSQSClient(context.Background(), cfg.Queue.URL)
	if err != nil {
		logger.Fatal("Failed to initialize queue client:", err)
	}

	worker := workers.NewInvalidationWorker(queueClient, cacheService, workers.InvalidationWorkerConfig{
		MaxMessages:    cfg.Queue.MaxMessages,
		WaitSeconds:    cfg.Queue.WaitSeconds,
		IdempotencyTTL: cfg.Queue.IdempotencyTTL,
	}, logger)

	// Run the poll loop until an interrupt arrives
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down worker...")
		cancel()
		<-done
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal("Worker stopped unexpectedly:", err)
		}
	}

	logger.Info("Worker exited")
}
