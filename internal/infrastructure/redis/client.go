package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	config "github.com/vetcloud/vetcare-platform/configs"
)

// NewClient creates a new Redis client. Construction never fails because the
// server is down: an unreachable backend is logged and the caller starts on
// its fallback path until the connection comes up. Command retries are
// disabled so callers get at most one attempt per call.
func NewClient(cfg *config.RedisConfig, logger *logrus.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		MaxRetries:   -1,
		OnConnect: func(ctx context.Context, _ *redis.Conn) error {
			logger.WithFields(logrus.Fields{"addr": cfg.Addr()}).Debug("redis connection established")
			return nil
		},
	})

	// Test the connection; a failure is not fatal.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithFields(logrus.Fields{"addr": cfg.Addr()}).WithError(err).Warn("redis unreachable, continuing without a live connection")
	}

	return client
}
