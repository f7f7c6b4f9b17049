package health

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/vetcloud/vetcare-platform/internal/core/ports"
	infraDB "github.com/vetcloud/vetcare-platform/internal/infrastructure/db"
)

// dbHealthChecker wraps the database for health checks.
type dbHealthChecker struct{ db *infraDB.Database }

func (d *dbHealthChecker) Name() string                    { return "database" }
func (d *dbHealthChecker) Check(ctx context.Context) error { return d.db.DB.PingContext(ctx) }

// redisHealthChecker wraps the redis client for health checks.
type redisHealthChecker struct{ client *redis.Client }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// cacheHealthChecker reports degraded mode when the cache layer is serving
// from its in-process fallback. The probe itself never fails hard.
type cacheHealthChecker struct{ cache ports.Cache }

func (c *cacheHealthChecker) Name() string { return "cache" }
func (c *cacheHealthChecker) Check(ctx context.Context) error {
	if !c.cache.Connected() {
		return fmt.Errorf("primary cache backend disconnected, serving from fallback")
	}
	return nil
}

// NewDBHealthChecker creates a health checker for the database.
func NewDBHealthChecker(db *infraDB.Database) ports.HealthChecker { return &dbHealthChecker{db: db} }

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client *redis.Client) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}

// NewCacheHealthChecker creates a health checker for the cache layer.
func NewCacheHealthChecker(cache ports.Cache) ports.HealthChecker {
	return &cacheHealthChecker{cache: cache}
}
