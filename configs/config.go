package configs

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Queue    QueueConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	DSN      string
	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
}

// Addr returns the host:port address of the Redis server.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type CacheConfig struct {
	// OpTimeout bounds each individual call to the primary backend.
	OpTimeout time.Duration
	// ProbeInterval is how often the monitor pings the primary while disconnected.
	ProbeInterval time.Duration
	// FallbackMaxEntries caps the in-process fallback store. Oldest entries
	// are evicted once the cap is reached.
	FallbackMaxEntries int
	// Default TTLs used by the caching repositories.
	HospitalTTL time.Duration
	PetTTL      time.Duration
	ListTTL     time.Duration
	SearchTTL   time.Duration
}

type QueueConfig struct {
	URL string
	// Long-poll settings for the invalidation worker.
	MaxMessages    int32
	WaitSeconds    int32
	IdempotencyTTL time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "vetcare_db"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getDurationEnv("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		Cache: CacheConfig{
			OpTimeout:          getDurationEnv("CACHE_OP_TIMEOUT", 2*time.Second),
			ProbeInterval:      getDurationEnv("CACHE_PROBE_INTERVAL", 15*time.Second),
			FallbackMaxEntries: getIntEnv("CACHE_FALLBACK_MAX_ENTRIES", 10000),
			HospitalTTL:        getDurationEnv("CACHE_HOSPITAL_TTL", 10*time.Minute),
			PetTTL:             getDurationEnv("CACHE_PET_TTL", 5*time.Minute),
			ListTTL:            getDurationEnv("CACHE_LIST_TTL", 2*time.Minute),
			SearchTTL:          getDurationEnv("CACHE_SEARCH_TTL", time.Minute),
		},
		Queue: QueueConfig{
			URL:            getEnv("SQS_QUEUE_URL", ""),
			MaxMessages:    int32(getIntEnv("SQS_MAX_MESSAGES", 5)),
			WaitSeconds:    int32(getIntEnv("SQS_WAIT_SECONDS", 10)),
			IdempotencyTTL: getDurationEnv("SQS_IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Build database DSN
	cfg.Database.DSN = fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName,
		cfg.Database.SSLMode,
	)

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
