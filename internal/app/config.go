package app

import (
	"strings"
	"time"

	"github.com/yungbote/learnsync/internal/platform/envutil"
	"github.com/yungbote/learnsync/internal/platform/logger"
)

type Config struct {
	Port    string
	LogMode string

	DBDriver string

	JWTSecretKey string

	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	ActivityCacheTTL time.Duration

	SyncMaxMergeRetries  int
	SyncEntryConcurrency int

	MetricsEnabled bool
	MetricsAddr    string
	OtelEnabled    bool

	CORSAllowedOrigins []string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:    envutil.String("PORT", "8080"),
		LogMode: envutil.String("LOG_MODE", "development"),

		DBDriver: strings.ToLower(envutil.String("DB_DRIVER", "postgres")),

		JWTSecretKey: envutil.String("JWT_SECRET_KEY", ""),

		RedisAddr:        envutil.String("REDIS_ADDR", ""),
		RedisPassword:    envutil.String("REDIS_PASSWORD", ""),
		RedisDB:          envutil.Int("REDIS_DB", 0),
		ActivityCacheTTL: envutil.Duration("ACTIVITY_CACHE_TTL", 10*time.Minute),

		SyncMaxMergeRetries:  envutil.Int("SYNC_MAX_MERGE_RETRIES", 5),
		SyncEntryConcurrency: envutil.Int("SYNC_ENTRY_CONCURRENCY", 4),

		MetricsEnabled: envutil.Bool("METRICS_ENABLED", false),
		MetricsAddr:    envutil.String("METRICS_ADDR", ":9090"),
		OtelEnabled:    envutil.Bool("OTEL_ENABLED", false),

		CORSAllowedOrigins: envutil.List("CORS_ALLOWED_ORIGINS", nil),
	}
	if cfg.JWTSecretKey == "" && log != nil {
		log.Warn("JWT_SECRET_KEY is not set; every authenticated request will be rejected")
	}
	return cfg
}
