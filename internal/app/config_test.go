package app

import (
	"testing"
	"time"

	"github.com/yungbote/learnsync/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "ACTIVITY_CACHE_TTL", "SYNC_MAX_MERGE_RETRIES", "SYNC_ENTRY_CONCURRENCY", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(logger.Nop())
	if cfg.Port != "8080" || cfg.DBDriver != "postgres" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ActivityCacheTTL != 10*time.Minute || cfg.SyncMaxMergeRetries != 5 || cfg.SyncEntryConcurrency != 4 {
		t.Fatalf("unexpected sync defaults: %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("expected no configured origins, got=%v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("ACTIVITY_CACHE_TTL", "30s")
	t.Setenv("SYNC_ENTRY_CONCURRENCY", "16")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := LoadConfig(logger.Nop())
	if cfg.DBDriver != "sqlite" || cfg.ActivityCacheTTL != 30*time.Second || cfg.SyncEntryConcurrency != 16 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins: %v", cfg.CORSAllowedOrigins)
	}
}
