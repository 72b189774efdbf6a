package observability

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/learnsync/internal/platform/envutil"
	"github.com/yungbote/learnsync/internal/platform/logger"
)

const defaultScrapeInterval = 10 * time.Second

// every calls sample on METRICS_SCRAPE_INTERVAL until ctx is done.
func every(ctx context.Context, sample func(context.Context)) {
	interval := envutil.Duration("METRICS_SCRAPE_INTERVAL", defaultScrapeInterval)
	if interval <= 0 {
		interval = defaultScrapeInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sample(ctx)
			}
		}
	}()
}

// StartDBCollector exports database/sql pool stats.
func (m *Metrics) StartDBCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	every(ctx, func(context.Context) {
		sqlDB, err := db.DB()
		if err != nil {
			log.Warn("db pool stats unavailable", "error", err)
			return
		}
		s := sqlDB.Stats()
		for name, v := range map[string]float64{
			"open_connections":      float64(s.OpenConnections),
			"in_use":                float64(s.InUse),
			"idle":                  float64(s.Idle),
			"wait_count":            float64(s.WaitCount),
			"wait_duration_seconds": s.WaitDuration.Seconds(),
		} {
			m.dbPool.Set(v, name)
		}
	})
}

// StartRedisCollector tracks whether the activity cache backend answers.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	every(ctx, func(ctx context.Context) {
		if err := rdb.Ping(ctx).Err(); err != nil {
			m.redisUp.Set(0)
			log.Warn("activity cache ping failed", "error", err)
			return
		}
		m.redisUp.Set(1)
	})
}
