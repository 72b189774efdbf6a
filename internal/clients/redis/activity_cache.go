package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/learnsync/internal/domain"
	"github.com/yungbote/learnsync/internal/observability"
	"github.com/yungbote/learnsync/internal/platform/logger"
)

const activityKeyPrefix = "learnsync:activity:"

// ActivityCache keeps positive activity lookups keyed by external id.
// Failures are logged and reported as misses.
type ActivityCache struct {
	rdb     goredis.UniversalClient
	ttl     time.Duration
	log     *logger.Logger
	metrics *observability.Metrics
}

func NewActivityCache(rdb goredis.UniversalClient, ttl time.Duration, log *logger.Logger, metrics *observability.Metrics) *ActivityCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ActivityCache{
		rdb:     rdb,
		ttl:     ttl,
		log:     log.With("service", "RedisActivityCache"),
		metrics: metrics,
	}
}

func ActivityKey(externalID string) string {
	return activityKeyPrefix + strings.TrimSpace(externalID)
}

func (c *ActivityCache) Get(ctx context.Context, externalID string) (*types.Activity, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, ActivityKey(externalID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		c.metrics.IncActivityCache("miss")
		return nil, false
	}
	if err != nil {
		c.metrics.IncActivityCache("error")
		c.log.Warn("activity cache get failed", "external_id", externalID, "error", err)
		return nil, false
	}
	var a types.Activity
	if err := json.Unmarshal(raw, &a); err != nil {
		c.metrics.IncActivityCache("error")
		c.log.Warn("activity cache entry unreadable", "external_id", externalID, "error", err)
		return nil, false
	}
	c.metrics.IncActivityCache("hit")
	return &a, true
}

func (c *ActivityCache) Set(ctx context.Context, a *types.Activity) {
	if c == nil || c.rdb == nil || a == nil {
		return
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, ActivityKey(a.ExternalID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("activity cache set failed", "external_id", a.ExternalID, "error", err)
	}
}
