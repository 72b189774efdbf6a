package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/learnsync/internal/domain"
	"github.com/yungbote/learnsync/internal/platform/logger"
)

func TestActivityKey(t *testing.T) {
	if got := ActivityKey(" colors "); got != "learnsync:activity:colors" {
		t.Fatalf("ActivityKey: got=%s", got)
	}
}

func TestNilActivityCacheIsMiss(t *testing.T) {
	var c *ActivityCache
	if _, ok := c.Get(context.Background(), "colors"); ok {
		t.Fatalf("nil cache must miss")
	}
	c.Set(context.Background(), &types.Activity{ExternalID: "colors"})
}

func TestActivityCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis integration tests")
	}
	ctx := context.Background()
	rdb, err := NewClient(ctx, Config{Addr: addr})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer rdb.Close()

	c := NewActivityCache(rdb, time.Minute, logger.Nop(), nil)
	ext := "cache-test-" + uuid.NewString()
	if _, ok := c.Get(ctx, ext); ok {
		t.Fatalf("expected miss before set")
	}
	c.Set(ctx, &types.Activity{ID: uuid.New(), ExternalID: ext, Title: "Cache Test"})
	got, ok := c.Get(ctx, ext)
	if !ok || got.Title != "Cache Test" {
		t.Fatalf("expected hit, got=%+v ok=%v", got, ok)
	}
}
