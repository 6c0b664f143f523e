package realtime

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"routeopt/internal/model"
)

// SnapshotCache keeps the last-known-good context per region in redis so a
// provider outage degrades to recent data instead of static defaults.
type SnapshotCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSnapshotCache(rdb *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{rdb: rdb, ttl: ttl}
}

func NewSnapshotCacheFromURL(url string, ttl time.Duration) (*SnapshotCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewSnapshotCache(redis.NewClient(opt), ttl), nil
}

func (c *SnapshotCache) key(region string) string {
	if region == "" {
		region = "default"
	}
	return "rtc:last_good:" + region
}

// Get returns the cached snapshot for a region, if present.
func (c *SnapshotCache) Get(ctx context.Context, region string) (model.RealTimeContext, bool) {
	b, err := c.rdb.Get(ctx, c.key(region)).Bytes()
	if err != nil {
		return model.RealTimeContext{}, false
	}
	var rtc model.RealTimeContext
	if err := json.Unmarshal(b, &rtc); err != nil {
		return model.RealTimeContext{}, false
	}
	return rtc, true
}

// Put stores a freshly collected snapshot. Errors are ignored; the cache is
// best-effort.
func (c *SnapshotCache) Put(ctx context.Context, region string, rtc model.RealTimeContext) {
	b, err := json.Marshal(rtc)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, c.key(region), b, c.ttl).Err()
}
