package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"

	"routeopt/internal/model"
)

func newTestCache(t *testing.T) *SnapshotCache {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewSnapshotCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 15*time.Minute)
}

func TestSnapshotCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "us-east"); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	rtc := DefaultContext(collectedAt)
	rtc.Traffic.CongestionLevel = 0.55
	cache.Put(ctx, "us-east", rtc)

	got, ok := cache.Get(ctx, "us-east")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if got.Traffic.CongestionLevel != 0.55 {
		t.Fatalf("congestion %v, want 0.55", got.Traffic.CongestionLevel)
	}
	// regions are isolated
	if _, ok := cache.Get(ctx, "eu-west"); ok {
		t.Fatal("cross-region hit")
	}
}

func TestCollectorFallsBackToCachedSnapshot(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	cached := DefaultContext(collectedAt.Add(-5 * time.Minute))
	cached.Traffic = model.Traffic{CongestionLevel: 0.65, AvgSpeedKph: 30}
	cache.Put(ctx, "us-east", cached)

	c := NewCollector(fakeTraffic{err: errors.New("down")}, nil, nil, cache, time.Second)
	c.Now = func() time.Time { return collectedAt }

	rtc := c.Collect(ctx, model.OptimizationRequest{
		Region:  "us-east",
		Factors: model.RealTimeFactorFlags{Traffic: true},
	})
	if !rtc.Stale {
		t.Fatal("cached fallback must still mark the snapshot stale")
	}
	if rtc.Traffic.CongestionLevel != 0.65 {
		t.Fatalf("congestion %v, want cached 0.65", rtc.Traffic.CongestionLevel)
	}
}
