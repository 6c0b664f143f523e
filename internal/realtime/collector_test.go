package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"routeopt/internal/model"
)

var collectedAt = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

type fakeTraffic struct {
	val model.Traffic
	err error
}

func (f fakeTraffic) GetTraffic(ctx context.Context, origin model.GeoPoint, dests []model.GeoPoint) (model.Traffic, error) {
	return f.val, f.err
}

type fakeWeather struct {
	val model.Weather
	err error
}

func (f fakeWeather) GetWeather(ctx context.Context, origin model.GeoPoint, dests []model.GeoPoint) (model.Weather, error) {
	return f.val, f.err
}

type fakeFuel struct {
	val model.FuelPrices
	err error
}

func (f fakeFuel) GetFuelPrices(ctx context.Context, region string) (model.FuelPrices, error) {
	return f.val, f.err
}

func allFactors() model.RealTimeFactorFlags {
	return model.RealTimeFactorFlags{Traffic: true, Weather: true, FuelPrices: true, TimeFactors: true}
}

func TestCollectJoinsFreshSignals(t *testing.T) {
	c := NewCollector(
		fakeTraffic{val: model.Traffic{CongestionLevel: 0.8, AvgSpeedKph: 22}},
		fakeWeather{val: model.Weather{RoadCondition: model.RoadWet}},
		fakeFuel{val: model.FuelPrices{PerLiter: map[string]float64{"diesel": 1.9}}},
		nil, time.Second)
	c.Now = func() time.Time { return collectedAt }

	rtc := c.Collect(context.Background(), model.OptimizationRequest{Factors: allFactors()})
	if rtc.Stale {
		t.Fatal("fresh collection marked stale")
	}
	if rtc.Traffic.CongestionLevel != 0.8 || rtc.Weather.RoadCondition != model.RoadWet {
		t.Fatalf("live signals not joined: %+v", rtc)
	}
	if rtc.FuelPrices.PerLiter["diesel"] != 1.9 {
		t.Fatalf("fuel prices not joined: %+v", rtc.FuelPrices)
	}
	if !rtc.CollectedAt.Equal(collectedAt) {
		t.Fatalf("collectedAt %v, want %v", rtc.CollectedAt, collectedAt)
	}
}

func TestCollectDegradesToDefaultsAndMarksStale(t *testing.T) {
	boom := errors.New("upstream down")
	c := NewCollector(
		fakeTraffic{err: boom},
		fakeWeather{val: model.Weather{RoadCondition: model.RoadSnowy}},
		fakeFuel{err: boom},
		nil, time.Second)
	c.Now = func() time.Time { return collectedAt }

	rtc := c.Collect(context.Background(), model.OptimizationRequest{Factors: allFactors()})
	if !rtc.Stale {
		t.Fatal("degraded collection not marked stale")
	}
	if rtc.Traffic.CongestionLevel != DefaultCongestionLevel || rtc.Traffic.AvgSpeedKph != DefaultAvgSpeedKph {
		t.Fatalf("traffic did not fall back to defaults: %+v", rtc.Traffic)
	}
	if rtc.FuelPrices.PerLiter["diesel"] != DefaultDieselPerLiter {
		t.Fatalf("fuel did not fall back to defaults: %+v", rtc.FuelPrices)
	}
	// the healthy signal keeps its live value
	if rtc.Weather.RoadCondition != model.RoadSnowy {
		t.Fatalf("healthy weather signal lost: %+v", rtc.Weather)
	}
}

func TestCollectSkipsDisabledSignalsWithoutStale(t *testing.T) {
	boom := errors.New("should not be called")
	c := NewCollector(fakeTraffic{err: boom}, fakeWeather{err: boom}, fakeFuel{err: boom}, nil, time.Second)
	c.Now = func() time.Time { return collectedAt }

	rtc := c.Collect(context.Background(), model.OptimizationRequest{})
	if rtc.Stale {
		t.Fatal("disabled signals must not mark the snapshot stale")
	}
	if rtc.Traffic.AvgSpeedKph != DefaultAvgSpeedKph {
		t.Fatalf("disabled traffic should use defaults: %+v", rtc.Traffic)
	}
	if rtc.TimeFactors.TrafficMultiplier != 1.0 {
		t.Fatalf("disabled time factors should be neutral: %+v", rtc.TimeFactors)
	}
}

func TestTimeFactorsAt(t *testing.T) {
	// Tuesday 08:00 is rush hour
	rush := TimeFactorsAt(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), nil)
	if !rush.IsRushHour || rush.TrafficMultiplier != RushHourMultiplier {
		t.Fatalf("rush hour not detected: %+v", rush)
	}
	// Saturday midday
	weekend := TimeFactorsAt(time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC), nil)
	if !weekend.IsWeekend || weekend.TrafficMultiplier != WeekendMultiplier {
		t.Fatalf("weekend not detected: %+v", weekend)
	}
	if weekend.IsRushHour {
		t.Fatal("weekends have no rush hour")
	}
	// holiday lookup
	hol := TimeFactorsAt(time.Date(2026, 7, 3, 12, 0, 0, 0, time.UTC), map[string]bool{"2026-07-03": true})
	if !hol.IsHoliday {
		t.Fatalf("holiday not detected: %+v", hol)
	}
}
