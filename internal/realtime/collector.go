package realtime

import (
	"context"
	"log"
	"time"

	"routeopt/internal/metrics"
	"routeopt/internal/model"
)

// Collector joins the independent traffic/weather/fuel fetches into one
// snapshot. Each sub-fetch shares the collection deadline; any failure
// degrades that signal to the last-known-good cached value, then to the
// static defaults, and marks the snapshot stale. Collection never fails the
// optimization.
type Collector struct {
	Traffic  TrafficProvider
	Weather  WeatherProvider
	Fuel     FuelPriceProvider
	Cache    *SnapshotCache // optional
	Timeout  time.Duration
	Holidays map[string]bool
	Now      func() time.Time
}

func NewCollector(t TrafficProvider, w WeatherProvider, f FuelPriceProvider, cache *SnapshotCache, timeout time.Duration) *Collector {
	return &Collector{Traffic: t, Weather: w, Fuel: f, Cache: cache, Timeout: timeout, Now: time.Now}
}

// Collect builds the context snapshot for one run. The returned value is
// complete: callers never observe a partially populated context because the
// three fetches are joined here before it is constructed.
func (c *Collector) Collect(ctx context.Context, req model.OptimizationRequest) model.RealTimeContext {
	now := c.Now()
	fctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	dests := make([]model.GeoPoint, len(req.Destinations))
	for i, d := range req.Destinations {
		dests[i] = d.Location
	}

	trafficCh := make(chan fetchResult[model.Traffic], 1)
	weatherCh := make(chan fetchResult[model.Weather], 1)
	fuelCh := make(chan fetchResult[model.FuelPrices], 1)

	go func() {
		if !req.Factors.Traffic || c.Traffic == nil {
			trafficCh <- fetchResult[model.Traffic]{val: DefaultTraffic(), skipped: true}
			return
		}
		v, err := c.Traffic.GetTraffic(fctx, req.Origin, dests)
		trafficCh <- fetchResult[model.Traffic]{val: v, err: err}
	}()
	go func() {
		if !req.Factors.Weather || c.Weather == nil {
			weatherCh <- fetchResult[model.Weather]{val: DefaultWeather(), skipped: true}
			return
		}
		v, err := c.Weather.GetWeather(fctx, req.Origin, dests)
		weatherCh <- fetchResult[model.Weather]{val: v, err: err}
	}()
	go func() {
		if !req.Factors.FuelPrices || c.Fuel == nil {
			fuelCh <- fetchResult[model.FuelPrices]{val: DefaultFuelPrices(), skipped: true}
			return
		}
		v, err := c.Fuel.GetFuelPrices(fctx, req.Region)
		fuelCh <- fetchResult[model.FuelPrices]{val: v, err: err}
	}()

	tr := <-trafficCh
	we := <-weatherCh
	fu := <-fuelCh

	stale := false
	var cached model.RealTimeContext
	haveCached := false
	fallback := func(what string, err error) {
		if !stale {
			// one cache lookup covers all degraded signals
			if c.Cache != nil {
				cached, haveCached = c.Cache.Get(ctx, req.Region)
			}
		}
		stale = true
		metrics.ContextDegraded.WithLabelValues(what).Inc()
		log.Printf("realtime: %s unavailable, degrading: %v", what, err)
	}

	rtc := model.RealTimeContext{CollectedAt: now}
	if tr.err != nil {
		fallback("traffic", tr.err)
		if haveCached {
			rtc.Traffic = cached.Traffic
		} else {
			rtc.Traffic = DefaultTraffic()
		}
	} else {
		rtc.Traffic = tr.val
	}
	if we.err != nil {
		fallback("weather", we.err)
		if haveCached {
			rtc.Weather = cached.Weather
		} else {
			rtc.Weather = DefaultWeather()
		}
	} else {
		rtc.Weather = we.val
	}
	if fu.err != nil {
		fallback("fuel_prices", fu.err)
		if haveCached && len(cached.FuelPrices.PerLiter) > 0 {
			rtc.FuelPrices = cached.FuelPrices
		} else {
			rtc.FuelPrices = DefaultFuelPrices()
		}
	} else {
		rtc.FuelPrices = fu.val
	}

	if req.Factors.TimeFactors {
		rtc.TimeFactors = TimeFactorsAt(now, c.Holidays)
	} else {
		rtc.TimeFactors = model.TimeFactors{TrafficMultiplier: 1.0}
	}
	rtc.Stale = stale

	if !stale && c.Cache != nil && !tr.skipped {
		c.Cache.Put(ctx, req.Region, rtc)
	}
	return rtc
}

type fetchResult[T any] struct {
	val     T
	err     error
	skipped bool
}
