package realtime

import (
	"time"

	"routeopt/internal/model"
)

// Statically-defined fallback signals, used when a live fetch fails or the
// caller disabled the signal. Named so tests and callers can reference the
// exact degradation values.
const (
	DefaultCongestionLevel = 0.3
	DefaultAvgSpeedKph     = 48.0
	DefaultTempC           = 18.0
	DefaultVisibilityKm    = 10.0

	DefaultDieselPerLiter   = 1.65
	DefaultGasolinePerLiter = 1.55
	DefaultHybridPerLiter   = 1.55
	DefaultElectricPerKWh   = 0.30

	RushHourMultiplier = 1.4
	WeekendMultiplier  = 0.9
)

func DefaultTraffic() model.Traffic {
	return model.Traffic{CongestionLevel: DefaultCongestionLevel, AvgSpeedKph: DefaultAvgSpeedKph}
}

func DefaultWeather() model.Weather {
	return model.Weather{
		TempC:         DefaultTempC,
		Humidity:      55,
		VisibilityKm:  DefaultVisibilityKm,
		RoadCondition: model.RoadDry,
	}
}

func DefaultFuelPrices() model.FuelPrices {
	return model.FuelPrices{
		PerLiter: map[string]float64{
			"diesel":   DefaultDieselPerLiter,
			"gasoline": DefaultGasolinePerLiter,
			"hybrid":   DefaultHybridPerLiter,
			"electric": DefaultElectricPerKWh,
		},
		Currency: "USD",
	}
}

// TimeFactorsAt derives the temporal multipliers from a wall-clock instant.
// Computed locally, never fetched.
func TimeFactorsAt(t time.Time, holidays map[string]bool) model.TimeFactors {
	tf := model.TimeFactors{TrafficMultiplier: 1.0}
	wd := t.Weekday()
	tf.IsWeekend = wd == time.Saturday || wd == time.Sunday
	h := t.Hour()
	tf.IsRushHour = !tf.IsWeekend && ((h >= 7 && h < 9) || (h >= 16 && h < 19))
	tf.IsHoliday = holidays[t.Format("2006-01-02")]
	switch {
	case tf.IsRushHour:
		tf.TrafficMultiplier = RushHourMultiplier
	case tf.IsWeekend || tf.IsHoliday:
		tf.TrafficMultiplier = WeekendMultiplier
	}
	return tf
}

// DefaultContext is the fully static snapshot used when every live signal is
// unavailable. Marked stale so the result carries the degradation warning.
func DefaultContext(now time.Time) model.RealTimeContext {
	return model.RealTimeContext{
		Traffic:     DefaultTraffic(),
		Weather:     DefaultWeather(),
		FuelPrices:  DefaultFuelPrices(),
		TimeFactors: TimeFactorsAt(now, nil),
		CollectedAt: now,
		Stale:       true,
	}
}
