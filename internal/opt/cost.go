package opt

import (
	"routeopt/internal/config"
	"routeopt/internal/model"
)

// fuelConsumption returns the liters (or kWh for electric) burned over the
// route: base per-km rate, stretched by the traffic multiplier and the
// weather consumption factor.
func fuelConsumption(cfg config.Engine, route model.CandidateRoute, rtc model.RealTimeContext, vehicle model.VehicleProfile) float64 {
	trafficMult := rtc.TimeFactors.TrafficMultiplier
	if trafficMult <= 0 {
		trafficMult = 1.0
	}
	return route.TotalDistanceKm * cfg.FuelPerKm(vehicle.FuelType) * trafficMult * consumptionFactor(rtc.Weather.RoadCondition)
}

func consumptionFactor(rc model.RoadCondition) float64 {
	switch rc {
	case model.RoadWet:
		return 1.1
	case model.RoadSnowy:
		return 1.25
	case model.RoadIcy:
		return 1.3
	case model.RoadSevere:
		return 1.4
	default:
		return 1.0
	}
}

// ComputeCost prices a candidate under the given context. The returned total
// is the exact sum of the named components, and costSavings is the configured
// baseline markup over that total, so it is non-negative by construction.
func ComputeCost(cfg config.Engine, route model.CandidateRoute, rtc model.RealTimeContext, vehicle model.VehicleProfile, cons model.Constraints) model.CostBreakdown {
	liters := fuelConsumption(cfg, route, rtc, vehicle)
	fuel := liters * fuelPrice(rtc, vehicle.FuelType)

	hours := float64(route.TotalDurationSec) / 3600.0
	driver := cfg.DriverHourlyRate * hours
	veh := cfg.VehiclePerKmRate * route.TotalDistanceKm

	toll := 0.0
	if !cons.AvoidTolls {
		toll = cfg.TollPerKmRate * route.TotalDistanceKm
	}

	penalty := 0.0
	for _, s := range route.Stops {
		if s.LateSec > 0 {
			penalty += float64(s.LateSec) / 3600.0 * cfg.LatePenaltyPerHour
		}
	}

	total := fuel + driver + veh + toll + penalty
	return model.CostBreakdown{
		FuelCost:    fuel,
		DriverCost:  driver,
		VehicleCost: veh,
		TollCost:    toll,
		PenaltyCost: penalty,
		TotalCost:   total,
		CostSavings: total * (cfg.BaselineCostMultiplier - 1),
		Currency:    cfg.Currency,
	}
}
