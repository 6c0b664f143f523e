package opt

import (
	"fmt"

	"routeopt/internal/config"
	"routeopt/internal/model"
)

// ComputeSustainability derives emissions and an environmental score from the
// same fuel-consumption figure the cost model uses. Recommendations are
// additive: every triggered rule appends.
func ComputeSustainability(cfg config.Engine, route model.CandidateRoute, rtc model.RealTimeContext, vehicle model.VehicleProfile) model.SustainabilityMetrics {
	liters := fuelConsumption(cfg, route, rtc, vehicle)
	co2 := liters * cfg.CO2PerUnit(vehicle.FuelType)

	efficiency := 0.0
	if liters > 0 {
		efficiency = route.TotalDistanceKm / liters
	}

	co2Sub := clampScore(100 * (1 - co2/cfg.CO2CeilingKg))
	effSub := clampScore(100 * efficiency / cfg.EfficiencyCeiling)
	score := (co2Sub + effSub) / 2

	var recs []string
	if co2 > 0.7*cfg.CO2CeilingKg && vehicle.FuelType != "electric" {
		recs = append(recs, fmt.Sprintf("estimated emissions of %.1f kg CO2 are high; consider assigning an electric or hybrid vehicle", co2))
	}
	if efficiency > 0 && efficiency < 0.5*cfg.EfficiencyCeiling {
		recs = append(recs, fmt.Sprintf("fuel efficiency of %.2f km per unit is below fleet target; schedule a maintenance check", efficiency))
	}
	if waitingHours(route) > 1 {
		recs = append(recs, "over an hour of idle waiting at stops; shifting departure time would cut idle emissions")
	}

	return model.SustainabilityMetrics{
		CO2Kg:                co2,
		FuelEfficiencyKmPerL: efficiency,
		EnvironmentalScore:   score,
		Recommendations:      recs,
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func waitingHours(route model.CandidateRoute) float64 {
	sec := 0
	for _, s := range route.Stops {
		sec += s.WaitingSec
	}
	return float64(sec) / 3600.0
}
