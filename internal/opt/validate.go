package opt

import (
	"fmt"
	"math"
	"time"

	"routeopt/internal/config"
	"routeopt/internal/model"
)

const distanceTolerance = 1e-6

// Validate checks a candidate or saved route against the hard constraints and
// the structural invariants. Advisory: breaches land in the result, nothing
// is thrown. Pure over its inputs, so repeated calls yield identical results.
func Validate(route model.CandidateRoute, cons model.Constraints) model.ValidationResult {
	res := model.ValidationResult{IsValid: true}
	checks, passed := 0, 0
	check := func(ok bool) {
		checks++
		if ok {
			passed++
		} else {
			res.IsValid = false
		}
	}

	// structural invariants
	sum := 0.0
	ordered := true
	for i, s := range route.Stops {
		sum += s.DistanceFromPrevKm
		if i > 0 && s.Arrival.Before(route.Stops[i-1].Arrival) {
			ordered = false
		}
	}
	if math.Abs(sum-route.TotalDistanceKm) > distanceTolerance {
		res.Errors = append(res.Errors, fmt.Sprintf("total distance %.6f km does not equal sum of stop distances %.6f km", route.TotalDistanceKm, sum))
		check(false)
	} else {
		check(true)
	}
	if !ordered {
		res.Errors = append(res.Errors, "stops are not ordered by arrival time")
		check(false)
	} else {
		check(true)
	}

	if cons.MaxDistanceKm > 0 {
		if route.TotalDistanceKm > cons.MaxDistanceKm {
			over := route.TotalDistanceKm - cons.MaxDistanceKm
			res.Errors = append(res.Errors, fmt.Sprintf("route distance %.1f km exceeds maximum %.1f km", route.TotalDistanceKm, cons.MaxDistanceKm))
			res.Violations = append(res.Violations, model.ConstraintViolation{Kind: "distance", Detail: "max distance exceeded", Amount: over})
			check(false)
		} else {
			check(true)
			if route.TotalDistanceKm > 0.9*cons.MaxDistanceKm {
				res.Warnings = append(res.Warnings, "route distance is within 10% of the maximum")
			}
		}
	}
	if cons.MaxRouteDurationSec > 0 {
		if route.TotalDurationSec > cons.MaxRouteDurationSec {
			over := route.TotalDurationSec - cons.MaxRouteDurationSec
			res.Errors = append(res.Errors, fmt.Sprintf("route duration %ds exceeds maximum %ds", route.TotalDurationSec, cons.MaxRouteDurationSec))
			res.Violations = append(res.Violations, model.ConstraintViolation{Kind: "duration", Detail: "max duration exceeded", Amount: float64(over)})
			check(false)
		} else {
			check(true)
			if route.TotalDurationSec > int(0.9*float64(cons.MaxRouteDurationSec)) {
				res.Warnings = append(res.Warnings, "route duration is within 10% of the maximum")
			}
		}
	}

	for _, s := range route.Stops {
		if s.TimeWindow == nil {
			continue
		}
		if s.LateSec > 0 || s.Arrival.After(s.TimeWindow.End) {
			late := s.LateSec
			if late == 0 {
				late = int(s.Arrival.Sub(s.TimeWindow.End).Seconds())
			}
			res.Errors = append(res.Errors, fmt.Sprintf("stop %s misses its time window by %ds", s.DestinationID, late))
			res.Violations = append(res.Violations, model.ConstraintViolation{Kind: "time_window", Detail: "arrival after window end at " + s.DestinationID, Amount: float64(late)})
			check(false)
			continue
		}
		check(true)
		if slack := s.TimeWindow.End.Sub(s.Arrival); slack < 10*time.Minute {
			res.Warnings = append(res.Warnings, fmt.Sprintf("stop %s has under 10 minutes of time-window slack", s.DestinationID))
		}
	}

	if checks > 0 {
		res.FeasibilityScore = float64(passed) / float64(checks)
	} else {
		res.FeasibilityScore = 1
	}
	return res
}

// Simulate re-runs the cost and sustainability models under each scenario's
// context overrides without mutating the route or the base context. Duration
// is rescaled by the change in effective speed so constraint breaches under
// worse conditions surface in the risk analysis.
func Simulate(cfg config.Engine, route model.CandidateRoute, vehicle model.VehicleProfile, base model.RealTimeContext, cons model.Constraints, scenarios []model.Scenario) model.SimulationResult {
	res := model.SimulationResult{}
	baseSpeed := effectiveSpeedKph(cfg, base)

	bestCost := math.MaxFloat64
	mitigate := map[string]string{}
	for _, sc := range scenarios {
		rtc := applyScenario(base, vehicle.FuelType, sc)
		scale := baseSpeed / effectiveSpeedKph(cfg, rtc)
		scaled := route
		scaled.TotalDurationSec = int(float64(route.TotalDurationSec) * scale)

		cost := ComputeCost(cfg, scaled, rtc, vehicle, cons)
		sus := ComputeSustainability(cfg, scaled, rtc, vehicle)

		out := model.ScenarioOutcome{
			Scenario:       sc.Name,
			Cost:           cost,
			Sustainability: sus,
			DurationSec:    scaled.TotalDurationSec,
			Feasible:       true,
		}
		if cons.MaxRouteDurationSec > 0 && scaled.TotalDurationSec > cons.MaxRouteDurationSec {
			out.Feasible = false
			out.Breaches = append(out.Breaches, fmt.Sprintf("duration %ds exceeds maximum %ds", scaled.TotalDurationSec, cons.MaxRouteDurationSec))
			mitigate["duration"] = "add schedule buffer or split the route across vehicles for adverse scenarios"
		}
		if cons.MaxDistanceKm > 0 && route.TotalDistanceKm > cons.MaxDistanceKm {
			out.Feasible = false
			out.Breaches = append(out.Breaches, fmt.Sprintf("distance %.1f km exceeds maximum %.1f km", route.TotalDistanceKm, cons.MaxDistanceKm))
			mitigate["distance"] = "re-plan with a tighter destination set; distance breaches are scenario-independent"
		}
		if !out.Feasible {
			res.Risk.BreachingScenarios = append(res.Risk.BreachingScenarios, sc.Name)
		}
		if out.Feasible && cost.TotalCost < bestCost {
			bestCost = cost.TotalCost
			res.BestScenario = sc.Name
		}
		res.Results = append(res.Results, out)
	}

	switch breaching := len(res.Risk.BreachingScenarios); {
	case breaching == 0:
		res.Risk.Level = "low"
	case breaching*2 < len(scenarios):
		res.Risk.Level = "medium"
	default:
		res.Risk.Level = "high"
	}
	for _, m := range mitigate {
		res.Risk.Mitigations = append(res.Risk.Mitigations, m)
	}
	return res
}

// applyScenario overlays non-nil overrides on a copy of the base snapshot.
func applyScenario(base model.RealTimeContext, fuelType string, sc model.Scenario) model.RealTimeContext {
	rtc := base
	if sc.CongestionLevel != nil {
		rtc.Traffic.CongestionLevel = *sc.CongestionLevel
	}
	if sc.RoadCondition != nil {
		rtc.Weather.RoadCondition = *sc.RoadCondition
	}
	if sc.TrafficMultiplier != nil {
		rtc.TimeFactors.TrafficMultiplier = *sc.TrafficMultiplier
	}
	if sc.FuelPricePerLiter != nil {
		prices := make(map[string]float64, len(base.FuelPrices.PerLiter)+1)
		for k, v := range base.FuelPrices.PerLiter {
			prices[k] = v
		}
		prices[fuelType] = *sc.FuelPricePerLiter
		rtc.FuelPrices = model.FuelPrices{PerLiter: prices, Currency: base.FuelPrices.Currency}
	}
	return rtc
}

// Compare reports the winning route per criterion plus an overall
// recommendation (most criteria won, ties broken by lowest cost). Labels are
// the producing strategy names.
func Compare(outcomes []model.RouteOutcome, criteria []string) (model.ComparisonResult, error) {
	if len(outcomes) == 0 {
		return model.ComparisonResult{}, &ValidationError{Field: "routes", Reason: "at least one route is required"}
	}
	if len(criteria) == 0 {
		criteria = []string{"cost", "duration", "co2", "efficiency"}
	}

	label := func(i int) string {
		if s := outcomes[i].Route.Strategy; s != "" {
			return s
		}
		return fmt.Sprintf("route-%d", i+1)
	}

	res := model.ComparisonResult{Criteria: criteria, Winners: map[string]string{}}
	wins := make([]int, len(outcomes))
	for _, crit := range criteria {
		best := 0
		for i := 1; i < len(outcomes); i++ {
			if betterBy(crit, outcomes[i], outcomes[best]) {
				best = i
			}
		}
		res.Winners[crit] = label(best)
		wins[best]++
		res.Notes = append(res.Notes, fmt.Sprintf("%s wins on %s", label(best), crit))
	}

	rec := 0
	for i := 1; i < len(outcomes); i++ {
		if wins[i] > wins[rec] || (wins[i] == wins[rec] && outcomes[i].Cost.TotalCost < outcomes[rec].Cost.TotalCost) {
			rec = i
		}
	}
	res.Recommended = label(rec)
	return res, nil
}

func betterBy(criterion string, a, b model.RouteOutcome) bool {
	switch criterion {
	case "duration":
		return a.Route.TotalDurationSec < b.Route.TotalDurationSec
	case "distance":
		return a.Route.TotalDistanceKm < b.Route.TotalDistanceKm
	case "co2":
		return a.Sustainability.CO2Kg < b.Sustainability.CO2Kg
	case "efficiency":
		return a.Route.Efficiency > b.Route.Efficiency
	default: // cost
		return a.Cost.TotalCost < b.Cost.TotalCost
	}
}
