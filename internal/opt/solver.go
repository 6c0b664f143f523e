// Package opt implements the multi-criteria route optimization engine: the
// five solver strategies, the cost and sustainability models, scoring,
// validation, simulation, multimodal leg planning, and the orchestrator that
// ties them together.
package opt

import (
	"context"
	"fmt"
	"sort"
	"time"

	"routeopt/internal/config"
	"routeopt/internal/geo"
	"routeopt/internal/model"
	"routeopt/internal/realtime"
)

// Solver is one route-construction strategy: a pure function from an
// immutable (request, context) pair to a candidate route.
type Solver interface {
	Name() string
	Solve(ctx context.Context, req model.OptimizationRequest, rtc model.RealTimeContext) (model.CandidateRoute, error)
}

// Strategy names, also used as registry keys and metric labels.
const (
	StrategyNearestNeighbor = "nearest_neighbor"
	StrategySavings         = "savings"
	StrategyAnnealing       = "simulated_annealing"
	StrategyGenetic         = "genetic"
	StrategyAntColony       = "ant_colony"
)

// Strategies returns the full solver set. Seed 0 means time-based seeding for
// the stochastic strategies; tests pass a fixed seed.
func Strategies(cfg config.Engine, seed int64) []Solver {
	return []Solver{
		&NearestNeighbor{cfg: cfg},
		&Savings{cfg: cfg},
		&Annealing{cfg: cfg, seed: seed},
		&Genetic{cfg: cfg, seed: seed},
		&AntColony{cfg: cfg, seed: seed},
	}
}

// effectiveSpeedKph derives the drivable speed for this run from the context
// snapshot: congestion and road condition slow it down, the temporal
// multiplier stretches it further during rush hour.
func effectiveSpeedKph(cfg config.Engine, rtc model.RealTimeContext) float64 {
	speed := rtc.Traffic.AvgSpeedKph
	if speed <= 0 {
		speed = cfg.DefaultSpeedKph
	}
	speed *= 1 - 0.5*clamp01(rtc.Traffic.CongestionLevel)
	speed *= roadSpeedFactor(rtc.Weather.RoadCondition)
	if m := rtc.TimeFactors.TrafficMultiplier; m > 0 {
		speed /= m
	}
	if speed < 5 {
		speed = 5
	}
	return speed
}

func roadSpeedFactor(rc model.RoadCondition) float64 {
	switch rc {
	case model.RoadWet:
		return 0.9
	case model.RoadSnowy:
		return 0.7
	case model.RoadIcy:
		return 0.6
	case model.RoadSevere:
		return 0.5
	default:
		return 1.0
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// pathKm is the driving distance of origin -> destinations in the given order.
func pathKm(req model.OptimizationRequest, order []int) float64 {
	total := 0.0
	cur := req.Origin
	for _, i := range order {
		loc := req.Destinations[i].Location
		total += geo.DistanceKm(cur, loc)
		cur = loc
	}
	return total
}

// lowerBoundKm is a route-length lower bound: every destination must be
// entered by some edge at least as long as its shortest edge to any other
// point, and a path uses one distinct entering edge per destination.
func lowerBoundKm(req model.OptimizationRequest) float64 {
	total := 0.0
	for i, d := range req.Destinations {
		best := geo.DistanceKm(req.Origin, d.Location)
		for j, o := range req.Destinations {
			if i == j {
				continue
			}
			if dd := geo.DistanceKm(o.Location, d.Location); dd < best {
				best = dd
			}
		}
		total += best
	}
	return total
}

// buildCandidate turns a visiting order into a scheduled candidate route and
// enforces the hard distance/duration constraints. Time-window lateness is
// soft: it lowers feasibility but keeps the candidate.
func buildCandidate(cfg config.Engine, req model.OptimizationRequest, rtc model.RealTimeContext, order []int, strategy string) (model.CandidateRoute, error) {
	speed := effectiveSpeedKph(cfg, rtc)
	start := req.DepartAt
	if start.IsZero() {
		start = rtc.CollectedAt
	}
	if start.IsZero() {
		start = time.Now().UTC()
	}
	if req.OriginWindow != nil && start.Before(req.OriginWindow.Start) {
		start = req.OriginWindow.Start
	}

	perKm := cfg.VehiclePerKmRate + cfg.FuelPerKm(req.Vehicle.FuelType)*fuelPrice(rtc, req.Vehicle.FuelType)

	cur := req.Origin
	now := start
	totalKm := 0.0
	onTime := 0
	stops := make([]model.Stop, 0, len(order))
	for _, i := range order {
		d := req.Destinations[i]
		legKm := geo.DistanceKm(cur, d.Location)
		travel := time.Duration(legKm / speed * float64(time.Hour))
		arrival := now.Add(travel)

		waiting := time.Duration(0)
		late := time.Duration(0)
		if tw := d.TimeWindow; tw != nil {
			if arrival.Before(tw.Start) {
				waiting = tw.Start.Sub(arrival)
			}
			if arrival.After(tw.End) {
				late = arrival.Sub(tw.End)
			}
		}
		if late == 0 {
			onTime++
		}
		service := time.Duration(d.ServiceTimeSec) * time.Second
		departure := arrival.Add(waiting).Add(service)

		stops = append(stops, model.Stop{
			DestinationID:      d.ID,
			Location:           d.Location,
			Arrival:            arrival,
			Departure:          departure,
			ServiceTimeSec:     d.ServiceTimeSec,
			WaitingSec:         int(waiting.Seconds()),
			LateSec:            int(late.Seconds()),
			TimeWindow:         d.TimeWindow,
			DistanceFromPrevKm: legKm,
			IncrementalCost:    legKm * perKm,
		})
		totalKm += legKm
		now = departure
		cur = d.Location
	}

	durationSec := int(now.Sub(start).Seconds())
	cons := req.Constraints
	if cons.MaxDistanceKm > 0 && totalKm > cons.MaxDistanceKm {
		return model.CandidateRoute{}, fmt.Errorf("%w: distance %.1f km exceeds max %.1f km", ErrInfeasible, totalKm, cons.MaxDistanceKm)
	}
	if cons.MaxRouteDurationSec > 0 && durationSec > cons.MaxRouteDurationSec {
		return model.CandidateRoute{}, fmt.Errorf("%w: duration %ds exceeds max %ds", ErrInfeasible, durationSec, cons.MaxRouteDurationSec)
	}

	feasibility := 1.0
	if len(order) > 0 {
		feasibility = float64(onTime) / float64(len(order))
	}
	efficiency := 1.0
	if totalKm > 0 {
		efficiency = clamp01(lowerBoundKm(req) / totalKm)
	}

	// Savings versus visiting in the order the caller supplied.
	baselineKm := pathKm(req, identityOrder(len(req.Destinations)))
	savedKm := baselineKm - totalKm
	timeSavings := 0
	if savedKm > 0 {
		timeSavings = int(savedKm / speed * 3600)
	}

	return model.CandidateRoute{
		Strategy:         strategy,
		VehicleID:        req.Vehicle.ID,
		Stops:            stops,
		TotalDistanceKm:  totalKm,
		TotalDurationSec: durationSec,
		Efficiency:       efficiency,
		Feasibility:      feasibility,
		TimeSavingsSec:   timeSavings,
	}, nil
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func fuelPrice(rtc model.RealTimeContext, fuelType string) float64 {
	if p, ok := rtc.FuelPrices.PerLiter[fuelType]; ok && p > 0 {
		return p
	}
	if p, ok := rtc.FuelPrices.PerLiter["diesel"]; ok && p > 0 {
		return p
	}
	return realtime.DefaultDieselPerLiter
}

// SelectBest picks the highest-efficiency candidate among those clearing the
// feasibility threshold. If none clears it, the highest-feasibility candidate
// is returned with warn=true; a candidate is never silently substituted.
func SelectBest(candidates []model.CandidateRoute, threshold float64) (model.CandidateRoute, bool) {
	eligible := make([]model.CandidateRoute, 0, len(candidates))
	for _, c := range candidates {
		if c.Feasibility >= threshold {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) > 0 {
		sort.SliceStable(eligible, func(i, j int) bool {
			if eligible[i].Efficiency != eligible[j].Efficiency {
				return eligible[i].Efficiency > eligible[j].Efficiency
			}
			return eligible[i].TotalDistanceKm < eligible[j].TotalDistanceKm
		})
		return eligible[0], false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Feasibility > best.Feasibility {
			best = c
		}
	}
	return best, true
}
