package opt

import (
	"context"
	"errors"
	"testing"
	"time"

	"routeopt/internal/config"
	"routeopt/internal/model"
	"routeopt/internal/realtime"
)

var testDepart = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func testRequest(dests ...model.Destination) model.OptimizationRequest {
	return model.OptimizationRequest{
		Origin:       model.GeoPoint{Lat: 40.7128, Lng: -74.0060},
		DepartAt:     testDepart,
		Destinations: dests,
		Vehicle:      model.VehicleProfile{ID: "v1", CapacityKg: 1000, FuelType: "diesel"},
	}
}

func testContext() model.RealTimeContext {
	rtc := realtime.DefaultContext(testDepart)
	rtc.Stale = false
	return rtc
}

func nycDestinations() []model.Destination {
	return []model.Destination{
		{ID: "d1", Location: model.GeoPoint{Lat: 40.7589, Lng: -73.9851}},
		{ID: "d2", Location: model.GeoPoint{Lat: 40.6892, Lng: -74.0445}},
		{ID: "d3", Location: model.GeoPoint{Lat: 40.7306, Lng: -73.9866}},
		{ID: "d4", Location: model.GeoPoint{Lat: 40.7484, Lng: -73.9857}},
	}
}

func TestSingleDestination(t *testing.T) {
	cfg := config.Default()
	req := testRequest(model.Destination{ID: "d1", Location: model.GeoPoint{Lat: 40.7589, Lng: -73.9851}})
	for _, s := range Strategies(cfg, 42) {
		route, err := s.Solve(context.Background(), req, testContext())
		if err != nil {
			t.Fatalf("%s: %v", s.Name(), err)
		}
		if len(route.Stops) != 1 {
			t.Fatalf("%s: got %d stops, want 1", s.Name(), len(route.Stops))
		}
		if route.TotalDistanceKm <= 0 {
			t.Fatalf("%s: distance %v, want > 0", s.Name(), route.TotalDistanceKm)
		}
		if route.Efficiency != 1.0 {
			t.Fatalf("%s: efficiency %v, want 1.0 for single stop", s.Name(), route.Efficiency)
		}
		if route.Feasibility != 1.0 {
			t.Fatalf("%s: feasibility %v, want 1.0", s.Name(), route.Feasibility)
		}
	}
}

func TestAllStrategiesVisitEveryDestination(t *testing.T) {
	cfg := config.Default()
	req := testRequest(nycDestinations()...)
	for _, s := range Strategies(cfg, 42) {
		route, err := s.Solve(context.Background(), req, testContext())
		if err != nil {
			t.Fatalf("%s: %v", s.Name(), err)
		}
		seen := map[string]bool{}
		for _, st := range route.Stops {
			seen[st.DestinationID] = true
		}
		if len(seen) != len(req.Destinations) {
			t.Fatalf("%s: visited %d of %d destinations", s.Name(), len(seen), len(req.Destinations))
		}
		if route.Efficiency <= 0 || route.Efficiency > 1 {
			t.Fatalf("%s: efficiency %v out of (0,1]", s.Name(), route.Efficiency)
		}
		if route.TimeSavingsSec < 0 {
			t.Fatalf("%s: negative time savings %d", s.Name(), route.TimeSavingsSec)
		}
	}
}

func TestNearestNeighborDeterministicTieBreak(t *testing.T) {
	// two destinations at the same point tie on distance; the lower id wins
	same := model.GeoPoint{Lat: 40.75, Lng: -73.99}
	req := testRequest(
		model.Destination{ID: "b", Location: same},
		model.Destination{ID: "a", Location: same},
	)
	order := nearestNeighborOrder(req)
	if req.Destinations[order[0]].ID != "a" {
		t.Fatalf("tie-break: first visit is %s, want a", req.Destinations[order[0]].ID)
	}
}

func TestStochasticSolversDeterministicWithSeed(t *testing.T) {
	cfg := config.Default()
	req := testRequest(nycDestinations()...)
	for _, name := range []string{StrategyAnnealing, StrategyGenetic, StrategyAntColony} {
		first := solveByName(t, cfg, name, req)
		second := solveByName(t, cfg, name, req)
		if first.TotalDistanceKm != second.TotalDistanceKm {
			t.Fatalf("%s: distance differs across runs with same seed: %v vs %v", name, first.TotalDistanceKm, second.TotalDistanceKm)
		}
	}
}

func solveByName(t *testing.T, cfg config.Engine, name string, req model.OptimizationRequest) model.CandidateRoute {
	t.Helper()
	for _, s := range Strategies(cfg, 7) {
		if s.Name() != name {
			continue
		}
		route, err := s.Solve(context.Background(), req, testContext())
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		return route
	}
	t.Fatalf("unknown strategy %s", name)
	return model.CandidateRoute{}
}

func TestHardDistanceConstraintInfeasible(t *testing.T) {
	cfg := config.Default()
	req := testRequest(nycDestinations()...)
	req.Constraints.MaxDistanceKm = 0.5
	_, err := (&NearestNeighbor{cfg: cfg}).Solve(context.Background(), req, testContext())
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("got %v, want ErrInfeasible", err)
	}
}

func TestSoftTimeWindowLowersFeasibility(t *testing.T) {
	cfg := config.Default()
	// window already closed before departure: guaranteed late, still a route
	closed := &model.TimeWindow{Start: testDepart.Add(-2 * time.Hour), End: testDepart.Add(-time.Hour)}
	dests := nycDestinations()
	dests[0].TimeWindow = closed
	req := testRequest(dests...)
	route, err := (&NearestNeighbor{cfg: cfg}).Solve(context.Background(), req, testContext())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	want := float64(len(dests)-1) / float64(len(dests))
	if route.Feasibility != want {
		t.Fatalf("feasibility %v, want %v", route.Feasibility, want)
	}
	for _, s := range route.Stops {
		if s.DestinationID == "d1" && s.LateSec <= 0 {
			t.Fatalf("d1 lateSec %d, want > 0", s.LateSec)
		}
	}
}

func TestOriginWindowDelaysDeparture(t *testing.T) {
	cfg := config.Default()
	req := testRequest(nycDestinations()[0])
	start := testDepart.Add(time.Hour)
	req.OriginWindow = &model.TimeWindow{Start: start, End: start.Add(4 * time.Hour)}
	route, err := (&NearestNeighbor{cfg: cfg}).Solve(context.Background(), req, testContext())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if route.Stops[0].Arrival.Before(start) {
		t.Fatalf("arrival %v before origin window opens %v", route.Stops[0].Arrival, start)
	}
}

func TestEffectiveSpeedDegrades(t *testing.T) {
	cfg := config.Default()
	clear := testContext()
	clear.Traffic.CongestionLevel = 0
	clear.Weather.RoadCondition = model.RoadDry
	clear.TimeFactors.TrafficMultiplier = 1

	icy := clear
	icy.Weather.RoadCondition = model.RoadIcy
	if effectiveSpeedKph(cfg, icy) >= effectiveSpeedKph(cfg, clear) {
		t.Fatal("icy roads should reduce effective speed")
	}

	jammed := clear
	jammed.Traffic.CongestionLevel = 1
	if effectiveSpeedKph(cfg, jammed) >= effectiveSpeedKph(cfg, clear) {
		t.Fatal("congestion should reduce effective speed")
	}
}

func TestSelectBest(t *testing.T) {
	a := model.CandidateRoute{Strategy: "a", Efficiency: 0.9, Feasibility: 0.5}
	b := model.CandidateRoute{Strategy: "b", Efficiency: 0.7, Feasibility: 0.8}
	c := model.CandidateRoute{Strategy: "c", Efficiency: 0.8, Feasibility: 0.75}

	best, warn := SelectBest([]model.CandidateRoute{a, b, c}, 0.7)
	if warn {
		t.Fatal("unexpected warning with eligible candidates")
	}
	if best.Strategy != "c" {
		t.Fatalf("best %s, want c (highest efficiency above threshold)", best.Strategy)
	}

	// nothing clears the threshold: most feasible wins, with a warning
	best, warn = SelectBest([]model.CandidateRoute{a, b, c}, 0.95)
	if !warn {
		t.Fatal("expected warning when no candidate clears the threshold")
	}
	if best.Strategy != "b" {
		t.Fatalf("best %s, want b (highest feasibility)", best.Strategy)
	}
}

func TestSolverHonorsCancelledContext(t *testing.T) {
	cfg := config.Default()
	req := testRequest(nycDestinations()...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, s := range Strategies(cfg, 42) {
		if _, err := s.Solve(ctx, req, testContext()); err == nil {
			t.Fatalf("%s: expected error on cancelled context", s.Name())
		}
	}
}
