package opt

import (
	"context"
	"math"
	"testing"

	"routeopt/internal/config"
	"routeopt/internal/model"
)

func solvedRoute(t *testing.T, cfg config.Engine) model.CandidateRoute {
	t.Helper()
	req := testRequest(nycDestinations()...)
	route, err := (&NearestNeighbor{cfg: cfg}).Solve(context.Background(), req, testContext())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	return route
}

func TestCostComponentsSumToTotal(t *testing.T) {
	cfg := config.Default()
	route := solvedRoute(t, cfg)
	vehicle := model.VehicleProfile{FuelType: "diesel"}
	cost := ComputeCost(cfg, route, testContext(), vehicle, model.Constraints{})

	sum := cost.FuelCost + cost.DriverCost + cost.VehicleCost + cost.TollCost + cost.PenaltyCost
	if math.Abs(sum-cost.TotalCost) > 1e-9 {
		t.Fatalf("components sum %v != total %v", sum, cost.TotalCost)
	}
	if cost.TotalCost <= 0 {
		t.Fatalf("total cost %v, want > 0", cost.TotalCost)
	}
	if cost.CostSavings < 0 {
		t.Fatalf("cost savings %v, want >= 0", cost.CostSavings)
	}
	if cost.Currency != cfg.Currency {
		t.Fatalf("currency %q, want %q", cost.Currency, cfg.Currency)
	}
}

func TestAvoidTollsZeroesTollCost(t *testing.T) {
	cfg := config.Default()
	route := solvedRoute(t, cfg)
	vehicle := model.VehicleProfile{FuelType: "diesel"}
	with := ComputeCost(cfg, route, testContext(), vehicle, model.Constraints{})
	without := ComputeCost(cfg, route, testContext(), vehicle, model.Constraints{AvoidTolls: true})
	if with.TollCost <= 0 {
		t.Fatalf("toll cost %v, want > 0", with.TollCost)
	}
	if without.TollCost != 0 {
		t.Fatalf("toll cost %v with avoidTolls, want 0", without.TollCost)
	}
}

func TestBadWeatherRaisesFuelCost(t *testing.T) {
	cfg := config.Default()
	route := solvedRoute(t, cfg)
	vehicle := model.VehicleProfile{FuelType: "diesel"}
	dry := testContext()
	icy := testContext()
	icy.Weather.RoadCondition = model.RoadIcy
	if ComputeCost(cfg, route, icy, vehicle, model.Constraints{}).FuelCost <= ComputeCost(cfg, route, dry, vehicle, model.Constraints{}).FuelCost {
		t.Fatal("icy roads should raise fuel cost")
	}
}

func TestSustainabilityMetrics(t *testing.T) {
	cfg := config.Default()
	route := solvedRoute(t, cfg)
	rtc := testContext()

	diesel := ComputeSustainability(cfg, route, rtc, model.VehicleProfile{FuelType: "diesel"})
	if diesel.CO2Kg <= 0 {
		t.Fatalf("co2 %v, want > 0", diesel.CO2Kg)
	}
	if diesel.FuelEfficiencyKmPerL <= 0 {
		t.Fatalf("efficiency %v, want > 0", diesel.FuelEfficiencyKmPerL)
	}
	if diesel.EnvironmentalScore < 0 || diesel.EnvironmentalScore > 100 {
		t.Fatalf("score %v out of [0,100]", diesel.EnvironmentalScore)
	}

	electric := ComputeSustainability(cfg, route, rtc, model.VehicleProfile{FuelType: "electric"})
	if electric.CO2Kg >= diesel.CO2Kg {
		t.Fatalf("electric co2 %v should be below diesel %v", electric.CO2Kg, diesel.CO2Kg)
	}
}

func TestContextRecommendationsCoFire(t *testing.T) {
	cfg := config.Default()
	rtc := testContext()
	rtc.Traffic.CongestionLevel = 0.9
	rtc.Weather.RoadCondition = model.RoadIcy
	rtc.FuelPrices.PerLiter["diesel"] = cfg.FuelPriceCeiling + 1
	rtc.TimeFactors.IsRushHour = true

	recs := ContextRecommendations(cfg, rtc, "diesel")
	if len(recs) != 4 {
		t.Fatalf("got %d recommendations, want 4 (all rules fire)", len(recs))
	}

	calm := testContext()
	calm.Traffic.CongestionLevel = 0.1
	calm.TimeFactors.IsRushHour = false
	if recs := ContextRecommendations(cfg, calm, "diesel"); len(recs) != 0 {
		t.Fatalf("got %v under calm conditions, want none", recs)
	}
}
