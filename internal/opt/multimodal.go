package opt

import (
	"fmt"

	"routeopt/internal/config"
	"routeopt/internal/geo"
	"routeopt/internal/model"
)

// The leg planner evaluates a fixed template catalogue per mode combination
// rather than searching a graph: bounded, deterministic, auditable. Rates are
// indicative per-ton-km figures pending carrier contracts.

type modeRate struct {
	costPerTonKm  float64
	speedKph      float64
	handlingHours float64 // terminal/port/airport dwell per leg
	co2PerTonKm   float64 // kg
	carrier       string
}

var modeRates = map[model.TransportMode]modeRate{
	model.ModeRoad: {costPerTonKm: 0.11, speedKph: 70, handlingHours: 0.5, co2PerTonKm: 0.062, carrier: "RoadLink Freight"},
	model.ModeSea:  {costPerTonKm: 0.012, speedKph: 35, handlingHours: 36, co2PerTonKm: 0.008, carrier: "BlueWave Lines"},
	model.ModeAir:  {costPerTonKm: 0.85, speedKph: 800, handlingHours: 8, co2PerTonKm: 0.602, carrier: "AeroCargo Express"},
	model.ModeRail: {costPerTonKm: 0.045, speedKph: 90, handlingHours: 12, co2PerTonKm: 0.022, carrier: "TransRail Cargo"},
}

func serviceFactor(s model.ServiceType) float64 {
	switch s {
	case model.ServiceLTL:
		return 1.25
	case model.ServiceLCL:
		return 1.3
	case model.ServiceExpress:
		return 1.5
	default: // ftl, fcl, economy
		return 1.0
	}
}

// PlanMultimodal enumerates the template catalogue for a point-to-point
// shipment: pure road, sea with road feeders, air with road feeders, sea+air,
// road+sea, and rail with road feeders. Hazardous cargo excludes the air
// templates. Legs are numbered contiguously from 1 and chain
// destination-to-origin; callers rank the result with RankMultimodal.
func PlanMultimodal(cfg config.Engine, origin, destination model.Place, cargo model.Cargo) []model.MultimodalRoute {
	directKm := geo.DistanceKm(origin.Location, destination.Location)
	tons := cargo.WeightKg / 1000.0
	if tons < 0.1 {
		tons = 0.1
	}

	roadSvc := model.ServiceLTL
	if cargo.WeightKg >= cfg.FTLWeightCutoffKg {
		roadSvc = model.ServiceFTL
	}
	seaSvc := model.ServiceLCL
	if cargo.VolumeM3 >= cfg.FCLVolumeCutoffM3 {
		seaSvc = model.ServiceFCL
	}
	airSvc := model.ServiceEconomy
	if cargo.VolumeM3 < cfg.FCLVolumeCutoffM3/3 {
		airSvc = model.ServiceExpress
	}

	feederKm := maxf(25, 0.08*directKm)
	airFeederKm := maxf(20, 0.05*directKm)
	port := func(p model.Place) string { return "Port of " + p.Name }
	airport := func(p model.Place) string { return p.Name + " Airport" }
	railhead := func(p model.Place) string { return p.Name + " Rail Terminal" }

	b := legBuilder{tons: tons}

	routes := []model.MultimodalRoute{
		assemble("mm_road", "Road Direct",
			b.leg(model.ModeRoad, roadSvc, origin.Name, destination.Name, directKm),
		),
		assemble("mm_sea", "Ocean Freight",
			b.leg(model.ModeRoad, roadSvc, origin.Name, port(origin), feederKm),
			b.leg(model.ModeSea, seaSvc, port(origin), port(destination), 1.15*directKm),
			b.leg(model.ModeRoad, roadSvc, port(destination), destination.Name, feederKm),
		),
		assemble("mm_road_sea", "Road-Sea Combination",
			b.leg(model.ModeRoad, roadSvc, origin.Name, port(origin), 0.3*directKm),
			b.leg(model.ModeSea, seaSvc, port(origin), port(destination), 0.85*directKm),
			b.leg(model.ModeRoad, roadSvc, port(destination), destination.Name, feederKm),
		),
		assemble("mm_rail", "Rail Intermodal",
			b.leg(model.ModeRoad, roadSvc, origin.Name, railhead(origin), feederKm),
			b.leg(model.ModeRail, model.ServiceEconomy, railhead(origin), railhead(destination), 1.05*directKm),
			b.leg(model.ModeRoad, roadSvc, railhead(destination), destination.Name, feederKm),
		),
	}
	if !cargo.Hazardous {
		routes = append(routes,
			assemble("mm_air", "Air Freight",
				b.leg(model.ModeRoad, roadSvc, origin.Name, airport(origin), airFeederKm),
				b.leg(model.ModeAir, airSvc, airport(origin), airport(destination), directKm),
				b.leg(model.ModeRoad, roadSvc, airport(destination), destination.Name, airFeederKm),
			),
			assemble("mm_sea_air", "Sea-Air Combination",
				b.leg(model.ModeRoad, roadSvc, origin.Name, port(origin), feederKm),
				b.leg(model.ModeSea, seaSvc, port(origin), "Transshipment Hub", 0.6*directKm),
				b.leg(model.ModeAir, airSvc, "Transshipment Hub", airport(destination), 0.45*directKm),
				b.leg(model.ModeRoad, roadSvc, airport(destination), destination.Name, airFeederKm),
			),
		)
	}
	return routes
}

type legBuilder struct {
	tons float64
}

func (b legBuilder) leg(mode model.TransportMode, svc model.ServiceType, from, to string, distKm float64) model.TransportLeg {
	r := modeRates[mode]
	return model.TransportLeg{
		Mode:          mode,
		Service:       svc,
		Origin:        from,
		Destination:   to,
		Carrier:       r.carrier,
		DistanceKm:    distKm,
		DurationHours: distKm/r.speedKph + r.handlingHours,
		Cost:          distKm * r.costPerTonKm * b.tons * serviceFactor(svc),
		CO2Kg:         distKm * r.co2PerTonKm * b.tons,
	}
}

func assemble(id, name string, legs ...model.TransportLeg) model.MultimodalRoute {
	route := model.MultimodalRoute{ID: id, Name: name, Legs: legs}
	for i := range route.Legs {
		route.Legs[i].Sequence = i + 1
		route.TotalCost += route.Legs[i].Cost
		route.TotalDurationHours += route.Legs[i].DurationHours
		route.TotalCO2Kg += route.Legs[i].CO2Kg
	}
	return route
}

// ValidateLegChain checks the structural invariants of a multimodal route:
// sequences contiguous from 1, each leg departing where the previous arrived.
func ValidateLegChain(route model.MultimodalRoute) error {
	for i, leg := range route.Legs {
		if leg.Sequence != i+1 {
			return fmt.Errorf("route %s: leg %d has sequence %d, want %d", route.ID, i, leg.Sequence, i+1)
		}
		if i > 0 && route.Legs[i-1].Destination != leg.Origin {
			return fmt.Errorf("route %s: leg %d departs %q but previous leg arrived %q", route.ID, leg.Sequence, leg.Origin, route.Legs[i-1].Destination)
		}
	}
	return nil
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
