package model

import (
	"encoding/json"
	"time"
)

// Core domain types for the optimization engine. Everything except SavedRoute
// is created fresh per invocation and never mutated after construction.

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Destination struct {
	ID                  string      `json:"id"`
	Location            GeoPoint    `json:"location"`
	Address             string      `json:"address,omitempty"`
	Priority            Priority    `json:"priority,omitempty"`
	TimeWindow          *TimeWindow `json:"timeWindow,omitempty"`
	ServiceTimeSec      int         `json:"serviceTimeSec,omitempty"`
	WeightKg            float64     `json:"weightKg,omitempty"`
	VolumeM3            float64     `json:"volumeM3,omitempty"`
	SpecialRequirements []string    `json:"specialRequirements,omitempty"`
}

type VehicleProfile struct {
	ID               string   `json:"id"`
	CapacityKg       float64  `json:"capacityKg"`
	VolumeCapacityM3 float64  `json:"volumeCapacityM3"`
	FuelType         string   `json:"fuelType"` // diesel, gasoline, hybrid, electric
	CurrentLocation  GeoPoint `json:"currentLocation"`
	DriverID         string   `json:"driverId,omitempty"`
	DriverSkills     []string `json:"driverSkills,omitempty"`
}

type Constraints struct {
	MaxRouteDurationSec int     `json:"maxRouteDurationSec,omitempty"`
	MaxDistanceKm       float64 `json:"maxDistanceKm,omitempty"`
	AvoidTolls          bool    `json:"avoidTolls,omitempty"`
	AvoidHighways       bool    `json:"avoidHighways,omitempty"`
}

// RealTimeFactorFlags selects which live signals the context collector fetches.
// A disabled signal falls back to the static defaults without being marked stale.
type RealTimeFactorFlags struct {
	Traffic     bool `json:"traffic"`
	Weather     bool `json:"weather"`
	FuelPrices  bool `json:"fuelPrices"`
	TimeFactors bool `json:"timeFactors"`
}

type OptimizationRequest struct {
	RequestID     string              `json:"requestId,omitempty"`
	Origin        GeoPoint            `json:"origin"`
	OriginAddress string              `json:"originAddress,omitempty"`
	OriginWindow  *TimeWindow         `json:"originWindow,omitempty"`
	DepartAt      time.Time           `json:"departAt,omitempty"`
	Destinations  []Destination       `json:"destinations"`
	Vehicle       VehicleProfile      `json:"vehicle"`
	Constraints   Constraints         `json:"constraints,omitempty"`
	Factors       RealTimeFactorFlags `json:"realTimeFactors,omitempty"`
	Region        string              `json:"region,omitempty"`
	Owner         string              `json:"owner,omitempty"`
}

// Real-time context snapshot. Built once per run and shared read-only by all
// solvers and models.

type TrafficIncident struct {
	Type        string   `json:"type"`
	Severity    string   `json:"severity,omitempty"`
	Location    GeoPoint `json:"location"`
	Description string   `json:"description,omitempty"`
}

type Traffic struct {
	CongestionLevel float64           `json:"congestionLevel"` // 0 free-flow .. 1 gridlock
	AvgSpeedKph     float64           `json:"avgSpeedKph"`
	Incidents       []TrafficIncident `json:"incidents,omitempty"`
}

type RoadCondition string

const (
	RoadDry    RoadCondition = "dry"
	RoadWet    RoadCondition = "wet"
	RoadSnowy  RoadCondition = "snowy"
	RoadIcy    RoadCondition = "icy"
	RoadSevere RoadCondition = "severe"
)

type Weather struct {
	TempC         float64       `json:"tempC"`
	Humidity      float64       `json:"humidity"`
	WindKph       float64       `json:"windKph"`
	PrecipMm      float64       `json:"precipMm"`
	VisibilityKm  float64       `json:"visibilityKm"`
	RoadCondition RoadCondition `json:"roadCondition"`
	Warnings      []string      `json:"warnings,omitempty"`
}

type FuelPrices struct {
	PerLiter map[string]float64 `json:"perLiter"` // fuel type -> price
	Currency string             `json:"currency,omitempty"`
}

type TimeFactors struct {
	IsRushHour        bool    `json:"isRushHour"`
	IsWeekend         bool    `json:"isWeekend"`
	IsHoliday         bool    `json:"isHoliday"`
	TrafficMultiplier float64 `json:"trafficMultiplier"`
}

type RealTimeContext struct {
	Traffic     Traffic     `json:"traffic"`
	Weather     Weather     `json:"weather"`
	FuelPrices  FuelPrices  `json:"fuelPrices"`
	TimeFactors TimeFactors `json:"timeFactors"`
	CollectedAt time.Time   `json:"collectedAt"`
	Stale       bool        `json:"stale,omitempty"` // set when any live fetch degraded to cached/default data
}

// Candidate route produced by exactly one solver strategy.

type Stop struct {
	DestinationID      string      `json:"destinationId"`
	Location           GeoPoint    `json:"location"`
	Arrival            time.Time   `json:"arrival"`
	Departure          time.Time   `json:"departure"`
	ServiceTimeSec     int         `json:"serviceTimeSec"`
	WaitingSec         int         `json:"waitingSec,omitempty"`
	LateSec            int         `json:"lateSec,omitempty"`
	TimeWindow         *TimeWindow `json:"timeWindow,omitempty"`
	DistanceFromPrevKm float64     `json:"distanceFromPrevKm"`
	IncrementalCost    float64     `json:"incrementalCost"`
}

type CandidateRoute struct {
	Strategy         string  `json:"strategy"`
	VehicleID        string  `json:"vehicleId,omitempty"`
	Stops            []Stop  `json:"stops"`
	TotalDistanceKm  float64 `json:"totalDistanceKm"`
	TotalDurationSec int     `json:"totalDurationSec"`
	Efficiency       float64 `json:"efficiency"`  // 0..1, lower-bound distance over achieved distance
	Feasibility      float64 `json:"feasibility"` // 0..1, constraint satisfaction
	TimeSavingsSec   int     `json:"timeSavingsSec,omitempty"`
}

type CostBreakdown struct {
	FuelCost    float64 `json:"fuelCost"`
	DriverCost  float64 `json:"driverCost"`
	VehicleCost float64 `json:"vehicleCost"`
	TollCost    float64 `json:"tollCost"`
	PenaltyCost float64 `json:"penaltyCost"`
	TotalCost   float64 `json:"totalCost"`
	CostSavings float64 `json:"costSavings"`
	Currency    string  `json:"currency,omitempty"`
}

type SustainabilityMetrics struct {
	CO2Kg                float64  `json:"co2Kg"`
	FuelEfficiencyKmPerL float64  `json:"fuelEfficiencyKmPerL"`
	EnvironmentalScore   float64  `json:"environmentalScore"` // 0..100
	Recommendations      []string `json:"recommendations,omitempty"`
}

// Multimodal shipment types.

type TransportMode string

const (
	ModeRoad TransportMode = "road"
	ModeSea  TransportMode = "sea"
	ModeAir  TransportMode = "air"
	ModeRail TransportMode = "rail"
)

type ServiceType string

const (
	ServiceFTL     ServiceType = "ftl"
	ServiceLTL     ServiceType = "ltl"
	ServiceFCL     ServiceType = "fcl"
	ServiceLCL     ServiceType = "lcl"
	ServiceExpress ServiceType = "express"
	ServiceEconomy ServiceType = "economy"
)

// Place is a named endpoint of a multimodal shipment.
type Place struct {
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
}

type Cargo struct {
	Description  string  `json:"description,omitempty"`
	WeightKg     float64 `json:"weightKg"`
	VolumeM3     float64 `json:"volumeM3"`
	Hazardous    bool    `json:"hazardous,omitempty"`
	Refrigerated bool    `json:"refrigerated,omitempty"`
}

type TransportLeg struct {
	Sequence      int           `json:"sequence"` // 1-based, contiguous within a route
	Mode          TransportMode `json:"mode"`
	Service       ServiceType   `json:"service"`
	Origin        string        `json:"origin"`
	Destination   string        `json:"destination"`
	Carrier       string        `json:"carrier,omitempty"`
	DistanceKm    float64       `json:"distanceKm"`
	DurationHours float64       `json:"durationHours"`
	Cost          float64       `json:"cost"`
	CO2Kg         float64       `json:"co2Kg"`
}

type MultimodalRoute struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Legs               []TransportLeg `json:"legs"`
	TotalCost          float64        `json:"totalCost"`
	TotalDurationHours float64        `json:"totalDurationHours"`
	TotalCO2Kg         float64        `json:"totalCo2Kg"`
	Score              float64        `json:"score,omitempty"`
}

// Weights are operator priorities for ranking. They need not sum to 1; the
// scorer normalizes by their sum.
type Weights struct {
	Cost           float64 `json:"cost"`
	Speed          float64 `json:"speed"`
	Sustainability float64 `json:"sustainability"`
}

// Optimization output.

type RouteOutcome struct {
	Route          CandidateRoute        `json:"route"`
	Cost           CostBreakdown         `json:"cost"`
	Sustainability SustainabilityMetrics `json:"sustainability"`
	Efficiency     float64               `json:"efficiency"`
	Feasibility    float64               `json:"feasibility"`
	CostSavings    float64               `json:"costSavings"`
}

type Summary struct {
	RouteCount        int      `json:"routeCount"`
	DestinationCount  int      `json:"destinationCount"`
	TotalDistanceKm   float64  `json:"totalDistanceKm"`
	TotalDurationSec  int      `json:"totalDurationSec"`
	TotalCost         float64  `json:"totalCost"`
	AverageEfficiency float64  `json:"averageEfficiency"`
	// Unassigned stays empty while the engine plans a single vehicle: a
	// solver either routes every destination or fails the run.
	Unassigned        []string `json:"unassigned,omitempty"`
	Recommendations   []string `json:"recommendations,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
	StaleContext      bool     `json:"staleContext,omitempty"`
}

type OptimizationResult struct {
	RequestID  string          `json:"requestId"`
	Routes     []RouteOutcome  `json:"routes"`
	Summary    Summary         `json:"summary"`
	Context    RealTimeContext `json:"context"`
	ComputedAt time.Time       `json:"computedAt"`
	ElapsedMs  int             `json:"elapsedMs"`
}

// Validation & simulation.

type ConstraintViolation struct {
	Kind   string  `json:"kind"` // distance, duration, time_window
	Detail string  `json:"detail"`
	Amount float64 `json:"amount,omitempty"`
}

type ValidationResult struct {
	IsValid          bool                  `json:"isValid"`
	Errors           []string              `json:"errors,omitempty"`
	Warnings         []string              `json:"warnings,omitempty"`
	Violations       []ConstraintViolation `json:"violations,omitempty"`
	FeasibilityScore float64               `json:"feasibilityScore"`
}

// Scenario overrides part of the context snapshot for what-if simulation.
// Nil fields inherit the base context.
type Scenario struct {
	Name              string         `json:"name"`
	CongestionLevel   *float64       `json:"congestionLevel,omitempty"`
	RoadCondition     *RoadCondition `json:"roadCondition,omitempty"`
	FuelPricePerLiter *float64       `json:"fuelPricePerLiter,omitempty"`
	TrafficMultiplier *float64       `json:"trafficMultiplier,omitempty"`
}

type ScenarioOutcome struct {
	Scenario       string                `json:"scenario"`
	Cost           CostBreakdown         `json:"cost"`
	Sustainability SustainabilityMetrics `json:"sustainability"`
	DurationSec    int                   `json:"durationSec"`
	Feasible       bool                  `json:"feasible"`
	Breaches       []string              `json:"breaches,omitempty"`
}

type RiskAnalysis struct {
	Level              string   `json:"level"` // low, medium, high
	BreachingScenarios []string `json:"breachingScenarios,omitempty"`
	Mitigations        []string `json:"mitigations,omitempty"`
}

type SimulationResult struct {
	Results      []ScenarioOutcome `json:"results"`
	BestScenario string            `json:"bestScenario,omitempty"`
	Risk         RiskAnalysis      `json:"risk"`
}

type ComparisonResult struct {
	Criteria    []string          `json:"criteria"`
	Winners     map[string]string `json:"winners"` // criterion -> route label
	Recommended string            `json:"recommended,omitempty"`
	Notes       []string          `json:"notes,omitempty"`
}

// SavedRoute is the only persisted, mutable entity. The engine produces and
// consumes its payload; the store owns its lifecycle.
type SavedRoute struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	Owner       string          `json:"owner"`
	UseCount    int             `json:"useCount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Event subscriptions for the notification sink.

type SubscriptionRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret"`
	Owner  string   `json:"owner,omitempty"`
}

type Subscription struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret,omitempty"`
	Owner  string   `json:"owner,omitempty"`
}
