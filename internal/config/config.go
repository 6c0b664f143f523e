// Package config holds the immutable engine tuning parameters. The struct is
// built once at startup and injected into the orchestrator so tests can
// override individual knobs deterministically.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine carries every tunable the optimization pipeline reads. The cost and
// emission constants default to illustrative values; operators are expected to
// calibrate them per fleet via the YAML file.
type Engine struct {
	// Candidate selection
	FeasibilityThreshold float64 `yaml:"feasibilityThreshold"`

	// Cost model
	BaselineCostMultiplier float64            `yaml:"baselineCostMultiplier"` // >= 1, un-optimized baseline markup
	FuelPerKmByType        map[string]float64 `yaml:"fuelPerKmByType"`        // liters (or kWh) per km
	DriverHourlyRate       float64            `yaml:"driverHourlyRate"`
	VehiclePerKmRate       float64            `yaml:"vehiclePerKmRate"`
	TollPerKmRate          float64            `yaml:"tollPerKmRate"`
	LatePenaltyPerHour     float64            `yaml:"latePenaltyPerHour"`

	// Sustainability model
	CO2PerUnitByFuel    map[string]float64 `yaml:"co2PerUnitByFuel"` // kg CO2 per liter/kWh
	CO2CeilingKg        float64            `yaml:"co2CeilingKg"`
	EfficiencyCeiling   float64            `yaml:"efficiencyCeiling"` // km per fuel unit at score 100

	// Scoring reference ceilings (absolute, so scores are stable across calls)
	CostCeiling          float64 `yaml:"costCeiling"`
	DurationCeilingHours float64 `yaml:"durationCeilingHours"`

	// Recommendation thresholds
	CongestionThreshold float64 `yaml:"congestionThreshold"`
	FuelPriceCeiling    float64 `yaml:"fuelPriceCeiling"`

	// Multimodal planning
	FCLVolumeCutoffM3 float64 `yaml:"fclVolumeCutoffM3"`
	FTLWeightCutoffKg float64 `yaml:"ftlWeightCutoffKg"`

	// Solver budgets
	SolverTimeBudget   time.Duration `yaml:"solverTimeBudget"`
	SAIterations       int           `yaml:"saIterations"`
	SAInitialTemp      float64       `yaml:"saInitialTemp"`
	SACooling          float64       `yaml:"saCooling"`
	GAGenerations      int           `yaml:"gaGenerations"`
	GAPopulation       int           `yaml:"gaPopulation"`
	GAMutationRate     float64       `yaml:"gaMutationRate"`
	ACOAnts            int           `yaml:"acoAnts"`
	ACOIterations      int           `yaml:"acoIterations"`
	ACOEvaporation     float64       `yaml:"acoEvaporation"`

	// Context collection
	ContextTimeout     time.Duration `yaml:"contextTimeout"`
	DefaultSpeedKph    float64       `yaml:"defaultSpeedKph"`
	SnapshotTTL        time.Duration `yaml:"snapshotTtl"`

	Currency string `yaml:"currency"`
}

// Default returns the documented defaults. Cost and emission figures are
// placeholders pending production calibration.
func Default() Engine {
	return Engine{
		FeasibilityThreshold:   0.7,
		BaselineCostMultiplier: 1.2,
		FuelPerKmByType: map[string]float64{
			"diesel":   0.32,
			"gasoline": 0.35,
			"hybrid":   0.22,
			"electric": 0.90, // kWh/km
		},
		DriverHourlyRate:   28.0,
		VehiclePerKmRate:   0.45,
		TollPerKmRate:      0.08,
		LatePenaltyPerHour: 40.0,
		CO2PerUnitByFuel: map[string]float64{
			"diesel":   2.68,
			"gasoline": 2.31,
			"hybrid":   1.85,
			"electric": 0.45, // grid-average kg/kWh
		},
		CO2CeilingKg:         250.0,
		EfficiencyCeiling:    4.0,
		CostCeiling:          2500.0,
		DurationCeilingHours: 72.0,
		CongestionThreshold:  0.7,
		FuelPriceCeiling:     2.0,
		FCLVolumeCutoffM3:    15.0,
		FTLWeightCutoffKg:    8000.0,
		SolverTimeBudget:     2 * time.Second,
		SAIterations:         4000,
		SAInitialTemp:        1.0,
		SACooling:            0.995,
		GAGenerations:        120,
		GAPopulation:         40,
		GAMutationRate:       0.15,
		ACOAnts:              20,
		ACOIterations:        60,
		ACOEvaporation:       0.4,
		ContextTimeout:       3 * time.Second,
		DefaultSpeedKph:      50.0,
		SnapshotTTL:          15 * time.Minute,
		Currency:             "USD",
	}
}

// Load reads path (YAML) over the defaults. An empty path returns defaults.
// Env var ENGINE_SOLVER_BUDGET_MS overrides the solver budget for deployments
// that tune it without a config file.
func Load(path string) (Engine, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if v := os.Getenv("ENGINE_SOLVER_BUDGET_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SolverTimeBudget = time.Duration(n) * time.Millisecond
		}
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Engine) validate() error {
	if c.BaselineCostMultiplier < 1 {
		return fmt.Errorf("config: baselineCostMultiplier must be >= 1, got %v", c.BaselineCostMultiplier)
	}
	if c.FeasibilityThreshold < 0 || c.FeasibilityThreshold > 1 {
		return fmt.Errorf("config: feasibilityThreshold must be in [0,1], got %v", c.FeasibilityThreshold)
	}
	if c.SACooling <= 0 || c.SACooling >= 1 {
		return fmt.Errorf("config: saCooling must be in (0,1), got %v", c.SACooling)
	}
	return nil
}

// FuelPerKm returns the consumption rate for a fuel type, falling back to
// diesel for unknown types.
func (c Engine) FuelPerKm(fuelType string) float64 {
	if v, ok := c.FuelPerKmByType[fuelType]; ok {
		return v
	}
	return c.FuelPerKmByType["diesel"]
}

// CO2PerUnit returns the emission factor for a fuel type, falling back to diesel.
func (c Engine) CO2PerUnit(fuelType string) float64 {
	if v, ok := c.CO2PerUnitByFuel[fuelType]; ok {
		return v
	}
	return c.CO2PerUnitByFuel["diesel"]
}
