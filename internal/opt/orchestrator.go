package opt

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"routeopt/internal/config"
	"routeopt/internal/metrics"
	"routeopt/internal/model"
	"routeopt/internal/realtime"
)

// State is the orchestrator's progress through one optimization run. States
// advance monotonically; failed is terminal from any of them.
type State string

const (
	StateCollectingContext State = "collecting_context"
	StateRunningSolvers    State = "running_solvers"
	StateSelectingBest     State = "selecting_best"
	StateEnriching         State = "enriching"
	StateRecommending      State = "recommending"
	StateCompleted         State = "completed"
	StateFailed            State = "failed"
)

// EventOptimizationCompleted is emitted once per successful run.
const EventOptimizationCompleted = "route.optimization.completed"

// EventSink receives completion events. Emission is fire-and-forget: a sink
// failure never fails the run.
type EventSink interface {
	Emit(ctx context.Context, event string, data map[string]any)
}

// Orchestrator drives one optimization end to end: validate, collect context,
// fan out the solver strategies, select, enrich, recommend.
type Orchestrator struct {
	cfg       config.Engine
	collector *realtime.Collector
	solvers   []Solver
	sink      EventSink
}

func NewOrchestrator(cfg config.Engine, collector *realtime.Collector, solvers []Solver, sink EventSink) *Orchestrator {
	return &Orchestrator{cfg: cfg, collector: collector, solvers: solvers, sink: sink}
}

// ValidateRequest rejects malformed input before any work begins.
func ValidateRequest(req model.OptimizationRequest) error {
	if req.Vehicle.CapacityKg < 0 {
		return &ValidationError{Field: "vehicle.capacityKg", Reason: "must not be negative"}
	}
	if req.Vehicle.VolumeCapacityM3 < 0 {
		return &ValidationError{Field: "vehicle.volumeCapacityM3", Reason: "must not be negative"}
	}
	seen := make(map[string]bool, len(req.Destinations))
	for i, d := range req.Destinations {
		if d.ID == "" {
			return &ValidationError{Field: fmt.Sprintf("destinations[%d].id", i), Reason: "required"}
		}
		if seen[d.ID] {
			return &ValidationError{Field: fmt.Sprintf("destinations[%d].id", i), Reason: "duplicate id " + d.ID}
		}
		seen[d.ID] = true
		if tw := d.TimeWindow; tw != nil && tw.End.Before(tw.Start) {
			return &ValidationError{Field: fmt.Sprintf("destinations[%d].timeWindow", i), Reason: "end before start"}
		}
		if d.WeightKg < 0 || d.VolumeM3 < 0 {
			return &ValidationError{Field: fmt.Sprintf("destinations[%d]", i), Reason: "weight and volume must not be negative"}
		}
	}
	if req.Constraints.MaxDistanceKm < 0 {
		return &ValidationError{Field: "constraints.maxDistanceKm", Reason: "must not be negative"}
	}
	if req.Constraints.MaxRouteDurationSec < 0 {
		return &ValidationError{Field: "constraints.maxRouteDurationSec", Reason: "must not be negative"}
	}
	return nil
}

type solveOutcome struct {
	candidate model.CandidateRoute
	err       error
}

// Optimize runs the full pipeline for one request. All solver strategies run
// in parallel, each under its own slice of the time budget; partial failures
// are tolerated as long as one candidate survives.
func (o *Orchestrator) Optimize(ctx context.Context, req model.OptimizationRequest) (model.OptimizationResult, error) {
	started := time.Now()
	if err := ValidateRequest(req); err != nil {
		metrics.Optimizations.WithLabelValues("invalid").Inc()
		return model.OptimizationResult{}, err
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	state := StateCollectingContext
	rtc := o.collector.Collect(ctx, req)

	result := model.OptimizationResult{
		RequestID:  req.RequestID,
		Context:    rtc,
		ComputedAt: started.UTC(),
	}

	// An empty destination set is a valid no-op request, not an error.
	if len(req.Destinations) == 0 {
		result.Summary = model.Summary{StaleContext: rtc.Stale}
		result.ElapsedMs = int(time.Since(started).Milliseconds())
		metrics.Optimizations.WithLabelValues("completed").Inc()
		return result, nil
	}

	state = StateRunningSolvers
	outcomes := make([]solveOutcome, len(o.solvers))
	var wg sync.WaitGroup
	for i, s := range o.solvers {
		wg.Add(1)
		go func(i int, s Solver) {
			defer wg.Done()
			sctx, cancel := context.WithTimeout(ctx, o.cfg.SolverTimeBudget)
			defer cancel()
			t0 := time.Now()
			cand, err := s.Solve(sctx, req, rtc)
			metrics.SolverDuration.WithLabelValues(s.Name()).Observe(time.Since(t0).Seconds())
			if err != nil {
				metrics.SolverFailures.WithLabelValues(s.Name()).Inc()
				err = &SolverError{Strategy: s.Name(), Err: err}
			}
			outcomes[i] = solveOutcome{candidate: cand, err: err}
		}(i, s)
	}
	wg.Wait()

	candidates := make([]model.CandidateRoute, 0, len(outcomes))
	var failures []error
	for _, out := range outcomes {
		if out.err != nil {
			failures = append(failures, out.err)
			continue
		}
		candidates = append(candidates, out.candidate)
	}
	if len(candidates) == 0 {
		state = StateFailed
		metrics.Optimizations.WithLabelValues("failed").Inc()
		log.Printf("optimize %s: %s, all %d solvers failed", req.RequestID, state, len(failures))
		if ctx.Err() != nil {
			return model.OptimizationResult{}, fmt.Errorf("%w: %v", ErrDeadlineExceeded, ctx.Err())
		}
		return model.OptimizationResult{}, &AllSolversFailedError{Errors: failures}
	}

	state = StateSelectingBest
	best, warn := SelectBest(candidates, o.cfg.FeasibilityThreshold)

	state = StateEnriching
	cost := ComputeCost(o.cfg, best, rtc, req.Vehicle, req.Constraints)
	sus := ComputeSustainability(o.cfg, best, rtc, req.Vehicle)
	outcome := model.RouteOutcome{
		Route:          best,
		Cost:           cost,
		Sustainability: sus,
		Efficiency:     best.Efficiency,
		Feasibility:    best.Feasibility,
		CostSavings:    cost.CostSavings,
	}
	result.Routes = []model.RouteOutcome{outcome}

	state = StateRecommending
	summary := model.Summary{
		RouteCount:        1,
		DestinationCount:  len(req.Destinations),
		TotalDistanceKm:   best.TotalDistanceKm,
		TotalDurationSec:  best.TotalDurationSec,
		TotalCost:         cost.TotalCost,
		AverageEfficiency: best.Efficiency,
		Recommendations:   ContextRecommendations(o.cfg, rtc, req.Vehicle.FuelType),
		StaleContext:      rtc.Stale,
	}
	if warn {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("no candidate met the %.0f%% feasibility threshold; best available is %.0f%% (%s)",
				o.cfg.FeasibilityThreshold*100, best.Feasibility*100, best.Strategy))
	}
	for _, f := range failures {
		summary.Warnings = append(summary.Warnings, f.Error())
	}
	result.Summary = summary
	result.ElapsedMs = int(time.Since(started).Milliseconds())

	state = StateCompleted
	metrics.Optimizations.WithLabelValues(string(state)).Inc()
	log.Printf("optimize %s: %s, strategy=%s stops=%d distance=%.1fkm cost=%.2f elapsed=%dms",
		req.RequestID, state, best.Strategy, len(best.Stops), best.TotalDistanceKm, cost.TotalCost, result.ElapsedMs)

	if o.sink != nil {
		// detached from the request lifecycle; the HTTP response must not
		// wait on subscriber fan-out
		go func() {
			ectx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			o.sink.Emit(ectx, EventOptimizationCompleted, map[string]any{
				"requestId":         result.RequestID,
				"strategy":          best.Strategy,
				"destinationCount":  summary.DestinationCount,
				"routeCount":        summary.RouteCount,
				"totalDistanceKm":   best.TotalDistanceKm,
				"totalCost":         cost.TotalCost,
				"averageEfficiency": summary.AverageEfficiency,
				"owner":             req.Owner,
			})
		}()
	}
	return result, nil
}

// SolverNames lists the configured strategies, for diagnostics.
func (o *Orchestrator) SolverNames() string {
	names := make([]string, len(o.solvers))
	for i, s := range o.solvers {
		names[i] = s.Name()
	}
	return strings.Join(names, ",")
}
