package opt

import (
	"context"

	"routeopt/internal/config"
	"routeopt/internal/geo"
	"routeopt/internal/model"
)

// NearestNeighbor is the greedy baseline: always succeeds on any input that
// admits a feasible route, used as the fallback strategy.
type NearestNeighbor struct {
	cfg config.Engine
}

func (s *NearestNeighbor) Name() string { return StrategyNearestNeighbor }

func (s *NearestNeighbor) Solve(ctx context.Context, req model.OptimizationRequest, rtc model.RealTimeContext) (model.CandidateRoute, error) {
	if err := ctx.Err(); err != nil {
		return model.CandidateRoute{}, err
	}
	return buildCandidate(s.cfg, req, rtc, nearestNeighborOrder(req), s.Name())
}

// nearestNeighborOrder picks the closest unvisited destination at each step.
// Ties break on destination id to keep the order deterministic.
func nearestNeighborOrder(req model.OptimizationRequest) []int {
	n := len(req.Destinations)
	order := make([]int, 0, n)
	visited := make([]bool, n)
	cur := req.Origin
	for len(order) < n {
		best := -1
		bestKm := 0.0
		for i, d := range req.Destinations {
			if visited[i] {
				continue
			}
			km := geo.DistanceKm(cur, d.Location)
			if best == -1 || km < bestKm || (km == bestKm && d.ID < req.Destinations[best].ID) {
				best = i
				bestKm = km
			}
		}
		visited[best] = true
		order = append(order, best)
		cur = req.Destinations[best].Location
	}
	return order
}
