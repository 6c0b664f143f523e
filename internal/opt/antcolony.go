package opt

import (
	"context"
	"math"

	"routeopt/internal/config"
	"routeopt/internal/geo"
	"routeopt/internal/model"
)

// AntColony builds routes probabilistically from pheromone trails and inverse
// distance, evaporating and reinforcing after each iteration. Bounded by the
// iteration budget and the context deadline.
type AntColony struct {
	cfg  config.Engine
	seed int64
}

func (s *AntColony) Name() string { return StrategyAntColony }

const (
	acoAlpha = 1.0 // pheromone exponent
	acoBeta  = 2.0 // heuristic (inverse distance) exponent
)

func (s *AntColony) Solve(ctx context.Context, req model.OptimizationRequest, rtc model.RealTimeContext) (model.CandidateRoute, error) {
	if err := ctx.Err(); err != nil {
		return model.CandidateRoute{}, err
	}
	n := len(req.Destinations)
	if n <= 2 {
		return buildCandidate(s.cfg, req, rtc, nearestNeighborOrder(req), s.Name())
	}

	rng := newRNG(s.seed)

	// node 0 is the origin, nodes 1..n are destinations
	dist := make([][]float64, n+1)
	point := func(i int) model.GeoPoint {
		if i == 0 {
			return req.Origin
		}
		return req.Destinations[i-1].Location
	}
	for i := range dist {
		dist[i] = make([]float64, n+1)
		for j := range dist[i] {
			if i != j {
				dist[i][j] = geo.DistanceKm(point(i), point(j))
			}
		}
	}

	tau := make([][]float64, n+1)
	for i := range tau {
		tau[i] = make([]float64, n+1)
		for j := range tau[i] {
			tau[i][j] = 1.0
		}
	}

	var bestOrder []int
	bestKm := math.MaxFloat64

	for it := 0; it < s.cfg.ACOIterations; it++ {
		if ctx.Err() != nil {
			break
		}
		var iterBest []int
		iterKm := math.MaxFloat64
		for ant := 0; ant < s.cfg.ACOAnts; ant++ {
			order := s.construct(rng, dist, tau, n)
			km := pathKm(req, order)
			if km < iterKm {
				iterBest, iterKm = order, km
			}
		}
		// evaporate, then reinforce the iteration-best tour
		for i := range tau {
			for j := range tau[i] {
				tau[i][j] *= 1 - s.cfg.ACOEvaporation
				if tau[i][j] < 0.01 {
					tau[i][j] = 0.01
				}
			}
		}
		if iterKm > 0 {
			deposit := 100.0 / iterKm
			prev := 0
			for _, d := range iterBest {
				tau[prev][d+1] += deposit
				prev = d + 1
			}
		}
		if iterKm < bestKm {
			bestOrder, bestKm = iterBest, iterKm
		}
	}
	if bestOrder == nil {
		bestOrder = nearestNeighborOrder(req)
	}
	return buildCandidate(s.cfg, req, rtc, bestOrder, s.Name())
}

func (s *AntColony) construct(rng interface{ Float64() float64 }, dist, tau [][]float64, n int) []int {
	order := make([]int, 0, n)
	visited := make([]bool, n)
	cur := 0
	for len(order) < n {
		total := 0.0
		weights := make([]float64, n)
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			d := dist[cur][i+1]
			if d < 0.001 {
				d = 0.001
			}
			w := math.Pow(tau[cur][i+1], acoAlpha) * math.Pow(1/d, acoBeta)
			weights[i] = w
			total += w
		}
		r := rng.Float64() * total
		next := -1
		acc := 0.0
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			acc += weights[i]
			if r <= acc {
				next = i
				break
			}
		}
		if next == -1 { // numeric fallthrough, take the last unvisited
			for i := n - 1; i >= 0; i-- {
				if !visited[i] {
					next = i
					break
				}
			}
		}
		visited[next] = true
		order = append(order, next)
		cur = next + 1
	}
	return order
}
