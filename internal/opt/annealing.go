package opt

import (
	"context"
	"math"
	"math/rand"
	"time"

	"routeopt/internal/config"
	"routeopt/internal/model"
)

// Annealing runs simulated annealing over the nearest-neighbor seed with a
// 2-opt/swap neighborhood and a geometric cooling schedule. Bounded by the
// iteration budget and the context deadline; may return a worse order than
// the converged heuristics on pathological inputs.
type Annealing struct {
	cfg  config.Engine
	seed int64
}

func (s *Annealing) Name() string { return StrategyAnnealing }

func (s *Annealing) Solve(ctx context.Context, req model.OptimizationRequest, rtc model.RealTimeContext) (model.CandidateRoute, error) {
	if err := ctx.Err(); err != nil {
		return model.CandidateRoute{}, err
	}
	n := len(req.Destinations)
	if n <= 2 {
		return buildCandidate(s.cfg, req, rtc, nearestNeighborOrder(req), s.Name())
	}

	rng := newRNG(s.seed)
	curr := nearestNeighborOrder(req)
	currKm := pathKm(req, curr)
	best := append([]int(nil), curr...)
	bestKm := currKm

	temp := s.cfg.SAInitialTemp
	for it := 0; it < s.cfg.SAIterations; it++ {
		if it%64 == 0 && ctx.Err() != nil {
			break
		}
		cand := append([]int(nil), curr...)
		i := 1 + rng.Intn(n-1)
		j := rng.Intn(n)
		if i > j {
			i, j = j, i
		}
		if rng.Float64() < 0.8 {
			reverse(cand[i : j+1])
		} else {
			cand[i], cand[j] = cand[j], cand[i]
		}
		candKm := pathKm(req, cand)
		delta := candKm - currKm
		if delta < 0 || rng.Float64() < math.Exp(-delta/(temp+1e-9)) {
			curr, currKm = cand, candKm
			if currKm < bestKm {
				best = append(best[:0], curr...)
				bestKm = currKm
			}
		}
		temp *= s.cfg.SACooling
	}
	return buildCandidate(s.cfg, req, rtc, best, s.Name())
}

func newRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
