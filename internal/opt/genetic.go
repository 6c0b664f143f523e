package opt

import (
	"context"
	"sort"

	"routeopt/internal/config"
	"routeopt/internal/model"
)

// Genetic evolves a population of visiting orders with tournament selection,
// order crossover, and swap mutation. Elitist: the best individual always
// survives. Bounded by the generation budget and the context deadline.
type Genetic struct {
	cfg  config.Engine
	seed int64
}

func (s *Genetic) Name() string { return StrategyGenetic }

func (s *Genetic) Solve(ctx context.Context, req model.OptimizationRequest, rtc model.RealTimeContext) (model.CandidateRoute, error) {
	if err := ctx.Err(); err != nil {
		return model.CandidateRoute{}, err
	}
	n := len(req.Destinations)
	if n <= 2 {
		return buildCandidate(s.cfg, req, rtc, nearestNeighborOrder(req), s.Name())
	}

	rng := newRNG(s.seed)
	popSize := s.cfg.GAPopulation
	if popSize < 4 {
		popSize = 4
	}

	type individual struct {
		order []int
		km    float64
	}
	eval := func(order []int) individual { return individual{order: order, km: pathKm(req, order)} }

	pop := make([]individual, 0, popSize)
	pop = append(pop, eval(nearestNeighborOrder(req)))
	for len(pop) < popSize {
		perm := rng.Perm(n)
		pop = append(pop, eval(perm))
	}
	byFitness := func(p []individual) { sort.SliceStable(p, func(i, j int) bool { return p[i].km < p[j].km }) }
	byFitness(pop)

	tournament := func() individual {
		best := pop[rng.Intn(len(pop))]
		for k := 0; k < 2; k++ {
			c := pop[rng.Intn(len(pop))]
			if c.km < best.km {
				best = c
			}
		}
		return best
	}

	for gen := 0; gen < s.cfg.GAGenerations; gen++ {
		if ctx.Err() != nil {
			break
		}
		next := make([]individual, 0, popSize)
		next = append(next, pop[0]) // elite
		for len(next) < popSize {
			a, b := tournament(), tournament()
			child := orderCrossover(a.order, b.order, rng.Intn(n), rng.Intn(n))
			if rng.Float64() < s.cfg.GAMutationRate {
				i, j := rng.Intn(n), rng.Intn(n)
				child[i], child[j] = child[j], child[i]
			}
			next = append(next, eval(child))
		}
		pop = next
		byFitness(pop)
	}
	return buildCandidate(s.cfg, req, rtc, pop[0].order, s.Name())
}

// orderCrossover keeps the [lo,hi] slice of parent a and fills the rest with
// b's genes in b's order.
func orderCrossover(a, b []int, lo, hi int) []int {
	if lo > hi {
		lo, hi = hi, lo
	}
	n := len(a)
	child := make([]int, n)
	taken := make([]bool, n)
	for i := lo; i <= hi; i++ {
		child[i] = a[i]
		taken[a[i]] = true
	}
	pos := 0
	for _, g := range b {
		if taken[g] {
			continue
		}
		for pos >= lo && pos <= hi {
			pos++
		}
		child[pos] = g
		taken[g] = true
		pos++
	}
	return child
}
