package opt

import (
	"context"
	"sort"

	"routeopt/internal/config"
	"routeopt/internal/geo"
	"routeopt/internal/model"
)

// Savings adapts the Clarke-Wright pairwise-merge heuristic to single-vehicle
// sequencing: destinations start as singleton chains and are merged at their
// endpoints in descending order of the classic savings figure
// s(i,j) = d(0,i) + d(0,j) - d(i,j).
type Savings struct {
	cfg config.Engine
}

func (s *Savings) Name() string { return StrategySavings }

func (s *Savings) Solve(ctx context.Context, req model.OptimizationRequest, rtc model.RealTimeContext) (model.CandidateRoute, error) {
	if err := ctx.Err(); err != nil {
		return model.CandidateRoute{}, err
	}
	return buildCandidate(s.cfg, req, rtc, savingsOrder(req), s.Name())
}

type savingsPair struct {
	i, j int
	s    float64
}

func savingsOrder(req model.OptimizationRequest) []int {
	n := len(req.Destinations)
	if n <= 1 {
		return identityOrder(n)
	}

	fromOrigin := make([]float64, n)
	for i, d := range req.Destinations {
		fromOrigin[i] = geo.DistanceKm(req.Origin, d.Location)
	}
	pairs := make([]savingsPair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dij := geo.DistanceKm(req.Destinations[i].Location, req.Destinations[j].Location)
			pairs = append(pairs, savingsPair{i: i, j: j, s: fromOrigin[i] + fromOrigin[j] - dij})
		}
	}
	sort.SliceStable(pairs, func(a, b int) bool {
		if pairs[a].s != pairs[b].s {
			return pairs[a].s > pairs[b].s
		}
		// deterministic tie-break on ids
		ai := req.Destinations[pairs[a].i].ID + "/" + req.Destinations[pairs[a].j].ID
		bi := req.Destinations[pairs[b].i].ID + "/" + req.Destinations[pairs[b].j].ID
		return ai < bi
	})

	// chain[i] is the chain containing destination i; chains merge endpoint
	// to endpoint only, so each destination keeps degree <= 2.
	chainOf := make([]int, n)
	chains := make(map[int][]int, n)
	for i := 0; i < n; i++ {
		chainOf[i] = i
		chains[i] = []int{i}
	}
	isEnd := func(c []int, v int) bool { return c[0] == v || c[len(c)-1] == v }

	for _, p := range pairs {
		ci, cj := chainOf[p.i], chainOf[p.j]
		if ci == cj {
			continue
		}
		a, b := chains[ci], chains[cj]
		if !isEnd(a, p.i) || !isEnd(b, p.j) {
			continue
		}
		if a[len(a)-1] != p.i {
			reverse(a)
		}
		if b[0] != p.j {
			reverse(b)
		}
		merged := append(a, b...)
		delete(chains, cj)
		chains[ci] = merged
		for _, v := range merged {
			chainOf[v] = ci
		}
	}

	// Stitch remaining chains greedily from the origin, flipping each chain
	// so its nearer endpoint comes first.
	remaining := make([]int, 0, len(chains))
	for id := range chains {
		remaining = append(remaining, id)
	}
	sort.Ints(remaining)
	order := make([]int, 0, n)
	cur := req.Origin
	used := make(map[int]bool, len(remaining))
	for len(order) < n {
		bestChain, bestFlip := -1, false
		bestKm := 0.0
		for _, id := range remaining {
			if used[id] {
				continue
			}
			c := chains[id]
			head := geo.DistanceKm(cur, req.Destinations[c[0]].Location)
			tail := geo.DistanceKm(cur, req.Destinations[c[len(c)-1]].Location)
			km, flip := head, false
			if tail < head {
				km, flip = tail, true
			}
			if bestChain == -1 || km < bestKm {
				bestChain, bestFlip, bestKm = id, flip, km
			}
		}
		c := chains[bestChain]
		if bestFlip {
			reverse(c)
		}
		order = append(order, c...)
		cur = req.Destinations[c[len(c)-1]].Location
		used[bestChain] = true
	}
	return order
}

func reverse(s []int) {
	for a, b := 0, len(s)-1; a < b; a, b = a+1, b-1 {
		s[a], s[b] = s[b], s[a]
	}
}
