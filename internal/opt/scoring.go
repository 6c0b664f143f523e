package opt

import (
	"sort"

	"routeopt/internal/config"
	"routeopt/internal/model"
)

// Score blends cost, speed, and sustainability sub-scores under the
// operator's weights. Sub-scores normalize against the configured reference
// ceilings rather than the candidate set, so a route's score is stable across
// calls. Weights need not sum to 1; the blend divides by their sum.
func Score(cfg config.Engine, w model.Weights, cost, durationHours, co2Kg float64) float64 {
	costScore := 1 - minf(cost/cfg.CostCeiling, 1)
	speedScore := 1 - minf(durationHours/cfg.DurationCeilingHours, 1)
	susScore := 1 - minf(co2Kg/cfg.CO2CeilingKg, 1)

	sum := w.Cost + w.Speed + w.Sustainability
	if sum <= 0 {
		w = model.Weights{Cost: 1, Speed: 1, Sustainability: 1}
		sum = 3
	}
	return (w.Cost*costScore + w.Speed*speedScore + w.Sustainability*susScore) / sum
}

// RankMultimodal scores and sorts candidate multimodal routes, best first.
// Deterministic: ties break on lowest total cost, then route id.
func RankMultimodal(cfg config.Engine, routes []model.MultimodalRoute, w model.Weights) []model.MultimodalRoute {
	ranked := make([]model.MultimodalRoute, len(routes))
	copy(ranked, routes)
	for i := range ranked {
		ranked[i].Score = Score(cfg, w, ranked[i].TotalCost, ranked[i].TotalDurationHours, ranked[i].TotalCO2Kg)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].TotalCost != ranked[j].TotalCost {
			return ranked[i].TotalCost < ranked[j].TotalCost
		}
		return ranked[i].ID < ranked[j].ID
	})
	return ranked
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
