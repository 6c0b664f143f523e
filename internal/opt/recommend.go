package opt

import (
	"fmt"

	"routeopt/internal/config"
	"routeopt/internal/model"
)

// ContextRecommendations evaluates the operator-advice rule table against the
// context snapshot. Rules are independent and may co-fire; each appends one
// string.
func ContextRecommendations(cfg config.Engine, rtc model.RealTimeContext, fuelType string) []string {
	var recs []string
	if rtc.Traffic.CongestionLevel > cfg.CongestionThreshold {
		recs = append(recs, fmt.Sprintf("heavy congestion (%.0f%%); expect longer transit times or delay departure", rtc.Traffic.CongestionLevel*100))
	}
	switch rtc.Weather.RoadCondition {
	case model.RoadIcy, model.RoadSnowy, model.RoadSevere:
		recs = append(recs, fmt.Sprintf("%s road conditions reported; allow extra travel time and brief drivers", rtc.Weather.RoadCondition))
	}
	if price := fuelPrice(rtc, fuelType); price > cfg.FuelPriceCeiling {
		recs = append(recs, fmt.Sprintf("%s price %.2f is above the %.2f ceiling; consolidating deliveries would reduce fuel spend", fuelType, price, cfg.FuelPriceCeiling))
	}
	if rtc.TimeFactors.IsRushHour {
		recs = append(recs, "departure falls in rush hour; shifting outside peak windows would shorten the route")
	}
	return recs
}
