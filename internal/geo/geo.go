// Package geo wraps the orb geometry library for the distance math the engine
// needs.
package geo

import (
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"routeopt/internal/model"
)

// DistanceKm returns the haversine distance between two points in kilometers.
func DistanceKm(a, b model.GeoPoint) float64 {
	return orbgeo.DistanceHaversine(orb.Point{a.Lng, a.Lat}, orb.Point{b.Lng, b.Lat}) / 1000.0
}

// PathDistanceKm sums leg distances along origin -> points in order.
func PathDistanceKm(origin model.GeoPoint, points []model.GeoPoint) float64 {
	total := 0.0
	cur := origin
	for _, p := range points {
		total += DistanceKm(cur, p)
		cur = p
	}
	return total
}
