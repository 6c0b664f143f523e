// Package realtime collects the traffic, weather, fuel-price, and time-of-day
// signals into a single immutable context snapshot for one optimization run.
package realtime

import (
	"context"

	"routeopt/internal/model"
)

// TrafficProvider fetches congestion data for the geography spanned by an
// origin and its destinations.
type TrafficProvider interface {
	GetTraffic(ctx context.Context, origin model.GeoPoint, destinations []model.GeoPoint) (model.Traffic, error)
}

// WeatherProvider fetches current conditions for the same geography.
type WeatherProvider interface {
	GetWeather(ctx context.Context, origin model.GeoPoint, destinations []model.GeoPoint) (model.Weather, error)
}

// FuelPriceProvider fetches per-fuel-type prices for a region.
type FuelPriceProvider interface {
	GetFuelPrices(ctx context.Context, region string) (model.FuelPrices, error)
}
