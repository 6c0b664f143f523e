package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"routeopt/internal/model"
)

// HTTPProviders calls an external real-time data gateway over JSON. Outbound
// calls share a rate limiter so a burst of optimizations cannot exhaust the
// upstream quota.
type HTTPProviders struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *rate.Limiter
}

func NewHTTPProviders(baseURL, apiKey string) *HTTPProviders {
	return &HTTPProviders{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 5 * time.Second},
		Limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

func (h *HTTPProviders) get(ctx context.Context, path string, q url.Values, out any) error {
	if err := h.Limiter.Wait(ctx); err != nil {
		return err
	}
	u := h.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if h.APIKey != "" {
		req.Header.Set("Authorization", h.APIKey)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := h.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("realtime: %s returned %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func boundsQuery(origin model.GeoPoint, destinations []model.GeoPoint) url.Values {
	minLat, maxLat := origin.Lat, origin.Lat
	minLng, maxLng := origin.Lng, origin.Lng
	for _, d := range destinations {
		if d.Lat < minLat {
			minLat = d.Lat
		}
		if d.Lat > maxLat {
			maxLat = d.Lat
		}
		if d.Lng < minLng {
			minLng = d.Lng
		}
		if d.Lng > maxLng {
			maxLng = d.Lng
		}
	}
	q := url.Values{}
	q.Set("bbox", fmt.Sprintf("%f,%f,%f,%f", minLng, minLat, maxLng, maxLat))
	return q
}

func (h *HTTPProviders) GetTraffic(ctx context.Context, origin model.GeoPoint, destinations []model.GeoPoint) (model.Traffic, error) {
	var out model.Traffic
	if err := h.get(ctx, "/v1/traffic", boundsQuery(origin, destinations), &out); err != nil {
		return model.Traffic{}, fmt.Errorf("realtime: get traffic: %w", err)
	}
	return out, nil
}

func (h *HTTPProviders) GetWeather(ctx context.Context, origin model.GeoPoint, destinations []model.GeoPoint) (model.Weather, error) {
	var out model.Weather
	if err := h.get(ctx, "/v1/weather", boundsQuery(origin, destinations), &out); err != nil {
		return model.Weather{}, fmt.Errorf("realtime: get weather: %w", err)
	}
	return out, nil
}

func (h *HTTPProviders) GetFuelPrices(ctx context.Context, region string) (model.FuelPrices, error) {
	q := url.Values{}
	q.Set("region", region)
	var out model.FuelPrices
	if err := h.get(ctx, "/v1/fuel-prices", q, &out); err != nil {
		return model.FuelPrices{}, fmt.Errorf("realtime: get fuel prices: %w", err)
	}
	return out, nil
}
