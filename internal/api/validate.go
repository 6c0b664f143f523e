package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"routeopt/internal/model"
	"routeopt/internal/opt"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads and decodes a request body with a size cap. Unknown fields
// are rejected so client typos surface as 400s instead of silent defaults.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type multimodalPlanRequest struct {
	Origin      model.Place   `json:"origin"`
	Destination model.Place   `json:"destination"`
	Cargo       model.Cargo   `json:"cargo"`
	Weights     model.Weights `json:"weights"`
}

func (req multimodalPlanRequest) validate() error {
	if req.Origin.Name == "" {
		return &opt.ValidationError{Field: "origin.name", Reason: "required"}
	}
	if req.Destination.Name == "" {
		return &opt.ValidationError{Field: "destination.name", Reason: "required"}
	}
	if req.Cargo.WeightKg <= 0 {
		return &opt.ValidationError{Field: "cargo.weightKg", Reason: "must be positive"}
	}
	if req.Cargo.VolumeM3 < 0 {
		return &opt.ValidationError{Field: "cargo.volumeM3", Reason: "must not be negative"}
	}
	return nil
}

type validateRequest struct {
	Route       model.CandidateRoute `json:"route"`
	Constraints model.Constraints    `json:"constraints"`
}

type simulateRequest struct {
	Route       model.CandidateRoute  `json:"route"`
	Vehicle     model.VehicleProfile  `json:"vehicle"`
	Context     model.RealTimeContext `json:"context"`
	Constraints model.Constraints     `json:"constraints"`
	Scenarios   []model.Scenario      `json:"scenarios"`
}

func (req simulateRequest) validate() error {
	if len(req.Scenarios) == 0 {
		return &opt.ValidationError{Field: "scenarios", Reason: "at least one scenario is required"}
	}
	for i, sc := range req.Scenarios {
		if sc.Name == "" {
			return &opt.ValidationError{Field: "scenarios[" + strconv.Itoa(i) + "].name", Reason: "required"}
		}
	}
	return nil
}

type compareRequest struct {
	Routes   []model.RouteOutcome `json:"routes"`
	Criteria []string             `json:"criteria"`
}

type saveRouteRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Payload     json.RawMessage `json:"payload"`
}

func (req saveRouteRequest) validate() error {
	if strings.TrimSpace(req.Name) == "" {
		return &opt.ValidationError{Field: "name", Reason: "required"}
	}
	if len(req.Payload) == 0 {
		return &opt.ValidationError{Field: "payload", Reason: "required"}
	}
	return nil
}

func validateSubscription(req model.SubscriptionRequest) error {
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &opt.ValidationError{Field: "url", Reason: "must be an absolute http(s) URL"}
	}
	if len(req.Events) == 0 {
		return &opt.ValidationError{Field: "events", Reason: "at least one event type is required"}
	}
	return nil
}
