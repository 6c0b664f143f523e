package opt

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"routeopt/internal/config"
	"routeopt/internal/model"
	"routeopt/internal/realtime"
)

func testCollector() *realtime.Collector {
	c := realtime.NewCollector(nil, nil, nil, nil, time.Second)
	c.Now = func() time.Time { return testDepart }
	return c
}

type captureSink struct {
	mu       sync.Mutex
	events   []string
	payloads []map[string]any
	done     chan struct{}
}

func newCaptureSink() *captureSink {
	return &captureSink{done: make(chan struct{}, 1)}
}

func (s *captureSink) Emit(ctx context.Context, event string, data map[string]any) {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.payloads = append(s.payloads, data)
	s.mu.Unlock()
	select {
	case s.done <- struct{}{}:
	default:
	}
}

func TestOptimizeEndToEnd(t *testing.T) {
	cfg := config.Default()
	sink := newCaptureSink()
	o := NewOrchestrator(cfg, testCollector(), Strategies(cfg, 42), sink)

	req := testRequest(nycDestinations()...)
	res, err := o.Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if res.RequestID == "" {
		t.Fatal("missing request id")
	}
	if len(res.Routes) != 1 {
		t.Fatalf("got %d routes, want 1", len(res.Routes))
	}
	out := res.Routes[0]
	if out.Route.TotalDistanceKm <= 0 {
		t.Fatalf("distance %v, want > 0", out.Route.TotalDistanceKm)
	}
	if out.Cost.TotalCost <= 0 {
		t.Fatalf("cost %v, want > 0", out.Cost.TotalCost)
	}
	if out.Sustainability.CO2Kg <= 0 {
		t.Fatalf("co2 %v, want > 0", out.Sustainability.CO2Kg)
	}
	if res.Summary.DestinationCount != len(req.Destinations) {
		t.Fatalf("summary destinations %d, want %d", res.Summary.DestinationCount, len(req.Destinations))
	}
	if len(res.Summary.Unassigned) != 0 {
		t.Fatalf("unassigned %v, want none for a single-vehicle run", res.Summary.Unassigned)
	}
	select {
	case <-sink.done:
	case <-time.After(2 * time.Second):
		t.Fatal("completion event never emitted")
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 1 || sink.events[0] != EventOptimizationCompleted {
		t.Fatalf("events %v, want one %s", sink.events, EventOptimizationCompleted)
	}
	data := sink.payloads[0]
	if data["requestId"] != res.RequestID {
		t.Fatalf("payload requestId %v, want %s", data["requestId"], res.RequestID)
	}
	if data["destinationCount"] != len(req.Destinations) {
		t.Fatalf("payload destinationCount %v, want %d", data["destinationCount"], len(req.Destinations))
	}
	if data["routeCount"] != 1 {
		t.Fatalf("payload routeCount %v, want 1", data["routeCount"])
	}
	if c, ok := data["totalCost"].(float64); !ok || c != out.Cost.TotalCost {
		t.Fatalf("payload totalCost %v, want %v", data["totalCost"], out.Cost.TotalCost)
	}
	if e, ok := data["averageEfficiency"].(float64); !ok || e != res.Summary.AverageEfficiency {
		t.Fatalf("payload averageEfficiency %v, want %v", data["averageEfficiency"], res.Summary.AverageEfficiency)
	}
}

func TestOptimizeEmptyDestinations(t *testing.T) {
	cfg := config.Default()
	o := NewOrchestrator(cfg, testCollector(), Strategies(cfg, 42), nil)
	res, err := o.Optimize(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if len(res.Routes) != 0 {
		t.Fatalf("got %d routes for empty request, want 0", len(res.Routes))
	}
	if res.RequestID == "" {
		t.Fatal("missing request id")
	}
}

func TestOptimizeRejectsInvalidRequest(t *testing.T) {
	cfg := config.Default()
	o := NewOrchestrator(cfg, testCollector(), Strategies(cfg, 42), nil)

	bad := testRequest(model.Destination{Location: model.GeoPoint{Lat: 1, Lng: 1}})
	var verr *ValidationError
	if _, err := o.Optimize(context.Background(), bad); !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError for missing destination id", err)
	}

	neg := testRequest(nycDestinations()...)
	neg.Vehicle.CapacityKg = -1
	if _, err := o.Optimize(context.Background(), neg); !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError for negative capacity", err)
	}

	dup := testRequest(
		model.Destination{ID: "d1", Location: model.GeoPoint{Lat: 1, Lng: 1}},
		model.Destination{ID: "d1", Location: model.GeoPoint{Lat: 2, Lng: 2}},
	)
	if _, err := o.Optimize(context.Background(), dup); !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError for duplicate id", err)
	}
}

type failingSolver struct{ name string }

func (s *failingSolver) Name() string { return s.name }
func (s *failingSolver) Solve(ctx context.Context, req model.OptimizationRequest, rtc model.RealTimeContext) (model.CandidateRoute, error) {
	return model.CandidateRoute{}, ErrInfeasible
}

func TestOptimizeAllSolversFailed(t *testing.T) {
	cfg := config.Default()
	o := NewOrchestrator(cfg, testCollector(), []Solver{&failingSolver{name: "a"}, &failingSolver{name: "b"}}, nil)
	_, err := o.Optimize(context.Background(), testRequest(nycDestinations()...))
	var all *AllSolversFailedError
	if !errors.As(err, &all) {
		t.Fatalf("got %v, want AllSolversFailedError", err)
	}
	if len(all.Errors) != 2 {
		t.Fatalf("got %d solver errors, want 2", len(all.Errors))
	}
	var serr *SolverError
	if !errors.As(all.Errors[0], &serr) {
		t.Fatalf("inner error %v, want SolverError", all.Errors[0])
	}
}

func TestOptimizeDeadlineExceeded(t *testing.T) {
	cfg := config.Default()
	o := NewOrchestrator(cfg, testCollector(), Strategies(cfg, 42), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Optimize(ctx, testRequest(nycDestinations()...))
	if !errors.Is(err, ErrDeadlineExceeded) {
		t.Fatalf("got %v, want ErrDeadlineExceeded", err)
	}
}

func TestOptimizePartialSolverFailureSurvives(t *testing.T) {
	cfg := config.Default()
	solvers := []Solver{&failingSolver{name: "broken"}, &NearestNeighbor{cfg: cfg}}
	o := NewOrchestrator(cfg, testCollector(), solvers, nil)
	res, err := o.Optimize(context.Background(), testRequest(nycDestinations()...))
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if len(res.Routes) != 1 {
		t.Fatalf("got %d routes, want 1", len(res.Routes))
	}
	if len(res.Summary.Warnings) == 0 {
		t.Fatal("expected a warning for the failed solver")
	}
}
