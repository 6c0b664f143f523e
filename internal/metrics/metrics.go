package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the engine.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// Optimizations counts optimization runs by terminal state.
	Optimizations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimizations_total", Help: "Optimization runs by outcome."},
		[]string{"status"},
	)
	// SolverDuration records per-strategy solve times.
	SolverDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "solver_duration_seconds", Help: "Solver run duration by strategy.", Buckets: []float64{0.005, 0.02, 0.1, 0.5, 1, 2, 5}},
		[]string{"strategy"},
	)
	// SolverFailures counts solver errors and timeouts by strategy.
	SolverFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solver_failures_total", Help: "Solver failures by strategy."},
		[]string{"strategy"},
	)
	// ContextDegraded counts real-time signals that fell back to cached or default data.
	ContextDegraded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "context_degraded_total", Help: "Real-time signal degradations by signal."},
		[]string{"signal"},
	)

	// EventDeliveries counts webhook delivery outcomes by event type and status.
	EventDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "event_deliveries_total", Help: "Event deliveries by event type and status."},
		[]string{"event_type", "status"},
	)
	// EventLatency tracks delivery latencies in milliseconds.
	EventLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "event_delivery_latency_ms", Help: "Event delivery latency in ms.", Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000}},
		[]string{"event_type", "status"},
	)
)

// RegisterDefault registers all collectors on the engine registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(Optimizations)
		Registry.MustRegister(SolverDuration)
		Registry.MustRegister(SolverFailures)
		Registry.MustRegister(ContextDegraded)
		Registry.MustRegister(EventDeliveries)
		Registry.MustRegister(EventLatency)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
