// Package api exposes the optimization engine over HTTP: the solver
// endpoints, multimodal planning, saved routes, subscriptions, and the live
// event stream.
package api

import (
	"context"
	"net/http"
	"os"
	"strings"

	"routeopt/internal/config"
	"routeopt/internal/events"
	"routeopt/internal/opt"
	"routeopt/internal/realtime"
	"routeopt/internal/store"
)

type Server struct {
	Cfg    config.Engine
	Store  store.Store
	Pub    *events.Publisher
	Broker EventBroker
	Orch   *opt.Orchestrator
}

// NewServer wires the engine from the environment. Without DATABASE_URL the
// in-memory store is used; without REDIS_URL the in-memory broker and no
// snapshot cache; without provider URLs the static context defaults.
func NewServer(cfg config.Engine) (*Server, error) {
	var st store.Store
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn == "" {
		st = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(dsn)
		if err != nil {
			return nil, err
		}
		st = sp
	}

	var broker EventBroker
	var cache *realtime.SnapshotCache
	if url := os.Getenv("REDIS_URL"); url != "" {
		if rb, err := NewRedisBroker(url); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
		if c, err := realtime.NewSnapshotCacheFromURL(url, cfg.SnapshotTTL); err == nil {
			cache = c
		}
	} else {
		broker = NewBroker()
	}

	var traffic realtime.TrafficProvider
	var weather realtime.WeatherProvider
	var fuel realtime.FuelPriceProvider
	if base := os.Getenv("REALTIME_BASE_URL"); base != "" {
		hp := realtime.NewHTTPProviders(base, os.Getenv("REALTIME_API_KEY"))
		traffic, weather, fuel = hp, hp, hp
	}
	collector := realtime.NewCollector(traffic, weather, fuel, cache, cfg.ContextTimeout)

	pub := events.NewPublisher(st)
	srv := &Server{Cfg: cfg, Store: st, Pub: pub, Broker: broker}
	sink := &fanoutSink{pub: pub, broker: broker}
	srv.Orch = opt.NewOrchestrator(cfg, collector, opt.Strategies(cfg, 0), sink)
	return srv, nil
}

// fanoutSink forwards completion events to both the webhook queue and the
// live stream broker.
type fanoutSink struct {
	pub    *events.Publisher
	broker EventBroker
}

func (f *fanoutSink) Emit(ctx context.Context, event string, data map[string]any) {
	f.pub.Emit(ctx, event, data)
	topic := "*"
	if o, ok := data["owner"].(string); ok && o != "" {
		topic = o
	}
	f.broker.Publish(topic, StreamEvent{Type: event, Data: data})
}

// owner identifies the caller. Header-based; authentication is fronted by the
// gateway.
func (s *Server) owner(r *http.Request) string {
	o := r.Header.Get("X-Owner-Id")
	if o == "" {
		o = "default"
	}
	return o
}

// NewEventsWorker creates the background webhook delivery worker.
func (s *Server) NewEventsWorker() *events.Worker {
	return events.NewWorker(s.Store)
}
