package events

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"strconv"
	"time"

	"routeopt/internal/metrics"
	"routeopt/internal/store"
)

// Worker drains the delivery queue on a ticker. A delivery is retried with
// exponential backoff until it succeeds or exhausts MaxAttempts.
type Worker struct {
	Store       store.Store
	HTTP        *http.Client
	Stop        chan struct{}
	MaxAttempts int
	Interval    time.Duration
}

func NewWorker(s store.Store) *Worker {
	max := 10
	if v := os.Getenv("EVENTS_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			max = n
		}
	}
	return &Worker{
		Store:       s,
		HTTP:        &http.Client{Timeout: 5 * time.Second},
		Stop:        make(chan struct{}),
		MaxAttempts: max,
		Interval:    time.Second,
	}
}

func (w *Worker) Start() {
	go func() {
		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-w.Stop:
				return
			case <-ticker.C:
				w.ProcessOnce()
			}
		}
	}()
}

// ProcessOnce delivers everything currently due. Exported so tests can drive
// the worker without the ticker.
func (w *Worker) ProcessOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	items, err := w.Store.FetchDueDeliveries(ctx, time.Now().UTC(), 50)
	if err != nil || len(items) == 0 {
		return
	}
	for _, it := range items {
		start := time.Now()
		ok := w.deliver(ctx, it)
		latency := float64(time.Since(start).Milliseconds())
		if ok {
			metrics.EventDeliveries.WithLabelValues(it.EventType, "delivered").Inc()
			metrics.EventLatency.WithLabelValues(it.EventType, "delivered").Observe(latency)
			_ = w.Store.MarkDelivery(ctx, it.ID)
			continue
		}
		if it.Attempts+1 >= w.MaxAttempts {
			metrics.EventDeliveries.WithLabelValues(it.EventType, "failed").Inc()
			_ = w.Store.MarkDelivery(ctx, it.ID)
			continue
		}
		metrics.EventDeliveries.WithLabelValues(it.EventType, "retry").Inc()
		metrics.EventLatency.WithLabelValues(it.EventType, "retry").Observe(latency)
		_ = w.Store.FailDelivery(ctx, it.ID, time.Now().UTC().Add(nextBackoff(it.Attempts)))
	}
}

func (w *Worker) deliver(ctx context.Context, d store.Delivery) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(d.Payload))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", d.EventType)
	if d.Secret != "" {
		req.Header.Set("X-Signature", SignHMAC(d.Secret, d.Payload))
	}
	resp, err := w.HTTP.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func nextBackoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 10 {
		attempts = 10
	}
	base := time.Second * time.Duration(1<<attempts)
	if base > time.Hour {
		base = time.Hour
	}
	return base
}
