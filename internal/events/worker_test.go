package events

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"routeopt/internal/model"
	"routeopt/internal/store"
)

func TestPublisherEnqueuesPerSubscription(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	_, _ = st.CreateSubscription(ctx, model.SubscriptionRequest{URL: "https://a.example/hook", Events: []string{"route.optimization.completed"}})
	_, _ = st.CreateSubscription(ctx, model.SubscriptionRequest{URL: "https://b.example/hook", Events: []string{"*"}})
	_, _ = st.CreateSubscription(ctx, model.SubscriptionRequest{URL: "https://c.example/hook", Events: []string{"other.event"}})

	NewPublisher(st).Emit(ctx, "route.optimization.completed", map[string]any{"requestId": "r1"})

	due, err := st.FetchDueDeliveries(ctx, time.Now().UTC().Add(time.Second), 10)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("enqueued %d deliveries, want 2", len(due))
	}
}

func TestWorkerDeliversSignedPayload(t *testing.T) {
	var gotSig, gotType atomic.Value
	var body atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body.Store(b)
		gotSig.Store(r.Header.Get("X-Signature"))
		gotType.Store(r.Header.Get("X-Event-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st := store.NewMemory()
	ctx := context.Background()
	_, _ = st.CreateSubscription(ctx, model.SubscriptionRequest{URL: srv.URL, Events: []string{"*"}, Secret: "topsecret"})
	NewPublisher(st).Emit(ctx, "route.optimization.completed", map[string]any{"requestId": "r1"})

	w := NewWorker(st)
	w.ProcessOnce()

	b, _ := body.Load().([]byte)
	if len(b) == 0 {
		t.Fatal("no delivery received")
	}
	sig, _ := gotSig.Load().(string)
	if !VerifyHMAC("topsecret", b, sig) {
		t.Fatalf("signature %q does not verify", sig)
	}
	if et, _ := gotType.Load().(string); et != "route.optimization.completed" {
		t.Fatalf("event type header %q", et)
	}
	if due, _ := st.FetchDueDeliveries(ctx, time.Now().UTC().Add(time.Hour), 10); len(due) != 0 {
		t.Fatalf("delivered item still queued: %+v", due)
	}
}

func TestWorkerRetriesWithBackoff(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	st := store.NewMemory()
	ctx := context.Background()
	_, _ = st.CreateSubscription(ctx, model.SubscriptionRequest{URL: srv.URL, Events: []string{"*"}})
	NewPublisher(st).Emit(ctx, "route.optimization.completed", nil)

	w := NewWorker(st)
	w.ProcessOnce()
	if calls.Load() != 1 {
		t.Fatalf("calls %d, want 1", calls.Load())
	}

	// rescheduled into the future, so an immediate pass is a no-op
	w.ProcessOnce()
	if calls.Load() != 1 {
		t.Fatalf("retried before backoff elapsed: %d calls", calls.Load())
	}
	due, _ := st.FetchDueDeliveries(ctx, time.Now().UTC().Add(2*time.Hour), 10)
	if len(due) != 1 || due[0].Attempts != 1 {
		t.Fatalf("queue %+v, want one delivery with attempts=1", due)
	}
}

func TestWorkerDropsAfterMaxAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	st := store.NewMemory()
	ctx := context.Background()
	_ = st.EnqueueDelivery(ctx, store.Delivery{URL: srv.URL, EventType: "e", Payload: []byte(`{}`), Attempts: 9})

	w := NewWorker(st)
	w.MaxAttempts = 10
	w.ProcessOnce()

	if due, _ := st.FetchDueDeliveries(ctx, time.Now().UTC().Add(24*time.Hour), 10); len(due) != 0 {
		t.Fatalf("exhausted delivery still queued: %+v", due)
	}
}

func TestNextBackoffGrowsAndCaps(t *testing.T) {
	if nextBackoff(0) != time.Second {
		t.Fatalf("attempt 0: %v", nextBackoff(0))
	}
	if nextBackoff(3) != 8*time.Second {
		t.Fatalf("attempt 3: %v", nextBackoff(3))
	}
	if nextBackoff(100) != time.Hour {
		t.Fatalf("attempt 100: %v, want 1h cap", nextBackoff(100))
	}
}
