// Package events fans optimization events out to subscriber webhooks. The
// publisher enqueues one delivery per matching subscription; the worker drains
// the queue with signed POSTs and exponential backoff.
package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"routeopt/internal/store"
)

// Publisher matches events against subscriptions and enqueues deliveries.
// Satisfies the orchestrator's EventSink.
type Publisher struct {
	Store store.Store
}

func NewPublisher(s store.Store) *Publisher {
	return &Publisher{Store: s}
}

// Emit enqueues a delivery per matching subscription. Best-effort: enqueue
// failures are logged and dropped, never surfaced to the producing run.
func (p *Publisher) Emit(ctx context.Context, event string, data map[string]any) {
	subs, err := p.Store.GetSubscriptionsForEvent(ctx, event)
	if err != nil {
		log.Printf("events: list subscriptions for %s: %v", event, err)
		return
	}
	if len(subs) == 0 {
		return
	}
	envelope := map[string]any{
		"id":   uuid.NewString(),
		"type": event,
		"ts":   time.Now().UTC().Format(time.RFC3339),
		"data": data,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("events: marshal %s: %v", event, err)
		return
	}
	for _, s := range subs {
		err := p.Store.EnqueueDelivery(ctx, store.Delivery{
			SubscriptionID: s.ID,
			URL:            s.URL,
			Secret:         s.Secret,
			EventType:      event,
			Payload:        body,
		})
		if err != nil {
			log.Printf("events: enqueue %s for %s: %v", event, s.URL, err)
		}
	}
}
