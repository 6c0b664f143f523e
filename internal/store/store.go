// Package store persists saved routes, event subscriptions, and the webhook
// delivery queue. Two implementations: in-memory for development and tests,
// Postgres for production.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"routeopt/internal/model"
)

// ErrNotFound is returned when a lookup misses or the owner does not match.
var ErrNotFound = errors.New("not found")

// Delivery is one pending webhook delivery. FailDelivery reschedules it until
// attempts exhaust the worker's retry budget.
type Delivery struct {
	ID             string
	SubscriptionID string
	URL            string
	Secret         string
	EventType      string
	Payload        json.RawMessage
	Attempts       int
	NextAttemptAt  time.Time
	CreatedAt      time.Time
}

type Store interface {
	// Saved routes. All operations are owner-scoped: a route is only visible
	// to the owner that created it.
	SaveRoute(ctx context.Context, payload json.RawMessage, name, description, owner string) (model.SavedRoute, error)
	ListSavedRoutes(ctx context.Context, search, owner string) ([]model.SavedRoute, error)
	GetSavedRoute(ctx context.Context, id, owner string) (model.SavedRoute, error)
	DeleteSavedRoute(ctx context.Context, id, owner string) error
	// TouchSavedRoute bumps the use counter when a saved route is re-run.
	TouchSavedRoute(ctx context.Context, id, owner string) (model.SavedRoute, error)

	// Event subscriptions.
	CreateSubscription(ctx context.Context, sub model.SubscriptionRequest) (model.Subscription, error)
	ListSubscriptions(ctx context.Context, owner string) ([]model.Subscription, error)
	DeleteSubscription(ctx context.Context, id, owner string) error
	GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error)

	// Delivery queue.
	EnqueueDelivery(ctx context.Context, d Delivery) error
	FetchDueDeliveries(ctx context.Context, now time.Time, limit int) ([]Delivery, error)
	MarkDelivery(ctx context.Context, id string) error
	FailDelivery(ctx context.Context, id string, nextAttemptAt time.Time) error
}
