package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"routeopt/internal/model"
)

// Memory is the in-memory Store used by tests and single-node development.
type Memory struct {
	mu         sync.Mutex
	routes     map[string]model.SavedRoute
	subs       map[string]model.Subscription
	deliveries map[string]Delivery
}

func NewMemory() *Memory {
	return &Memory{
		routes:     map[string]model.SavedRoute{},
		subs:       map[string]model.Subscription{},
		deliveries: map[string]Delivery{},
	}
}

func (m *Memory) SaveRoute(ctx context.Context, payload json.RawMessage, name, description, owner string) (model.SavedRoute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	r := model.SavedRoute{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Payload:     append(json.RawMessage(nil), payload...),
		Owner:       owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.routes[r.ID] = r
	return r, nil
}

func (m *Memory) ListSavedRoutes(ctx context.Context, search, owner string) ([]model.SavedRoute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(search)
	out := make([]model.SavedRoute, 0, len(m.routes))
	for _, r := range m.routes {
		if r.Owner != owner {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(r.Name), q) && !strings.Contains(strings.ToLower(r.Description), q) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) GetSavedRoute(ctx context.Context, id, owner string) (model.SavedRoute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routes[id]
	if !ok || r.Owner != owner {
		return model.SavedRoute{}, ErrNotFound
	}
	return r, nil
}

func (m *Memory) DeleteSavedRoute(ctx context.Context, id, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routes[id]
	if !ok || r.Owner != owner {
		return ErrNotFound
	}
	delete(m.routes, id)
	return nil
}

func (m *Memory) TouchSavedRoute(ctx context.Context, id, owner string) (model.SavedRoute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.routes[id]
	if !ok || r.Owner != owner {
		return model.SavedRoute{}, ErrNotFound
	}
	r.UseCount++
	r.UpdatedAt = time.Now().UTC()
	m.routes[id] = r
	return r, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := model.Subscription{
		ID:     uuid.NewString(),
		URL:    req.URL,
		Events: append([]string(nil), req.Events...),
		Secret: req.Secret,
		Owner:  req.Owner,
	}
	m.subs[sub.ID] = sub
	return sub, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, owner string) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Subscription, 0, len(m.subs))
	for _, s := range m.subs {
		if s.Owner != owner {
			continue
		}
		s.Secret = ""
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, id, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok || s.Owner != owner {
		return ErrNotFound
	}
	delete(m.subs, id)
	return nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Subscription
	for _, s := range m.subs {
		for _, e := range s.Events {
			if e == eventType || e == "*" {
				out = append(out, s)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) EnqueueDelivery(ctx context.Context, d Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	m.deliveries[d.ID] = d
	return nil
}

func (m *Memory) FetchDueDeliveries(ctx context.Context, now time.Time, limit int) ([]Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []Delivery
	for _, d := range m.deliveries {
		if !d.NextAttemptAt.After(now) {
			due = append(due, d)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextAttemptAt.Before(due[j].NextAttemptAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *Memory) MarkDelivery(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.deliveries[id]; !ok {
		return ErrNotFound
	}
	delete(m.deliveries, id)
	return nil
}

func (m *Memory) FailDelivery(ctx context.Context, id string, nextAttemptAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.NextAttemptAt = nextAttemptAt
	m.deliveries[id] = d
	return nil
}
