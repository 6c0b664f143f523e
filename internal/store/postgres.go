package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"routeopt/internal/model"
)

// Postgres is the production Store.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	p := &Postgres{db: db}
	if err := p.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS saved_routes (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			payload JSONB NOT NULL,
			owner_id TEXT NOT NULL,
			use_count INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS saved_routes_owner_idx ON saved_routes (owner_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id UUID PRIMARY KEY,
			url TEXT NOT NULL,
			events JSONB NOT NULL,
			secret TEXT NOT NULL DEFAULT '',
			owner_id TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS event_deliveries (
			id UUID PRIMARY KEY,
			subscription_id UUID,
			url TEXT NOT NULL,
			secret TEXT NOT NULL DEFAULT '',
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			attempts INT NOT NULL DEFAULT 0,
			next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS event_deliveries_due_idx ON event_deliveries (next_attempt_at)`,
	}
	for _, s := range stmts {
		if _, err := p.db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) SaveRoute(ctx context.Context, payload json.RawMessage, name, description, owner string) (model.SavedRoute, error) {
	r := model.SavedRoute{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Payload:     payload,
		Owner:       owner,
	}
	row := p.db.QueryRowContext(ctx, `INSERT INTO saved_routes (id, name, description, payload, owner_id)
		VALUES ($1,$2,$3,$4,$5) RETURNING created_at, updated_at`, r.ID, r.Name, r.Description, []byte(payload), owner)
	if err := row.Scan(&r.CreatedAt, &r.UpdatedAt); err != nil {
		return model.SavedRoute{}, err
	}
	return r, nil
}

func (p *Postgres) ListSavedRoutes(ctx context.Context, search, owner string) ([]model.SavedRoute, error) {
	q := `SELECT id::text, name, description, payload, use_count, created_at, updated_at
		FROM saved_routes WHERE owner_id=$1`
	args := []any{owner}
	if search != "" {
		q += ` AND (name ILIKE $2 OR description ILIKE $2)`
		args = append(args, "%"+search+"%")
	}
	q += ` ORDER BY created_at DESC`
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.SavedRoute{}
	for rows.Next() {
		var r model.SavedRoute
		var payload []byte
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &payload, &r.UseCount, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.Payload = payload
		r.Owner = owner
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) GetSavedRoute(ctx context.Context, id, owner string) (model.SavedRoute, error) {
	var r model.SavedRoute
	var payload []byte
	row := p.db.QueryRowContext(ctx, `SELECT id::text, name, description, payload, use_count, created_at, updated_at
		FROM saved_routes WHERE id=$1 AND owner_id=$2`, id, owner)
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &payload, &r.UseCount, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.SavedRoute{}, ErrNotFound
		}
		return model.SavedRoute{}, err
	}
	r.Payload = payload
	r.Owner = owner
	return r, nil
}

func (p *Postgres) DeleteSavedRoute(ctx context.Context, id, owner string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM saved_routes WHERE id=$1 AND owner_id=$2`, id, owner)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) TouchSavedRoute(ctx context.Context, id, owner string) (model.SavedRoute, error) {
	res, err := p.db.ExecContext(ctx, `UPDATE saved_routes SET use_count=use_count+1, updated_at=now()
		WHERE id=$1 AND owner_id=$2`, id, owner)
	if err != nil {
		return model.SavedRoute{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.SavedRoute{}, ErrNotFound
	}
	return p.GetSavedRoute(ctx, id, owner)
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
	id := uuid.NewString()
	ev, _ := json.Marshal(req.Events)
	_, err := p.db.ExecContext(ctx, `INSERT INTO subscriptions (id, url, events, secret, owner_id)
		VALUES ($1,$2,$3,$4,$5)`, id, req.URL, ev, req.Secret, req.Owner)
	if err != nil {
		return model.Subscription{}, err
	}
	return model.Subscription{ID: id, URL: req.URL, Events: req.Events, Secret: req.Secret, Owner: req.Owner}, nil
}

func (p *Postgres) ListSubscriptions(ctx context.Context, owner string) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, url, events FROM subscriptions WHERE owner_id=$1 ORDER BY id`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Subscription{}
	for rows.Next() {
		var s model.Subscription
		var ev []byte
		if err := rows.Scan(&s.ID, &s.URL, &ev); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(ev, &s.Events)
		s.Owner = owner
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, id, owner string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id=$1 AND owner_id=$2`, id, owner)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, eventType string) ([]model.Subscription, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, url, secret, events, owner_id FROM subscriptions
		WHERE events @> $1::jsonb OR events @> '["*"]'::jsonb ORDER BY id`, `["`+eventType+`"]`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Subscription
	for rows.Next() {
		var s model.Subscription
		var ev []byte
		if err := rows.Scan(&s.ID, &s.URL, &s.Secret, &ev, &s.Owner); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(ev, &s.Events)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) EnqueueDelivery(ctx context.Context, d Delivery) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.NextAttemptAt.IsZero() {
		d.NextAttemptAt = time.Now().UTC()
	}
	var subID any
	if d.SubscriptionID != "" {
		subID = d.SubscriptionID
	}
	_, err := p.db.ExecContext(ctx, `INSERT INTO event_deliveries (id, subscription_id, url, secret, event_type, payload, attempts, next_attempt_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, subID, d.URL, d.Secret, d.EventType, []byte(d.Payload), d.Attempts, d.NextAttemptAt)
	return err
}

func (p *Postgres) FetchDueDeliveries(ctx context.Context, now time.Time, limit int) ([]Delivery, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `SELECT id::text, COALESCE(subscription_id::text,''), url, secret, event_type, payload, attempts, next_attempt_at, created_at
		FROM event_deliveries WHERE next_attempt_at <= $1 ORDER BY next_attempt_at LIMIT $2`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Delivery
	for rows.Next() {
		var d Delivery
		var payload []byte
		if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.URL, &d.Secret, &d.EventType, &payload, &d.Attempts, &d.NextAttemptAt, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Payload = payload
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkDelivery(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM event_deliveries WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) FailDelivery(ctx context.Context, id string, nextAttemptAt time.Time) error {
	res, err := p.db.ExecContext(ctx, `UPDATE event_deliveries SET attempts=attempts+1, next_attempt_at=$2 WHERE id=$1`, id, nextAttemptAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
