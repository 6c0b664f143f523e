package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisBroker implements EventBroker over Redis Pub/Sub for multi-node
// deployments.
type RedisBroker struct {
	rdb  *redis.Client
	mu   sync.Mutex
	subs map[chan StreamEvent]*redis.PubSub
}

func NewRedisBroker(url string) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisBroker{
		rdb:  redis.NewClient(opt),
		subs: map[chan StreamEvent]*redis.PubSub{},
	}, nil
}

func (b *RedisBroker) Subscribe(topic string) chan StreamEvent {
	ch := make(chan StreamEvent, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.chanName(topic))
	// initial receive confirms the subscription before we hand out the channel
	_, _ = ps.Receive(ctx)
	b.mu.Lock()
	b.subs[ch] = ps
	b.mu.Unlock()
	go func() {
		// sole closer of ch; Unsubscribe ends the range by closing the pubsub
		defer close(ch)
		for msg := range ps.Channel() {
			var evt StreamEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err == nil {
				select {
				case ch <- evt:
				default:
				}
			}
		}
	}()
	return ch
}

func (b *RedisBroker) Unsubscribe(topic string, ch chan StreamEvent) {
	b.mu.Lock()
	ps := b.subs[ch]
	delete(b.subs, ch)
	b.mu.Unlock()
	if ps != nil {
		_ = ps.Close()
	}
}

func (b *RedisBroker) Publish(topic string, evt StreamEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, _ := json.Marshal(evt)
	_ = b.rdb.Publish(ctx, b.chanName(topic), data).Err()
	if topic != "*" {
		_ = b.rdb.Publish(ctx, b.chanName("*"), data).Err()
	}
}

func (b *RedisBroker) chanName(topic string) string { return "optimizations:" + topic }
