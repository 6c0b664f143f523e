package api

import (
	"testing"
	"time"
)

func TestBrokerTopicFanout(t *testing.T) {
	b := NewBroker()
	alice := b.Subscribe("alice")
	wild := b.Subscribe("*")
	bob := b.Subscribe("bob")
	defer b.Unsubscribe("bob", bob)

	b.Publish("alice", StreamEvent{Type: "route.optimization.completed", Data: map[string]any{"requestId": "r1"}})

	select {
	case evt := <-alice:
		if evt.Type != "route.optimization.completed" {
			t.Fatalf("event %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("topic subscriber got nothing")
	}
	select {
	case <-wild:
	case <-time.After(time.Second):
		t.Fatal("wildcard subscriber got nothing")
	}
	select {
	case evt := <-bob:
		t.Fatalf("unrelated topic received %+v", evt)
	default:
	}

	b.Unsubscribe("alice", alice)
	if _, ok := <-alice; ok {
		t.Fatal("channel not closed on unsubscribe")
	}
	b.Unsubscribe("*", wild)
}

func TestBrokerDropsWhenSubscriberIsSlow(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("t")
	defer b.Unsubscribe("t", ch)
	// fill beyond the channel buffer; publish must never block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish("t", StreamEvent{Type: "e"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
