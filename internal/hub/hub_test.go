package hub

import (
	"testing"
	"time"
)

func TestHub_FanOut(t *testing.T) {
	h := NewHub(4)

	a := h.Subscribe()
	b := h.Subscribe()
	if h.Subscribers() != 2 {
		t.Fatalf("Expected 2 subscribers, got %d", h.Subscribers())
	}

	h.Publish("MarketUpdated", "payload-1")

	for _, sub := range []*Subscriber{a, b} {
		select {
		case u := <-sub.C:
			if u.Topic != "MarketUpdated" || u.Payload != "payload-1" {
				t.Errorf("Unexpected update %+v", u)
			}
		case <-time.After(time.Second):
			t.Fatalf("Subscriber did not receive the update")
		}
	}
}

func TestHub_SlowSubscriberDropsNotBlocks(t *testing.T) {
	h := NewHub(2)
	slow := h.Subscribe()

	// Publish more than the buffer without draining; must return promptly.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.Publish("MarketUpdated", i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Publish blocked on a slow subscriber")
	}

	if h.Dropped() != 8 {
		t.Errorf("Expected 8 dropped updates, got %d", h.Dropped())
	}
	if len(slow.C) != 2 {
		t.Errorf("Expected buffer to hold 2 updates, got %d", len(slow.C))
	}
}

func TestHub_UnsubscribeIdempotent(t *testing.T) {
	h := NewHub(1)
	s := h.Subscribe()

	h.Unsubscribe(s)
	h.Unsubscribe(s) // second call must not panic on the closed channel

	if h.Subscribers() != 0 {
		t.Errorf("Expected no subscribers, got %d", h.Subscribers())
	}

	// Publishing with no subscribers is a no-op.
	h.Publish("MarketUpdated", "x")
}
