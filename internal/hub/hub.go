// Package hub fans market updates out to live-update subscribers.
// Delivery is best-effort: a slow or disconnected subscriber drops
// updates, it never stalls the publisher.
package hub

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Broadcast is the push-delivery capability consumed by feed ingestion.
type Broadcast interface {
	Publish(topic string, payload any)
}

// Update is one published event as delivered to a subscriber.
type Update struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

// Subscriber receives updates on C until Unsubscribe.
type Subscriber struct {
	C chan Update
}

// Hub is a registry of active subscribers with per-subscriber buffers.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscriber]struct{}
	buffer  int
	dropped atomic.Uint64
}

// NewHub creates a hub whose subscribers buffer up to buffer updates.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[*Subscriber]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{C: make(chan Update, h.buffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.C)
	}
	h.mu.Unlock()
}

// Publish delivers an update to every subscriber without blocking.
// A subscriber with a full buffer misses this update.
func (h *Hub) Publish(topic string, payload any) {
	u := Update{Topic: topic, Payload: payload}

	h.mu.RLock()
	for s := range h.subs {
		select {
		case s.C <- u:
		default:
			h.dropped.Add(1)
			slog.Debug("Hub subscriber buffer full, update dropped", "topic", topic)
		}
	}
	h.mu.RUnlock()
}

// Dropped returns the number of updates dropped due to full buffers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
