package market

import (
	"sync"

	"github.com/deguesju25paag-cyber/TradePro/internal/domain"
)

// PendingWrites accumulates quotes between persistence cycles.
// A newer tick for the same symbol overwrites the older pending entry
// (last-write-wins inside a batching window).
type PendingWrites struct {
	mu      sync.Mutex
	pending map[string]domain.MarketQuote
}

// NewPendingWrites creates an empty buffer.
func NewPendingWrites() *PendingWrites {
	return &PendingWrites{pending: make(map[string]domain.MarketQuote)}
}

// Put enqueues a quote for the next persistence cycle.
func (p *PendingWrites) Put(q domain.MarketQuote) {
	p.mu.Lock()
	p.pending[q.Symbol] = q
	p.mu.Unlock()
}

// Drain atomically swaps the buffer for an empty one and returns the
// old contents. A single swap, not drain-then-clear: upserts landing
// concurrently go into the fresh map and are never lost.
func (p *PendingWrites) Drain() map[string]domain.MarketQuote {
	p.mu.Lock()
	out := p.pending
	p.pending = make(map[string]domain.MarketQuote)
	p.mu.Unlock()
	return out
}

// Len returns the number of symbols currently queued.
func (p *PendingWrites) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
