package market

import (
	"sort"
	"strings"
	"sync"

	"github.com/deguesju25paag-cyber/TradePro/internal/domain"
)

// Cache holds the latest quote per tracked symbol. It is the hand-off
// point between feed ingestion and every reader in the process; the
// durable store always lags it.
//
// Writers hold the lock only for the map mutation itself, never during
// parsing or I/O.
type Cache struct {
	mu      sync.RWMutex
	quotes  map[string]domain.MarketQuote
	hasData bool
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{quotes: make(map[string]domain.MarketQuote, len(symbolToID))}
}

// Upsert replaces or inserts the entry for the quote's symbol.
// Quotes for symbols outside the tracked universe are ignored.
func (c *Cache) Upsert(q domain.MarketQuote) {
	sym := strings.ToUpper(q.Symbol)
	if !Tracked(sym) {
		return
	}
	q.Symbol = sym

	c.mu.Lock()
	c.quotes[sym] = q
	c.hasData = true
	c.mu.Unlock()
}

// ReplaceAll atomically swaps the whole table. A concurrent reader
// observes either the old or the new table in full, never a mix.
func (c *Cache) ReplaceAll(qs []domain.MarketQuote) {
	next := make(map[string]domain.MarketQuote, len(qs))
	for _, q := range qs {
		sym := strings.ToUpper(q.Symbol)
		if !Tracked(sym) {
			continue
		}
		q.Symbol = sym
		next[sym] = q
	}

	c.mu.Lock()
	c.quotes = next
	c.hasData = c.hasData || len(next) > 0
	c.mu.Unlock()
}

// Snapshot returns a point-in-time copy sorted by symbol. Callers must
// request a fresh snapshot to see later updates.
func (c *Cache) Snapshot() []domain.MarketQuote {
	c.mu.RLock()
	out := make([]domain.MarketQuote, 0, len(c.quotes))
	for _, q := range c.quotes {
		out = append(out, q)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// HasData reports whether at least one successful upsert or replace has
// happened since startup. The serving path uses it to decide whether a
// cold cache should fall back to a synchronous fetch.
func (c *Cache) HasData() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasData
}
