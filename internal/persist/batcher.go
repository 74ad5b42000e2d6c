// Package persist converts the continuous stream of cache updates into
// a small number of durable writes.
package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/deguesju25paag-cyber/TradePro/internal/domain"
	"github.com/deguesju25paag-cyber/TradePro/internal/market"
	"github.com/deguesju25paag-cyber/TradePro/internal/storage"
)

// Batcher drains the pending-write buffer on a fixed interval and
// writes only the rows that actually changed.
type Batcher struct {
	store    storage.Store
	pending  *market.PendingWrites
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBatcher creates a batcher flushing every interval.
func NewBatcher(store storage.Store, pending *market.PendingWrites, interval time.Duration) *Batcher {
	return &Batcher{store: store, pending: pending, interval: interval}
}

// Start launches the flush loop. Store failures are logged and retried
// implicitly on the next interval; they never stop the loop.
func (b *Batcher) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := b.Flush(ctx); err != nil {
					slog.Warn("Persistence flush failed", "err", err)
				} else if n > 0 {
					slog.Debug("Persistence flush", "rows", n)
				}
			}
		}
	}()
}

// Stop ends the flush loop and waits for it.
func (b *Batcher) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
}

// Flush drains the pending buffer, diffs against the stored rows and
// writes the changed ones in one batch. It returns the number of rows
// written. Draining an empty buffer performs zero store operations.
func (b *Batcher) Flush(ctx context.Context) (int, error) {
	batch := b.pending.Drain()
	if len(batch) == 0 {
		return 0, nil
	}

	symbols := make([]string, 0, len(batch))
	for sym := range batch {
		symbols = append(symbols, sym)
	}

	stored, err := b.store.LoadMarkets(ctx, symbols)
	if err != nil {
		return 0, err
	}

	changed := make([]domain.MarketQuote, 0, len(batch))
	for sym, quote := range batch {
		// The zero price sentinel never reaches durable storage.
		if quote.Price.IsZero() {
			continue
		}
		if row, ok := stored[sym]; ok && row.Same(quote) {
			continue
		}
		changed = append(changed, quote)
	}

	if len(changed) == 0 {
		return 0, nil
	}
	if err := b.store.UpsertMarkets(ctx, changed); err != nil {
		return 0, err
	}
	return len(changed), nil
}
