package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/deguesju25paag-cyber/TradePro/internal/domain"
	"github.com/deguesju25paag-cyber/TradePro/internal/infra"
	"github.com/deguesju25paag-cyber/TradePro/internal/market"
	"github.com/shopspring/decimal"
)

const userAgent = "TradeProServer/1.0"

// rateLimitedError signals an upstream 429 and carries the
// server-supplied retry delay when one was present.
type rateLimitedError struct {
	RetryAfter time.Duration
}

func (e *rateLimitedError) Error() string {
	return fmt.Sprintf("rate limited (retry after %s)", e.RetryAfter)
}

// coinEntry is one coin's slice of the aggregator response.
type coinEntry struct {
	USD    decimal.Decimal `json:"usd"`
	Change float64         `json:"usd_24h_change"`
}

// Poller is the fallback ingestion path: one batched aggregator request
// for every tracked symbol on a base interval, with rate-limit backoff.
type Poller struct {
	restURL  string
	interval time.Duration
	client   *http.Client
	cache    *market.Cache
	pending  *market.PendingWrites
	backoff  *infra.Backoff
	limiter  *infra.RateLimiter
}

// NewPoller creates a poller against the given simple/price endpoint.
func NewPoller(restURL string, interval time.Duration, cache *market.Cache, pending *market.PendingWrites) *Poller {
	return &Poller{
		restURL:  restURL,
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
		cache:    cache,
		pending:  pending,
		backoff:  infra.NewBackoff(30*time.Second, 600*time.Second),
		// FetchOnce guard: cold-cache readers share one fetch per window.
		limiter: infra.NewRateLimiter(1, 0.2),
	}
}

// Run polls until ctx is cancelled. Rate limiting stretches the delay
// (Retry-After wins over the computed backoff); the first success snaps
// back to the base interval. Never returns an error: every failure is
// contained in its own cycle.
func (p *Poller) Run(ctx context.Context) {
	for {
		err := p.fetch(ctx)
		if err != nil && ctx.Err() != nil {
			return
		}
		delay := p.nextDelay(err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// nextDelay decides how long to sleep after one poll cycle. Success
// snaps back to the base interval; a 429 honors Retry-After when
// present, otherwise the exponential backoff; any other failure just
// waits out the base interval.
func (p *Poller) nextDelay(err error) time.Duration {
	var rl *rateLimitedError
	switch {
	case err == nil:
		p.backoff.Reset()
		return p.interval
	case errors.As(err, &rl):
		delay := rl.RetryAfter
		if delay <= 0 {
			delay = p.backoff.Next()
		}
		slog.Warn("Aggregator rate limited, backing off", "delay", delay)
		return delay
	default:
		slog.Warn("Poll cycle failed", "err", err)
		return p.interval
	}
}

// FetchOnce performs a single synchronous poll, used by the serving
// path when the cache is cold. A token bucket keeps concurrent cold
// readers from hammering the aggregator.
func (p *Poller) FetchOnce(ctx context.Context) error {
	if !p.limiter.TryAcquire() {
		return errors.New("synchronous fetch throttled")
	}
	return p.fetch(ctx)
}

func (p *Poller) fetch(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	q := url.Values{}
	q.Set("ids", strings.Join(market.CoinIDs(), ","))
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.restURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &rateLimitedError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var data map[string]coinEntry
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Errorf("failed to parse aggregator response: %w", err)
	}

	applied := 0
	for id, entry := range data {
		symbol, ok := market.SymbolForID(id)
		if !ok {
			continue
		}
		// A zero price is the unset sentinel: never cached, never persisted.
		if entry.USD.IsZero() {
			continue
		}

		// Symbols absent from a poll response keep their cached value, so
		// the cycle upserts rather than swapping the whole table.
		quote := domain.NewMarketQuote(symbol, entry.USD, entry.Change)
		p.cache.Upsert(quote)
		p.pending.Put(quote)
		applied++
	}

	slog.Debug("Poll cycle applied", "symbols", applied)
	return nil
}

// parseRetryAfter handles both delta-seconds and HTTP-date forms.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
