package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deguesju25paag-cyber/TradePro/internal/domain"
	"github.com/deguesju25paag-cyber/TradePro/internal/market"
	"github.com/shopspring/decimal"
)

func newTestPoller(serverURL string) (*Poller, *market.Cache, *market.PendingWrites) {
	cache := market.NewCache()
	pending := market.NewPendingWrites()
	p := NewPoller(serverURL, 30*time.Second, cache, pending)
	return p, cache, pending
}

func TestPoller_AppliesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("vs_currencies") != "usd" {
			t.Errorf("Missing vs_currencies param")
		}
		w.Write([]byte(`{
			"bitcoin": {"usd": 50000.5, "usd_24h_change": 2.5},
			"ethereum": {"usd": 3000, "usd_24h_change": -1.2},
			"some-unknown-coin": {"usd": 1, "usd_24h_change": 0},
			"solana": {"usd": 0, "usd_24h_change": 1.0}
		}`))
	}))
	defer srv.Close()

	p, cache, pending := newTestPoller(srv.URL)
	if err := p.fetch(context.Background()); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	snap := cache.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Expected 2 applied quotes (unknown and zero-price skipped), got %d", len(snap))
	}
	if snap[0].Symbol != "BTC" || !snap[0].Price.Equal(decimal.RequireFromString("50000.5")) {
		t.Errorf("BTC quote mismatch: %+v", snap[0])
	}
	if snap[1].Symbol != "ETH" || snap[1].IsUp {
		t.Errorf("ETH quote mismatch: %+v", snap[1])
	}
	if pending.Len() != 2 {
		t.Errorf("Expected 2 pending writes, got %d", pending.Len())
	}
}

func TestPoller_AbsentSymbolsLeftUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin": {"usd": 50000, "usd_24h_change": 2.5}}`))
	}))
	defer srv.Close()

	p, cache, _ := newTestPoller(srv.URL)
	cache.Upsert(domain.NewMarketQuote("XRP", decimal.RequireFromString("0.78"), 0.9))

	if err := p.fetch(context.Background()); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	snap := cache.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Expected XRP to survive a poll cycle that omits it, got %+v", snap)
	}
	if snap[0].Symbol != "BTC" || snap[1].Symbol != "XRP" {
		t.Errorf("Unexpected snapshot contents: %+v", snap)
	}
}

func TestPoller_RateLimitBackoffProgression(t *testing.T) {
	p, _, _ := newTestPoller("http://unused.invalid")

	// Repeated 429s without Retry-After: strictly increasing up to the cap.
	limited := &rateLimitedError{}
	prev := time.Duration(0)
	for i := 0; i < 5; i++ {
		d := p.nextDelay(limited)
		if d <= prev {
			t.Fatalf("Delay %s at step %d not greater than previous %s", d, i, prev)
		}
		prev = d
	}
	for i := 0; i < 10; i++ {
		if d := p.nextDelay(limited); d > 600*time.Second {
			t.Fatalf("Delay %s exceeds the 600s cap", d)
		}
	}

	// One success resets to the base interval.
	if d := p.nextDelay(nil); d != 30*time.Second {
		t.Errorf("Delay after success = %s, want 30s", d)
	}
	if d := p.nextDelay(limited); d != 30*time.Second {
		t.Errorf("First backoff after reset = %s, want 30s", d)
	}
}

func TestPoller_HonorsRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "42")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, cache, _ := newTestPoller(srv.URL)
	err := p.fetch(context.Background())

	var rl *rateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("Expected rateLimitedError, got %v", err)
	}
	if rl.RetryAfter != 42*time.Second {
		t.Errorf("RetryAfter = %s, want 42s", rl.RetryAfter)
	}
	if d := p.nextDelay(err); d != 42*time.Second {
		t.Errorf("nextDelay = %s, want the server-supplied 42s", d)
	}
	if cache.HasData() {
		t.Errorf("Cache must be untouched on a rate-limited cycle")
	}
}

func TestPoller_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p, _, _ := newTestPoller(srv.URL)
	err := p.fetch(context.Background())
	if err == nil {
		t.Fatalf("Expected an error for 502")
	}
	// Plain failures wait out the base interval, no backoff.
	if d := p.nextDelay(err); d != 30*time.Second {
		t.Errorf("nextDelay = %s, want base interval", d)
	}
}

func TestPoller_FetchOnceThrottled(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"bitcoin": {"usd": 1000, "usd_24h_change": 0.5}}`))
	}))
	defer srv.Close()

	p, cache, _ := newTestPoller(srv.URL)

	if err := p.FetchOnce(context.Background()); err != nil {
		t.Fatalf("First FetchOnce failed: %v", err)
	}
	if !cache.HasData() {
		t.Fatalf("Cache must be populated by FetchOnce")
	}

	// A burst of cold readers shares the first fetch.
	if err := p.FetchOnce(context.Background()); err == nil {
		t.Errorf("Second immediate FetchOnce must be throttled")
	}
	if calls != 1 {
		t.Errorf("Upstream called %d times, want 1", calls)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter(""); d != 0 {
		t.Errorf("Empty header = %s, want 0", d)
	}
	if d := parseRetryAfter("90"); d != 90*time.Second {
		t.Errorf("Seconds form = %s, want 90s", d)
	}
	date := time.Now().Add(2 * time.Minute).UTC().Format(http.TimeFormat)
	if d := parseRetryAfter(date); d < time.Minute || d > 2*time.Minute {
		t.Errorf("Date form = %s, want ~2m", d)
	}
	if d := parseRetryAfter(time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)); d != 0 {
		t.Errorf("Past date = %s, want 0", d)
	}
}
