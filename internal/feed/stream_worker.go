package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/deguesju25paag-cyber/TradePro/internal/domain"
	"github.com/deguesju25paag-cyber/TradePro/internal/hub"
	"github.com/deguesju25paag-cyber/TradePro/internal/infra"
	"github.com/deguesju25paag-cyber/TradePro/internal/market"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// TopicMarketUpdated is the broadcast topic for per-tick push delivery.
const TopicMarketUpdated = "MarketUpdated"

// streamEnvelope wraps every message on the Binance combined stream.
type streamEnvelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// tickerPayload is the subset of the @ticker event we consume.
// Binance serializes prices as strings.
type tickerPayload struct {
	EventType     string `json:"e"` // "24hrTicker"
	Symbol        string `json:"s"` // "BTCUSDT"
	LastPrice     string `json:"c"`
	ChangePercent string `json:"P"`
}

// StreamWorker drives the primary streaming path: one physical
// websocket multiplexing a @ticker logical stream per tracked symbol.
type StreamWorker struct {
	base      *infra.BaseWSWorker
	url       string
	cache     *market.Cache
	pending   *market.PendingWrites
	broadcast hub.Broadcast
}

// NewStreamWorker creates a worker for the given combined-stream endpoint.
func NewStreamWorker(url string, cache *market.Cache, pending *market.PendingWrites, broadcast hub.Broadcast) *StreamWorker {
	w := &StreamWorker{
		url:       url,
		cache:     cache,
		pending:   pending,
		broadcast: broadcast,
	}
	w.base = infra.NewBaseWSWorker(w)
	return w
}

// SetReconnectDelay overrides the fixed reconnect delay.
func (w *StreamWorker) SetReconnectDelay(d time.Duration) {
	w.base.ReconnectDelay = d
}

// ID returns the worker identifier.
func (w *StreamWorker) ID() string { return "BINANCE" }

// GetURL returns the combined-stream endpoint.
func (w *StreamWorker) GetURL() string { return w.url }

// Connect starts the connection loop.
func (w *StreamWorker) Connect(ctx context.Context) {
	w.base.Start(ctx)
}

// Disconnect terminates the connection loop.
func (w *StreamWorker) Disconnect() {
	w.base.Stop()
}

// OnConnect subscribes every tracked symbol over the fresh connection.
func (w *StreamWorker) OnConnect(ctx context.Context, conn *websocket.Conn) error {
	sub := map[string]any{
		"method": "SUBSCRIBE",
		"params": market.StreamNames(),
		"id":     time.Now().UnixNano(),
	}
	b, _ := json.Marshal(sub)
	return w.base.Write(websocket.TextMessage, b)
}

// OnMessage handles one incoming frame. Malformed ticks are dropped and
// logged; they never tear the connection down.
func (w *StreamWorker) OnMessage(ctx context.Context, msg []byte) {
	var env streamEnvelope
	if err := json.Unmarshal(msg, &env); err != nil || len(env.Data) == 0 {
		// Subscribe acks and control frames land here; not ticks.
		return
	}

	var tick tickerPayload
	if err := json.Unmarshal(env.Data, &tick); err != nil || tick.EventType != "24hrTicker" {
		return
	}

	symbol := strings.ToUpper(strings.TrimSuffix(tick.Symbol, "USDT"))
	if !market.Tracked(symbol) {
		slog.Debug("Dropping tick for untracked symbol", "symbol", tick.Symbol)
		return
	}

	price, err := decimal.NewFromString(tick.LastPrice)
	if err != nil || price.IsZero() {
		slog.Warn("Dropping tick with unparseable price", "symbol", symbol, "raw", tick.LastPrice)
		return
	}

	change, err := strconv.ParseFloat(tick.ChangePercent, 64)
	if err != nil {
		slog.Warn("Dropping tick with unparseable change", "symbol", symbol, "raw", tick.ChangePercent)
		return
	}

	quote := domain.NewMarketQuote(symbol, price, change)
	w.cache.Upsert(quote)
	w.pending.Put(quote)

	// Best-effort push; the hub never blocks ingestion.
	if w.broadcast != nil {
		w.broadcast.Publish(TopicMarketUpdated, quote)
	}
}

// OnPing keeps intermediaries from idling the connection out.
func (w *StreamWorker) OnPing(ctx context.Context, conn *websocket.Conn) error {
	return w.base.Write(websocket.PingMessage, nil)
}
