// Package feed keeps the market cache and the durable store eventually
// consistent with the upstream market: a streaming websocket as the
// primary path, a batched aggregator poll as the stand-in.
package feed

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/deguesju25paag-cyber/TradePro/internal/hub"
	"github.com/deguesju25paag-cyber/TradePro/internal/infra"
	"github.com/deguesju25paag-cyber/TradePro/internal/market"
)

// Service owns the lifecycles of both ingestion paths.
type Service struct {
	stream *StreamWorker
	poller *Poller

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService wires both paths against the shared cache, pending-write
// buffer and broadcast hub.
func NewService(cfg *infra.Config, cache *market.Cache, pending *market.PendingWrites, broadcast hub.Broadcast) *Service {
	streamURL := cfg.Feed.StreamURL
	// The combined endpoint lives under /stream on Binance-style hosts.
	if !strings.HasSuffix(streamURL, "/stream") {
		streamURL = strings.TrimSuffix(streamURL, "/") + "/stream"
	}

	stream := NewStreamWorker(streamURL, cache, pending, broadcast)
	stream.SetReconnectDelay(time.Duration(cfg.Feed.ReconnectSec) * time.Second)

	poller := NewPoller(cfg.Feed.RestURL, time.Duration(cfg.Feed.PollIntervalSec)*time.Second, cache, pending)

	return &Service{stream: stream, poller: poller}
}

// Poller exposes the fallback path for the serving layer's cold-cache fetch.
func (s *Service) Poller() *Poller {
	return s.poller
}

// Start launches the streaming worker and the polling loop.
func (s *Service) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.stream.Connect(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.poller.Run(ctx)
	}()

	slog.Info("Feed ingestion started",
		"symbols", len(market.Symbols()),
		"poll_interval", s.poller.interval)
}

// Stop tears both paths down and waits for them to finish.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.stream.Disconnect()
	s.wg.Wait()
}
