package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deguesju25paag-cyber/TradePro/internal/app"
	"github.com/deguesju25paag-cyber/TradePro/internal/feed"
	"github.com/deguesju25paag-cyber/TradePro/internal/hub"
	"github.com/deguesju25paag-cyber/TradePro/internal/infra"
	"github.com/deguesju25paag-cyber/TradePro/internal/market"
	"github.com/deguesju25paag-cyber/TradePro/internal/persist"
	"github.com/deguesju25paag-cyber/TradePro/internal/server"
)

func main() {
	// 1. Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. System bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(ctx); err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer bootstrap.Close()

	cfg := bootstrap.Config
	infra.PrintBanner(cfg)

	// 3. Shared state: the cache is the hand-off point between
	// ingestion and every reader in the process.
	cache := market.NewCache()
	pending := market.NewPendingWrites()
	updates := hub.NewHub(cfg.Hub.BufferSize)

	// 4. Feed ingestion (streaming primary, polling fallback)
	ingestion := feed.NewService(cfg, cache, pending, updates)
	ingestion.Start(ctx)
	defer ingestion.Stop()

	// 5. Periodic batched persistence
	batcher := persist.NewBatcher(bootstrap.Store, pending, time.Duration(cfg.Persist.FlushIntervalSec)*time.Second)
	batcher.Start(ctx)
	defer batcher.Stop()

	// 6. Live-update hub for push subscribers
	mux := http.NewServeMux()
	mux.HandleFunc("/updates", updates.ServeWS)
	hubSrv := &http.Server{Addr: cfg.Hub.Addr, Handler: mux}
	go func() {
		slog.Info("Updates hub listening", "addr", cfg.Hub.Addr)
		if err := hubSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Updates hub failed", slog.Any("error", err))
		}
	}()
	defer hubSrv.Close()

	// 7. Secure socket server
	secure := server.New(cfg.Server.Addr, bootstrap.Cert, bootstrap.Store, cache,
		ingestion.Poller().FetchOnce, cfg.Server.MaxHandlers)
	if err := secure.Start(ctx); err != nil {
		slog.Error("Secure server failed to start", slog.Any("error", err))
		os.Exit(1)
	}
	defer secure.Stop()

	slog.InfoContext(ctx, "TradePro server fully operational. Press Ctrl+C to exit.")

	// Wait for shutdown signal
	<-ctx.Done()
	slog.InfoContext(ctx, "Shutting down gracefully...")
}
