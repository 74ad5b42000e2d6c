package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/deguesju25paag-cyber/TradePro/internal/infra"
	"github.com/deguesju25paag-cyber/TradePro/internal/storage"
)

// Bootstrap orchestrates the startup sequence: config, logger,
// workspace, store, certificate. Everything after Initialize is plain
// constructor wiring in main.
type Bootstrap struct {
	Config *infra.Config
	Store  *storage.SQLiteStore
	Cert   tls.Certificate

	unlock func()
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization.
func (b *Bootstrap) Initialize(ctx context.Context) error {
	// 1. Load config
	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		return err
	}
	b.Config = cfg

	// 2. Setup logger
	slog.SetDefault(infra.NewLogger(cfg))

	// 3. Workspace layout: data (sqlite) and certs under one root
	workDir := infra.GetWorkspaceDir()
	dataDir := filepath.Join(workDir, "data")
	certDir := cfg.Server.CertDir
	if certDir == "" {
		certDir = filepath.Join(workDir, "certs")
	}
	if err := infra.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	// 3.1 Single-instance lock: two processes sharing one sqlite file
	// corrupt each other.
	unlock, err := infra.CreateLockFile(workDir)
	if err != nil {
		return err
	}
	b.unlock = unlock

	// 4. Open the store and seed a fresh install
	dbPath := cfg.Storage.Path
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "tradepro.db")
	}
	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		b.unlock()
		return err
	}
	b.Store = store
	if err := store.Seed(ctx); err != nil {
		slog.Warn("Seed failed", "err", err)
	}
	slog.Info("Store initialized (WAL-mode)", "path", dbPath)

	// 5. Certificate material for the secure socket server
	cert, err := infra.EnsureCertificate(certDir)
	if err != nil {
		b.Close()
		return err
	}
	b.Cert = cert
	slog.Info("Server certificate ready", "dir", certDir)

	return nil
}

// Close releases the resources Initialize acquired.
func (b *Bootstrap) Close() {
	if b.Store != nil {
		b.Store.Close()
	}
	if b.unlock != nil {
		b.unlock()
	}
}
