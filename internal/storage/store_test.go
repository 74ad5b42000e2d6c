package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/deguesju25paag-cyber/TradePro/internal/domain"
	"github.com/shopspring/decimal"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_Users(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Missing user is not an error
	_, found, err := store.FindUserByName(ctx, "nobody")
	if err != nil {
		t.Fatalf("FindUserByName failed: %v", err)
	}
	if found {
		t.Fatalf("Expected no user")
	}

	id, err := store.CreateUser(ctx, domain.Credential{
		Username:     "alice",
		PasswordHash: "$2a$10$fakehash",
		Balance:      domain.StartingBalance,
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if id == 0 {
		t.Errorf("Expected a non-zero user id")
	}

	cred, found, err := store.FindUserByName(ctx, "alice")
	if err != nil || !found {
		t.Fatalf("FindUserByName after create: found=%v err=%v", found, err)
	}
	if cred.ID != id {
		t.Errorf("ID mismatch: got %d want %d", cred.ID, id)
	}
	if !cred.Balance.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("Balance mismatch: got %s", cred.Balance)
	}

	// Duplicate username maps to the sentinel and leaves the first row intact
	_, err = store.CreateUser(ctx, domain.Credential{
		Username:     "alice",
		PasswordHash: "$2a$10$otherhash",
		Balance:      decimal.NewFromInt(1),
	})
	if !errors.Is(err, ErrUserExists) {
		t.Fatalf("Expected ErrUserExists, got %v", err)
	}

	cred2, _, err := store.FindUserByName(ctx, "alice")
	if err != nil {
		t.Fatalf("FindUserByName failed: %v", err)
	}
	if cred2.PasswordHash != "$2a$10$fakehash" {
		t.Errorf("Original credential was altered by failed register")
	}
}

func TestSQLiteStore_Markets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rows := []domain.MarketQuote{
		domain.NewMarketQuote("BTC", decimal.RequireFromString("50000"), 2.5),
		domain.NewMarketQuote("ETH", decimal.RequireFromString("3000.50"), -1.2),
	}
	if err := store.UpsertMarkets(ctx, rows); err != nil {
		t.Fatalf("UpsertMarkets failed: %v", err)
	}

	loaded, err := store.LoadMarkets(ctx, []string{"BTC", "ETH", "SOL"})
	if err != nil {
		t.Fatalf("LoadMarkets failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(loaded))
	}
	if !loaded["BTC"].Price.Equal(decimal.RequireFromString("50000")) {
		t.Errorf("BTC price mismatch: %s", loaded["BTC"].Price)
	}
	if loaded["ETH"].IsUp {
		t.Errorf("ETH with negative change must not be up")
	}

	// Upsert overwrites in place
	if err := store.UpsertMarkets(ctx, []domain.MarketQuote{
		domain.NewMarketQuote("BTC", decimal.RequireFromString("51000"), 3.0),
	}); err != nil {
		t.Fatalf("Second UpsertMarkets failed: %v", err)
	}
	loaded, err = store.LoadMarkets(ctx, []string{"BTC"})
	if err != nil {
		t.Fatalf("LoadMarkets failed: %v", err)
	}
	if !loaded["BTC"].Price.Equal(decimal.RequireFromString("51000")) {
		t.Errorf("BTC price not overwritten: %s", loaded["BTC"].Price)
	}

	// Empty batch is a no-op
	if err := store.UpsertMarkets(ctx, nil); err != nil {
		t.Errorf("Empty UpsertMarkets must be a no-op, got %v", err)
	}
}

func TestSQLiteStore_Seed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Seed(ctx); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	cred, found, err := store.FindUserByName(ctx, "admin")
	if err != nil || !found {
		t.Fatalf("Seeded admin missing: found=%v err=%v", found, err)
	}
	if !cred.Balance.Equal(domain.StartingBalance) {
		t.Errorf("Admin balance = %s, want %s", cred.Balance, domain.StartingBalance)
	}

	markets, err := store.LoadMarkets(ctx, nil)
	if err != nil {
		t.Fatalf("LoadMarkets failed: %v", err)
	}
	if len(markets) != 4 {
		t.Errorf("Expected 4 seeded markets, got %d", len(markets))
	}

	// Seeding again must not duplicate or overwrite
	if err := store.Seed(ctx); err != nil {
		t.Fatalf("Second Seed failed: %v", err)
	}
	markets, _ = store.LoadMarkets(ctx, nil)
	if len(markets) != 4 {
		t.Errorf("Second seed changed market count to %d", len(markets))
	}
}
