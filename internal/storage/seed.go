package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deguesju25paag-cyber/TradePro/internal/auth"
	"github.com/deguesju25paag-cyber/TradePro/internal/domain"
	"github.com/shopspring/decimal"
)

// Seed inserts the default admin account and a handful of starter
// markets into an empty database so a fresh install is usable before
// the first feed cycle completes. Non-empty tables are left alone.
func (s *SQLiteStore) Seed(ctx context.Context) error {
	var users int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&users); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if users == 0 {
		hash, err := auth.HashPassword("admin")
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}
		if _, err := s.CreateUser(ctx, domain.Credential{
			Username:     "admin",
			PasswordHash: hash,
			Balance:      domain.StartingBalance,
		}); err != nil {
			return fmt.Errorf("failed to seed admin user: %w", err)
		}
		slog.Info("Seeded default admin account")
	}

	var markets int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM markets").Scan(&markets); err != nil {
		return fmt.Errorf("failed to count markets: %w", err)
	}
	if markets == 0 {
		seed := []domain.MarketQuote{
			domain.NewMarketQuote("BTC", decimal.RequireFromString("42123.45"), 2.1),
			domain.NewMarketQuote("ETH", decimal.RequireFromString("3210.12"), 1.8),
			domain.NewMarketQuote("SOL", decimal.RequireFromString("98.45"), -0.5),
			domain.NewMarketQuote("XRP", decimal.RequireFromString("0.78"), 0.9),
		}
		if err := s.UpsertMarkets(ctx, seed); err != nil {
			return fmt.Errorf("failed to seed markets: %w", err)
		}
		slog.Info("Seeded starter markets", "count", len(seed))
	}

	return nil
}
