package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/deguesju25paag-cyber/TradePro/internal/domain"
	"github.com/shopspring/decimal"

	_ "github.com/glebarez/go-sqlite"
)

// ErrUserExists is returned by CreateUser when the username is taken.
var ErrUserExists = errors.New("user already exists")

// Store is the durable persistence consumed by the market-data plane.
type Store interface {
	FindUserByName(ctx context.Context, name string) (domain.Credential, bool, error)
	CreateUser(ctx context.Context, cred domain.Credential) (int64, error)
	UpsertMarkets(ctx context.Context, rows []domain.MarketQuote) error
	LoadMarkets(ctx context.Context, symbols []string) (map[string]domain.MarketQuote, error)
}

// SQLiteStore persists markets and user credentials in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database with WAL mode enabled.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;", // 2MB cache
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	// Decimal columns are stored as text to avoid float rounding.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS markets (
			symbol TEXT PRIMARY KEY,
			price TEXT NOT NULL,
			change REAL NOT NULL,
			is_up INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create markets table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			balance TEXT NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// FindUserByName looks up a credential. The bool reports existence;
// a missing row is not an error.
func (s *SQLiteStore) FindUserByName(ctx context.Context, name string) (domain.Credential, bool, error) {
	var cred domain.Credential
	var balance string

	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, balance FROM users WHERE username = ?",
		name,
	).Scan(&cred.ID, &cred.Username, &cred.PasswordHash, &balance)
	if err == sql.ErrNoRows {
		return domain.Credential{}, false, nil
	}
	if err != nil {
		return domain.Credential{}, false, fmt.Errorf("failed to query user: %w", err)
	}

	cred.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return domain.Credential{}, false, fmt.Errorf("corrupt balance for %s: %w", name, err)
	}
	return cred, true, nil
}

// CreateUser inserts a new credential row and returns its id.
// A taken username yields ErrUserExists.
func (s *SQLiteStore) CreateUser(ctx context.Context, cred domain.Credential) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, balance) VALUES (?, ?, ?)",
		cred.Username, cred.PasswordHash, cred.Balance.String(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrUserExists
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return res.LastInsertId()
}

// UpsertMarkets writes the given rows in one transaction.
func (s *SQLiteStore) UpsertMarkets(ctx context.Context, rows []domain.MarketQuote) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO markets (symbol, price, change, is_up) VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET price=excluded.price, change=excluded.change, is_up=excluded.is_up
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, q := range rows {
		isUp := 0
		if q.IsUp {
			isUp = 1
		}
		if _, err := stmt.ExecContext(ctx, q.Symbol, q.Price.String(), q.Change, isUp); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", q.Symbol, err)
		}
	}

	return tx.Commit()
}

// LoadMarkets returns the stored rows for the given symbols, keyed by
// symbol. Symbols without a row are simply absent from the result. A
// nil symbols slice loads every row.
func (s *SQLiteStore) LoadMarkets(ctx context.Context, symbols []string) (map[string]domain.MarketQuote, error) {
	query := "SELECT symbol, price, change, is_up FROM markets"
	var args []any
	if symbols != nil {
		query += " WHERE symbol IN (" + placeholders(len(symbols)) + ")"
		args = make([]any, len(symbols))
		for i, s := range symbols {
			args[i] = s
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query markets: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.MarketQuote)
	for rows.Next() {
		var symbol, price string
		var change float64
		var isUp int
		if err := rows.Scan(&symbol, &price, &change, &isUp); err != nil {
			return nil, fmt.Errorf("failed to scan market row: %w", err)
		}

		p, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("corrupt price for %s: %w", symbol, err)
		}
		out[symbol] = domain.MarketQuote{Symbol: symbol, Price: p, Change: change, IsUp: isUp != 0}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	out := make([]byte, 0, n*2-1)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '?')
	}
	return string(out)
}

func isUniqueViolation(err error) bool {
	// The pure-Go sqlite driver reports constraint failures by message.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}
