// Package store provides SQLite persistence for the trading demo
// backend: registered bots and their trade activity.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Bot represents a registered trading bot, keyed by its wallet address.
type Bot struct {
	ID          string // first 8 chars of the wallet address
	Address     string // full wallet address, unique
	Status      string // active
	ConnectedAt time.Time
	LastSeen    *time.Time
}

// Activity represents one executed trade.
type Activity struct {
	ID        string // UUID
	BotID     string
	Type      string // buy, sell
	Asset     string
	Amount    float64
	Price     float64
	Status    string // executed
	Timestamp time.Time
}

// BotStats summarizes a bot's trading history.
type BotStats struct {
	TotalTrades int
	TotalVolume float64
	LastTrade   *time.Time
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default database location under the user's
// data directory.
func DefaultPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "tradeapi", "tradeapi.db")
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// WAL lets readers see committed trades immediately without
	// blocking the bot writers.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate creates the schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS bots (
		id TEXT PRIMARY KEY,
		address TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'active',
		connected_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_seen TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		bot_id TEXT NOT NULL,
		type TEXT NOT NULL,
		asset TEXT NOT NULL,
		amount REAL NOT NULL,
		price REAL NOT NULL,
		status TEXT NOT NULL DEFAULT 'executed',
		timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (bot_id) REFERENCES bots(id)
	);

	CREATE INDEX IF NOT EXISTS idx_activities_bot_id ON activities(bot_id);
	CREATE INDEX IF NOT EXISTS idx_activities_timestamp ON activities(timestamp DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
