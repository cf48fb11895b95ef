// Bot and trade activity store methods.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrBotNotFound is returned when a bot lookup finds no row.
var ErrBotNotFound = errors.New("bot not found")

// BotIDLength is how many leading address characters form a bot ID.
const BotIDLength = 8

// BotID derives the short bot identifier from a wallet address.
func BotID(address string) string {
	if len(address) <= BotIDLength {
		return address
	}
	return address[:BotIDLength]
}

// RegisterBot records a bot for the given wallet address, or refreshes
// its last-seen time if it is already registered. Returns the bot row.
func (s *Store) RegisterBot(address string) (*Bot, error) {
	id := BotID(address)
	now := time.Now().UTC()

	_, err := s.db.Exec(
		`INSERT INTO bots (id, address, status, connected_at, last_seen)
		 VALUES (?, ?, 'active', ?, ?)
		 ON CONFLICT(address) DO UPDATE SET last_seen = excluded.last_seen, status = 'active'`,
		id, address, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register bot: %w", err)
	}

	return s.GetBotByAddress(address)
}

// GetBotByAddress retrieves a bot by its full wallet address.
func (s *Store) GetBotByAddress(address string) (*Bot, error) {
	row := s.db.QueryRow(
		`SELECT id, address, status, connected_at, last_seen FROM bots WHERE address = ?`,
		address,
	)
	return scanBot(row)
}

// ListBots returns all registered bots.
func (s *Store) ListBots() ([]*Bot, error) {
	rows, err := s.db.Query(
		`SELECT id, address, status, connected_at, last_seen FROM bots ORDER BY connected_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bots: %w", err)
	}
	defer rows.Close()

	var bots []*Bot
	for rows.Next() {
		bot, err := scanBot(rows)
		if err != nil {
			return nil, err
		}
		bots = append(bots, bot)
	}
	return bots, rows.Err()
}

// CountBots returns the number of registered bots.
func (s *Store) CountBots() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM bots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count bots: %w", err)
	}
	return n, nil
}

// RecordActivity stores one executed trade for a bot and returns the
// stored row.
func (s *Store) RecordActivity(botID, tradeType, asset string, amount, price float64) (*Activity, error) {
	a := &Activity{
		ID:        uuid.New().String(),
		BotID:     botID,
		Type:      tradeType,
		Asset:     asset,
		Amount:    amount,
		Price:     price,
		Status:    "executed",
		Timestamp: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO activities (id, bot_id, type, asset, amount, price, status, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.BotID, a.Type, a.Asset, a.Amount, a.Price, a.Status, a.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record activity: %w", err)
	}
	return a, nil
}

// ListActivities returns the most recent activities, newest first.
func (s *Store) ListActivities(limit int) ([]*Activity, error) {
	rows, err := s.db.Query(
		`SELECT id, bot_id, type, asset, amount, price, status, timestamp
		 FROM activities ORDER BY timestamp DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// CountActivities returns the total number of recorded trades.
func (s *Store) CountActivities() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM activities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return n, nil
}

// GetBotStats summarizes one bot's trading history.
func (s *Store) GetBotStats(botID string) (*BotStats, error) {
	stats := &BotStats{}

	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(amount * price), 0)
		 FROM activities WHERE bot_id = ?`,
		botID,
	).Scan(&stats.TotalTrades, &stats.TotalVolume)
	if err != nil {
		return nil, fmt.Errorf("failed to compute bot stats: %w", err)
	}

	// Fetched separately: MAX() strips the TIMESTAMP column type, so the
	// aggregate would come back as a bare string.
	var lastTrade time.Time
	err = s.db.QueryRow(
		`SELECT timestamp FROM activities WHERE bot_id = ?
		 ORDER BY timestamp DESC LIMIT 1`,
		botID,
	).Scan(&lastTrade)
	switch {
	case err == sql.ErrNoRows:
		// no trades yet
	case err != nil:
		return nil, fmt.Errorf("failed to fetch last trade time: %w", err)
	default:
		stats.LastTrade = &lastTrade
	}

	return stats, nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBot(row scanner) (*Bot, error) {
	var b Bot
	var lastSeen sql.NullTime
	err := row.Scan(&b.ID, &b.Address, &b.Status, &b.ConnectedAt, &lastSeen)
	if err == sql.ErrNoRows {
		return nil, ErrBotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan bot: %w", err)
	}
	if lastSeen.Valid {
		b.LastSeen = &lastSeen.Time
	}
	return &b, nil
}

func scanActivity(row scanner) (*Activity, error) {
	var a Activity
	if err := row.Scan(&a.ID, &a.BotID, &a.Type, &a.Asset, &a.Amount, &a.Price, &a.Status, &a.Timestamp); err != nil {
		return nil, fmt.Errorf("failed to scan activity: %w", err)
	}
	return &a, nil
}
