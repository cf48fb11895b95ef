package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBotID(t *testing.T) {
	if got := BotID("abcdefghijklmnop"); got != "abcdefgh" {
		t.Errorf("BotID = %q, want abcdefgh", got)
	}
	if got := BotID("short"); got != "short" {
		t.Errorf("BotID = %q, want short", got)
	}
}

func TestRegisterBotIdempotent(t *testing.T) {
	t.Log("Testing re-registration refreshes instead of duplicating")

	s := testStore(t)
	const addr = "wallet-address-1234567890"

	first, err := s.RegisterBot(addr)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if first.ID != BotID(addr) || first.Address != addr {
		t.Errorf("unexpected bot row: %+v", first)
	}

	second, err := s.RegisterBot(addr)
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("re-registration changed the bot ID: %s -> %s", first.ID, second.ID)
	}

	n, err := s.CountBots()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 bot, got %d", n)
	}
}

func TestGetBotByAddressNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.GetBotByAddress("absent")
	if !errors.Is(err, ErrBotNotFound) {
		t.Errorf("expected ErrBotNotFound, got %v", err)
	}
}

func TestActivitiesAndStats(t *testing.T) {
	s := testStore(t)

	bot, err := s.RegisterBot("wallet-address-1234567890")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	trades := []struct {
		typ    string
		asset  string
		amount float64
		price  float64
	}{
		{"buy", "SOL", 2, 100},
		{"sell", "SOL", 1, 110},
		{"buy", "BTC", 0.5, 42000},
	}
	for _, tr := range trades {
		if _, err := s.RecordActivity(bot.ID, tr.typ, tr.asset, tr.amount, tr.price); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	activities, err := s.ListActivities(50)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(activities) != 3 {
		t.Fatalf("expected 3 activities, got %d", len(activities))
	}

	stats, err := s.GetBotStats(bot.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalTrades != 3 {
		t.Errorf("total trades = %d, want 3", stats.TotalTrades)
	}
	wantVolume := 2*100.0 + 1*110.0 + 0.5*42000.0
	if stats.TotalVolume != wantVolume {
		t.Errorf("total volume = %f, want %f", stats.TotalVolume, wantVolume)
	}
	if stats.LastTrade == nil {
		t.Fatal("expected a last-trade timestamp")
	}
	if since := time.Since(*stats.LastTrade); since < 0 || since > time.Minute {
		t.Errorf("last trade %v not recent", *stats.LastTrade)
	}
}

func TestListActivitiesLimit(t *testing.T) {
	s := testStore(t)

	bot, err := s.RegisterBot("wallet-address-1234567890")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	for i := 0; i < 10; i++ {
		if _, err := s.RecordActivity(bot.ID, "buy", "SOL", 1, 100); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	activities, err := s.ListActivities(5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(activities) != 5 {
		t.Errorf("expected 5 activities, got %d", len(activities))
	}
}

func TestStatsEmptyBot(t *testing.T) {
	s := testStore(t)

	stats, err := s.GetBotStats("nobody")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalTrades != 0 || stats.TotalVolume != 0 || stats.LastTrade != nil {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}
