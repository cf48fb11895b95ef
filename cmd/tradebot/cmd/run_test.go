package cmd

import (
	"math/rand"
	"testing"
)

func TestStrategyPicksQuotedPrice(t *testing.T) {
	prices := map[string]float64{
		"SOL": 100.50,
		"BTC": 42500.00,
		"ETH": 2250.25,
	}
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 100; i++ {
		tradeType, asset, amount, price := strategy(rng, prices)

		if tradeType != "buy" && tradeType != "sell" {
			t.Fatalf("unexpected trade type %q", tradeType)
		}
		if price != prices[asset] {
			t.Errorf("price for %s = %v, want quoted %v", asset, price, prices[asset])
		}
		if amount < 0.1 {
			t.Errorf("amount %v below minimum", amount)
		}
		max := 2.0
		if tradeType == "sell" {
			max = 1.5
		}
		if amount > max {
			t.Errorf("%s amount %v above maximum %v", tradeType, amount, max)
		}
	}
}

func TestRoundCents(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.234, 1.23},
		{0.1, 0.1},
		{1.999, 1.99},
		{0, 0},
	}
	for _, tt := range tests {
		if got := roundCents(tt.in); got != tt.want {
			t.Errorf("roundCents(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCentered(t *testing.T) {
	got := centered("abcd", 10)
	if len(got) != 10 {
		t.Errorf("centered width = %d, want 10", len(got))
	}
	if centered("longer than width", 5) != "longer than width" {
		t.Error("centered should not truncate")
	}
}
