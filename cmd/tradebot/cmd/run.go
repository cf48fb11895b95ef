package cmd

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openkitx403/openkit403-go/pkg/walletauth"
)

var (
	runOnce     bool
	runInterval time.Duration
)

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "Run a single trading cycle and exit")
	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "Fixed wait between cycles (default: random 10-20s)")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading loop",
	Long: `Run the bot's trading loop: register, then repeatedly fetch market
prices, pick a random buy or sell, execute it, and report stats. Stops
on SIGINT/SIGTERM.`,
	RunE: runBot,
}

// pricesResult mirrors the /api/market/prices response.
type pricesResult struct {
	Timestamp string             `json:"timestamp"`
	Prices    map[string]float64 `json:"prices"`
}

// tradeResult mirrors the /api/trade/execute response.
type tradeResult struct {
	Success  bool   `json:"success"`
	TradeID  string `json:"trade_id"`
	Activity struct {
		Type   string  `json:"type"`
		Asset  string  `json:"asset"`
		Amount float64 `json:"amount"`
		Price  float64 `json:"price"`
	} `json:"activity"`
}

func runBot(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	printHeader("TRADING BOT")

	var reg registerResult
	printInfo("Registering bot...")
	if err := client.GetJSON("/api/bot/register", &reg); err != nil {
		return authErr(err)
	}
	printSuccess("Bot registered: %s", reg.BotID)
	printInfo("Wallet: %s", reg.Address)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for cycle := 1; ; cycle++ {
		printHeader("CYCLE #%d - %s", cycle, time.Now().Format("15:04:05"))

		if err := tradeCycle(client, rng); err != nil {
			printError("Cycle failed: %v", authErr(err))
		}

		if runOnce {
			return nil
		}

		wait := runInterval
		if wait <= 0 {
			wait = time.Duration(10+rng.Intn(11)) * time.Second
		}
		printInfo("Waiting %s before next cycle...", wait)

		select {
		case <-sigCh:
			printWarn("Bot stopped by user")
			printHeader("BOT SHUTDOWN")
			printSuccess("Bot stopped successfully")
			return nil
		case <-time.After(wait):
		}
	}
}

func tradeCycle(client *walletauth.Client, rng *rand.Rand) error {
	printInfo("Fetching market prices...")
	var prices pricesResult
	if err := client.GetJSON("/api/market/prices", &prices); err != nil {
		return err
	}
	printSuccess("Market data received")
	for asset, price := range prices.Prices {
		fmt.Printf("  %s: $%.2f\n", asset, price)
	}

	tradeType, asset, amount, price := strategy(rng, prices.Prices)
	printInfo("Strategy: %s %.2f %s @ $%.2f", tradeType, amount, asset, price)

	printInfo("Executing trade...")
	var executed tradeResult
	err := client.PostJSONDecode("/api/trade/execute", map[string]any{
		"type":   tradeType,
		"asset":  asset,
		"amount": amount,
		"price":  price,
	}, &executed)
	if err != nil {
		return err
	}
	printSuccess("Trade executed! ID: %s", executed.TradeID)
	fmt.Printf("  Total: $%.2f\n", amount*price)

	printInfo("Checking bot status...")
	var status statusResult
	if err := client.GetJSON("/api/bot/status", &status); err != nil {
		return err
	}
	printSuccess("Status retrieved")
	fmt.Printf("  Total Trades: %d\n", status.Stats.TotalTrades)
	fmt.Printf("  Total Volume: $%.2f\n", status.Stats.TotalVolume)
	return nil
}

// strategy picks a random buy or sell of a random asset at the quoted price.
func strategy(rng *rand.Rand, prices map[string]float64) (tradeType, asset string, amount, price float64) {
	assets := []string{"SOL", "BTC", "ETH"}
	asset = assets[rng.Intn(len(assets))]
	price = prices[asset]

	if rng.Float64() > 0.5 {
		tradeType = "buy"
		amount = roundCents(0.1 + rng.Float64()*1.9)
	} else {
		tradeType = "sell"
		amount = roundCents(0.1 + rng.Float64()*1.4)
	}
	return tradeType, asset, amount, price
}

func roundCents(v float64) float64 {
	return float64(int(v*100)) / 100
}
