package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// statusResult mirrors the /api/bot/status response.
type statusResult struct {
	BotID   string `json:"bot_id"`
	Address string `json:"address"`
	Status  string `json:"status"`
	Stats   struct {
		TotalTrades int     `json:"total_trades"`
		TotalVolume float64 `json:"total_volume"`
		LastTrade   *string `json:"last_trade"`
	} `json:"stats"`
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show this bot's trading stats",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	var result statusResult
	if err := client.GetJSON("/api/bot/status", &result); err != nil {
		return authErr(err)
	}

	printSuccess("Status retrieved")
	fmt.Printf("  Bot ID: %s\n", result.BotID)
	fmt.Printf("  Status: %s\n", result.Status)
	fmt.Printf("  Total Trades: %d\n", result.Stats.TotalTrades)
	fmt.Printf("  Total Volume: $%.2f\n", result.Stats.TotalVolume)
	if result.Stats.LastTrade != nil {
		fmt.Printf("  Last Trade: %s\n", *result.Stats.LastTrade)
	}
	return nil
}
