package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openkitx403/openkit403-go/pkg/walletauth"
)

// registerResult mirrors the /api/bot/register response.
type registerResult struct {
	Success bool   `json:"success"`
	BotID   string `json:"bot_id"`
	Address string `json:"address"`
	Message string `json:"message"`
}

func init() {
	rootCmd.AddCommand(registerCmd)
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register this bot's wallet with the API",
	RunE:  runRegister,
}

func runRegister(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	var result registerResult
	if err := client.GetJSON("/api/bot/register", &result); err != nil {
		return authErr(err)
	}

	printSuccess("Bot registered: %s", result.BotID)
	printInfo("Wallet: %s", result.Address)
	return nil
}

// authErr turns an auth rejection into its user-facing message, with a
// clock-sync hint where that is the likely cause. Other errors pass through.
func authErr(err error) error {
	var rejection *walletauth.AuthRejection
	if errors.As(err, &rejection) {
		return fmt.Errorf("%s", rejection.UserFriendlyMessage())
	}
	return err
}
