// Package cmd implements the tradebot CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openkitx403/openkit403-go/internal/version"
	"github.com/openkitx403/openkit403-go/pkg/walletauth"
)

var (
	// Global flags
	apiURL      string
	keypairPath string
	audience    string
	issuer      string
)

var rootCmd = &cobra.Command{
	Use:   "tradebot",
	Short: "Demo trading bot with wallet authentication",
	Long: `tradebot is a demo trading bot that signs every API request with its
wallet keypair.

Generate a wallet with 'tradebot keygen', then 'tradebot run' to start
the trading loop against a tradeapi server.`,
	Version:      version.String(),
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8000", "Base URL of the trading API")
	rootCmd.PersistentFlags().StringVarP(&keypairPath, "keypair", "k", "./keypair.json", "Path to the wallet keypair file")
	rootCmd.PersistentFlags().StringVar(&audience, "audience", "http://localhost:8000", "Token audience (must match the server)")
	rootCmd.PersistentFlags().StringVar(&issuer, "issuer", "trading-bot-api", "Token issuer (must match the server)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newClient loads the wallet keypair and builds a signing API client.
func newClient() (*walletauth.Client, error) {
	ks := walletauth.NewFileKeyStore(keypairPath)
	key, err := ks.Load()
	if err != nil {
		if ks.Exists() {
			return nil, fmt.Errorf("failed to load keypair: %w", err)
		}
		return nil, fmt.Errorf("keypair not found at %s (generate one with 'tradebot keygen')", keypairPath)
	}

	signer := walletauth.NewSigner(key)
	return walletauth.NewClient(apiURL, signer, walletauth.SignOptions{
		Audience: audience,
		Issuer:   issuer,
	}), nil
}
