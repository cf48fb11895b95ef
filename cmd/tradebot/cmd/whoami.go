package cmd

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openkitx403/openkit403-go/pkg/walletauth"
)

var whoamiJWK bool

func init() {
	whoamiCmd.Flags().BoolVar(&whoamiJWK, "jwk", false, "Also print the public key as a JWK")
	rootCmd.AddCommand(whoamiCmd)
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show this bot's wallet address",
	Long: `Display the wallet address and key fingerprint derived from the local
keypair file. With --jwk, also print the public key as a JSON Web Key
for systems that exchange keys in that format. Returns an error if no
keypair exists.`,
	RunE: runWhoami,
}

func runWhoami(cmd *cobra.Command, args []string) error {
	ks := walletauth.NewFileKeyStore(keypairPath)
	key, err := ks.Load()
	if err != nil {
		if !ks.Exists() {
			return fmt.Errorf("keypair not found at %s (generate one with 'tradebot keygen')", keypairPath)
		}
		return fmt.Errorf("failed to load keypair: %w", err)
	}

	pub := key.Public().(ed25519.PublicKey)
	fmt.Printf("Address:     %s\n", walletauth.Address(pub))
	fmt.Printf("Fingerprint: %s\n", walletauth.KeyFingerprint(pub))
	fmt.Printf("Keypair:     %s\n", ks.Path())

	if whoamiJWK {
		jwk, err := json.Marshal(walletauth.PublicKeyToJWK(pub))
		if err != nil {
			return fmt.Errorf("failed to encode JWK: %w", err)
		}
		fmt.Printf("JWK:         %s\n", jwk)
	}
	return nil
}
