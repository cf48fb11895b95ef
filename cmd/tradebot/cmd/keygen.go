package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openkitx403/openkit403-go/pkg/walletauth"
)

var keygenForce bool

func init() {
	keygenCmd.Flags().BoolVarP(&keygenForce, "force", "f", false, "Overwrite an existing keypair")
	rootCmd.AddCommand(keygenCmd)
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new wallet keypair",
	Long: `Generate a new Ed25519 wallet keypair and write it to the keypair file.

The file uses the Solana keypair.json format (a JSON array of 64 bytes)
and is written with owner-only permissions. Refuses to overwrite an
existing keypair unless --force is given.`,
	RunE: runKeygen,
}

func runKeygen(cmd *cobra.Command, args []string) error {
	ks := walletauth.NewFileKeyStore(keypairPath)
	if ks.Exists() && !keygenForce {
		return fmt.Errorf("keypair already exists at %s (use --force to overwrite)", ks.Path())
	}

	pub, priv, err := walletauth.GenerateKeypair()
	if err != nil {
		return fmt.Errorf("failed to generate keypair: %w", err)
	}
	if err := ks.Save(priv); err != nil {
		return fmt.Errorf("failed to save keypair: %w", err)
	}

	printSuccess("Keypair written to %s", ks.Path())
	printInfo("Address: %s", walletauth.Address(pub))
	printInfo("Fingerprint: %s", walletauth.KeyFingerprint(pub))
	return nil
}
