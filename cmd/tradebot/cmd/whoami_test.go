package cmd

import (
	"path/filepath"
	"testing"

	"github.com/openkitx403/openkit403-go/pkg/walletauth"
)

func TestWhoamiWithJWK(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keypair.json")
	_, priv, err := walletauth.GenerateKeypair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := walletauth.NewFileKeyStore(path).Save(priv); err != nil {
		t.Fatalf("save: %v", err)
	}

	origPath, origJWK := keypairPath, whoamiJWK
	defer func() { keypairPath, whoamiJWK = origPath, origJWK }()
	keypairPath = path
	whoamiJWK = true

	if err := runWhoami(whoamiCmd, nil); err != nil {
		t.Errorf("whoami: %v", err)
	}
}

func TestWhoamiMissingKeypair(t *testing.T) {
	origPath := keypairPath
	defer func() { keypairPath = origPath }()
	keypairPath = filepath.Join(t.TempDir(), "absent.json")

	if err := runWhoami(whoamiCmd, nil); err == nil {
		t.Error("expected error for missing keypair")
	}
}
