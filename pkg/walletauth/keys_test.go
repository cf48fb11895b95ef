package walletauth

import (
	"bytes"
	"crypto/ed25519"
	"testing"
)

func TestGenerateKeypair(t *testing.T) {
	pub, priv, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		t.Errorf("public key %d bytes, want %d", len(pub), ed25519.PublicKeySize)
	}
	if len(priv) != ed25519.PrivateKeySize {
		t.Errorf("private key %d bytes, want %d", len(priv), ed25519.PrivateKeySize)
	}
}

func TestAddressRoundTrip(t *testing.T) {
	pub, _ := testKeypair(t)

	addr := Address(pub)
	got, err := PublicKeyFromAddress(addr)
	if err != nil {
		t.Fatalf("decode address: %v", err)
	}
	if !bytes.Equal(got, pub) {
		t.Error("address round-trip changed the key")
	}
}

func TestPublicKeyFromAddressRejectsGarbage(t *testing.T) {
	for _, addr := range []string{"", "!!!", "c2hvcnQ"} {
		if _, err := PublicKeyFromAddress(addr); err == nil {
			t.Errorf("expected error for address %q", addr)
		}
	}
}

func TestKeyFingerprintStable(t *testing.T) {
	pub, _ := testKeypair(t)

	a := KeyFingerprint(pub)
	b := KeyFingerprint(pub)
	if a != b {
		t.Error("fingerprint not stable for the same key")
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length %d, want 64 hex chars", len(a))
	}

	other, _ := testKeypair(t)
	if KeyFingerprint(other) == a {
		t.Error("distinct keys produced the same fingerprint")
	}
}

func TestPrivateKeyPEMRoundTrip(t *testing.T) {
	_, priv := testKeypair(t)

	pemData, err := MarshalPrivateKeyPEM(priv)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := LoadPrivateKeyPEM(pemData)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(got, priv) {
		t.Error("PEM round-trip changed the key")
	}
}

func TestLoadPrivateKeyPEMRejectsGarbage(t *testing.T) {
	if _, err := LoadPrivateKeyPEM([]byte("not pem")); err == nil {
		t.Error("expected error for non-PEM data")
	}
	if _, err := LoadPrivateKeyPEM([]byte("-----BEGIN CERTIFICATE-----\nAAAA\n-----END CERTIFICATE-----\n")); err == nil {
		t.Error("expected error for wrong block type")
	}
}

func TestKeypairJSONRoundTrip(t *testing.T) {
	t.Log("Testing the keypair.json 64-byte array format round-trips")

	_, priv := testKeypair(t)

	data, err := MarshalKeypairJSON(priv)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := LoadKeypairJSON(data)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !bytes.Equal(got, priv) {
		t.Error("keypair.json round-trip changed the key")
	}
}

func TestLoadKeypairJSONRejectsWrongLength(t *testing.T) {
	if _, err := LoadKeypairJSON([]byte(`[1,2,3]`)); err == nil {
		t.Error("expected error for short key array")
	}
	if _, err := LoadKeypairJSON([]byte(`{"not":"an array"}`)); err == nil {
		t.Error("expected error for non-array JSON")
	}
}

func TestJWKConversionRoundTrip(t *testing.T) {
	pub, _ := testKeypair(t)

	jwk := PublicKeyToJWK(pub)
	got, err := JWKToPublicKey(jwk)
	if err != nil {
		t.Fatalf("JWK conversion: %v", err)
	}
	if !bytes.Equal(got, pub) {
		t.Error("JWK round-trip changed the key")
	}
}
