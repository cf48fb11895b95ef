package walletauth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"strings"
	"testing"
)

// testKeypair generates an Ed25519 keypair for testing.
func testKeypair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate keypair: %v", err)
	}
	return pub, priv
}

// testToken returns a structurally valid token (the signature is not
// expected to verify).
func testToken(t *testing.T) *Token {
	t.Helper()
	pub, _ := testKeypair(t)
	digest := EmptyBodyDigest()
	return &Token{
		Address:    Address(pub),
		Signature:  base64.RawURLEncoding.EncodeToString(make([]byte, ed25519.SignatureSize)),
		Timestamp:  1700000000,
		Audience:   "api.example",
		Issuer:     "svc",
		Method:     "GET",
		Path:       "/api/portfolio",
		BodyDigest: base64.RawURLEncoding.EncodeToString(digest[:]),
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Log("Testing token wire encoding round-trips exactly")

	token := testToken(t)
	encoded, err := token.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, err := DecodeToken(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if *decoded != *token {
		t.Errorf("round-trip mismatch: got %+v, want %+v", decoded, token)
	}
}

func TestDecodeTokenRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"not base64url", "!!!not-base64!!!"},
		{"not JSON", base64.RawURLEncoding.EncodeToString([]byte("not json"))},
		{"oversized", strings.Repeat("A", maxTokenSize+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeToken(tt.encoded)
			if err == nil {
				t.Fatal("expected error for malformed token")
			}
			if ErrorCode(err) != ErrCodeMalformedToken {
				t.Errorf("expected code %s, got %s", ErrCodeMalformedToken, ErrorCode(err))
			}
		})
	}
}

func TestDecodeTokenRejectsMissingFields(t *testing.T) {
	t.Log("Testing structural check catches every missing field")

	mutations := []struct {
		name   string
		mutate func(*Token)
	}{
		{"no address", func(tok *Token) { tok.Address = "" }},
		{"no signature", func(tok *Token) { tok.Signature = "" }},
		{"no timestamp", func(tok *Token) { tok.Timestamp = 0 }},
		{"no audience", func(tok *Token) { tok.Audience = "" }},
		{"no issuer", func(tok *Token) { tok.Issuer = "" }},
		{"no method", func(tok *Token) { tok.Method = "" }},
		{"no path", func(tok *Token) { tok.Path = "" }},
		{"no body digest", func(tok *Token) { tok.BodyDigest = "" }},
		{"short address", func(tok *Token) { tok.Address = base64.RawURLEncoding.EncodeToString([]byte("short")) }},
		{"short signature", func(tok *Token) { tok.Signature = base64.RawURLEncoding.EncodeToString([]byte("short")) }},
		{"short digest", func(tok *Token) { tok.BodyDigest = base64.RawURLEncoding.EncodeToString([]byte("short")) }},
		{"address not base64", func(tok *Token) { tok.Address = "%%%" }},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			token := testToken(t)
			tt.mutate(token)

			encoded, err := token.Encode()
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}

			_, err = DecodeToken(encoded)
			if err == nil {
				t.Fatal("expected error for incomplete token")
			}
			if ErrorCode(err) != ErrCodeMalformedToken {
				t.Errorf("expected code %s, got %s", ErrCodeMalformedToken, ErrorCode(err))
			}
		})
	}
}
