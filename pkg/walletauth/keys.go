package walletauth

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// GenerateKeypair generates a new Ed25519 wallet keypair using
// cryptographically secure random number generation.
//
// Returns the public key (32 bytes) and private key (64 bytes).
// Uses crypto/rand for entropy; never math/rand.
func GenerateKeypair() (publicKey ed25519.PublicKey, privateKey ed25519.PrivateKey, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate Ed25519 keypair: %w", err)
	}
	return pub, priv, nil
}

// Address derives the wallet address from a public key: the base64url
// encoding of the raw 32 key bytes. The address is the bearer's durable
// identity; downstream code treats it as an opaque stable identifier.
func Address(publicKey ed25519.PublicKey) string {
	return base64.RawURLEncoding.EncodeToString(publicKey)
}

// PublicKeyFromAddress decodes a wallet address back into an Ed25519
// public key. Returns an error if the address is not a valid encoding of
// a 32-byte key.
func PublicKeyFromAddress(address string) (ed25519.PublicKey, error) {
	keyBytes, err := base64.RawURLEncoding.DecodeString(address)
	if err != nil {
		return nil, fmt.Errorf("invalid address: not valid base64url: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid address: decoded length %d, expected %d", len(keyBytes), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(keyBytes), nil
}

// KeyFingerprint computes the SHA-256 fingerprint of an Ed25519 public
// key as a lowercase hex string. Used for key identification in logs and
// storage; the same key always produces the same fingerprint.
func KeyFingerprint(publicKey ed25519.PublicKey) string {
	hash := sha256.Sum256(publicKey)
	return hex.EncodeToString(hash[:])
}

// LoadPrivateKeyPEM parses an Ed25519 private key from PEM-encoded data.
// Accepts PKCS#8 format ("PRIVATE KEY" block).
//
// Error messages never contain key material.
func LoadPrivateKeyPEM(data []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to parse PEM block: no valid PEM data found")
	}

	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("unexpected PEM block type %q, expected PRIVATE KEY", block.Type)
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PKCS#8 private key: %w", err)
	}

	ed25519Key, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key is not Ed25519: only Ed25519 keys are supported")
	}

	return ed25519Key, nil
}

// MarshalPrivateKeyPEM encodes an Ed25519 private key as a PKCS#8 PEM
// block.
func MarshalPrivateKeyPEM(key ed25519.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal PKCS#8 private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// LoadKeypairJSON parses the wallet keypair.json format: a JSON array of
// 64 byte values holding the Ed25519 private key (seed followed by public
// key). This is the file format the demo bots generate and load.
func LoadKeypairJSON(data []byte) (ed25519.PrivateKey, error) {
	// A JSON array of numbers, not a base64 string, so decode through
	// []int rather than []byte.
	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse keypair file: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid keypair file: %d bytes, expected %d", len(raw), ed25519.PrivateKeySize)
	}

	key := make([]byte, ed25519.PrivateKeySize)
	for i, v := range raw {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("invalid keypair file: value %d at index %d out of byte range", v, i)
		}
		key[i] = byte(v)
	}
	return ed25519.PrivateKey(key), nil
}

// MarshalKeypairJSON encodes a private key in the keypair.json array
// format.
func MarshalKeypairJSON(key ed25519.PrivateKey) ([]byte, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid private key size: %d bytes, expected %d", len(key), ed25519.PrivateKeySize)
	}
	nums := make([]int, len(key))
	for i, b := range key {
		nums[i] = int(b)
	}
	return json.Marshal(nums)
}

// PublicKeyToJWK converts an Ed25519 public key to a go-jose JSONWebKey.
// Used to exchange wallet public keys with JOSE-speaking services.
func PublicKeyToJWK(publicKey ed25519.PublicKey) jose.JSONWebKey {
	return jose.JSONWebKey{
		Key:       publicKey,
		Algorithm: string(jose.EdDSA),
	}
}

// JWKToPublicKey converts a go-jose JSONWebKey to an Ed25519 public key.
// Performs strict validation that the key is an Ed25519 public key of the
// correct length.
func JWKToPublicKey(jwk jose.JSONWebKey) (ed25519.PublicKey, error) {
	if jwk.Key == nil {
		return nil, fmt.Errorf("invalid JWK: key is nil")
	}

	pubKey, ok := jwk.Key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("invalid JWK: expected Ed25519 public key, got %T", jwk.Key)
	}

	if len(pubKey) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid JWK: public key has wrong length %d, expected %d", len(pubKey), ed25519.PublicKeySize)
	}

	return pubKey, nil
}
