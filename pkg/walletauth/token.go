package walletauth

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
)

const (
	// Scheme is the Authorization scheme under which tokens travel and
	// the value of the WWW-Authenticate challenge on rejection.
	Scheme = "OpenKit403"

	// maxTokenSize caps the encoded token accepted by the verifier.
	// Prevents resource exhaustion via oversized headers.
	maxTokenSize = 8 * 1024
)

// Token is a credential token: the signed, self-contained proof that one
// specific request was authorized by the holder of a wallet keypair.
// Immutable once created, minted fresh per outgoing request, never
// persisted.
type Token struct {
	// Address is the signer's public identity: the base64url-encoded
	// raw Ed25519 public key. Never the private key.
	Address string `json:"address"`

	// Signature is the base64url-encoded Ed25519 signature over the
	// canonical request bytes.
	Signature string `json:"sig"`

	// Timestamp is the issued-at time in Unix seconds.
	Timestamp int64 `json:"ts"`

	// Audience is the service identity the token is scoped to.
	Audience string `json:"aud"`

	// Issuer is the claimed context under which the token was produced.
	Issuer string `json:"iss"`

	// Method is the uppercased HTTP method the token was signed for.
	Method string `json:"mth"`

	// Path is the canonical request path the token was signed for.
	Path string `json:"pth"`

	// BodyDigest is the base64url-encoded SHA-256 digest of the request
	// body (digest of the empty string when there is no body).
	BodyDigest string `json:"bdg"`
}

// Encode serializes the token for header transport:
// base64url(JSON), no padding.
func (t *Token) Encode() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// DecodeToken parses a header-carried token value. It rejects oversized,
// undecodable, or structurally incomplete tokens; signature validity is
// the verifier's job, not DecodeToken's.
func DecodeToken(encoded string) (*Token, error) {
	if encoded == "" {
		return nil, ErrMalformedToken("empty token")
	}
	if len(encoded) > maxTokenSize {
		return nil, ErrMalformedToken("token exceeds maximum size of 8KB")
	}

	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrMalformedToken("invalid base64url encoding")
	}

	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, ErrMalformedToken("invalid JSON")
	}

	if err := t.checkShape(); err != nil {
		return nil, err
	}
	return &t, nil
}

// checkShape verifies all fields are present and well-typed. This is the
// structural check of the verification sequence.
func (t *Token) checkShape() error {
	switch {
	case t.Address == "":
		return ErrMalformedToken("address is required")
	case t.Signature == "":
		return ErrMalformedToken("sig is required")
	case t.Timestamp == 0:
		return ErrMalformedToken("ts is required")
	case t.Audience == "":
		return ErrMalformedToken("aud is required")
	case t.Issuer == "":
		return ErrMalformedToken("iss is required")
	case t.Method == "":
		return ErrMalformedToken("mth is required")
	case t.Path == "":
		return ErrMalformedToken("pth is required")
	case t.BodyDigest == "":
		return ErrMalformedToken("bdg is required")
	}

	pub, err := base64.RawURLEncoding.DecodeString(t.Address)
	if err != nil {
		return ErrMalformedToken("address is not valid base64url")
	}
	if len(pub) != ed25519.PublicKeySize {
		return ErrMalformedToken("address is not a 32-byte public key")
	}

	sig, err := base64.RawURLEncoding.DecodeString(t.Signature)
	if err != nil {
		return ErrMalformedToken("sig is not valid base64url")
	}
	if len(sig) != ed25519.SignatureSize {
		return ErrMalformedToken("sig is not a 64-byte signature")
	}

	dig, err := base64.RawURLEncoding.DecodeString(t.BodyDigest)
	if err != nil {
		return ErrMalformedToken("bdg is not valid base64url")
	}
	if len(dig) != DigestSize {
		return ErrMalformedToken("bdg is not a 32-byte digest")
	}

	return nil
}

// publicKey returns the decoded Ed25519 public key. Callers must have
// passed checkShape first.
func (t *Token) publicKey() ed25519.PublicKey {
	pub, _ := base64.RawURLEncoding.DecodeString(t.Address)
	return ed25519.PublicKey(pub)
}

// signatureBytes returns the decoded signature. Callers must have passed
// checkShape first.
func (t *Token) signatureBytes() []byte {
	sig, _ := base64.RawURLEncoding.DecodeString(t.Signature)
	return sig
}

// bodyDigestBytes returns the decoded body digest. Callers must have
// passed checkShape first.
func (t *Token) bodyDigestBytes() [DigestSize]byte {
	var out [DigestSize]byte
	dig, _ := base64.RawURLEncoding.DecodeString(t.BodyDigest)
	copy(out[:], dig)
	return out
}

// canonicalBytes recomputes the canonical request bytes from the token's
// own claims.
func (t *Token) canonicalBytes() []byte {
	return EncodeCanonical(t.Method, t.Path, t.Audience, t.Issuer, t.Timestamp, t.bodyDigestBytes())
}
