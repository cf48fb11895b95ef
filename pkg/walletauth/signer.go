package walletauth

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SignOptions carry the claims stamped into every token a Signer
// produces.
type SignOptions struct {
	// Audience is the identity of the service the token is for.
	Audience string

	// Issuer is the claimed context under which the token is produced.
	Issuer string
}

// Signer mints credential tokens for outgoing requests. It holds the
// wallet private key; the key is only ever read, so a single Signer is
// safe for concurrent use from multiple goroutines.
type Signer struct {
	privateKey ed25519.PrivateKey
	address    string

	// now is the clock; overridden in tests.
	now func() time.Time
}

// NewSigner creates a Signer from an Ed25519 private key. A Signer
// over malformed key material is still constructed; Sign reports the
// SigningError on use.
func NewSigner(privateKey ed25519.PrivateKey) *Signer {
	s := &Signer{
		privateKey: privateKey,
		now:        time.Now,
	}
	// Address derivation indexes into the key, so it needs the full
	// 64 bytes.
	if len(privateKey) == ed25519.PrivateKeySize {
		s.address = Address(privateKey.Public().(ed25519.PublicKey))
	}
	return s
}

// Address returns the signer's wallet address.
func (s *Signer) Address() string {
	return s.address
}

// Sign mints a credential token for one outgoing request.
//
// The canonical path is derived from rawURL (scheme, host, query and
// fragment stripped) exactly as the verifier will derive it from the
// incoming request; the timestamp is the current time in Unix seconds;
// the body digest covers the raw body bytes (nil body digests like an
// empty body).
//
// The token contains the public address and every claim the verifier
// needs to independently recompute the canonical bytes. The private key
// is never part of the token. Returns a SigningError if the key material
// cannot produce a signature; an unsigned token is never returned.
func (s *Signer) Sign(method, rawURL string, opts SignOptions, body []byte) (*Token, error) {
	if len(s.privateKey) != ed25519.PrivateKeySize {
		return nil, &SigningError{Reason: fmt.Sprintf("private key has %d bytes, expected %d", len(s.privateKey), ed25519.PrivateKeySize)}
	}

	path, err := CanonicalPath(rawURL)
	if err != nil {
		return nil, &SigningError{Reason: fmt.Sprintf("cannot derive path from URL: %v", err)}
	}

	digest := BodyDigest(body)
	timestamp := s.now().Unix()
	canonical := EncodeCanonical(method, path, opts.Audience, opts.Issuer, timestamp, digest)

	signature := ed25519.Sign(s.privateKey, canonical)

	return &Token{
		Address:    s.address,
		Signature:  base64.RawURLEncoding.EncodeToString(signature),
		Timestamp:  timestamp,
		Audience:   opts.Audience,
		Issuer:     opts.Issuer,
		Method:     strings.ToUpper(method),
		Path:       path,
		BodyDigest: base64.RawURLEncoding.EncodeToString(digest[:]),
	}, nil
}

// SignRequest mints a token for req and attaches it as the Authorization
// header. The body bytes must be passed explicitly because req.Body is a
// one-shot reader; pass nil for bodyless requests.
func (s *Signer) SignRequest(req *http.Request, opts SignOptions, body []byte) error {
	token, err := s.Sign(req.Method, req.URL.String(), opts, body)
	if err != nil {
		return err
	}

	encoded, err := token.Encode()
	if err != nil {
		return &SigningError{Reason: fmt.Sprintf("cannot encode token: %v", err)}
	}

	req.Header.Set("Authorization", Scheme+" "+encoded)
	return nil
}
