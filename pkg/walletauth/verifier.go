package walletauth

import (
	"crypto/ed25519"
	"crypto/subtle"
	"fmt"
	"time"
)

// ConfigParams is the startup configuration surface for verification.
// All fields are copied into an immutable Config by NewConfig; nothing in
// a request-handling path can mutate them afterwards.
type ConfigParams struct {
	// Audience is this service's identity; token audiences are matched
	// exactly against it.
	Audience string

	// Issuer is the expected claimant identity, matched exactly.
	Issuer string

	// TTLSeconds is the token freshness window. Must be positive.
	TTLSeconds int

	// ClockSkewSeconds tolerates sender/receiver clock drift
	// symmetrically. Must be non-negative. Default 0.
	ClockSkewSeconds int

	// BindMethodPath restricts each token to the exact method, path and
	// body it was signed for. When false a token is valid for any
	// request shape under the same audience/issuer (weaker guarantee,
	// explicitly opt-in).
	BindMethodPath bool

	// ExcludedPaths are exempt from authentication entirely. Matched
	// exactly against the normalized request path (unescaped, cleaned,
	// lowercased, trailing slash stripped).
	ExcludedPaths []string

	// ExcludedPrefixes are exempt path prefixes, matched against the
	// same normalized path.
	ExcludedPrefixes []string

	// AllowedOrigins, when non-empty, restricts the Origin header of
	// authenticated requests to this set (exact match).
	AllowedOrigins []string
}

// Config is the immutable, process-wide verification configuration.
// Construct once at startup with NewConfig and share by reference;
// concurrent verification needs no locking because nothing here changes.
type Config struct {
	audience         string
	issuer           string
	ttl              int64
	clockSkew        int64
	bindMethodPath   bool
	excludedPaths    map[string]bool
	excludedPrefixes []string
	allowedOrigins   map[string]bool
}

// NewConfig validates params and builds an immutable Config.
func NewConfig(params ConfigParams) (*Config, error) {
	if params.Audience == "" {
		return nil, fmt.Errorf("audience is required")
	}
	if params.Issuer == "" {
		return nil, fmt.Errorf("issuer is required")
	}
	if params.TTLSeconds <= 0 {
		return nil, fmt.Errorf("ttl_seconds must be positive, got %d", params.TTLSeconds)
	}
	if params.ClockSkewSeconds < 0 {
		return nil, fmt.Errorf("clock_skew_seconds must be non-negative, got %d", params.ClockSkewSeconds)
	}

	cfg := &Config{
		audience:       params.Audience,
		issuer:         params.Issuer,
		ttl:            int64(params.TTLSeconds),
		clockSkew:      int64(params.ClockSkewSeconds),
		bindMethodPath: params.BindMethodPath,
		excludedPaths:  make(map[string]bool, len(params.ExcludedPaths)),
	}
	for _, p := range params.ExcludedPaths {
		cfg.excludedPaths[normalizePath(p)] = true
	}
	cfg.excludedPrefixes = append(cfg.excludedPrefixes, params.ExcludedPrefixes...)
	if len(params.AllowedOrigins) > 0 {
		cfg.allowedOrigins = make(map[string]bool, len(params.AllowedOrigins))
		for _, o := range params.AllowedOrigins {
			cfg.allowedOrigins[o] = true
		}
	}
	return cfg, nil
}

// Audience returns the configured audience.
func (c *Config) Audience() string { return c.audience }

// Issuer returns the configured issuer.
func (c *Config) Issuer() string { return c.issuer }

// RequestFacts are the facts of the live incoming request that the
// verifier checks a token against. The middleware fills them in; tests
// can construct them directly.
type RequestFacts struct {
	// Method is the HTTP method as received.
	Method string

	// Path is the canonical request path (see RequestPath).
	Path string

	// BodyDigest is the digest of the received body.
	BodyDigest [DigestSize]byte

	// Origin is the request's declared Origin header; empty when absent.
	Origin string
}

// Identity is the verified identity produced by a successful
// verification. Scoped to a single request; never cached or reused.
type Identity struct {
	// Address is the wallet address proven by the signature.
	Address string

	// Audience and Issuer echo the verified claims for auditing.
	Audience string
	Issuer   string
}

// Verifier checks credential tokens against a Config. Stateless apart
// from the immutable config; safe for concurrent use.
type Verifier struct {
	config *Config

	// now is the clock; overridden in tests.
	now func() time.Time
}

// NewVerifier creates a Verifier over an immutable Config.
func NewVerifier(config *Config) *Verifier {
	return &Verifier{config: config, now: time.Now}
}

// Verify checks a token against the live request facts and returns the
// authenticated identity.
//
// Checks run in a fixed order and fail fast, each failure mapping to a
// distinct rejection code:
//
//  1. Structural: fields present and well-typed (the token has already
//     passed DecodeToken when it arrives via the middleware; Verify
//     re-checks so it is safe to call directly).
//  2. Signature: canonical bytes are recomputed from the token's own
//     claims and verified against the token's address. Verifying against
//     the token's claims, not the live request, keeps a forged signature
//     distinguishable from a binding mismatch.
//  3. Freshness: now - ts must lie within [-skew, ttl+skew], boundary
//     inclusive on the accept side.
//  4. Audience, 5. Issuer: exact match against the config.
//  6. Binding (only when configured): token method/path/body digest must
//     match the live request.
//  7. Origin (only when an allowlist is configured): the declared origin
//     must be a member.
//
// No I/O, no side effects; the entire sequence is local compute.
func (v *Verifier) Verify(facts RequestFacts, token *Token) (*Identity, error) {
	// Step 1: structural
	if token == nil {
		return nil, ErrMalformedToken("nil token")
	}
	if err := token.checkShape(); err != nil {
		return nil, err
	}

	// Step 2: signature over the token's own claims
	canonical := token.canonicalBytes()
	if !ed25519.Verify(token.publicKey(), canonical, token.signatureBytes()) {
		return nil, ErrInvalidSignature()
	}

	// Step 3: freshness
	now := v.now().Unix()
	age := now - token.Timestamp
	maxAge := v.config.ttl + v.config.clockSkew
	if age > maxAge {
		return nil, ErrExpired(age, maxAge)
	}
	if age < -v.config.clockSkew {
		return nil, ErrNotYetValid(-age, v.config.clockSkew)
	}

	// Step 4: audience
	if token.Audience != v.config.audience {
		return nil, ErrAudienceMismatch(token.Audience, v.config.audience)
	}

	// Step 5: issuer
	if token.Issuer != v.config.issuer {
		return nil, ErrIssuerMismatch(token.Issuer, v.config.issuer)
	}

	// Step 6: method/path/body binding
	if v.config.bindMethodPath {
		if token.Method != facts.Method {
			return nil, ErrBindingMismatch(fmt.Sprintf("token bound to method %s, request is %s", token.Method, facts.Method))
		}
		if token.Path != facts.Path {
			return nil, ErrBindingMismatch(fmt.Sprintf("token bound to path %s, request is %s", token.Path, facts.Path))
		}
		tokenDigest := token.bodyDigestBytes()
		if subtle.ConstantTimeCompare(tokenDigest[:], facts.BodyDigest[:]) != 1 {
			return nil, ErrBindingMismatch("token bound to a different request body")
		}
	}

	// Step 7: origin allowlist
	if v.config.allowedOrigins != nil && !v.config.allowedOrigins[facts.Origin] {
		return nil, ErrOriginRejected(facts.Origin)
	}

	return &Identity{
		Address:  token.Address,
		Audience: token.Audience,
		Issuer:   token.Issuer,
	}, nil
}
