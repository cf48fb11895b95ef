// Package walletauth implements the OpenKit403 signed-request protocol:
// wallet-keypair-based HTTP request authentication.
//
// A client signs the authenticable facts of each outgoing request (method,
// path, audience, issuer, timestamp, body digest) with an Ed25519 keypair
// and attaches the resulting credential token as an Authorization header.
// A server-side middleware verifies the signature and freshness before the
// request reaches route logic, and exposes the caller's wallet address to
// handlers through the request context.
//
// # Token Structure
//
// A credential token is a JSON object carried base64url-encoded in
// "Authorization: OpenKit403 <token>":
//   - address: base64url-encoded Ed25519 public key (the caller's identity)
//   - sig: Ed25519 signature over the canonical request bytes
//   - ts: issued-at timestamp, Unix seconds
//   - aud, iss: audience and issuer claims
//   - mth, pth: HTTP method and canonical path
//   - bdg: SHA-256 digest of the request body
//
// # Usage
//
// Sign outgoing requests:
//
//	signer := walletauth.NewSigner(privateKey)
//	token, err := signer.Sign("GET", "https://api.example/api/portfolio", walletauth.SignOptions{
//		Audience: "api.example",
//		Issuer:   "trading-bot",
//	}, nil)
//
// Verify incoming requests:
//
//	cfg, err := walletauth.NewConfig(walletauth.ConfigParams{
//		Audience:   "api.example",
//		Issuer:     "trading-bot",
//		TTLSeconds: 60,
//	})
//	mw := walletauth.NewMiddleware(cfg)
//	handler := mw.Wrap(mux)
//
// Handlers read the verified identity with IdentityFromContext or
// MustIdentity.
package walletauth
