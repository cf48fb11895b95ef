package walletauth

import (
	"crypto/sha256"
	"encoding/binary"
	"net/http"
	"net/url"
	"strings"
)

// canonicalVersion tags the canonical byte layout. Bump only with a
// protocol revision; signer and verifier must agree on it.
const canonicalVersion = "okx403.v1"

// DigestSize is the size in bytes of a body digest (SHA-256).
const DigestSize = sha256.Size

// BodyDigest computes the SHA-256 digest of a request body.
// A nil body and an empty body produce the same digest, the SHA-256 of
// the empty byte string.
func BodyDigest(body []byte) [DigestSize]byte {
	return sha256.Sum256(body)
}

// EmptyBodyDigest returns the digest of the empty body. Requests without
// a body (GET, DELETE) carry this digest.
func EmptyBodyDigest() [DigestSize]byte {
	return sha256.Sum256(nil)
}

// EncodeCanonical serializes the authenticable facts of a request into the
// byte sequence that is signed and verified.
//
// The encoding is byte-for-byte deterministic: fields appear in a fixed
// order and every variable-length field is prefixed with its big-endian
// uint32 byte length, so no combination of field values can collide with
// another (e.g. method "GE" + path "T/x" cannot encode like "GET" + "/x").
// The method is uppercased; the timestamp is Unix seconds encoded as 8
// big-endian bytes; the body digest is the raw 32 digest bytes.
//
// Pure function, no I/O. Signer and verifier both call this, never a
// reimplementation.
func EncodeCanonical(method, path, audience, issuer string, timestamp int64, bodyDigest [DigestSize]byte) []byte {
	fields := [][]byte{
		[]byte(canonicalVersion),
		[]byte(strings.ToUpper(method)),
		[]byte(path),
		[]byte(audience),
		[]byte(issuer),
	}

	size := 0
	for _, f := range fields {
		size += 4 + len(f)
	}
	size += 8               // timestamp
	size += 4 + DigestSize  // length-prefixed digest

	buf := make([]byte, 0, size)
	for _, f := range fields {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(f)))
		buf = append(buf, f...)
	}
	buf = binary.BigEndian.AppendUint64(buf, uint64(timestamp))
	buf = binary.BigEndian.AppendUint32(buf, DigestSize)
	buf = append(buf, bodyDigest[:]...)

	return buf
}

// CanonicalPath derives the canonical request path from a raw URL.
//
// The query string and fragment are stripped; the escaped path is kept
// byte-exact otherwise (no trailing-slash or case normalization); an empty
// path becomes "/". The signer applies this to the outgoing URL and the
// verifier applies RequestPath to the incoming request, so both sides
// produce the same bytes for the same request.
func CanonicalPath(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	p := parsed.EscapedPath()
	if p == "" {
		p = "/"
	}
	return p, nil
}

// RequestPath derives the canonical path from an incoming HTTP request,
// consistent with CanonicalPath on the client side.
func RequestPath(r *http.Request) string {
	p := r.URL.EscapedPath()
	if p == "" {
		p = "/"
	}
	return p
}
