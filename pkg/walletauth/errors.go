package walletauth

import (
	"errors"
	"fmt"
	"net/http"
)

// Rejection codes. These are the stable, enumerable reasons a request can
// be refused; clients can rely on them not changing.
const (
	ErrCodeMissingToken     = "auth.missing_token"     // HTTP 401 - no token on a protected path
	ErrCodeMalformedToken   = "auth.malformed_token"   // HTTP 401 - token not decodable or fields missing
	ErrCodeInvalidSignature = "auth.invalid_signature" // HTTP 401 - signature does not verify against the claimed address
	ErrCodeExpired          = "auth.expired"           // HTTP 401 - token older than ttl + clock skew
	ErrCodeNotYetValid      = "auth.not_yet_valid"     // HTTP 401 - token timestamp too far in the future
	ErrCodeAudienceMismatch = "auth.audience_mismatch" // HTTP 401 - token minted for a different service
	ErrCodeIssuerMismatch   = "auth.issuer_mismatch"   // HTTP 401 - token minted under a different issuer
	ErrCodeBindingMismatch  = "auth.binding_mismatch"  // HTTP 403 - valid token replayed against a different method/path/body
	ErrCodeOriginRejected   = "auth.origin_rejected"   // HTTP 403 - request origin not in the allowlist
	ErrCodeReplay           = "auth.replay"            // HTTP 401 - token already used (replay cache enabled)
)

// ErrCodeMasked is the collapsed response code emitted when response
// masking is enabled. The specific code is always logged server-side.
const ErrCodeMasked = "auth.failed"

// httpStatusMap maps rejection codes to their HTTP status codes.
// 401 means the credential itself is missing or invalid; 403 means the
// credential is valid but its use is disallowed.
var httpStatusMap = map[string]int{
	ErrCodeMissingToken:     http.StatusUnauthorized,
	ErrCodeMalformedToken:   http.StatusUnauthorized,
	ErrCodeInvalidSignature: http.StatusUnauthorized,
	ErrCodeExpired:          http.StatusUnauthorized,
	ErrCodeNotYetValid:      http.StatusUnauthorized,
	ErrCodeAudienceMismatch: http.StatusUnauthorized,
	ErrCodeIssuerMismatch:   http.StatusUnauthorized,
	ErrCodeBindingMismatch:  http.StatusForbidden,
	ErrCodeOriginRejected:   http.StatusForbidden,
	ErrCodeReplay:           http.StatusUnauthorized,
	ErrCodeMasked:           http.StatusUnauthorized,
}

// AuthError is a structured rejection of a credential token. It is
// terminal for the current request; the server never retries.
type AuthError struct {
	Code    string // One of the ErrCode* constants
	Message string // Human-readable detail for server-side logs
	Status  int    // HTTP status code
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus returns the HTTP status code for this rejection.
func (e *AuthError) HTTPStatus() int {
	return e.Status
}

// ErrorCode extracts the rejection code from an error. Returns "" for nil
// and "unknown" for errors that are not AuthErrors.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return "unknown"
}

func newAuthError(code, message string) *AuthError {
	return &AuthError{
		Code:    code,
		Message: message,
		Status:  httpStatusMap[code],
	}
}

// ErrMissingToken reports a protected path reached without a token.
func ErrMissingToken() *AuthError {
	return newAuthError(ErrCodeMissingToken, "credential token required")
}

// ErrMalformedToken reports a token that could not be decoded or is
// missing required fields.
func ErrMalformedToken(detail string) *AuthError {
	return newAuthError(ErrCodeMalformedToken, detail)
}

// ErrInvalidSignature reports a signature that does not verify against
// the token's claimed address.
func ErrInvalidSignature() *AuthError {
	return newAuthError(ErrCodeInvalidSignature, "signature verification failed")
}

// ErrExpired reports a token outside the freshness window in the past.
func ErrExpired(ageSeconds, maxSeconds int64) *AuthError {
	return newAuthError(ErrCodeExpired, fmt.Sprintf("token is %ds old, max %ds", ageSeconds, maxSeconds))
}

// ErrNotYetValid reports a token timestamp further in the future than the
// clock skew tolerance.
func ErrNotYetValid(aheadSeconds, skewSeconds int64) *AuthError {
	return newAuthError(ErrCodeNotYetValid, fmt.Sprintf("token timestamp %ds in the future, skew tolerance %ds", aheadSeconds, skewSeconds))
}

// ErrAudienceMismatch reports a token minted for a different service.
func ErrAudienceMismatch(got, want string) *AuthError {
	return newAuthError(ErrCodeAudienceMismatch, fmt.Sprintf("token audience %q, expected %q", got, want))
}

// ErrIssuerMismatch reports a token minted under a different issuer.
func ErrIssuerMismatch(got, want string) *AuthError {
	return newAuthError(ErrCodeIssuerMismatch, fmt.Sprintf("token issuer %q, expected %q", got, want))
}

// ErrBindingMismatch reports a valid token presented with a different
// method, path, or body than it was signed for.
func ErrBindingMismatch(detail string) *AuthError {
	return newAuthError(ErrCodeBindingMismatch, detail)
}

// ErrOriginRejected reports a request origin outside the allowlist.
func ErrOriginRejected(origin string) *AuthError {
	return newAuthError(ErrCodeOriginRejected, fmt.Sprintf("origin %q not allowed", origin))
}

// ErrReplay reports a token that was already presented once.
func ErrReplay() *AuthError {
	return newAuthError(ErrCodeReplay, "token replay detected")
}

// SigningError is a client-side failure to produce a signature. The
// caller must abort the request; an unsigned token is never sent.
type SigningError struct {
	Reason string
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("signing failed: %s", e.Reason)
}
