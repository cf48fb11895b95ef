package walletauth

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"runtime/debug"
	"strconv"
	"strings"
	"time"
)

// AuditEmitter emits structured audit events for authentication
// outcomes. Optional; the middleware logs through slog regardless.
type AuditEmitter interface {
	// EmitAuthSuccess records a successful authentication.
	EmitAuthSuccess(address, ip, method, path string, latencyMS int64)
	// EmitAuthFailure records a failed authentication.
	EmitAuthFailure(address, ip, reason, method, path string)
}

// nopAuditEmitter discards all events. Used when no emitter is
// configured.
type nopAuditEmitter struct{}

func (nopAuditEmitter) EmitAuthSuccess(string, string, string, string, int64) {}
func (nopAuditEmitter) EmitAuthFailure(string, string, string, string, string) {}

// Middleware is the per-request gate: it extracts the credential token,
// runs verification, and either attaches the verified identity to the
// request context or terminates the request with a structured rejection.
// Route logic is never invoked on failure.
type Middleware struct {
	config       *Config
	verifier     *Verifier
	logger       *slog.Logger
	auditEmitter AuditEmitter

	// replayCache, when set, enforces single-use tokens. Off by
	// default: the protocol's observed contract bounds replay with the
	// TTL window alone.
	replayCache ReplayCache

	// maskResponses collapses rejection codes in responses to
	// "auth.failed" while keeping the specific code in server logs.
	maskResponses bool
}

// MiddlewareOption configures a Middleware.
type MiddlewareOption func(*Middleware)

// WithLogger sets the logger for the middleware.
func WithLogger(logger *slog.Logger) MiddlewareOption {
	return func(m *Middleware) {
		m.logger = logger
	}
}

// WithAuditEmitter sets the audit event emitter.
func WithAuditEmitter(emitter AuditEmitter) MiddlewareOption {
	return func(m *Middleware) {
		if emitter != nil {
			m.auditEmitter = emitter
		}
	}
}

// WithReplayCache enables single-use token enforcement through the given
// cache. This is a hardening option on top of the TTL window.
func WithReplayCache(cache ReplayCache) MiddlewareOption {
	return func(m *Middleware) {
		m.replayCache = cache
	}
}

// WithMaskedResponses collapses rejection codes in client responses to
// "auth.failed". The specific code is always logged server-side.
func WithMaskedResponses(enabled bool) MiddlewareOption {
	return func(m *Middleware) {
		m.maskResponses = enabled
	}
}

// NewMiddleware creates the authentication middleware over an immutable
// Config.
func NewMiddleware(config *Config, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		config:       config,
		verifier:     NewVerifier(config),
		logger:       slog.Default(),
		auditEmitter: nopAuditEmitter{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Wrap wraps an HTTP handler with signed-request authentication. The
// handler is only called when verification succeeds or the path is
// excluded; excluded requests proceed with no identity attached.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Fail closed on panics: the request must not proceed
		// unauthenticated.
		defer func() {
			if err := recover(); err != nil {
				m.logger.Error("panic in auth middleware",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				m.writeRejection(w, http.StatusInternalServerError, "internal_error")
			}
		}()

		if m.shouldExclude(normalizePath(r.URL.Path)) {
			m.logger.Debug("bypassing authentication",
				"method", r.Method,
				"path", r.URL.Path,
			)
			next.ServeHTTP(w, r)
			return
		}

		encoded, ok := extractToken(r)
		if !ok {
			m.reject(w, r, "", ErrMissingToken())
			return
		}

		token, err := DecodeToken(encoded)
		if err != nil {
			m.reject(w, r, "", err)
			return
		}

		facts, err := m.requestFacts(r)
		if err != nil {
			m.logger.Error("failed to read request body",
				"method", r.Method,
				"path", r.URL.Path,
				"error", err,
			)
			m.writeRejection(w, http.StatusInternalServerError, "internal_error")
			return
		}

		identity, err := m.verifier.Verify(facts, token)
		if err != nil {
			m.reject(w, r, token.Address, err)
			return
		}

		if m.replayCache != nil {
			isReplay, err := m.replayCache.Record(replayKey(token))
			if err != nil {
				if err == ErrReplayCacheFull {
					m.logger.Error("replay cache full", "error", err)
					m.writeRejection(w, http.StatusServiceUnavailable, "auth.service_unavailable")
					return
				}
				// Invalid key means a token we cannot account for;
				// treat as replay for safety.
				m.reject(w, r, token.Address, ErrReplay())
				return
			}
			if isReplay {
				m.reject(w, r, token.Address, ErrReplay())
				return
			}
		}

		m.logAuthSuccess(r, identity.Address, time.Since(start).Milliseconds())

		ctx := ContextWithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestFacts assembles the live request facts for verification. When
// method/path binding is on, the body is read to compute its digest and
// restored so route logic can still consume it.
func (m *Middleware) requestFacts(r *http.Request) (RequestFacts, error) {
	facts := RequestFacts{
		Method: r.Method,
		Path:   RequestPath(r),
		Origin: r.Header.Get("Origin"),
	}

	if !m.config.bindMethodPath || r.Body == nil || r.Body == http.NoBody {
		facts.BodyDigest = EmptyBodyDigest()
		return facts, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return facts, err
	}
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	facts.BodyDigest = BodyDigest(body)
	return facts, nil
}

// reject terminates the request with the rejection mapped from err.
// The specific code is always logged; the response code depends on the
// masking option.
func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, address string, err error) {
	code := ErrorCode(err)
	status := http.StatusUnauthorized
	var ae *AuthError
	if errors.As(err, &ae) {
		status = ae.HTTPStatus()
	}

	m.logAuthFailure(r, address, code, err.Error())

	respCode := code
	if m.maskResponses {
		respCode = ErrCodeMasked
		status = http.StatusUnauthorized
	}
	m.writeRejection(w, status, respCode)
}

// writeRejection writes the JSON rejection body. 401 responses carry the
// WWW-Authenticate challenge naming the expected scheme.
func (m *Middleware) writeRejection(w http.ResponseWriter, status int, code string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", Scheme)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": code,
	})
}

// shouldExclude returns true if the normalized path is exempt from
// authentication.
func (m *Middleware) shouldExclude(normalizedPath string) bool {
	if m.config.excludedPaths[normalizedPath] {
		return true
	}
	for _, prefix := range m.config.excludedPrefixes {
		if strings.HasPrefix(normalizedPath, prefix) {
			return true
		}
	}
	return false
}

// extractToken pulls the encoded token from the Authorization header.
func extractToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	value, ok := strings.CutPrefix(header, Scheme+" ")
	if !ok || value == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

// replayKey identifies one token presentation for single-use tracking.
func replayKey(token *Token) string {
	return token.Address + "|" + strconv.FormatInt(token.Timestamp, 10) + "|" + token.Signature
}

// normalizePath normalizes a URL path for exclusion checking: unescape,
// clean (resolves .. and double slashes), lowercase, strip trailing
// slash except for root. This is deliberately more aggressive than the
// canonical path used for signing; it only guards which requests skip
// authentication.
func normalizePath(p string) string {
	decoded, err := url.PathUnescape(p)
	if err != nil {
		decoded = p
	}

	cleaned := path.Clean(decoded)
	lower := strings.ToLower(cleaned)

	if len(lower) > 1 && strings.HasSuffix(lower, "/") {
		lower = lower[:len(lower)-1]
	}

	return lower
}

// logAuthSuccess logs a successful authentication and emits an audit
// event.
func (m *Middleware) logAuthSuccess(r *http.Request, address string, latencyMS int64) {
	ip := clientIP(r)
	m.logger.Info("auth.success",
		"address", sanitizeForLog(address),
		"method", r.Method,
		"path", r.URL.Path,
		"ip", ip,
		"latency_ms", latencyMS,
	)
	m.auditEmitter.EmitAuthSuccess(address, ip, r.Method, r.URL.Path, latencyMS)
}

// logAuthFailure logs an authentication failure and emits an audit
// event. The detail stays server-side.
func (m *Middleware) logAuthFailure(r *http.Request, address, reason, detail string) {
	ip := clientIP(r)
	args := []any{
		"reason", reason,
		"address", sanitizeForLog(address),
		"method", r.Method,
		"path", r.URL.Path,
		"ip", ip,
	}
	if detail != "" {
		args = append(args, "detail", detail)
	}
	m.logger.Warn("auth.failure", args...)
	m.auditEmitter.EmitAuthFailure(address, ip, reason, r.Method, r.URL.Path)
}

// sanitizeForLog strips control characters and truncates long values to
// prevent log injection.
func sanitizeForLog(s string) string {
	result := strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)

	if len(result) > 256 {
		result = result[:256] + "..."
	}

	return result
}

// clientIP extracts the client IP from the request, preferring proxy
// headers.
func clientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		if strings.Contains(addr, "[") {
			if closeIdx := strings.LastIndex(addr, "]"); closeIdx != -1 && closeIdx < idx {
				return addr[:idx]
			}
		} else {
			return addr[:idx]
		}
	}
	return addr
}
