package walletauth

import "context"

// contextKey is an unexported type for context keys to prevent
// collisions.
type contextKey int

// identityKey is the context key for the authenticated identity.
const identityKey contextKey = iota

// IdentityFromContext extracts the authenticated identity from the
// context. Returns nil if no identity is present (e.g. an excluded
// path).
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// MustIdentity extracts the authenticated identity and panics if there is
// none. A missing identity here means a route was wired without passing
// through the middleware — a programming error, not a client failure —
// so it fails loudly instead of being converted into a 401.
func MustIdentity(ctx context.Context) *Identity {
	id := IdentityFromContext(ctx)
	if id == nil {
		panic("walletauth: unauthenticated context: handler reached without the auth middleware")
	}
	return id
}

// ContextWithIdentity returns a new context carrying the given identity.
// Primarily for testing handlers that expect an authenticated caller.
func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}
