package walletauth

import (
	"context"
	"testing"
)

func TestIdentityFromContextAbsent(t *testing.T) {
	if id := IdentityFromContext(context.Background()); id != nil {
		t.Errorf("expected nil identity, got %+v", id)
	}
}

func TestIdentityContextRoundTrip(t *testing.T) {
	want := &Identity{Address: "addr", Audience: "aud", Issuer: "iss"}
	ctx := ContextWithIdentity(context.Background(), want)

	if got := IdentityFromContext(ctx); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got := MustIdentity(ctx); got != want {
		t.Errorf("MustIdentity got %+v, want %+v", got, want)
	}
}

// TestMustIdentityFailsClosed: calling the accessor outside an
// authenticated context is a programming error and must panic, not
// degrade into a client-facing rejection.
func TestMustIdentityFailsClosed(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unauthenticated context")
		}
	}()
	MustIdentity(context.Background())
}
