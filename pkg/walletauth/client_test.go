package walletauth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newProtectedServer starts a test server whose routes sit behind the
// middleware with the reference config.
func newProtectedServer(t *testing.T, mutate func(*ConfigParams)) *httptest.Server {
	t.Helper()

	cfg := testConfig(t, mutate)
	mw := NewMiddleware(cfg, WithLogger(quietLogger()))

	mux := http.NewServeMux()
	mux.HandleFunc("/api/whoami", func(w http.ResponseWriter, r *http.Request) {
		identity := MustIdentity(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"address":"` + identity.Address + `"}`))
	})
	mux.HandleFunc("/api/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	})

	srv := httptest.NewServer(mw.Wrap(mux))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientSignedGet(t *testing.T) {
	t.Log("Testing the client end-to-end against a protected server")

	srv := newProtectedServer(t, nil)

	_, priv := testKeypair(t)
	client := NewClient(srv.URL, NewSigner(priv), SignOptions{Audience: "api.example", Issuer: "svc"})

	var out struct {
		Address string `json:"address"`
	}
	if err := client.GetJSON("/api/whoami", &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Address != client.Address() {
		t.Errorf("server saw address %q, want %q", out.Address, client.Address())
	}
}

func TestClientSignedPostWithBinding(t *testing.T) {
	t.Log("Testing a signed POST body passes binding verification")

	srv := newProtectedServer(t, func(p *ConfigParams) { p.BindMethodPath = true })

	_, priv := testKeypair(t)
	client := NewClient(srv.URL, NewSigner(priv), SignOptions{Audience: "api.example", Issuer: "svc"})

	resp, err := client.PostJSON("/api/echo", map[string]any{"asset": "SOL", "amount": 1.5})
	if err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestClientWrongAudienceRejected(t *testing.T) {
	srv := newProtectedServer(t, nil)

	_, priv := testKeypair(t)
	client := NewClient(srv.URL, NewSigner(priv), SignOptions{Audience: "other.example", Issuer: "svc"})

	err := client.GetJSON("/api/whoami", &struct{}{})
	if err == nil {
		t.Fatal("expected rejection for wrong audience")
	}
	rej, ok := err.(*AuthRejection)
	if !ok {
		t.Fatalf("expected *AuthRejection, got %T: %v", err, err)
	}
	if rej.Code != ErrCodeAudienceMismatch {
		t.Errorf("expected %s, got %s", ErrCodeAudienceMismatch, rej.Code)
	}
	if rej.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rej.StatusCode)
	}
}

func TestParseAuthRejection(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantNil  bool
		wantCode string
	}{
		{"ok response", http.StatusOK, `{}`, true, ""},
		{"structured 401", http.StatusUnauthorized, `{"error":"auth.expired"}`, false, ErrCodeExpired},
		{"structured 403", http.StatusForbidden, `{"error":"auth.origin_rejected"}`, false, ErrCodeOriginRejected},
		{"unparseable body", http.StatusUnauthorized, `garbage`, false, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resp, err := http.Get(srv.URL)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			defer resp.Body.Close()

			rej := ParseAuthRejection(resp)
			if tt.wantNil {
				if rej != nil {
					t.Errorf("expected nil, got %+v", rej)
				}
				return
			}
			if rej == nil {
				t.Fatal("expected a rejection")
			}
			if rej.Code != tt.wantCode {
				t.Errorf("code %s, want %s", rej.Code, tt.wantCode)
			}
		})
	}
}

func TestAuthRejectionClockHint(t *testing.T) {
	rej := &AuthRejection{StatusCode: 401, Code: ErrCodeExpired}
	if !rej.IsClockError() {
		t.Error("expired rejection must be a clock error")
	}
	if msg := rej.UserFriendlyMessage(); msg == "" {
		t.Error("expected a user-facing message")
	}

	rej = &AuthRejection{StatusCode: 403, Code: ErrCodeOriginRejected}
	if rej.IsClockError() {
		t.Error("origin rejection is not a clock error")
	}
}
