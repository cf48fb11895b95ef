package walletauth

import (
	"bytes"
	"crypto/sha256"
	"net/http/httptest"
	"testing"
)

func TestEncodeCanonicalDeterministic(t *testing.T) {
	t.Log("Testing canonical encoding is byte-for-byte deterministic")

	digest := BodyDigest([]byte("hello"))
	a := EncodeCanonical("GET", "/api/portfolio", "api.example", "svc", 1700000000, digest)
	b := EncodeCanonical("GET", "/api/portfolio", "api.example", "svc", 1700000000, digest)

	if !bytes.Equal(a, b) {
		t.Error("identical inputs produced different canonical bytes")
	}
}

func TestEncodeCanonicalMethodUppercased(t *testing.T) {
	t.Log("Testing method normalization to uppercase")

	digest := EmptyBodyDigest()
	upper := EncodeCanonical("GET", "/x", "aud", "iss", 1, digest)
	lower := EncodeCanonical("get", "/x", "aud", "iss", 1, digest)

	if !bytes.Equal(upper, lower) {
		t.Error("method case changed the canonical bytes")
	}
}

// TestEncodeCanonicalFieldBoundaries verifies the length-prefixed framing:
// shifting bytes between adjacent fields must change the encoding.
func TestEncodeCanonicalFieldBoundaries(t *testing.T) {
	t.Log("Testing field-boundary collision resistance")

	digest := EmptyBodyDigest()
	tests := []struct {
		name           string
		m1, p1, m2, p2 string
	}{
		{"method/path shift", "GE", "T/x", "GET", "/x"},
		{"path/audience shift", "GET", "/xa", "GET", "/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := EncodeCanonical(tt.m1, tt.p1, "aud", "iss", 1, digest)
			b := EncodeCanonical(tt.m2, tt.p2, "aud", "iss", 1, digest)
			if bytes.Equal(a, b) {
				t.Errorf("distinct field values %q/%q and %q/%q collided", tt.m1, tt.p1, tt.m2, tt.p2)
			}
		})
	}
}

func TestEncodeCanonicalFieldSensitivity(t *testing.T) {
	t.Log("Testing every field participates in the encoding")

	digest := BodyDigest([]byte("body"))
	base := EncodeCanonical("GET", "/x", "aud", "iss", 100, digest)

	variants := [][]byte{
		EncodeCanonical("POST", "/x", "aud", "iss", 100, digest),
		EncodeCanonical("GET", "/y", "aud", "iss", 100, digest),
		EncodeCanonical("GET", "/x", "other", "iss", 100, digest),
		EncodeCanonical("GET", "/x", "aud", "other", 100, digest),
		EncodeCanonical("GET", "/x", "aud", "iss", 101, digest),
		EncodeCanonical("GET", "/x", "aud", "iss", 100, BodyDigest([]byte("other"))),
	}

	for i, v := range variants {
		if bytes.Equal(base, v) {
			t.Errorf("variant %d did not change the canonical bytes", i)
		}
	}
}

func TestBodyDigestEmptyAndNil(t *testing.T) {
	t.Log("Testing nil body, empty body, and the empty-body constant all agree")

	want := sha256.Sum256(nil)
	if BodyDigest(nil) != want {
		t.Error("nil body digest differs from SHA-256 of empty string")
	}
	if BodyDigest([]byte{}) != want {
		t.Error("empty body digest differs from SHA-256 of empty string")
	}
	if EmptyBodyDigest() != want {
		t.Error("EmptyBodyDigest differs from SHA-256 of empty string")
	}
}

func TestCanonicalPath(t *testing.T) {
	tests := []struct {
		name   string
		rawURL string
		want   string
	}{
		{"full URL with query", "https://api.example:8443/api/portfolio?limit=5", "/api/portfolio"},
		{"fragment stripped", "https://api.example/a/b#frag", "/a/b"},
		{"empty path", "https://api.example", "/"},
		{"trailing slash kept", "https://api.example/a/", "/a/"},
		{"case kept", "https://api.example/API/Portfolio", "/API/Portfolio"},
		{"bare path", "/api/portfolio", "/api/portfolio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalPath(tt.rawURL)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CanonicalPath(%q) = %q, want %q", tt.rawURL, got, tt.want)
			}
		})
	}
}

func TestRequestPathMatchesCanonicalPath(t *testing.T) {
	t.Log("Testing server-side path derivation agrees with client-side")

	r := httptest.NewRequest("GET", "https://api.example/api/portfolio?limit=5", nil)
	serverPath := RequestPath(r)

	clientPath, err := CanonicalPath("https://api.example/api/portfolio?limit=5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if serverPath != clientPath {
		t.Errorf("server path %q != client path %q", serverPath, clientPath)
	}
}
