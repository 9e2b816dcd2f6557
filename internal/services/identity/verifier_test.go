package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const testSecret = "a-test-secret-that-is-long-enough"

func signHS256(t *testing.T, build func(*jwt.Builder) *jwt.Builder, secret string) string {
	t.Helper()
	b := jwt.NewBuilder().
		Subject("user-123").
		Issuer("https://auth.example.com").
		Audience([]string{"sparkreply"}).
		Expiration(time.Now().Add(time.Hour)).
		Claim("email", "user@example.com")
	if build != nil {
		b = build(b)
	}
	tok, err := b.Build()
	if err != nil {
		t.Fatalf("failed to build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(secret)))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return string(signed)
}

func TestNewVerifier_RequiresKeys(t *testing.T) {
	t.Parallel()

	if _, err := NewVerifier(Options{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("NewVerifier() error = %v, want ErrNotConfigured", err)
	}
}

func TestVerifier_SharedSecret(t *testing.T) {
	t.Parallel()

	v, err := NewVerifier(Options{Secret: testSecret, Issuer: "https://auth.example.com", Audience: "sparkreply"})
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "valid", token: signHS256(t, nil, testSecret)},
		{name: "wrong secret", token: signHS256(t, nil, "another-secret-entirely-different"), wantErr: true},
		{
			name: "expired",
			token: signHS256(t, func(b *jwt.Builder) *jwt.Builder {
				return b.Expiration(time.Now().Add(-time.Hour))
			}, testSecret),
			wantErr: true,
		},
		{
			name: "wrong issuer",
			token: signHS256(t, func(b *jwt.Builder) *jwt.Builder {
				return b.Issuer("https://evil.example.com")
			}, testSecret),
			wantErr: true,
		},
		{
			name: "wrong audience",
			token: signHS256(t, func(b *jwt.Builder) *jwt.Builder {
				return b.Audience([]string{"someone-else"})
			}, testSecret),
			wantErr: true,
		},
		{name: "garbage", token: "not.a.token", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			identity, err := v.Verify(context.Background(), tt.token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if identity.Subject != "user-123" || identity.Email != "user@example.com" {
				t.Errorf("identity = %+v", identity)
			}
			if identity.UserID != OwnerID("user-123") {
				t.Error("UserID should be derived from the subject")
			}
		})
	}
}

func TestVerifier_JWKS(t *testing.T) {
	t.Parallel()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	private, err := jwk.FromRaw(raw)
	if err != nil {
		t.Fatalf("failed to wrap key: %v", err)
	}
	_ = private.Set(jwk.KeyIDKey, "key-1")
	_ = private.Set(jwk.AlgorithmKey, jwa.RS256)
	public, err := jwk.PublicKeyOf(private)
	if err != nil {
		t.Fatalf("failed to derive public key: %v", err)
	}
	set := jwk.NewSet()
	_ = set.AddKey(public)

	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(set)
	}))
	t.Cleanup(srv.Close)

	v, err := NewVerifier(Options{Keys: NewJWKSCache(srv.URL, srv.Client())})
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}

	tok, err := jwt.NewBuilder().Subject("rsa-user").Expiration(time.Now().Add(time.Hour)).Build()
	if err != nil {
		t.Fatalf("failed to build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, private))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	for i := 0; i < 2; i++ {
		identity, err := v.Verify(context.Background(), string(signed))
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if identity.Subject != "rsa-user" {
			t.Errorf("Subject = %q", identity.Subject)
		}
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("JWKS fetched %d times, want 1", got)
	}

	forged := signHS256(t, nil, testSecret)
	if _, err := v.Verify(context.Background(), forged); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("HS256 token accepted by a JWKS verifier: %v", err)
	}
}

func TestJWKSCache_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	if _, err := NewJWKSCache(srv.URL, srv.Client()).KeySet(context.Background()); err == nil {
		t.Error("KeySet() expected error for a 500 response")
	}
}

func TestOwnerID(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	if got := OwnerID(id.String()); got != id {
		t.Errorf("OwnerID(uuid) = %s, want %s", got, id)
	}
	a, b := OwnerID("auth0|abc"), OwnerID("auth0|abc")
	if a != b {
		t.Error("OwnerID must be stable")
	}
	if a == OwnerID("auth0|abd") {
		t.Error("different subjects must map to different owners")
	}
}
