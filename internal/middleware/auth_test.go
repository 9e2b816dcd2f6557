package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/sparkreply/internal/models"
	"github.com/benvon/sparkreply/internal/request"
	"go.uber.org/zap"
)

func TestAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		header      string
		usersErr    error
		wantStatus  int
		wantMessage string
		wantUpserts int32
	}{
		{name: "missing header", wantStatus: http.StatusUnauthorized, wantMessage: "Missing authorization header"},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized, wantMessage: "Invalid authorization header format"},
		{name: "empty token", header: "Bearer ", wantStatus: http.StatusUnauthorized, wantMessage: "Invalid authorization header format"},
		{name: "bad token", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantMessage: "Unauthorized"},
		{name: "valid token", header: "Bearer good-token", wantStatus: http.StatusOK, wantUpserts: 1},
		{name: "lowercase scheme", header: "bearer good-token", wantStatus: http.StatusOK, wantUpserts: 1},
		{name: "upsert failure still passes", header: "Bearer good-token", usersErr: errors.New("db down"), wantStatus: http.StatusOK, wantUpserts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			identity := testIdentity()
			users := &fakeUsers{err: tt.usersErr}
			var seen *models.Identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = request.IdentityFromContext(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("POST", "/api/v1/generate/dm", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			Auth(&fakeVerifier{identity: identity}, users, zap.NewNop())(next).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := users.calls.Load(); got != tt.wantUpserts {
				t.Errorf("upserts = %d, want %d", got, tt.wantUpserts)
			}
			if tt.wantStatus == http.StatusOK {
				if seen != identity {
					t.Error("identity not attached to request context")
				}
				return
			}

			var body ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Error != "unauthorized" || body.Message != tt.wantMessage {
				t.Errorf("body = %+v, want unauthorized / %q", body, tt.wantMessage)
			}
		})
	}
}

func TestAuth_NilUserStore(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	req := httptest.NewRequest("GET", "/api/v1/settings", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()

	Auth(&fakeVerifier{identity: testIdentity()}, nil, zap.NewNop())(next).ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
}
