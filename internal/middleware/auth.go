package middleware

import (
	"context"
	"net/http"
	"strings"

	logpkg "github.com/benvon/sparkreply/internal/logger"
	"github.com/benvon/sparkreply/internal/models"
	"github.com/benvon/sparkreply/internal/request"
	"go.uber.org/zap"
)

// TokenVerifier turns a bearer token into an identity
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.Identity, error)
}

// UserStore records users on their first authenticated request
type UserStore interface {
	Upsert(ctx context.Context, identity *models.Identity) (*models.User, error)
}

// Auth creates authentication middleware that validates bearer tokens. users may be
// nil when persistence is disabled.
func Auth(verifier TokenVerifier, users UserStore, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid authorization header format")
				return
			}

			ctx := r.Context()
			identity, err := verifier.Verify(ctx, strings.TrimSpace(parts[1]))
			if err != nil {
				logger.Debug("token_verification_failed",
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("error", logpkg.SanitizeString(err.Error(), logpkg.MaxGeneralStringLength)),
				)
				writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
				return
			}

			if users != nil {
				if _, err := users.Upsert(ctx, identity); err != nil {
					// the request still proceeds; only history rows depend on the user record
					logger.Warn("user_upsert_failed",
						zap.String("user_id", identity.UserID.String()),
						zap.Error(err),
					)
				}
			}

			next.ServeHTTP(w, r.WithContext(request.WithIdentity(ctx, identity)))
		})
	}
}
