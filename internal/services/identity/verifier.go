package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/sparkreply/internal/models"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	// ErrInvalidToken is returned for any token that fails parsing or validation
	ErrInvalidToken = errors.New("invalid token")
	// ErrNotConfigured is returned when neither a JWKS URL nor a shared secret is set
	ErrNotConfigured = errors.New("identity verification not configured")
)

// ownerNamespace derives stable owner ids for subjects that are not UUIDs
var ownerNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("sparkreply:users"))

// Verifier turns bearer tokens into identities
type Verifier struct {
	keys     KeySource
	secret   []byte
	issuer   string
	audience string
}

// Options configures a Verifier. Keys wins over Secret when both are set.
type Options struct {
	Keys     KeySource
	Secret   string
	Issuer   string
	Audience string
}

// NewVerifier creates a verifier
func NewVerifier(opts Options) (*Verifier, error) {
	if opts.Keys == nil && opts.Secret == "" {
		return nil, ErrNotConfigured
	}
	return &Verifier{
		keys:     opts.Keys,
		secret:   []byte(opts.Secret),
		issuer:   opts.Issuer,
		audience: opts.Audience,
	}, nil
}

// Verify validates the token signature and claims and returns the caller's identity
func (v *Verifier) Verify(ctx context.Context, token string) (*models.Identity, error) {
	parseOpts := []jwt.ParseOption{jwt.WithValidate(true)}
	if v.keys != nil {
		keys, err := v.keys.KeySet(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get signing keys: %w", err)
		}
		parseOpts = append(parseOpts, jwt.WithKeySet(keys, jws.WithInferAlgorithmFromKey(true)))
	} else {
		parseOpts = append(parseOpts, jwt.WithKey(jwa.HS256, v.secret))
	}
	if v.issuer != "" {
		parseOpts = append(parseOpts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		parseOpts = append(parseOpts, jwt.WithAudience(v.audience))
	}

	parsed, err := jwt.Parse([]byte(token), parseOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if parsed.Subject() == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	identity := &models.Identity{
		UserID:  OwnerID(parsed.Subject()),
		Subject: parsed.Subject(),
	}
	if email, ok := parsed.Get("email"); ok {
		identity.Email, _ = email.(string)
	}
	if name, ok := parsed.Get("name"); ok {
		identity.Name, _ = name.(string)
	}
	return identity, nil
}

// OwnerID maps a token subject to the owner id stored on every row. UUID subjects
// are used as-is; anything else is hashed into a stable UUID.
func OwnerID(subject string) uuid.UUID {
	if id, err := uuid.Parse(subject); err == nil {
		return id
	}
	return uuid.NewSHA1(ownerNamespace, []byte(subject))
}
