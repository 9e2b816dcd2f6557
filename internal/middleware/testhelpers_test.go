package middleware

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/benvon/sparkreply/internal/models"
	"github.com/google/uuid"
)

type fakeVerifier struct {
	identity *models.Identity
	err      error
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (*models.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	if token != "good-token" {
		return nil, errors.New("bad token")
	}
	return f.identity, nil
}

type fakeUsers struct {
	calls atomic.Int32
	err   error
}

func (f *fakeUsers) Upsert(_ context.Context, identity *models.Identity) (*models.User, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: identity.UserID, Subject: identity.Subject}, nil
}

func testIdentity() *models.Identity {
	return &models.Identity{UserID: uuid.New(), Subject: "user-1", Email: "user@example.com"}
}
