package profile

import (
	"context"
	"errors"

	"github.com/benvon/sparkreply/internal/models"
)

var (
	// ErrProviderUnavailable is returned when enrichment is not configured or the
	// upstream API cannot be reached. Callers degrade instead of failing.
	ErrProviderUnavailable = errors.New("profile provider unavailable")
	// ErrNotFound is returned when the handle or post does not exist
	ErrNotFound = errors.New("profile or post not found")
)

// Provider looks up social profiles and content
type Provider interface {
	LookupProfile(ctx context.Context, handle string) (*models.Profile, error)
	RecentPosts(ctx context.Context, profileID string, limit int) ([]models.Post, error)
	LookupPost(ctx context.Context, postID string) (*models.Post, *models.Profile, error)
	Conversation(ctx context.Context, conversationID string) ([]models.Post, error)
}

// Disabled is used when PROFILE_API_TOKEN is absent
type Disabled struct{}

func (Disabled) LookupProfile(context.Context, string) (*models.Profile, error) {
	return nil, ErrProviderUnavailable
}

func (Disabled) RecentPosts(context.Context, string, int) ([]models.Post, error) {
	return nil, ErrProviderUnavailable
}

func (Disabled) LookupPost(context.Context, string) (*models.Post, *models.Profile, error) {
	return nil, nil, ErrProviderUnavailable
}

func (Disabled) Conversation(context.Context, string) ([]models.Post, error) {
	return nil, ErrProviderUnavailable
}
