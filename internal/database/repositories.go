package database

import (
	"context"
	"time"

	"github.com/benvon/sparkreply/internal/models"
	"github.com/google/uuid"
)

// GenerationRepositoryInterface defines the history operations used by handlers and the pipeline
type GenerationRepositoryInterface interface {
	Create(ctx context.Context, table string, g *models.Generation) error
	List(ctx context.Context, table string, userID uuid.UUID, contentType models.ContentType, limit int) ([]*models.Generation, error)
	ListAll(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Generation, error)
	Delete(ctx context.Context, table string, id, userID uuid.UUID) error
}

// SavedContentRepositoryInterface defines saved content operations
type SavedContentRepositoryInterface interface {
	Create(ctx context.Context, item *models.SavedContent) error
	List(ctx context.Context, userID uuid.UUID, contentType models.ContentType, limit int) ([]*models.SavedContent, error)
	Update(ctx context.Context, id, userID uuid.UUID, patch *models.SavedContentPatch) (*models.SavedContent, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// UserSettingsRepositoryInterface defines settings operations
type UserSettingsRepositoryInterface interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error)
	Upsert(ctx context.Context, s *models.UserSettings) error
}

// StatsRepositoryInterface defines dashboard statistics
type StatsRepositoryInterface interface {
	Dashboard(ctx context.Context, userID uuid.UUID, now time.Time) (*models.DashboardStats, error)
}

// UserRepositoryInterface defines user operations
type UserRepositoryInterface interface {
	Upsert(ctx context.Context, identity *models.Identity) (*models.User, error)
}

// Ensure concrete types implement the interfaces
var (
	_ GenerationRepositoryInterface   = (*GenerationRepository)(nil)
	_ SavedContentRepositoryInterface = (*SavedContentRepository)(nil)
	_ UserSettingsRepositoryInterface = (*UserSettingsRepository)(nil)
	_ StatsRepositoryInterface        = (*StatsRepository)(nil)
	_ UserRepositoryInterface         = (*UserRepository)(nil)
)
