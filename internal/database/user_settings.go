package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/sparkreply/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UserSettingsRepository handles per-user generation defaults
type UserSettingsRepository struct {
	db *DB
}

// NewUserSettingsRepository creates a new user settings repository
func NewUserSettingsRepository(db *DB) *UserSettingsRepository {
	return &UserSettingsRepository{db: db}
}

// Get returns the user's settings, or the defaults when none are stored
func (r *UserSettingsRepository) Get(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	s := &models.UserSettings{UserID: userID}
	var handles pq.StringArray

	query := `
		SELECT default_tone, writing_style_handles, auto_save, tweet_length_limit, x_handle, updated_at
		FROM user_settings
		WHERE user_id = $1
	`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&s.DefaultTone,
		&handles,
		&s.AutoSave,
		&s.TweetLengthLimit,
		&s.XHandle,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultUserSettings(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}
	s.WritingStyleHandles = []string(handles)
	if s.WritingStyleHandles == nil {
		s.WritingStyleHandles = []string{}
	}
	return s, nil
}

// Upsert stores the user's settings
func (r *UserSettingsRepository) Upsert(ctx context.Context, s *models.UserSettings) error {
	if s.TweetLengthLimit <= 0 {
		s.TweetLengthLimit = models.DefaultTweetLengthLimit
	}
	s.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO user_settings (user_id, default_tone, writing_style_handles, auto_save, tweet_length_limit, x_handle, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			default_tone = EXCLUDED.default_tone,
			writing_style_handles = EXCLUDED.writing_style_handles,
			auto_save = EXCLUDED.auto_save,
			tweet_length_limit = EXCLUDED.tweet_length_limit,
			x_handle = EXCLUDED.x_handle,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		s.UserID,
		s.DefaultTone,
		pq.Array(s.WritingStyleHandles),
		s.AutoSave,
		s.TweetLengthLimit,
		s.XHandle,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save user settings: %w", err)
	}
	return nil
}
