package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTweetLengthLimit is the platform character ceiling
const DefaultTweetLengthLimit = 280

// UserSettings holds per-user generation defaults
type UserSettings struct {
	UserID              uuid.UUID `json:"user_id"`
	DefaultTone         string    `json:"default_tone"`
	WritingStyleHandles []string  `json:"writing_style_handles"`
	AutoSave            bool      `json:"auto_save"`
	TweetLengthLimit    int       `json:"tweet_length_limit"`
	XHandle             string    `json:"x_handle"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// DefaultUserSettings returns the settings used before a user saves any
func DefaultUserSettings(userID uuid.UUID) *UserSettings {
	return &UserSettings{
		UserID:              userID,
		WritingStyleHandles: []string{},
		TweetLengthLimit:    DefaultTweetLengthLimit,
	}
}
