package client

import (
	"time"

	"github.com/benvon/sparkreply/internal/models"
	"github.com/google/uuid"
)

// Shared wire types
type (
	ContentType       = models.ContentType
	GenerationRequest = models.GenerationRequest
	Generation        = models.Generation
	SavedContent      = models.SavedContent
	SavedContentPatch = models.SavedContentPatch
	Metadata          = models.Metadata
	UserSettings      = models.UserSettings
	DashboardStats    = models.DashboardStats
	Identity          = models.Identity
)

// Content types
const (
	ContentTypeDM            = models.ContentTypeDM
	ContentTypeReply         = models.ContentTypeReply
	ContentTypeThread        = models.ContentTypeThread
	ContentTypePost          = models.ContentTypePost
	ContentTypePostIdeas     = models.ContentTypePostIdeas
	ContentTypeThreadRewrite = models.ContentTypeThreadRewrite
)

// Target is the enriched profile returned with a generation
type Target struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	Bio       string `json:"bio,omitempty"`
	Followers int    `json:"followers"`
}

// Result is a generation as returned by the generate endpoints. Keyed types (DM,
// reply) fill Variants, list types fill Texts.
type Result struct {
	ID             uuid.UUID
	ContentType    ContentType
	Input          Metadata
	ExtractionTier string
	CreatedAt      time.Time
	Target         *Target

	Variants map[string]string
	Texts    []string
	// Original holds the source tweets of a thread rewrite
	Original []string
}

// SaveContentRequest creates a saved item
type SaveContentRequest struct {
	Type     ContentType `json:"type"`
	Title    string      `json:"title"`
	Content  string      `json:"content"`
	Metadata Metadata    `json:"metadata,omitempty"`
}

// SettingsUpdate replaces the caller's settings
type SettingsUpdate struct {
	DefaultTone         string   `json:"default_tone"`
	WritingStyleHandles []string `json:"writing_style_handles"`
	AutoSave            bool     `json:"auto_save"`
	TweetLengthLimit    int      `json:"tweet_length_limit,omitempty"`
	XHandle             string   `json:"x_handle,omitempty"`
}

// ParseContentType accepts both dm / post_ideas and the route form post-ideas
func ParseContentType(s string) (ContentType, error) {
	return models.ParseContentType(s)
}
