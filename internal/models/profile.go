package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Profile is a social profile as returned by the profile provider
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Username  string `json:"username"`
	Bio       string `json:"bio,omitempty"`
	Followers int    `json:"followers"`
	Following int    `json:"following"`
	PostCount int    `json:"post_count"`
}

// Post is a single piece of social content
type Post struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"author_id,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
	Likes          int       `json:"likes"`
	Reposts        int       `json:"reposts"`
	Replies        int       `json:"replies"`
	Hashtags       []string  `json:"hashtags,omitempty"`
	Mentions       []string  `json:"mentions,omitempty"`
	LinkTitles     []string  `json:"link_titles,omitempty"`
	Topics         []string  `json:"topics,omitempty"`
}

// Engagement is likes plus reposts
func (p Post) Engagement() int {
	return p.Likes + p.Reposts
}

// TargetContext is the enrichment snapshot used to build a prompt. Every part is optional.
type TargetContext struct {
	Profile      *Profile  `json:"profile,omitempty"`
	Posts        []Post    `json:"posts,omitempty"`
	Subject      *Post     `json:"subject,omitempty"`
	StyleAuthors []Profile `json:"style_authors,omitempty"`
	StyleSamples []Post    `json:"style_samples,omitempty"`
}

// Empty reports whether nothing was fetched
func (t *TargetContext) Empty() bool {
	return t == nil || (t.Profile == nil && len(t.Posts) == 0 && t.Subject == nil &&
		len(t.StyleAuthors) == 0 && len(t.StyleSamples) == 0)
}

// Value implements driver.Valuer for JSONB storage
func (t *TargetContext) Value() (driver.Value, error) {
	if t.Empty() {
		return nil, nil
	}
	return json.Marshal(t)
}

// Scan implements sql.Scanner for JSONB storage
func (t *TargetContext) Scan(value any) error {
	return scanJSON(value, t)
}
