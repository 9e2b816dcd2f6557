package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContentType identifies a kind of generated content
type ContentType string

const (
	ContentTypeDM            ContentType = "dm"
	ContentTypeReply         ContentType = "reply"
	ContentTypeThread        ContentType = "thread"
	ContentTypePost          ContentType = "post"
	ContentTypePostIdeas     ContentType = "post_ideas"
	ContentTypeThreadRewrite ContentType = "thread_rewrite"
)

// AllContentTypes lists every content type in display order
var AllContentTypes = []ContentType{
	ContentTypeDM,
	ContentTypeReply,
	ContentTypeThread,
	ContentTypePost,
	ContentTypePostIdeas,
	ContentTypeThreadRewrite,
}

// ParseContentType accepts both the snake_case and the kebab-case route form.
func ParseContentType(s string) (ContentType, error) {
	normalized := ContentType(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, ct := range AllContentTypes {
		if ct == normalized {
			return ct, nil
		}
	}
	return "", fmt.Errorf("unknown content type %q", s)
}

// Slug returns the route form of the content type (post-ideas, thread-rewrite).
func (c ContentType) Slug() string {
	return strings.ReplaceAll(string(c), "_", "-")
}

// Variant is one named generated text
type Variant struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Variants is the ordered variant mapping of a generation
type Variants []Variant

// Map returns the variants keyed by name
func (v Variants) Map() map[string]string {
	out := make(map[string]string, len(v))
	for _, variant := range v {
		out[variant.Key] = variant.Text
	}
	return out
}

// Texts returns the variant texts in order
func (v Variants) Texts() []string {
	out := make([]string, len(v))
	for i, variant := range v {
		out[i] = variant.Text
	}
	return out
}

// Get returns the text stored under key
func (v Variants) Get(key string) (string, bool) {
	for _, variant := range v {
		if variant.Key == key {
			return variant.Text, true
		}
	}
	return "", false
}

// Value implements driver.Valuer for JSONB storage
func (v Variants) Value() (driver.Value, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v)
}

// Scan implements sql.Scanner for JSONB storage
func (v *Variants) Scan(value any) error {
	return scanJSON(value, v)
}

// Generation is a persisted generation result. Rows are never updated in place.
type Generation struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"user_id"`
	ContentType    ContentType    `json:"content_type"`
	Input          Metadata       `json:"input"`
	Variants       Variants       `json:"variants"`
	TargetContext  *TargetContext `json:"target_context,omitempty"`
	ExtractionTier string         `json:"extraction_tier"`
	CreatedAt      time.Time      `json:"created_at"`
}

func scanJSON(value any, dest any) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into %T", value, dest)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}

// GenerationRequest is the caller-supplied input for every content type. Which
// fields are required depends on ContentType.
type GenerationRequest struct {
	ContentType         ContentType `json:"-"`
	TargetHandle        string      `json:"target_handle,omitempty" validate:"omitempty,handle"`
	Goal                string      `json:"goal,omitempty" validate:"max=500"`
	TweetURL            string      `json:"tweet_url,omitempty" validate:"omitempty,posturl"`
	PostContent         string      `json:"post_content,omitempty" validate:"max=5000"`
	Context             string      `json:"context,omitempty" validate:"max=1000"`
	Topic               string      `json:"topic,omitempty" validate:"max=500"`
	Tone                string      `json:"tone,omitempty" validate:"max=50"`
	TargetAudience      string      `json:"target_audience,omitempty" validate:"max=200"`
	HandleToMimic       string      `json:"handle_to_mimic,omitempty" validate:"omitempty,handle"`
	WritingStyleHandle  string      `json:"writing_style_handle,omitempty" validate:"omitempty,handle"`
	WritingStyleHandles []string    `json:"writing_style_handles,omitempty" validate:"max=2,dive,handle"`
	ThreadContent       string      `json:"thread_content,omitempty" validate:"max=10000"`
	ThreadURL           string      `json:"thread_url,omitempty" validate:"omitempty,posturl"`
	RewriteType         string      `json:"rewrite_type,omitempty" validate:"omitempty,oneof=viral simplify storytelling punchy style-mimic"`
}

// StyleHandles returns the distinct style-reference handles in the order supplied,
// capped at max.
func (r *GenerationRequest) StyleHandles(max int) []string {
	seen := make(map[string]bool)
	var out []string
	candidates := append([]string{r.HandleToMimic, r.WritingStyleHandle}, r.WritingStyleHandles...)
	for _, h := range candidates {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
		if len(out) == max {
			break
		}
	}
	return out
}
