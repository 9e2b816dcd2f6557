package generation

import (
	"fmt"
	"sort"

	"github.com/benvon/sparkreply/internal/models"
)

// Shape describes how a content type's variants are laid out
type Shape int

const (
	// ShapeKeyed is a fixed set of named variants (tones or reply styles)
	ShapeKeyed Shape = iota
	// ShapeList is an ordered list of items (thread tweets, post variations)
	ShapeList
)

// MaxCharacters is the platform ceiling applied to every generated value
const MaxCharacters = 280

// maxRewriteTweets caps how many source tweets a rewrite will process
const maxRewriteTweets = 25

// ContentSpec is the per-content-type configuration of the pipeline. Prompt and
// fallback wording lives in the template document, not here.
type ContentSpec struct {
	Type  models.ContentType
	Shape Shape

	// Keys are the variant names for ShapeKeyed
	Keys []string
	// ListField is the JSON array the model is asked to return for ShapeList
	ListField string
	// ItemPrefix names positional variants (tweet_1, variation_2)
	ItemPrefix string
	MinItems   int
	MaxItems   int

	// ResponseKey is the field the HTTP layer renders the variants under
	ResponseKey string

	Temperature float64
	MaxTokens   int64

	// Table stores the history rows for this type
	Table string
}

var specs = map[models.ContentType]*ContentSpec{
	models.ContentTypeDM: {
		Type:        models.ContentTypeDM,
		Shape:       ShapeKeyed,
		Keys:        []string{"professional", "casual", "bold", "witty"},
		ResponseKey: "dms",
		Temperature: 0.7,
		MaxTokens:   1000,
		Table:       "dm_generations",
	},
	models.ContentTypeReply: {
		Type:        models.ContentTypeReply,
		Shape:       ShapeKeyed,
		Keys:        []string{"contrarian", "insight", "story", "question"},
		ResponseKey: "replies",
		Temperature: 0.7,
		MaxTokens:   1000,
		Table:       "reply_generations",
	},
	models.ContentTypeThread: {
		Type:        models.ContentTypeThread,
		Shape:       ShapeList,
		ListField:   "thread",
		ItemPrefix:  "tweet",
		MinItems:    3,
		MaxItems:    12,
		ResponseKey: "thread",
		Temperature: 0.8,
		MaxTokens:   2000,
		Table:       "thread_generations",
	},
	models.ContentTypePost: {
		Type:        models.ContentTypePost,
		Shape:       ShapeList,
		ListField:   "variations",
		ItemPrefix:  "variation",
		MinItems:    3,
		MaxItems:    5,
		ResponseKey: "variations",
		Temperature: 0.8,
		MaxTokens:   1500,
		Table:       "post_generations",
	},
	models.ContentTypePostIdeas: {
		Type:        models.ContentTypePostIdeas,
		Shape:       ShapeList,
		ListField:   "ideas",
		ItemPrefix:  "idea",
		MinItems:    5,
		MaxItems:    5,
		ResponseKey: "ideas",
		Temperature: 0.8,
		MaxTokens:   1500,
		Table:       "post_idea_generations",
	},
	models.ContentTypeThreadRewrite: {
		Type:       models.ContentTypeThreadRewrite,
		Shape:      ShapeList,
		ListField:  "rewritten",
		ItemPrefix: "tweet",
		// bounds are set per request from the source thread
		MinItems:    1,
		MaxItems:    maxRewriteTweets,
		ResponseKey: "rewritten",
		Temperature: 0.9,
		MaxTokens:   2500,
		Table:       "thread_generations",
	},
}

// Spec returns the configuration for a content type
func Spec(ct models.ContentType) (*ContentSpec, error) {
	spec, ok := specs[ct]
	if !ok {
		return nil, fmt.Errorf("unsupported content type %q", ct)
	}
	return spec, nil
}

// Tables returns every distinct history table, sorted
func Tables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, spec := range specs {
		if !seen[spec.Table] {
			seen[spec.Table] = true
			out = append(out, spec.Table)
		}
	}
	sort.Strings(out)
	return out
}

// Schema describes what the extractor must produce
type Schema struct {
	Keys       []string
	ListField  string
	ItemPrefix string
	MinItems   int
	MaxItems   int
}

// Schema returns the extraction schema. sourceCount sizes thread rewrites to the
// number of source tweets and is ignored for other types.
func (s *ContentSpec) Schema(sourceCount int) Schema {
	if s.Shape == ShapeKeyed {
		return Schema{Keys: s.Keys, MinItems: len(s.Keys), MaxItems: len(s.Keys)}
	}
	schema := Schema{
		ListField:  s.ListField,
		ItemPrefix: s.ItemPrefix,
		MinItems:   s.MinItems,
		MaxItems:   s.MaxItems,
	}
	if s.Type == models.ContentTypeThreadRewrite && sourceCount > 0 {
		n := min(sourceCount, maxRewriteTweets)
		schema.MinItems, schema.MaxItems = n, n
	}
	return schema
}

// Keyed reports whether the schema has fixed named keys
func (s Schema) Keyed() bool {
	return len(s.Keys) > 0
}

// Expected is the minimum number of values a complete extraction holds
func (s Schema) Expected() int {
	if s.Keyed() {
		return len(s.Keys)
	}
	return s.MinItems
}

// Limit is the maximum number of values kept
func (s Schema) Limit() int {
	if s.Keyed() {
		return len(s.Keys)
	}
	return s.MaxItems
}

// KeyAt names the i-th value
func (s Schema) KeyAt(i int) string {
	if s.Keyed() {
		return s.Keys[i]
	}
	return fmt.Sprintf("%s_%d", s.ItemPrefix, i+1)
}

// ExpectedKeys returns the keys a complete extraction must contain
func (s Schema) ExpectedKeys() []string {
	keys := make([]string, s.Expected())
	for i := range keys {
		keys[i] = s.KeyAt(i)
	}
	return keys
}
