package generation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/benvon/sparkreply/internal/models"
)

const (
	maxRecentPosts  = 5
	maxStyleSamples = 5
	maxTopics       = 3
	maxSharedLinks  = 2
)

// PostView is a post as shown to the prompt templates
type PostView struct {
	Text    string
	Likes   int
	Reposts int
	Date    string
}

// PromptView is the data every prompt and fallback template receives
type PromptView struct {
	Request models.GenerationRequest

	// Handle is the target handle without the @
	Handle string
	Target *models.Profile

	// Subject is the post being replied to; SubjectText falls back to the pasted content
	Subject       *PostView
	SubjectAuthor *models.Profile
	SubjectText   string

	RecentPosts []PostView
	MostRecent  *PostView
	TopPost     *PostView
	Hashtags    []string
	Topics      []string
	SharedLinks []string

	StyleHandle  string
	StyleAuthors []models.Profile
	StyleSamples []PostView

	SourceTweets       []string
	RewriteInstruction string

	Contract string
	MaxChars int
}

// PromptBuilder turns a request and its target context into prompt text
type PromptBuilder struct {
	templates *Templates
}

// NewPromptBuilder creates a builder over the given templates
func NewPromptBuilder(templates *Templates) *PromptBuilder {
	return &PromptBuilder{templates: templates}
}

// View assembles the template data. It is pure: the same inputs always give the same view.
func (b *PromptBuilder) View(req *models.GenerationRequest, target *models.TargetContext, schema Schema, sourceTweets []string) *PromptView {
	view := &PromptView{
		Request:      *req,
		Handle:       req.TargetHandle,
		SubjectText:  req.PostContent,
		SourceTweets: sourceTweets,
		Contract:     Contract(schema),
		MaxChars:     MaxCharacters,
	}
	if view.SubjectText == "" {
		view.SubjectText = req.TweetURL
	}
	if handles := req.StyleHandles(2); len(handles) > 0 {
		view.StyleHandle = handles[0]
	}
	if req.RewriteType != "" {
		view.RewriteInstruction = b.templates.RewriteInstruction(req.RewriteType)
	}
	if target == nil {
		return view
	}

	view.Target = target.Profile
	if target.Profile != nil && view.Handle == "" {
		view.Handle = target.Profile.Username
	}

	if target.Subject != nil {
		pv := toPostView(*target.Subject)
		view.Subject = &pv
		view.SubjectText = target.Subject.Text
		view.SubjectAuthor = target.Profile
		if req.ContentType == models.ContentTypeReply {
			// for replies the profile is the post's author, not an outreach target
			view.Target = nil
		}
	}

	analysed := target.Posts
	if target.Subject != nil && len(analysed) == 0 {
		analysed = []models.Post{*target.Subject}
	}
	summarise(view, analysed)
	if len(target.Posts) > maxRecentPosts {
		view.RecentPosts = view.RecentPosts[:maxRecentPosts]
	}

	view.StyleAuthors = target.StyleAuthors
	for i, p := range target.StyleSamples {
		if i == maxStyleSamples {
			break
		}
		view.StyleSamples = append(view.StyleSamples, toPostView(p))
	}
	return view
}

// Build renders the prompt for the request
func (b *PromptBuilder) Build(view *PromptView) (string, error) {
	return b.templates.RenderPrompt(view.Request.ContentType, view)
}

// Fallback renders the templated fallback values for the request
func (b *PromptBuilder) Fallback(view *PromptView) []string {
	return b.templates.RenderFallback(view.Request.ContentType, view)
}

func summarise(view *PromptView, posts []models.Post) {
	if len(posts) == 0 {
		return
	}
	for _, p := range posts {
		view.RecentPosts = append(view.RecentPosts, toPostView(p))
	}
	recent := toPostView(posts[0])
	view.MostRecent = &recent
	top := toPostView(TopPost(posts))
	view.TopPost = &top

	var topics []string
	for _, p := range posts {
		view.Hashtags = appendUnique(view.Hashtags, p.Hashtags...)
		topics = appendUnique(topics, p.Topics...)
		view.SharedLinks = appendUnique(view.SharedLinks, p.LinkTitles...)
	}
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}
	view.Topics = topics
	if len(view.SharedLinks) > maxSharedLinks {
		view.SharedLinks = view.SharedLinks[:maxSharedLinks]
	}
}

// TopPost returns the post with the highest likes plus reposts. Ties go to the earlier entry.
func TopPost(posts []models.Post) models.Post {
	ranked := make([]models.Post, len(posts))
	copy(ranked, posts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Engagement() > ranked[j].Engagement()
	})
	return ranked[0]
}

// Contract renders the JSON shape the model must return
func Contract(schema Schema) string {
	var b strings.Builder
	b.WriteString("{\n")
	if schema.Keyed() {
		for i, key := range schema.Keys {
			fmt.Fprintf(&b, "  %q: \"your %s text here\"", key, key)
			if i < len(schema.Keys)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
	} else {
		n := schema.MinItems
		if n > 3 {
			n = 3
		}
		fmt.Fprintf(&b, "  %q: [\n", schema.ListField)
		for i := 0; i < n; i++ {
			fmt.Fprintf(&b, "    \"%s %d text here\"", schema.ItemPrefix, i+1)
			b.WriteString(",\n")
		}
		b.WriteString("    \"...\"\n  ]\n")
	}
	b.WriteString("}")
	return b.String()
}

func toPostView(p models.Post) PostView {
	pv := PostView{Text: p.Text, Likes: p.Likes, Reposts: p.Reposts}
	if !p.CreatedAt.IsZero() {
		pv.Date = p.CreatedAt.UTC().Format("2006-01-02")
	}
	return pv
}

func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, existing := range list {
			if existing == v {
				found = true
				break
			}
		}
		if !found && v != "" {
			list = append(list, v)
		}
	}
	return list
}
