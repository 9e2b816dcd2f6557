package generation

import (
	"strings"
	"testing"
	"time"

	"github.com/benvon/sparkreply/internal/models"
	"gopkg.in/yaml.v3"
)

func samplePosts(n int) []models.Post {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	posts := make([]models.Post, n)
	for i := range posts {
		posts[i] = models.Post{
			ID:        string(rune('a' + i)),
			Text:      "post number " + string(rune('A'+i)),
			CreatedAt: base.Add(-time.Duration(i) * time.Hour),
			Likes:     i,
			Hashtags:  []string{"growth"},
			Topics:    []string{"Startups", "Marketing", "SaaS", "Design"},
		}
	}
	return posts
}

func acmeTarget() *models.TargetContext {
	return &models.TargetContext{
		Profile: &models.Profile{ID: "1", Name: "Acme Corp", Username: "acme", Bio: "We build rockets", Followers: 1200},
		Posts:   samplePosts(3),
	}
}

func TestPromptBuilder_DMPrompt(t *testing.T) {
	t.Parallel()

	b := NewPromptBuilder(DefaultTemplates())
	req := &models.GenerationRequest{ContentType: models.ContentTypeDM, TargetHandle: "acme", Goal: "book a demo call"}
	schema := schemaFor(t, models.ContentTypeDM, 0)

	view := b.View(req, acmeTarget(), schema, nil)
	prompt, err := b.Build(view)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for _, want := range []string{
		"@acme",
		"Acme Corp",
		"We build rockets",
		"1200",
		"OBJECTIVE: book a demo call",
		"#growth",
		"Startups, Marketing, SaaS",
		`"professional"`,
		`"witty"`,
		"under 280 characters",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "WRITING STYLE TO MIMIC") {
		t.Error("style section rendered without exemplars")
	}
	if strings.Contains(prompt, "Design") {
		t.Error("only the top 3 topics should be rendered")
	}

	again, _ := b.Build(b.View(req, acmeTarget(), schema, nil))
	if again != prompt {
		t.Error("rendering is not deterministic")
	}
}

func TestPromptBuilder_WithoutContext(t *testing.T) {
	t.Parallel()

	b := NewPromptBuilder(DefaultTemplates())
	req := &models.GenerationRequest{ContentType: models.ContentTypeDM, TargetHandle: "acme", Goal: "say hi"}

	prompt, err := b.Build(b.View(req, nil, schemaFor(t, models.ContentTypeDM, 0), nil))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.Contains(prompt, "@acme") || strings.Contains(prompt, "Recent posts") {
		t.Errorf("unexpected prompt without context:\n%s", prompt)
	}
}

func TestPromptBuilder_StyleSection(t *testing.T) {
	t.Parallel()

	b := NewPromptBuilder(DefaultTemplates())
	req := &models.GenerationRequest{ContentType: models.ContentTypeThread, Topic: "pricing", HandleToMimic: "paulg"}
	target := &models.TargetContext{
		StyleAuthors: []models.Profile{{Name: "Paul", Username: "paulg"}},
		StyleSamples: samplePosts(8),
	}

	view := b.View(req, target, schemaFor(t, models.ContentTypeThread, 0), nil)
	if len(view.StyleSamples) != maxStyleSamples {
		t.Errorf("StyleSamples = %d, want %d", len(view.StyleSamples), maxStyleSamples)
	}
	if view.StyleHandle != "paulg" {
		t.Errorf("StyleHandle = %q", view.StyleHandle)
	}

	prompt, err := b.Build(view)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, want := range []string{"WRITING STYLE TO MIMIC", "@paulg", "Mimic the tone", `"thread": [`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestPromptBuilder_RecentPostsCapped(t *testing.T) {
	t.Parallel()

	b := NewPromptBuilder(DefaultTemplates())
	req := &models.GenerationRequest{ContentType: models.ContentTypeDM, TargetHandle: "acme", Goal: "x"}
	target := &models.TargetContext{Posts: samplePosts(7)}

	view := b.View(req, target, schemaFor(t, models.ContentTypeDM, 0), nil)
	if len(view.RecentPosts) != maxRecentPosts {
		t.Errorf("RecentPosts = %d, want %d", len(view.RecentPosts), maxRecentPosts)
	}
	if view.MostRecent == nil || view.MostRecent.Text != "post number A" {
		t.Errorf("MostRecent = %+v", view.MostRecent)
	}
	// highest likes is the last post, even though it is not rendered in the recent list
	if view.TopPost == nil || view.TopPost.Text != "post number G" {
		t.Errorf("TopPost = %+v", view.TopPost)
	}
}

func TestTopPost_TiesGoToEarlier(t *testing.T) {
	t.Parallel()

	posts := []models.Post{
		{ID: "1", Likes: 5, Reposts: 5},
		{ID: "2", Likes: 10, Reposts: 0},
		{ID: "3", Likes: 1, Reposts: 1},
	}
	if got := TopPost(posts); got.ID != "1" {
		t.Errorf("TopPost() = %s, want 1", got.ID)
	}
}

func TestPromptBuilder_ReplySubject(t *testing.T) {
	t.Parallel()

	b := NewPromptBuilder(DefaultTemplates())
	req := &models.GenerationRequest{ContentType: models.ContentTypeReply, TweetURL: "https://x.com/acme/status/42"}
	target := &models.TargetContext{
		Profile: &models.Profile{Name: "Acme Corp", Username: "acme"},
		Subject: &models.Post{ID: "42", Text: "Shipping beats planning.", Likes: 10, Reposts: 3},
	}

	view := b.View(req, target, schemaFor(t, models.ContentTypeReply, 0), nil)
	if view.Target != nil {
		t.Error("reply view should not treat the author as an outreach target")
	}
	prompt, err := b.Build(view)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, want := range []string{`"Shipping beats planning."`, "10 likes, 3 reposts", "@acme", `"contrarian"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestPromptBuilder_RewriteFallback(t *testing.T) {
	t.Parallel()

	b := NewPromptBuilder(DefaultTemplates())
	source := []string{"🧵 Hook about growth", "Second point", "Final thought"}
	req := &models.GenerationRequest{ContentType: models.ContentTypeThreadRewrite, ThreadContent: "x", RewriteType: "viral"}

	view := b.View(req, nil, schemaFor(t, models.ContentTypeThreadRewrite, len(source)), source)
	if !strings.Contains(view.RewriteInstruction, "GO VIRAL") {
		t.Errorf("RewriteInstruction = %q", view.RewriteInstruction)
	}

	prompt, err := b.Build(view)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !strings.Contains(prompt, "Return exactly 3 tweets") || !strings.Contains(prompt, "2. Second point") {
		t.Errorf("rewrite prompt missing source tweets:\n%s", prompt)
	}

	got := b.Fallback(view)
	want := []string{"🧵 Hook about growth", "2/ Second point", "3/ Final thought"}
	if len(got) != len(want) {
		t.Fatalf("Fallback() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fallback[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDefaultTemplates_FallbacksCoverEveryType(t *testing.T) {
	t.Parallel()

	tmpl := DefaultTemplates()
	b := NewPromptBuilder(tmpl)
	requests := map[models.ContentType]*models.GenerationRequest{
		models.ContentTypeDM:        {TargetHandle: "acme", Goal: "hire a designer"},
		models.ContentTypeReply:     {PostContent: "Remote work is overrated."},
		models.ContentTypeThread:    {Topic: "pricing"},
		models.ContentTypePost:      {Topic: "pricing"},
		models.ContentTypePostIdeas: {WritingStyleHandle: "paulg"},
	}

	for ct, req := range requests {
		req.ContentType = ct
		schema := schemaFor(t, ct, 0)
		view := b.View(req, nil, schema, nil)

		if _, err := b.Build(view); err != nil {
			t.Errorf("%s: Build() error = %v", ct, err)
		}
		fallbacks := b.Fallback(view)
		if len(fallbacks) < schema.Expected() {
			t.Errorf("%s: %d fallbacks, want at least %d", ct, len(fallbacks), schema.Expected())
		}
		for _, f := range fallbacks {
			if strings.TrimSpace(f) == "" || strings.Contains(f, "<no value>") {
				t.Errorf("%s: bad fallback %q", ct, f)
			}
		}
	}
}

func mutatedTemplates(t *testing.T, mutate func(doc *templateDocument)) []byte {
	t.Helper()
	var doc templateDocument
	if err := yaml.Unmarshal(defaultTemplates, &doc); err != nil {
		t.Fatalf("failed to parse embedded templates: %v", err)
	}
	mutate(&doc)
	data, err := yaml.Marshal(&doc)
	if err != nil {
		t.Fatalf("failed to marshal templates: %v", err)
	}
	return data
}

func TestParseTemplates_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  func(t *testing.T) []byte
	}{
		{
			name: "invalid yaml",
			doc:  func(*testing.T) []byte { return []byte("content_types: [") },
		},
		{
			name: "missing content type",
			doc: func(t *testing.T) []byte {
				return mutatedTemplates(t, func(doc *templateDocument) { delete(doc.ContentTypes, "reply") })
			},
		},
		{
			name: "bad template syntax",
			doc: func(t *testing.T) []byte {
				return mutatedTemplates(t, func(doc *templateDocument) {
					dm := doc.ContentTypes["dm"]
					dm.Prompt = "OBJECTIVE: {{.Request.Goal"
					doc.ContentTypes["dm"] = dm
				})
			},
		},
		{
			name: "too few fallbacks",
			doc: func(t *testing.T) []byte {
				return mutatedTemplates(t, func(doc *templateDocument) {
					post := doc.ContentTypes["post"]
					post.Fallback = post.Fallback[:1]
					doc.ContentTypes["post"] = post
				})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := ParseTemplates(tt.doc(t)); err == nil {
				t.Error("ParseTemplates() expected error")
			}
		})
	}
}

func TestParseTemplates_RoundTrip(t *testing.T) {
	t.Parallel()

	data := mutatedTemplates(t, func(doc *templateDocument) {
		dm := doc.ContentTypes["dm"]
		dm.Prompt = "Write to @{{.Handle}} about {{.Request.Goal}}"
		doc.ContentTypes["dm"] = dm
	})
	tmpl, err := ParseTemplates(data)
	if err != nil {
		t.Fatalf("ParseTemplates() error = %v", err)
	}

	b := NewPromptBuilder(tmpl)
	req := &models.GenerationRequest{ContentType: models.ContentTypeDM, TargetHandle: "acme", Goal: "lunch"}
	got, err := b.Build(b.View(req, nil, schemaFor(t, models.ContentTypeDM, 0), nil))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got != "Write to @acme about lunch" {
		t.Errorf("Build() = %q", got)
	}
}

func TestSplitThread(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "blank lines", in: "First tweet\n\nSecond tweet\n\n\nThird", want: []string{"First tweet", "Second tweet", "Third"}},
		{name: "slash numbering", in: "1/ First\n\n2/ Second\n3/ Third", want: []string{"First", "Second", "Third"}},
		{name: "fraction numbering", in: "1/3 First 2/3 Second 3/3 Third", want: []string{"First", "Second", "Third"}},
		{name: "dot numbering", in: "1. First point\n2. Second point", want: []string{"First point", "Second point"}},
		{name: "tweet labels", in: "Tweet 1: Hello\nTweet 2: World", want: []string{"Hello", "World"}},
		{name: "empty", in: "   ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := SplitThread(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitThread() = %q, want %q", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("tweet %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitThread_Cap(t *testing.T) {
	t.Parallel()

	parts := make([]string, 40)
	for i := range parts {
		parts[i] = "tweet body"
	}
	if got := SplitThread(strings.Join(parts, "\n\n")); len(got) != maxRewriteTweets {
		t.Errorf("got %d tweets, want %d", len(got), maxRewriteTweets)
	}
}
