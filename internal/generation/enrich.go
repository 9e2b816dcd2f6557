package generation

import (
	"context"
	"errors"
	"time"

	"github.com/benvon/sparkreply/internal/logger"
	"github.com/benvon/sparkreply/internal/metrics"
	"github.com/benvon/sparkreply/internal/models"
	"github.com/benvon/sparkreply/internal/services/profile"
	"github.com/benvon/sparkreply/internal/validation"
	"go.uber.org/zap"
)

const (
	// DefaultProfileTimeout bounds the whole enrichment step
	DefaultProfileTimeout = 10 * time.Second

	dmRecentPosts      = 3
	stylePostsPerUser  = 10
	maxPostStyleAuthor = 2
)

// Enricher fetches best-effort target context from the profile provider.
// Provider failures are logged and absorbed.
type Enricher struct {
	provider profile.Provider
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// NewEnricher creates an enricher. A nil provider behaves like profile.Disabled.
func NewEnricher(provider profile.Provider, timeout time.Duration, logger *zap.Logger, m *metrics.Collector) *Enricher {
	if provider == nil {
		provider = profile.Disabled{}
	}
	if timeout <= 0 {
		timeout = DefaultProfileTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{provider: provider, timeout: timeout, logger: logger, metrics: m}
}

// Enrich returns the target context for req and, for thread rewrites, the source
// tweets. The only error it returns is a ValidationError when a rewrite has no
// source text at all.
func (e *Enricher) Enrich(ctx context.Context, req *models.GenerationRequest) (*models.TargetContext, []string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	target := &models.TargetContext{}
	var source []string

	switch req.ContentType {
	case models.ContentTypeDM:
		e.enrichTarget(ctx, req.TargetHandle, target)
	case models.ContentTypeReply:
		e.enrichSubject(ctx, req.TweetURL, target)
	case models.ContentTypeThread, models.ContentTypePostIdeas:
		e.enrichStyle(ctx, req.StyleHandles(1), target)
	case models.ContentTypePost:
		e.enrichStyle(ctx, req.StyleHandles(maxPostStyleAuthor), target)
	case models.ContentTypeThreadRewrite:
		source = e.rewriteSource(ctx, req, target)
		if len(source) == 0 {
			return nil, nil, InvalidField("thread_content", "the thread could not be loaded; paste its content instead")
		}
		if req.RewriteType == "style-mimic" || req.HandleToMimic != "" {
			e.enrichStyle(ctx, req.StyleHandles(1), target)
		}
	}

	if target.Empty() {
		return nil, source, nil
	}
	return target, source, nil
}

func (e *Enricher) enrichTarget(ctx context.Context, handle string, target *models.TargetContext) {
	p, err := e.provider.LookupProfile(ctx, handle)
	if !e.observe("lookup_profile", handle, err) {
		return
	}
	target.Profile = p

	posts, err := e.provider.RecentPosts(ctx, p.ID, dmRecentPosts)
	if !e.observe("recent_posts", handle, err) {
		return
	}
	if len(posts) > dmRecentPosts {
		posts = posts[:dmRecentPosts]
	}
	target.Posts = posts
}

func (e *Enricher) enrichSubject(ctx context.Context, postURL string, target *models.TargetContext) {
	if postURL == "" {
		return
	}
	id, ok := validation.PostIDFromURL(postURL)
	if !ok {
		return
	}
	post, author, err := e.provider.LookupPost(ctx, id)
	if !e.observe("lookup_post", id, err) {
		return
	}
	target.Subject = post
	target.Profile = author
}

func (e *Enricher) enrichStyle(ctx context.Context, handles []string, target *models.TargetContext) {
	if len(handles) == 0 {
		return
	}
	perAuthor := (maxStyleSamples + len(handles) - 1) / len(handles)
	for _, handle := range handles {
		p, err := e.provider.LookupProfile(ctx, handle)
		if !e.observe("lookup_profile", handle, err) {
			if errors.Is(err, profile.ErrProviderUnavailable) {
				return
			}
			continue
		}
		target.StyleAuthors = append(target.StyleAuthors, *p)

		posts, err := e.provider.RecentPosts(ctx, p.ID, stylePostsPerUser)
		if !e.observe("recent_posts", handle, err) {
			continue
		}
		if len(posts) > perAuthor {
			posts = posts[:perAuthor]
		}
		target.StyleSamples = append(target.StyleSamples, posts...)
	}
}

// rewriteSource resolves the tweets to rewrite. A fetched conversation wins when it
// has at least two posts by the thread's author, then pasted content, then the
// single looked-up post.
func (e *Enricher) rewriteSource(ctx context.Context, req *models.GenerationRequest, target *models.TargetContext) []string {
	var root *models.Post
	if req.ThreadURL != "" {
		if id, ok := validation.PostIDFromURL(req.ThreadURL); ok {
			post, author, err := e.provider.LookupPost(ctx, id)
			if e.observe("lookup_post", id, err) {
				root = post
				target.Subject = post
				target.Profile = author
			}
		}
	}

	if root != nil {
		conversationID := root.ConversationID
		if conversationID == "" {
			conversationID = root.ID
		}
		posts, err := e.provider.Conversation(ctx, conversationID)
		if e.observe("conversation", conversationID, err) {
			var texts []string
			for _, p := range posts {
				if root.AuthorID != "" && p.AuthorID != root.AuthorID {
					continue
				}
				texts = append(texts, p.Text)
			}
			if len(texts) >= 2 {
				if len(texts) > maxRewriteTweets {
					texts = texts[:maxRewriteTweets]
				}
				return texts
			}
		}
	}

	if tweets := SplitThread(req.ThreadContent); len(tweets) > 0 {
		return tweets
	}
	if root != nil && root.Text != "" {
		return []string{root.Text}
	}
	return nil
}

// observe records a provider call and reports whether it succeeded
func (e *Enricher) observe(operation, subject string, err error) bool {
	if err == nil {
		e.metrics.RecordProfileLookup(operation, "ok")
		return true
	}

	outcome := "error"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	case errors.Is(err, profile.ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, profile.ErrProviderUnavailable):
		outcome = "unavailable"
	}
	e.metrics.RecordProfileLookup(operation, outcome)
	e.logger.Warn("profile_lookup_failed",
		zap.String("operation", operation),
		zap.String("subject", logger.SanitizeHandle(subject)),
		zap.String("outcome", outcome),
		zap.String("error", logger.SanitizeError(err)),
	)
	return false
}
