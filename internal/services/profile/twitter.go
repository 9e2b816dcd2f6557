package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/sparkreply/internal/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the X API host
	DefaultBaseURL = "https://api.twitter.com"
	// DefaultTimeout bounds each lookup
	DefaultTimeout = 10 * time.Second

	userFields  = "description,public_metrics"
	tweetFields = "created_at,public_metrics,entities,context_annotations,conversation_id,author_id"
	// the timeline endpoint rejects max_results below 5
	minTimelineResults = 5
	maxTimelineResults = 100
)

// TwitterClient is a read-only X API v2 client authenticated with an app bearer token
type TwitterClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

// NewTwitterClient returns a client, or Disabled when token is empty.
func NewTwitterClient(token, baseURL string, timeout time.Duration, logger *zap.Logger) Provider {
	if token == "" {
		return Disabled{}
	}
	return newTwitterClient(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}), baseURL, timeout, nil, logger)
}

func newTwitterClient(ts oauth2.TokenSource, baseURL string, timeout time.Duration, base http.RoundTripper, logger *zap.Logger) *TwitterClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TwitterClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		// per-call deadlines come from the request context; oauth2.Transport cannot
		// honour http.Client.Timeout cancellation
		httpClient: &http.Client{
			Transport: &oauth2.Transport{Source: ts, Base: base},
		},
		timeout: timeout,
		logger:  logger,
	}
}

type apiUser struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	Description   string `json:"description"`
	PublicMetrics struct {
		FollowersCount int `json:"followers_count"`
		FollowingCount int `json:"following_count"`
		TweetCount     int `json:"tweet_count"`
	} `json:"public_metrics"`
}

type apiTweet struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	AuthorID       string    `json:"author_id"`
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
	PublicMetrics  struct {
		LikeCount    int `json:"like_count"`
		RetweetCount int `json:"retweet_count"`
		ReplyCount   int `json:"reply_count"`
	} `json:"public_metrics"`
	Entities struct {
		Hashtags []struct {
			Tag string `json:"tag"`
		} `json:"hashtags"`
		Mentions []struct {
			Username string `json:"username"`
		} `json:"mentions"`
		URLs []struct {
			Title string `json:"title"`
		} `json:"urls"`
	} `json:"entities"`
	ContextAnnotations []struct {
		Domain struct {
			Name string `json:"name"`
		} `json:"domain"`
		Entity struct {
			Name string `json:"name"`
		} `json:"entity"`
	} `json:"context_annotations"`
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}

func (u apiUser) toModel() *models.Profile {
	return &models.Profile{
		ID:        u.ID,
		Name:      u.Name,
		Username:  u.Username,
		Bio:       u.Description,
		Followers: u.PublicMetrics.FollowersCount,
		Following: u.PublicMetrics.FollowingCount,
		PostCount: u.PublicMetrics.TweetCount,
	}
}

func (t apiTweet) toModel() models.Post {
	p := models.Post{
		ID:             t.ID,
		AuthorID:       t.AuthorID,
		ConversationID: t.ConversationID,
		Text:           t.Text,
		CreatedAt:      t.CreatedAt,
		Likes:          t.PublicMetrics.LikeCount,
		Reposts:        t.PublicMetrics.RetweetCount,
		Replies:        t.PublicMetrics.ReplyCount,
	}
	for _, h := range t.Entities.Hashtags {
		p.Hashtags = appendUnique(p.Hashtags, h.Tag)
	}
	for _, m := range t.Entities.Mentions {
		p.Mentions = appendUnique(p.Mentions, m.Username)
	}
	for _, u := range t.Entities.URLs {
		if u.Title != "" {
			p.LinkTitles = appendUnique(p.LinkTitles, u.Title)
		}
	}
	for _, ca := range t.ContextAnnotations {
		p.Topics = appendUnique(p.Topics, ca.Domain.Name)
		p.Topics = appendUnique(p.Topics, ca.Entity.Name)
	}
	return p
}

// LookupProfile fetches a user by handle
func (c *TwitterClient) LookupProfile(ctx context.Context, handle string) (*models.Profile, error) {
	var out struct {
		Data   *apiUser   `json:"data"`
		Errors []apiError `json:"errors"`
	}
	path := "/2/users/by/username/" + url.PathEscape(handle)
	if err := c.get(ctx, path, url.Values{"user.fields": {userFields}}, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, fmt.Errorf("user %q: %w", handle, ErrNotFound)
	}
	return out.Data.toModel(), nil
}

// RecentPosts returns the user's latest original posts (no replies or reposts), newest first
func (c *TwitterClient) RecentPosts(ctx context.Context, profileID string, limit int) ([]models.Post, error) {
	maxResults := limit
	if maxResults < minTimelineResults {
		maxResults = minTimelineResults
	}
	if maxResults > maxTimelineResults {
		maxResults = maxTimelineResults
	}

	var out struct {
		Data []apiTweet `json:"data"`
	}
	query := url.Values{
		"max_results":  {strconv.Itoa(maxResults)},
		"exclude":      {"replies,retweets"},
		"tweet.fields": {tweetFields},
	}
	if err := c.get(ctx, "/2/users/"+url.PathEscape(profileID)+"/tweets", query, &out); err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(out.Data))
	for _, t := range out.Data {
		posts = append(posts, t.toModel())
	}
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// LookupPost fetches a single post and its author
func (c *TwitterClient) LookupPost(ctx context.Context, postID string) (*models.Post, *models.Profile, error) {
	var out struct {
		Data     *apiTweet `json:"data"`
		Includes struct {
			Users []apiUser `json:"users"`
		} `json:"includes"`
	}
	query := url.Values{
		"expansions":   {"author_id"},
		"tweet.fields": {tweetFields},
		"user.fields":  {userFields},
	}
	if err := c.get(ctx, "/2/tweets/"+url.PathEscape(postID), query, &out); err != nil {
		return nil, nil, err
	}
	if out.Data == nil {
		return nil, nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}

	post := out.Data.toModel()
	var author *models.Profile
	for _, u := range out.Includes.Users {
		if u.ID == post.AuthorID {
			author = u.toModel()
			break
		}
	}
	return &post, author, nil
}

// Conversation searches recent posts in a conversation. Recent search only covers
// the last seven days, so older threads come back empty.
func (c *TwitterClient) Conversation(ctx context.Context, conversationID string) ([]models.Post, error) {
	var out struct {
		Data []apiTweet `json:"data"`
	}
	query := url.Values{
		"query":        {"conversation_id:" + conversationID},
		"max_results":  {strconv.Itoa(maxTimelineResults)},
		"tweet.fields": {tweetFields},
	}
	if err := c.get(ctx, "/2/tweets/search/recent", query, &out); err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(out.Data))
	for _, t := range out.Data {
		posts = append(posts, t.toModel())
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.Before(posts[j].CreatedAt)
	})
	return posts, nil
}

func (c *TwitterClient) get(ctx context.Context, path string, query url.Values, dest any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", ErrProviderUnavailable, err)
	}

	c.logger.Debug("profile_api_response",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	case resp.StatusCode >= 300:
		return fmt.Errorf("%w: %s returned status %d", ErrProviderUnavailable, path, resp.StatusCode)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", ErrProviderUnavailable, err)
	}
	return nil
}

func appendUnique(list []string, value string) []string {
	if value == "" {
		return list
	}
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}
