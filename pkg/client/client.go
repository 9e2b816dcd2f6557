// Package client is a typed Go client for the SparkReply HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	// DefaultHistoryLimit is used when ListHistory or ListSaved is called with limit <= 0
	DefaultHistoryLimit = 10
	// MaxHistoryLimit is the server-side cap on list sizes
	MaxHistoryLimit = 50

	defaultTimeout = 90 * time.Second
	maxBodyBytes   = 4 << 20
)

// Client calls the SparkReply API on behalf of one user
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	tokenSource oauth2.TokenSource
	timeout     time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithTimeout bounds each call, applied as a context deadline. The default is 90s;
// zero leaves calls bounded only by the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient sets the underlying HTTP client. A non-zero hc.Timeout replaces the
// per-call timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenSource attaches a bearer token from ts to every request
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.tokenSource = ts
	}
}

// WithToken attaches a fixed bearer token to every request
func WithToken(token string) Option {
	return WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
}

// New creates a client for the API rooted at baseURL (for example https://api.example.com).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http or https, got %q", baseURL)
	}

	c := &Client{baseURL: u, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	base := c.httpClient
	if base == nil {
		base = &http.Client{}
	}
	if base.Timeout > 0 {
		c.timeout = base.Timeout
	}
	// deadlines travel on the request context; oauth2.Transport cannot cancel
	// requests on http.Client.Timeout
	c.httpClient = &http.Client{
		Transport:     base.Transport,
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
	}
	if c.tokenSource != nil {
		c.httpClient.Transport = &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, c.tokenSource),
			Base:   base.Transport,
		}
	}
	return c, nil
}

// Me returns the identity the server resolved from the credential
func (c *Client) Me(ctx context.Context) (*Identity, error) {
	var identity Identity
	if err := c.do(ctx, http.MethodGet, "/api/v1/me", nil, nil, &identity, false); err != nil {
		return nil, err
	}
	return &identity, nil
}

// GenerateDM writes four DM openers for req.TargetHandle
func (c *Client) GenerateDM(ctx context.Context, req GenerationRequest) (*Result, error) {
	return c.generate(ctx, ContentTypeDM, req)
}

// GenerateReply writes four replies to a post
func (c *Client) GenerateReply(ctx context.Context, req GenerationRequest) (*Result, error) {
	return c.generate(ctx, ContentTypeReply, req)
}

// GenerateThread writes a thread on req.Topic
func (c *Client) GenerateThread(ctx context.Context, req GenerationRequest) (*Result, error) {
	return c.generate(ctx, ContentTypeThread, req)
}

// GeneratePost writes standalone post variations
func (c *Client) GeneratePost(ctx context.Context, req GenerationRequest) (*Result, error) {
	return c.generate(ctx, ContentTypePost, req)
}

// GeneratePostIdeas suggests post ideas in the voice of a style handle
func (c *Client) GeneratePostIdeas(ctx context.Context, req GenerationRequest) (*Result, error) {
	return c.generate(ctx, ContentTypePostIdeas, req)
}

// RewriteThread rewrites an existing thread in the requested style
func (c *Client) RewriteThread(ctx context.Context, req GenerationRequest) (*Result, error) {
	return c.generate(ctx, ContentTypeThreadRewrite, req)
}

func (c *Client) generate(ctx context.Context, ct ContentType, req GenerationRequest) (*Result, error) {
	if err := Validate(ct, req); err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/v1/generate/"+ct.Slug(), nil, req, &raw, true); err != nil {
		return nil, err
	}
	result, err := decodeResult(raw)
	if err != nil {
		return nil, &Error{Kind: KindGenerationFailed, Message: "malformed generation response", Err: err}
	}
	return result, nil
}

// ListHistory returns the caller's generations, newest first. An empty ct lists every type.
func (c *Client) ListHistory(ctx context.Context, ct ContentType, limit int) ([]*Generation, error) {
	var items []*Generation
	if err := c.do(ctx, http.MethodGet, "/api/v1/history", listQuery(ct, limit), nil, &items, false); err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteHistory removes one generation
func (c *Client) DeleteHistory(ctx context.Context, ct ContentType, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/history/"+ct.Slug()+"/"+id.String(), nil, nil, nil, false)
}

// ListSaved returns saved items, newest first
func (c *Client) ListSaved(ctx context.Context, ct ContentType, limit int) ([]*SavedContent, error) {
	var items []*SavedContent
	if err := c.do(ctx, http.MethodGet, "/api/v1/saved", listQuery(ct, limit), nil, &items, false); err != nil {
		return nil, err
	}
	return items, nil
}

// SaveContent stores a new item
func (c *Client) SaveContent(ctx context.Context, req SaveContentRequest) (*SavedContent, error) {
	var item SavedContent
	if err := c.do(ctx, http.MethodPost, "/api/v1/saved", nil, req, &item, false); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateSaved patches a saved item
func (c *Client) UpdateSaved(ctx context.Context, id uuid.UUID, patch SavedContentPatch) (*SavedContent, error) {
	var item SavedContent
	if err := c.do(ctx, http.MethodPatch, "/api/v1/saved/"+id.String(), nil, patch, &item, false); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteSaved removes a saved item
func (c *Client) DeleteSaved(ctx context.Context, id uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/saved/"+id.String(), nil, nil, nil, false)
}

// GetSettings returns the caller's settings
func (c *Client) GetSettings(ctx context.Context) (*UserSettings, error) {
	var settings UserSettings
	if err := c.do(ctx, http.MethodGet, "/api/v1/settings", nil, nil, &settings, false); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings replaces the caller's settings
func (c *Client) UpdateSettings(ctx context.Context, update SettingsUpdate) (*UserSettings, error) {
	if update.XHandle != "" {
		if err := ValidateHandle(update.XHandle); err != nil {
			return nil, err
		}
	}
	var settings UserSettings
	if err := c.do(ctx, http.MethodPut, "/api/v1/settings", nil, update, &settings, false); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Stats returns the dashboard summary
func (c *Client) Stats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	if err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, nil, &stats, false); err != nil {
		return nil, err
	}
	return &stats, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details map[string]any  `json:"details"`
}

// do sends one request and decodes the envelope's data into out when out is non-nil
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, generate bool) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindUnknown, Message: "failed to encode request", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return &Error{Kind: KindUnknown, Message: "failed to create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return &Error{Kind: KindUnauthorized, Message: "failed to obtain a token", Err: err}
		}
		return &Error{
			Kind:    transportKind(generate),
			Message: fmt.Sprintf("failed to call %s %s", method, path),
			Err:     err,
		}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{Kind: transportKind(generate), Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &Error{Kind: classify(resp.StatusCode, generate), Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: "failed to decode response", Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		return &Error{
			Kind:    classify(resp.StatusCode, generate),
			Status:  resp.StatusCode,
			Code:    env.Error,
			Message: env.Message,
			Details: env.Details,
		}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: "failed to decode response data", Err: err}
	}
	return nil
}

func listQuery(ct ContentType, limit int) url.Values {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	q := url.Values{"limit": {strconv.Itoa(min(limit, MaxHistoryLimit))}}
	if ct != "" {
		q.Set("type", ct.Slug())
	}
	return q
}

// responseKeys maps each content type to the field its variants are rendered under
var responseKeys = map[ContentType]string{
	ContentTypeDM:            "dms",
	ContentTypeReply:         "replies",
	ContentTypeThread:        "thread",
	ContentTypePost:          "variations",
	ContentTypePostIdeas:     "ideas",
	ContentTypeThreadRewrite: "rewritten",
}

func decodeResult(data json.RawMessage) (*Result, error) {
	var head struct {
		ID             uuid.UUID   `json:"id"`
		ContentType    ContentType `json:"content_type"`
		Input          Metadata    `json:"input"`
		ExtractionTier string      `json:"extraction_tier"`
		CreatedAt      time.Time   `json:"created_at"`
		Target         *Target     `json:"target"`
		Original       []string    `json:"original"`
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}

	result := &Result{
		ID:             head.ID,
		ContentType:    head.ContentType,
		Input:          head.Input,
		ExtractionTier: head.ExtractionTier,
		CreatedAt:      head.CreatedAt,
		Target:         head.Target,
		Original:       head.Original,
	}

	key, ok := responseKeys[head.ContentType]
	if !ok {
		return nil, fmt.Errorf("unexpected content type %q in response", head.ContentType)
	}
	variants, ok := fields[key]
	if !ok {
		return nil, fmt.Errorf("response is missing %q", key)
	}
	if bytes.HasPrefix(bytes.TrimSpace(variants), []byte("{")) {
		if err := json.Unmarshal(variants, &result.Variants); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", key, err)
		}
		return result, nil
	}
	if err := json.Unmarshal(variants, &result.Texts); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return result, nil
}
