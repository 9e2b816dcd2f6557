package completion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/sparkreply/internal/logger"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultModel is used when no model is configured
	DefaultModel = "meta-llama/llama-3.2-3b-instruct:free"
	// DefaultBaseURL points at OpenRouter's OpenAI-compatible API
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 45 * time.Second
	// appTitle is sent to OpenRouter alongside the referer
	appTitle = "SparkReply"
)

// OpenAIProvider calls any OpenAI-compatible chat completions API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// ProviderOption customises an OpenAIProvider
type ProviderOption func(*providerOptions)

type providerOptions struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// WithHTTPClient overrides the HTTP client (tests point it at httptest servers)
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(o *providerOptions) { o.httpClient = c }
}

// WithLogger enables request/response logging
func WithLogger(l *zap.Logger) ProviderOption {
	return func(o *providerOptions) { o.logger = l }
}

// NewOpenAIProvider creates a provider. It fails with ErrNotConfigured when no API key is set.
func NewOpenAIProvider(settings Settings, opts ...ProviderOption) (*OpenAIProvider, error) {
	if settings.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if settings.Model == "" {
		settings.Model = DefaultModel
	}
	if settings.BaseURL == "" {
		settings.BaseURL = DefaultBaseURL
	}
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	o := &providerOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: settings.Timeout}
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(settings.APIKey),
		option.WithBaseURL(settings.BaseURL),
		option.WithHTTPClient(o.httpClient),
		// a failed completion is terminal for the request
		option.WithMaxRetries(0),
	}
	if settings.Referer != "" {
		clientOpts = append(clientOpts,
			option.WithHeader("HTTP-Referer", settings.Referer),
			option.WithHeader("X-Title", appTitle),
		)
	}

	return &OpenAIProvider{
		client:    openai.NewClient(clientOpts...),
		model:     settings.Model,
		logger:    o.logger,
		debugMode: settings.DebugMode,
	}, nil
}

// Name returns the configured model
func (p *OpenAIProvider) Name() string {
	return "openai:" + p.model
}

// Complete sends one user message and returns the first choice's content
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", req.Operation),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(req.Prompt)),
			zap.Float64("temperature", req.Temperature),
			zap.Int64("max_tokens", req.MaxTokens),
			zap.String("prompt_preview", logger.Preview(req.Prompt)),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start)
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("llm_api_error",
				zap.String("operation", req.Operation),
				zap.String("model", p.model),
				zap.String("error", logger.SanitizeError(err)),
				zap.Duration("latency", latency),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to complete %s: %w", req.Operation, apiErr)
		}
		return nil, fmt.Errorf("failed to complete %s: %w", req.Operation, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("failed to complete %s: %w", req.Operation, ErrEmptyCompletion)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("failed to complete %s: %w", req.Operation, ErrEmptyCompletion)
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", req.Operation),
			zap.String("model", resp.Model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", logger.Preview(content)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return &Response{
		Content:          content,
		Model:            resp.Model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		Latency:          latency,
	}, nil
}
