package completion

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotConfigured is returned when no completion API key is configured
	ErrNotConfigured = errors.New("completion provider not configured")
	// ErrEmptyCompletion is returned when the provider answers without text
	ErrEmptyCompletion = errors.New("completion provider returned no content")
)

// Request is a single-prompt chat completion request
type Request struct {
	// Operation labels the call in logs (dm, reply, thread, ...)
	Operation   string
	Prompt      string
	Temperature float64
	MaxTokens   int64
}

// Response is the text returned by the provider
type Response struct {
	Content          string
	Model            string
	PromptTokens     int64
	CompletionTokens int64
	Latency          time.Duration
}

// Provider is a hosted LLM chat-completion endpoint
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Name() string
}

// Settings configures a provider built by the registry
type Settings struct {
	APIKey    string
	BaseURL   string
	Model     string
	Referer   string
	Timeout   time.Duration
	DebugMode bool
}

// ProviderFactory creates a provider from settings
type ProviderFactory func(settings Settings, opts ...ProviderOption) (Provider, error)

// ProviderRegistry stores available providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a registry with the OpenAI-compatible providers registered
func NewProviderRegistry() *ProviderRegistry {
	r := &ProviderRegistry{providers: make(map[string]ProviderFactory)}
	factory := func(settings Settings, opts ...ProviderOption) (Provider, error) {
		return NewOpenAIProvider(settings, opts...)
	}
	r.Register("openai", factory)
	r.Register("openrouter", factory)
	return r
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, settings Settings, opts ...ProviderOption) (Provider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}
	return factory(settings, opts...)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "completion provider not found: " + e.Name
}

// Disabled is used when COMPLETION_API_KEY is absent. Every call fails with ErrNotConfigured.
type Disabled struct{}

// Complete always fails
func (Disabled) Complete(context.Context, Request) (*Response, error) {
	return nil, ErrNotConfigured
}

// Name returns "disabled"
func (Disabled) Name() string { return "disabled" }
