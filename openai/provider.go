// Package openai implements the streaming chat completions protocol spoken by
// OpenAI and compatible servers.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/i2y/chatstream/provider"
)

func init() {
	provider.Register("openai", func() (provider.StreamingProvider, error) {
		return New()
	})
}

var _ provider.StreamingProvider = (*Provider)(nil)

// Provider implements provider.StreamingProvider.
type Provider struct {
	client *client
}

// Option configures the OpenAI provider.
type Option func(*providerConfig)

type providerConfig struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	readTimeout time.Duration
	logger      *zap.Logger
}

// WithAPIKey sets the default API key. Requests carrying their own key use it instead.
func WithAPIKey(key string) Option {
	return func(c *providerConfig) {
		c.apiKey = key
	}
}

// WithBaseURL sets the default base URL, without the /v1/chat/completions path.
func WithBaseURL(url string) Option {
	return func(c *providerConfig) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *providerConfig) {
		c.httpClient = client
	}
}

// WithReadTimeout sets how long to wait for response bytes before the
// request is cancelled. Zero disables the timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(c *providerConfig) {
		c.readTimeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *providerConfig) {
		c.logger = logger
	}
}

// New creates a new OpenAI provider.
func New(opts ...Option) (*Provider, error) {
	cfg := &providerConfig{readTimeout: DefaultReadTimeout}
	for _, opt := range opts {
		opt(cfg)
	}

	// Fall back to environment variable
	if cfg.apiKey == "" {
		cfg.apiKey = os.Getenv("OPENAI_API_KEY")
	}

	if cfg.readTimeout < 0 {
		return nil, fmt.Errorf("read timeout must be non-negative, got %s", cfg.readTimeout)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	return &Provider{client: newClient(cfg)}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return "openai"
}

// CallStream implements provider.StreamingProvider.
func (p *Provider) CallStream(ctx context.Context, req *provider.CompletionRequest) (provider.ResponseStream, error) {
	stream, err := p.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

// Stream is CallStream returning the concrete stream type.
func (p *Provider) Stream(ctx context.Context, req *provider.CompletionRequest) (*ChunkStream, error) {
	if req == nil {
		return nil, errors.New("completion request is nil")
	}
	if err := req.Body.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return p.client.chatCompletionStream(ctx, req)
}
