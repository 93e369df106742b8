package llm

import (
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/i2y/chatstream/provider"
)

// Option configures a completion call.
type Option func(*callConfig)

// callConfig holds all configuration for a call.
type callConfig struct {
	providerName  string
	model         string
	temperature   *float64
	topP          *float64
	baseURL       string
	apiKey        string
	stream        bool
	systemMessage string
	messages      []Message
	sink          io.Writer
	logger        *zap.Logger
}

func newCallConfig() *callConfig {
	return &callConfig{
		stream: true,
		sink:   os.Stdout,
		logger: zap.NewNop(),
	}
}

func (c *callConfig) apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// WithProvider sets the provider (e.g., "openai").
func WithProvider(name string) Option {
	return func(c *callConfig) {
		c.providerName = name
	}
}

// WithModel sets the model to use (e.g., "gpt-4o-mini").
func WithModel(name string) Option {
	return func(c *callConfig) {
		c.model = name
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *callConfig) {
		c.temperature = &t
	}
}

// WithTopP sets the nucleus sampling parameter (0.0 to 1.0).
// Tokens are selected from the most to least probable until the sum
// of their probabilities equals this value.
func WithTopP(p float64) Option {
	return func(c *callConfig) {
		c.topP = &p
	}
}

// WithBaseURL sets the server base URL for the request.
func WithBaseURL(url string) Option {
	return func(c *callConfig) {
		c.baseURL = url
	}
}

// WithAPIKey sets the bearer token for the request.
func WithAPIKey(key string) Option {
	return func(c *callConfig) {
		c.apiKey = key
	}
}

// WithStream sets the "stream" flag sent to the server. It defaults to true;
// the decoder expects a streamed response either way.
func WithStream(stream bool) Option {
	return func(c *callConfig) {
		c.stream = stream
	}
}

// WithSystemMessage prepends a system message to the conversation.
func WithSystemMessage(msg string) Option {
	return func(c *callConfig) {
		c.systemMessage = msg
	}
}

// WithMessages appends to the conversation history.
func WithMessages(msgs ...Message) Option {
	return func(c *callConfig) {
		c.messages = append(c.messages, msgs...)
	}
}

// WithSink sets where text increments and the end marker are written.
// Defaults to os.Stdout. A nil writer discards output.
func WithSink(w io.Writer) Option {
	return func(c *callConfig) {
		if w == nil {
			w = io.Discard
		}
		c.sink = w
	}
}

// WithLogger sets the logger used to report skipped stream items.
func WithLogger(logger *zap.Logger) Option {
	return func(c *callConfig) {
		if logger == nil {
			logger = zap.NewNop()
		}
		c.logger = logger
	}
}

// buildRequest creates a provider.CompletionRequest from the config and messages.
func (c *callConfig) buildRequest(messages []Message) *provider.CompletionRequest {
	req := &provider.CompletionRequest{
		BaseURL: c.baseURL,
		APIKey:  c.apiKey,
		Body: provider.CompletionParams{
			Model:       c.model,
			Temperature: c.temperature,
			TopP:        c.topP,
			Stream:      c.stream,
		},
	}

	// Add system message if present
	if c.systemMessage != "" {
		req.Body.Messages = append(req.Body.Messages, SystemMessage(c.systemMessage))
	}

	req.Body.Messages = append(req.Body.Messages, c.messages...)
	req.Body.Messages = append(req.Body.Messages, messages...)

	return req
}
